package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Renderer sobre un io.Writer.
type Console struct {
	out    io.Writer
	advice bool
}

// NewConsole crea un renderer que escribe a stdout.
func NewConsole(advice bool) *Console {
	return &Console{out: os.Stdout, advice: advice}
}

// NewConsoleWriter crea un renderer para tests, con recomendaciones.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, advice: true}
}

// Render imprime el banner del tier, el breakdown de costos y las recomendaciones.
func (c *Console) Render(_ context.Context, res domain.Result) error {
	tier := res.Tier()
	a := tier.Advice()

	fmt.Fprintf(c.out, "\n%s %s: %s/order (%s)\n",
		tier.Icon(), a.Title, domain.FormatCurrency(res.ProfitPerOrder), domain.Percent(res.ProfitPercentage))
	fmt.Fprintf(c.out, "  %s\n\n", a.Description)

	c.printBreakdown(res)

	fmt.Fprintf(c.out, "  Margin on cost: %s\n", domain.Percent(res.ProfitMargin))

	if c.advice {
		fmt.Fprintf(c.out, "\n  %s:\n", a.Heading)
		for _, r := range a.Recommendations {
			fmt.Fprintf(c.out, "   - %s\n", r)
		}
	}
	fmt.Fprintln(c.out)
	return nil
}

// printBreakdown imprime la tabla de costos con su peso sobre el costo total.
func (c *Console) printBreakdown(res domain.Result) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Item", "Amount", "Share")

	table.Append("Cost price", domain.FormatCurrency(res.CostPrice), domain.Percent(res.CostPercentage))
	table.Append(
		fmt.Sprintf("Platform fee (%s)", domain.Percent(res.PlatformFeePercent)),
		domain.FormatCurrency(res.PlatformFee),
		domain.Percent(res.PlatformPercentage),
	)
	table.Append("Shipping", domain.FormatCurrency(res.ShippingFee), domain.Percent(res.ShippingPercentage))
	table.Append("Ads", domain.FormatCurrency(res.AdsCost), domain.Percent(res.AdsPercentage))
	table.Append("Total cost", domain.FormatCurrency(res.TotalCost), "")
	table.Append("Selling price", domain.FormatCurrency(res.SellingPrice), "")
	table.Append("Profit", domain.FormatCurrency(res.ProfitPerOrder), domain.Percent(res.ProfitPercentage))

	table.Render()
}

// PrintSuggestion imprime el precio sugerido para un objetivo de ganancia.
func (c *Console) PrintSuggestion(price, target float64) {
	fmt.Fprintf(c.out, "\nSuggested price for %s profit: %s\n",
		domain.Percent(target), domain.FormatCurrency(price))
}

// PrintHistory imprime el historial guardado, el más nuevo primero.
func (c *Console) PrintHistory(history []domain.SavedCalculation) {
	if len(history) == 0 {
		fmt.Fprintln(c.out, "\n  No saved calculations.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Saved", "Tier", "Price", "Profit", "Profit %", "Note")
	for i, h := range history {
		table.Append(
			fmt.Sprintf("%d", i+1),
			h.SavedAt.Local().Format("2006-01-02 15:04"),
			h.Tier().Icon(),
			domain.FormatCurrency(h.SellingPrice),
			domain.FormatCurrency(h.ProfitPerOrder),
			domain.Percent(h.ProfitPercentage),
			truncate(h.Note, 30),
		)
	}
	table.Render()
}

// Notice imprime un aviso no fatal (p. ej. no se pudo guardar).
func (c *Console) Notice(format string, args ...any) {
	fmt.Fprintf(c.out, "[%s] %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// ShareText arma el texto para compartir un resultado.
func ShareText(res domain.Result, url string) string {
	text := fmt.Sprintf("I just calculated my selling profit with ProfitCalc: %s profit per order!",
		domain.Percent(res.ProfitPercentage))
	if url = strings.TrimSpace(url); url != "" {
		text += " " + url
	}
	return text
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
