package domain

// ProfitTier clasifica un resultado según su profitPercentage.
// El orden de las constantes es el orden de severidad: CriticalLoss es la peor.
type ProfitTier int

const (
	TierCriticalLoss    ProfitTier = iota // < 0: vendiendo bajo costo
	TierBreakeven                         // = 0
	TierLowProfit                         // (0, 10)
	TierStableProfit                      // [10, 20)
	TierHighProfit                        // [20, 30)
	TierSuperHighProfit                   // >= 30
)

// Classify mapea profitPercentage a un tier. Umbrales fijos, el más alto primero.
// NaN cae en TierCriticalLoss.
func Classify(profitPercentage float64) ProfitTier {
	switch {
	case profitPercentage >= 30:
		return TierSuperHighProfit
	case profitPercentage >= 20:
		return TierHighProfit
	case profitPercentage >= 10:
		return TierStableProfit
	case profitPercentage > 0:
		return TierLowProfit
	case profitPercentage == 0:
		return TierBreakeven
	default:
		return TierCriticalLoss
	}
}

func (t ProfitTier) String() string {
	switch t {
	case TierSuperHighProfit:
		return "super_high_profit"
	case TierHighProfit:
		return "high_profit"
	case TierStableProfit:
		return "stable_profit"
	case TierLowProfit:
		return "low_profit"
	case TierBreakeven:
		return "breakeven"
	default:
		return "critical_loss"
	}
}

// MarshalText permite serializar el tier como string en JSON.
func (t ProfitTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t ProfitTier) Icon() string {
	switch t {
	case TierSuperHighProfit:
		return "[++]"
	case TierHighProfit:
		return "[+]"
	case TierStableProfit:
		return "[=]"
	case TierLowProfit:
		return "[~]"
	case TierBreakeven:
		return "[0]"
	default:
		return "[!!]"
	}
}

// Severity devuelve 0 para el mejor tier y crece hacia CriticalLoss.
func (t ProfitTier) Severity() int {
	return int(TierSuperHighProfit - t)
}

// Treatment es la clase visual asociada al tier (varios tiers comparten clase).
func (t ProfitTier) Treatment() string {
	switch t {
	case TierSuperHighProfit, TierHighProfit:
		return "high-profit"
	case TierStableProfit:
		return "medium-profit"
	case TierLowProfit:
		return "low-profit"
	case TierBreakeven:
		return "breakeven"
	default:
		return "loss"
	}
}

// Advice es el texto orientativo que acompaña a cada tier.
type Advice struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Heading         string   `json:"heading"`
	Recommendations []string `json:"recommendations"`
}

// Advice devuelve el bundle fijo de recomendaciones del tier.
func (t ProfitTier) Advice() Advice {
	a, ok := adviceByTier[t]
	if !ok {
		return adviceByTier[TierCriticalLoss]
	}
	out := a
	out.Recommendations = append([]string(nil), a.Recommendations...)
	return out
}

var adviceByTier = map[ProfitTier]Advice{
	TierSuperHighProfit: {
		Title:       "SUPER HIGH PROFIT",
		Description: "Excellent margin. The product is very competitive.",
		Heading:     "Recommendations",
		Recommendations: []string{
			"Scale up: raise the ad budget to win market share",
			"Diversify: look for more products in the same segment",
			"Invest in branding to lift perceived value",
			"Open more sales channels (TikTok, Facebook, own website)",
		},
	},
	TierHighProfit: {
		Title:       "HIGH PROFIT",
		Description: "A strong, sustainable margin for online selling.",
		Heading:     "Recommendations",
		Recommendations: []string{
			"Ad spend can grow 20-30% while staying profitable",
			"Negotiate shipping rates down 10-15%",
			"Bundle products to raise the average order value",
			"Consider flash sales to attract new customers",
		},
	},
	TierStableProfit: {
		Title:       "STABLE PROFIT",
		Description: "A safe margin, fine for running the business long term.",
		Heading:     "Optimization ideas",
		Recommendations: []string{
			"Lower the cost price: negotiate with suppliers",
			"Lower platform fees: join reduced-fee seller programs",
			"Improve ad targeting to reduce cost per click",
			"Cross-sell accessories for extra revenue",
		},
	},
	TierLowProfit: {
		Title:       "LOW PROFIT",
		Description: "Profitable but thin; any cost swing can wipe it out.",
		Heading:     "Act now",
		Recommendations: []string{
			"Re-check the price: a 5-10% increase may be accepted",
			"Find a supplier at least 10% cheaper",
			"Pack smaller and renegotiate shipping",
			"Concentrate ads on the highest-ROI channel",
		},
	},
	TierBreakeven: {
		Title:       "BREAKEVEN",
		Description: "No loss, no profit. Adjust immediately.",
		Heading:     "Required actions",
		Recommendations: []string{
			"Raise the price 5-10% and watch the market response",
			"Cut costs, starting with shipping and ads",
			"Add value: after-sales service or gifts",
			"Keep the product only if it drives traffic to others",
		},
	},
	TierCriticalLoss: {
		Title:       "LOSING MONEY",
		Description: "Selling below cost. Adjust URGENTLY.",
		Heading:     "URGENT ACTIONS",
		Recommendations: []string{
			"Stop selling: pause ads and new orders",
			"Recompute every cost and set a new price",
			"Contact 3-5 new suppliers right away",
			"Decide whether this product is worth keeping",
		},
	},
}
