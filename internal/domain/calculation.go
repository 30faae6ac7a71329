package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Input contiene los valores numéricos de un cálculo, ya coaccionados.
type Input struct {
	CostPrice          float64 `json:"costPrice"`
	PlatformFeePercent float64 `json:"platformFeePercent"`
	ShippingFee        float64 `json:"shippingFee"`
	AdsCost            float64 `json:"adsCost"`
	SellingPrice       float64 `json:"sellingPrice"`
}

// RawValue es un campo tal como llega de un formulario, flag o JSON.
// Acepta números, strings y null al decodificar.
type RawValue string

// UnmarshalJSON acepta 150000, "150000" o null sin fallar.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(data)
	return nil
}

// Float coacciona el valor: vacío, no numérico o no finito → 0.
func (v RawValue) Float() float64 {
	return ParseAmount(string(v))
}

// RawInput son los cinco campos del formulario sin procesar.
type RawInput struct {
	CostPrice          RawValue `json:"costPrice"`
	PlatformFeePercent RawValue `json:"platformFeePercent"`
	ShippingFee        RawValue `json:"shippingFee"`
	AdsCost            RawValue `json:"adsCost"`
	SellingPrice       RawValue `json:"sellingPrice"`
}

// Input coacciona cada campo. Nunca falla: la validación ocurre en Calculate.
func (r RawInput) Input() Input {
	return Input{
		CostPrice:          r.CostPrice.Float(),
		PlatformFeePercent: r.PlatformFeePercent.Float(),
		ShippingFee:        r.ShippingFee.Float(),
		AdsCost:            r.AdsCost.Float(),
		SellingPrice:       r.SellingPrice.Float(),
	}
}

// ParseAmount convierte un string a float64.
// Ausente, no numérico o no finito se trata como 0, nunca como error.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Result es el resultado inmutable de un cálculo.
type Result struct {
	Input

	PlatformFee    float64 `json:"platformFee"`
	TotalCost      float64 `json:"totalCost"`
	ProfitPerOrder float64 `json:"profitPerOrder"`
	// ProfitPercentage es la ganancia relativa al precio de venta.
	ProfitPercentage float64 `json:"profitPercentage"`
	// ProfitMargin es la ganancia relativa al costo total (0 si totalCost = 0).
	ProfitMargin float64 `json:"profitMargin"`

	// Breakdown: suman 100 cuando TotalCost > 0, todo 0 si no.
	CostPercentage     float64 `json:"costPercentage"`
	PlatformPercentage float64 `json:"platformPercentage"`
	ShippingPercentage float64 `json:"shippingPercentage"`
	AdsPercentage      float64 `json:"adsPercentage"`

	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id"`
}

// Tier devuelve la clasificación de rentabilidad del resultado.
func (r Result) Tier() ProfitTier {
	return Classify(r.ProfitPercentage)
}

// Validate rechaza inputs negativos, no finitos, fee > 100 o precio de venta ausente.
func (in Input) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"costPrice", in.CostPrice},
		{"platformFeePercent", in.PlatformFeePercent},
		{"shippingFee", in.ShippingFee},
		{"adsCost", in.AdsCost},
		{"sellingPrice", in.SellingPrice},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s = %v", ErrInvalidRange, f.name, f.value)
		}
	}
	if in.PlatformFeePercent > 100 {
		return fmt.Errorf("%w: platformFeePercent = %v > 100", ErrInvalidRange, in.PlatformFeePercent)
	}
	if in.SellingPrice <= 0 {
		return ErrMissingPrice
	}
	return nil
}

// Calculate calcula todas las métricas de ganancia de un pedido.
//
// Fórmulas:
//
//	platformFee      = sellingPrice × fee / 100
//	totalCost        = costPrice + platformFee + shippingFee + adsCost
//	profitPerOrder   = sellingPrice − totalCost   (negativo = pérdida, no es error)
//	profitPercentage = profitPerOrder / sellingPrice × 100
//	profitMargin     = profitPerOrder / totalCost × 100   (0 si totalCost = 0)
//
// El único efecto lateral es generar un ID y un timestamp nuevos.
func Calculate(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, fmt.Errorf("domain.Calculate: %w", err)
	}

	platformFee := in.SellingPrice * (in.PlatformFeePercent / 100)
	totalCost := in.CostPrice + platformFee + in.ShippingFee + in.AdsCost

	profitPerOrder := in.SellingPrice - totalCost
	profitPercentage := (profitPerOrder / in.SellingPrice) * 100
	profitMargin := 0.0
	if totalCost > 0 {
		profitMargin = (profitPerOrder / totalCost) * 100
	}

	divisor := totalCost
	if divisor == 0 {
		divisor = 1
	}

	return Result{
		Input:              in,
		PlatformFee:        platformFee,
		TotalCost:          totalCost,
		ProfitPerOrder:     profitPerOrder,
		ProfitPercentage:   profitPercentage,
		ProfitMargin:       profitMargin,
		CostPercentage:     (in.CostPrice / divisor) * 100,
		PlatformPercentage: (platformFee / divisor) * 100,
		ShippingPercentage: (in.ShippingFee / divisor) * 100,
		AdsPercentage:      (in.AdsCost / divisor) * 100,
		Timestamp:          time.Now().UTC(),
		ID:                 uuid.New().String(),
	}, nil
}
