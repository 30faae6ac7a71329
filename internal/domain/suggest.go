package domain

import (
	"fmt"
	"math"
)

// PriceStep es la granularidad del precio sugerido (unidades de moneda).
const PriceStep = 1000

// SuggestPrice calcula el precio de venta que deja desiredProfitPercent de ganancia
// sobre el precio, después del fee de la plataforma.
//
// Fórmula: P = fixedCosts + fee%·P + profit%·P
//
//	P = (costPrice + shippingFee + adsCost) / (1 − fee/100 − profit/100)
//
// El resultado se redondea al múltiplo de PriceStep más cercano. No produce un
// Result: el llamador debe pasar el precio por Calculate para mostrarlo.
func SuggestPrice(costPrice, shippingFee, adsCost, platformFeePercent, desiredProfitPercent float64) (float64, error) {
	if !(costPrice > 0) {
		return 0, fmt.Errorf("domain.SuggestPrice: %w: costPrice = %v", ErrInvalidCost, costPrice)
	}
	if !(desiredProfitPercent >= 0 && desiredProfitPercent <= 100) {
		return 0, fmt.Errorf("domain.SuggestPrice: %w: got %v", ErrInvalidProfitTarget, desiredProfitPercent)
	}

	fixedCosts := costPrice + shippingFee + adsCost
	denominator := 1 - desiredProfitPercent/100 - platformFeePercent/100
	if denominator <= 0 {
		return 0, fmt.Errorf("domain.SuggestPrice: %w: fee %v%% + profit %v%% >= 100%%",
			ErrUnsolvable, platformFeePercent, desiredProfitPercent)
	}

	price := fixedCosts / denominator
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("domain.SuggestPrice: %w: price = %v", ErrUnsolvable, price)
	}

	return math.Round(price/PriceStep) * PriceStep, nil
}
