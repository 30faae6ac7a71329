package domain

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	// CurrencySymbol es el símbolo de la única moneda soportada (VND).
	CurrencySymbol = "₫"
	// vi-VN: miles con punto, sin decimales.
	currencyFormat = "#.###,"
)

// FormatCurrency formatea un monto al estilo vi-VN: "150.000 ₫".
// El separador antes del símbolo es un espacio no separable.
func FormatCurrency(amount float64) string {
	return humanize.FormatFloat(currencyFormat, amount) + "\u00a0" + CurrencySymbol
}

// FormatPercent formatea value con decimals decimales fijos: 44.5 → "44.5%".
func FormatPercent(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64) + "%"
	}
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromFloat(value).StringFixed(int32(decimals)) + "%"
}

// Percent es FormatPercent con 1 decimal, el formato por defecto de la UI.
func Percent(value float64) string {
	return FormatPercent(value, 1)
}
