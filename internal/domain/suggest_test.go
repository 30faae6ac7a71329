package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestPrice_RoundsToStep(t *testing.T) {
	// 75000 / (1 - 0.20 - 0.055) = 100671.14 → 101000
	price, err := SuggestPrice(50000, 20000, 5000, 5.5, 20)
	require.NoError(t, err)
	assert.Equal(t, 101000.0, price)
}

func TestSuggestPrice_RoundTripThroughEngine(t *testing.T) {
	cases := []struct {
		cost, ship, ads, fee, desired float64
	}{
		{50000, 20000, 5000, 5.5, 20},
		{200000, 30000, 10000, 8, 35},
		{120000, 15000, 0, 7, 10},
		{80000, 25000, 12000, 5.5, 0},
		{300000, 0, 50000, 8, 50},
	}
	for _, c := range cases {
		price, err := SuggestPrice(c.cost, c.ship, c.ads, c.fee, c.desired)
		require.NoError(t, err)

		res, err := Calculate(Input{
			CostPrice:          c.cost,
			PlatformFeePercent: c.fee,
			ShippingFee:        c.ship,
			AdsCost:            c.ads,
			SellingPrice:       price,
		})
		require.NoError(t, err)
		assert.InDelta(t, c.desired, res.ProfitPercentage, 1.0, "case %+v price %v", c, price)
	}
}

func TestSuggestPrice_Unsolvable(t *testing.T) {
	// 1 - 0.5 - 0.6 < 0
	_, err := SuggestPrice(50000, 0, 0, 50, 60)
	assert.ErrorIs(t, err, ErrUnsolvable)

	// denominador exactamente 0
	_, err = SuggestPrice(50000, 0, 0, 40, 60)
	assert.ErrorIs(t, err, ErrUnsolvable)
}

func TestSuggestPrice_InvalidCost(t *testing.T) {
	_, err := SuggestPrice(0, 1000, 1000, 5, 20)
	assert.ErrorIs(t, err, ErrInvalidCost)

	_, err = SuggestPrice(-5, 0, 0, 5, 20)
	assert.ErrorIs(t, err, ErrInvalidCost)
}

func TestSuggestPrice_InvalidProfitTarget(t *testing.T) {
	_, err := SuggestPrice(50000, 0, 0, 5, -1)
	assert.ErrorIs(t, err, ErrInvalidProfitTarget)

	_, err = SuggestPrice(50000, 0, 0, 5, 100.1)
	assert.ErrorIs(t, err, ErrInvalidProfitTarget)
}

func TestIsValidationError(t *testing.T) {
	_, err := SuggestPrice(50000, 0, 0, 50, 60)
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(ErrStorageFailure))
	assert.False(t, IsValidationError(nil))
}
