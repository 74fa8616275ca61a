package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func quoteAt(total string, delivery time.Time) Quote {
	amount := decimal.RequireFromString(total)
	return Quote{BaseCost: amount, TotalCost: amount, EstimatedDelivery: delivery}
}

func TestSortQuotes_CheapestFirstEarliestBreaksTies(t *testing.T) {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	quotes := []Quote{
		quoteAt("25.00", base.Add(24*time.Hour)),
		quoteAt("10.00", base.Add(72*time.Hour)),
		quoteAt("10.00", base.Add(24*time.Hour)),
		quoteAt("17.50", base),
	}

	SortQuotes(quotes)

	require.True(t, quotes[0].TotalCost.Equal(decimal.RequireFromString("10.00")))
	require.Equal(t, base.Add(24*time.Hour), quotes[0].EstimatedDelivery)
	require.True(t, quotes[1].TotalCost.Equal(decimal.RequireFromString("10.00")))
	require.Equal(t, base.Add(72*time.Hour), quotes[1].EstimatedDelivery)
	require.True(t, quotes[2].TotalCost.Equal(decimal.RequireFromString("17.50")))
	require.True(t, quotes[3].TotalCost.Equal(decimal.RequireFromString("25.00")))
}

func TestCheapest(t *testing.T) {
	empty := &AggregationResult{}
	_, ok := empty.Cheapest()
	require.False(t, ok)

	result := &AggregationResult{Quotes: []Quote{
		quoteAt("10.00", time.Now()),
		quoteAt("25.00", time.Now()),
	}}
	cheapest, ok := result.Cheapest()
	require.True(t, ok)
	require.True(t, cheapest.TotalCost.Equal(decimal.RequireFromString("10.00")))
}

func TestWithFee_PreservesTotalInvariant(t *testing.T) {
	quote := quoteAt("9.99", time.Now())

	stacked := quote.WithFee(Fee{Kind: FeeSignature, Amount: decimal.RequireFromString("5.504")})

	require.True(t, stacked.TotalCost.Equal(stacked.BaseCost.Add(stacked.FeeTotal())))
	require.True(t, stacked.Fees[0].Amount.Equal(decimal.RequireFromString("5.50")))
	// The receiver is untouched.
	require.Empty(t, quote.Fees)
	require.True(t, quote.TotalCost.Equal(decimal.RequireFromString("9.99")))
}

func TestValidate(t *testing.T) {
	valid := ShipmentRequest{
		Package:     Package{LengthIn: 1, WidthIn: 1, HeightIn: 1, WeightLb: 1},
		Origin:      Address{CountryCode: "US"},
		Destination: Address{CountryCode: "US"},
	}
	require.NoError(t, valid.Validate())

	flat := valid
	flat.Package.HeightIn = 0
	require.ErrorIs(t, flat.Validate(), ErrNonPositiveDimensions)

	weightless := valid
	weightless.Package.WeightLb = 0
	require.ErrorIs(t, weightless.Validate(), ErrNonPositiveWeight)

	nowhere := valid
	nowhere.Destination.CountryCode = " "
	require.ErrorIs(t, nowhere.Validate(), ErrMissingCountry)
}

func TestInternational(t *testing.T) {
	req := ShipmentRequest{
		Origin:      Address{CountryCode: "US"},
		Destination: Address{CountryCode: "us"},
	}
	require.False(t, req.International())

	req.Destination.CountryCode = "CA"
	require.True(t, req.International())
}
