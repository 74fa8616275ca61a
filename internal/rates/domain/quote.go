package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeKind enumerates the canonical fee categories.
type FeeKind string

const (
	FeeInsurance        FeeKind = "insurance"
	FeeSignature        FeeKind = "signature"
	FeeFragileHandling  FeeKind = "fragile-handling"
	FeeWeekendDelivery  FeeKind = "weekend-delivery"
	FeeFuelSurcharge    FeeKind = "fuel-surcharge"
	FeeResidential      FeeKind = "residential-surcharge"
	FeeCustomsSurcharge FeeKind = "customs-surcharge"
	FeeOtherSurcharge   FeeKind = "other-surcharge"
)

// Fee is one itemized cost component on top of a quote's base cost.
type Fee struct {
	Kind        FeeKind
	Amount      decimal.Decimal
	Description string
}

// CurrencyPlaces is the rounding precision for all monetary amounts.
const CurrencyPlaces = 2

// Quote is the carrier-agnostic rate every component operates on after
// normalization. Quotes are value types: composition produces a new Quote
// rather than mutating one in place, so TotalCost == BaseCost + sum of fee
// amounts holds at every step.
type Quote struct {
	ID                 string
	Carrier            CarrierID
	ServiceCode        string
	ServiceName        string
	Tier               SpeedTier
	BaseCost           decimal.Decimal
	Fees               []Fee
	TotalCost          decimal.Decimal
	Currency           string
	EstimatedDelivery  time.Time
	GuaranteedDelivery bool
	Tags               []string
}

// WithFee returns a copy of the quote with the fee appended and the total
// increased by the fee amount, rounded to currency precision.
func (q Quote) WithFee(fee Fee) Quote {
	fee.Amount = fee.Amount.Round(CurrencyPlaces)
	fees := make([]Fee, 0, len(q.Fees)+1)
	fees = append(fees, q.Fees...)
	fees = append(fees, fee)
	q.Fees = fees
	q.TotalCost = q.TotalCost.Add(fee.Amount).Round(CurrencyPlaces)
	return q
}

// FeeTotal sums the itemized fee amounts.
func (q Quote) FeeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range q.Fees {
		total = total.Add(fee.Amount)
	}
	return total.Round(CurrencyPlaces)
}
