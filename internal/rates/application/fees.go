package application

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// Fee composition is an ordered fold of pure modifiers over the base quote.
// Each applicable modifier appends exactly one fee and returns a new quote
// with the total increased by that fee, so the final total is independent
// of application order.

var (
	signatureFeeAmount = decimal.NewFromFloat(5.50)
	fragileFeeAmount   = decimal.NewFromFloat(8.00)
	weekendFeeAmount   = decimal.NewFromFloat(12.50)

	// Insurance is priced per $100 of insured value with an enforced
	// minimum.
	insuranceRatePer100 = decimal.NewFromFloat(1.00)
	insuranceMinimumFee = decimal.NewFromFloat(2.50)
)

// FeeModifier inspects the options and, when applicable, yields the fee to
// stack onto the quote.
type FeeModifier func(q domain.Quote, opts domain.ServiceOptions) (domain.Fee, bool)

func signatureModifier(_ domain.Quote, opts domain.ServiceOptions) (domain.Fee, bool) {
	if !opts.SignatureRequired {
		return domain.Fee{}, false
	}
	return domain.Fee{
		Kind:        domain.FeeSignature,
		Amount:      signatureFeeAmount,
		Description: "Signature on delivery",
	}, true
}

func insuranceModifier(_ domain.Quote, opts domain.ServiceOptions) (domain.Fee, bool) {
	// No insured value means no fee and no entry, even with the flag set.
	if !opts.Insurance || opts.InsuredValue == nil {
		return domain.Fee{}, false
	}
	value := *opts.InsuredValue
	fee := value.Div(decimal.NewFromInt(100)).Mul(insuranceRatePer100).Round(domain.CurrencyPlaces)
	if fee.LessThan(insuranceMinimumFee) {
		fee = insuranceMinimumFee
	}
	return domain.Fee{
		Kind:        domain.FeeInsurance,
		Amount:      fee,
		Description: fmt.Sprintf("Shipment insurance for declared value %s", value.StringFixed(domain.CurrencyPlaces)),
	}, true
}

func fragileModifier(_ domain.Quote, opts domain.ServiceOptions) (domain.Fee, bool) {
	if !opts.FragileHandling {
		return domain.Fee{}, false
	}
	return domain.Fee{
		Kind:        domain.FeeFragileHandling,
		Amount:      fragileFeeAmount,
		Description: "Fragile handling",
	}, true
}

func weekendModifier(_ domain.Quote, opts domain.ServiceOptions) (domain.Fee, bool) {
	if !opts.WeekendDelivery {
		return domain.Fee{}, false
	}
	return domain.Fee{
		Kind:        domain.FeeWeekendDelivery,
		Amount:      weekendFeeAmount,
		Description: "Weekend delivery",
	}, true
}

func defaultFeeModifiers() []FeeModifier {
	return []FeeModifier{
		signatureModifier,
		insuranceModifier,
		fragileModifier,
		weekendModifier,
	}
}

// ApplyFees stacks every applicable fee modifier onto the base quote and
// returns the composed quote. The base quote is not mutated. The result is
// carrier-agnostic: composition only reads the canonical quote and options.
func ApplyFees(base domain.Quote, opts domain.ServiceOptions) domain.Quote {
	return applyFeeModifiers(base, opts, defaultFeeModifiers())
}

func applyFeeModifiers(base domain.Quote, opts domain.ServiceOptions, modifiers []FeeModifier) domain.Quote {
	quote := base
	for _, modify := range modifiers {
		if fee, ok := modify(quote, opts); ok {
			quote = quote.WithFee(fee)
		}
	}
	return quote
}
