package fedex

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	fedexclient "github.com/parcelworks/rateshop/internal/clients/http/fedex"
	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// serviceTiers maps the carrier's service-type enumeration onto canonical
// speed tiers. Unmapped values default to economy, never an error.
var serviceTiers = map[string]domain.SpeedTier{
	"FIRST_OVERNIGHT":        domain.TierOvernight,
	"PRIORITY_OVERNIGHT":     domain.TierOvernight,
	"STANDARD_OVERNIGHT":     domain.TierOvernight,
	"FEDEX_2_DAY":            domain.TierTwoDay,
	"FEDEX_2_DAY_AM":         domain.TierTwoDay,
	"INTERNATIONAL_PRIORITY": domain.TierTwoDay,
	"FEDEX_EXPRESS_SAVER":    domain.TierStandard,
	"FEDEX_GROUND":           domain.TierStandard,
	"GROUND_HOME_DELIVERY":   domain.TierStandard,
	"INTERNATIONAL_ECONOMY":  domain.TierEconomy,
}

// surchargeKinds maps carrier surcharge types onto canonical fee kinds.
// Unmapped types pass through as the free-form other-surcharge kind.
var surchargeKinds = map[string]domain.FeeKind{
	"FUEL":                 domain.FeeFuelSurcharge,
	"RESIDENTIAL_DELIVERY": domain.FeeResidential,
	"CUSTOMS":              domain.FeeCustomsSurcharge,
	"DUTY":                 domain.FeeCustomsSurcharge,
}

// rateTypePreference orders rate-type variants from most to least
// specific: an account-negotiated rate beats the public list rate.
var rateTypePreference = []string{"ACCOUNT", "PREFERRED", "LIST"}

// transitDays estimates delivery when the carrier omits a commitment.
var transitDays = map[domain.SpeedTier]struct{ domestic, international int }{
	domain.TierOvernight: {domestic: 1, international: 2},
	domain.TierTwoDay:    {domestic: 2, international: 4},
	domain.TierStandard:  {domestic: 4, international: 7},
	domain.TierEconomy:   {domestic: 7, international: 10},
}

const commitDateLayout = "2006-01-02T15:04:05"

// normalizeReply turns the carrier reply into canonical quotes. A fatal
// alert aborts the whole normalization; advisories are only logged. An
// empty reply is a valid empty quote list.
func (a *Adapter) normalizeReply(reply *fedexclient.RateReply, req domain.ShipmentRequest) ([]domain.Quote, error) {
	for _, alert := range reply.Output.Alerts {
		if alert.AlertType == fedexclient.AlertTypeError {
			return nil, domain.NewProtocolFault(domain.CarrierFedEx,
				fmt.Sprintf("fatal carrier alert %s: %s", alert.Code, alert.Message), nil)
		}
		a.logger.Warn("fedex advisory",
			slog.String("code", alert.Code),
			slog.String("type", alert.AlertType),
			slog.String("message", alert.Message))
	}

	// A single unusable service is skipped so its siblings survive; the
	// extraction fault surfaces only when no service yields a quote.
	quotes := make([]domain.Quote, 0, len(reply.Output.RateReplyDetails))
	var firstErr error
	for _, detail := range reply.Output.RateReplyDetails {
		quote, err := a.normalizeService(detail, req)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			a.logger.Warn("fedex service skipped",
				slog.String("service", detail.ServiceType),
				slog.String("error", err.Error()))
			continue
		}
		quotes = append(quotes, quote)
	}
	if len(quotes) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return quotes, nil
}

func (a *Adapter) normalizeService(detail fedexclient.RateReplyDetail, req domain.ShipmentRequest) (domain.Quote, error) {
	rated, ok := preferredRateDetail(detail.RatedShipmentDetails)
	if !ok {
		return domain.Quote{}, domain.NewExtractionFault(domain.CarrierFedEx,
			fmt.Sprintf("service %s carries no rated shipment detail", detail.ServiceType))
	}

	total, tags, err := extractTotal(detail.ServiceType, rated)
	if err != nil {
		return domain.Quote{}, err
	}

	tier, mapped := serviceTiers[detail.ServiceType]
	if !mapped {
		tier = domain.TierEconomy
	}

	fees := surchargeFees(rated)
	base := total.Round(domain.CurrencyPlaces)
	for _, fee := range fees {
		base = base.Sub(fee.Amount)
	}

	quote := domain.Quote{
		ID:          uuid.NewString(),
		Carrier:     domain.CarrierFedEx,
		ServiceCode: detail.ServiceType,
		ServiceName: serviceDisplayName(detail),
		Tier:        tier,
		BaseCost:    base,
		TotalCost:   base,
		Currency:    currencyOrDefault(rated.Currency),
		Tags:        tags,
	}
	for _, fee := range fees {
		quote = quote.WithFee(fee)
	}

	quote.EstimatedDelivery, quote.GuaranteedDelivery = a.deliveryEstimate(detail, tier, req)
	return quote, nil
}

// preferredRateDetail selects the most specific rate-type variant present.
func preferredRateDetail(details []fedexclient.RatedShipmentDetail) (fedexclient.RatedShipmentDetail, bool) {
	for _, rateType := range rateTypePreference {
		for _, detail := range details {
			if detail.RateType == rateType {
				return detail, true
			}
		}
	}
	if len(details) > 0 {
		return details[0], true
	}
	return fedexclient.RatedShipmentDetail{}, false
}

// extractTotal prefers the duty/tax-inclusive figure, falls back to the net
// charge, and fails when neither is usable.
func extractTotal(serviceType string, rated fedexclient.RatedShipmentDetail) (decimal.Decimal, []string, error) {
	if rated.TotalNetChargeWithDutiesAndTaxes > 0 {
		return decimal.NewFromFloat(rated.TotalNetChargeWithDutiesAndTaxes),
			[]string{"duties-taxes-included", rateTag(rated.RateType)}, nil
	}
	if rated.TotalNetCharge > 0 {
		return decimal.NewFromFloat(rated.TotalNetCharge), []string{rateTag(rated.RateType)}, nil
	}
	return decimal.Zero, nil, domain.NewExtractionFault(domain.CarrierFedEx,
		fmt.Sprintf("service %s carries no usable total charge", serviceType))
}

func rateTag(rateType string) string {
	return strings.ToLower(strings.ReplaceAll(rateType, "_", "-")) + "-rate"
}

// surchargeFees maps carrier surcharges onto canonical fee entries.
func surchargeFees(rated fedexclient.RatedShipmentDetail) []domain.Fee {
	if rated.ShipmentRateDetail == nil {
		return nil
	}
	fees := make([]domain.Fee, 0, len(rated.ShipmentRateDetail.Surcharges))
	for _, surcharge := range rated.ShipmentRateDetail.Surcharges {
		if surcharge.Amount <= 0 {
			continue
		}
		kind, ok := surchargeKinds[surcharge.Type]
		if !ok {
			kind = domain.FeeOtherSurcharge
		}
		description := surcharge.Description
		if description == "" {
			description = strings.ToLower(strings.ReplaceAll(surcharge.Type, "_", " "))
		}
		fees = append(fees, domain.Fee{
			Kind:        kind,
			Amount:      decimal.NewFromFloat(surcharge.Amount).Round(domain.CurrencyPlaces),
			Description: description,
		})
	}
	return fees
}

// currencyOrDefault falls back to the canonical currency when the carrier
// omits one on the rate detail.
func currencyOrDefault(currency string) string {
	if strings.TrimSpace(currency) == "" {
		return "USD"
	}
	return currency
}

func serviceDisplayName(detail fedexclient.RateReplyDetail) string {
	if detail.ServiceName != "" {
		return detail.ServiceName
	}
	words := strings.Split(strings.ToLower(strings.ReplaceAll(detail.ServiceType, "_", " ")), " ")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// deliveryEstimate parses the carrier's commitment when present and
// otherwise estimates from the tier's transit-day table.
func (a *Adapter) deliveryEstimate(detail fedexclient.RateReplyDetail, tier domain.SpeedTier, req domain.ShipmentRequest) (time.Time, bool) {
	if detail.Commit != nil && detail.Commit.DateDetail != nil && detail.Commit.DateDetail.DayCxsFormat != "" {
		if parsed, err := time.Parse(commitDateLayout, detail.Commit.DateDetail.DayCxsFormat); err == nil {
			return parsed, detail.Commit.Guaranteed
		}
		a.logger.Warn("fedex commit date unparseable",
			slog.String("service", detail.ServiceType),
			slog.String("value", detail.Commit.DateDetail.DayCxsFormat))
	}
	if detail.OperationalDetail != nil && detail.OperationalDetail.DeliveryDate != "" {
		if parsed, err := time.Parse(commitDateLayout, detail.OperationalDetail.DeliveryDate); err == nil {
			return parsed, false
		}
	}

	days, ok := transitDays[tier]
	if !ok {
		days = transitDays[domain.TierEconomy]
	}
	transit := days.domestic
	if req.International() {
		transit = days.international
	}
	return a.now().UTC().AddDate(0, 0, transit), false
}
