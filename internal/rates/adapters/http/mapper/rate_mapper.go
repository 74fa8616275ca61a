// Package mapper translates between the HTTP wire shapes and the canonical
// rate model. Amounts cross the wire as decimal strings, dates as ISO-8601.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// QuoteRatesRequest is the inbound payload.
type QuoteRatesRequest struct {
	Package     Package  `json:"package"`
	Origin      Address  `json:"origin"`
	Destination Address  `json:"destination"`
	Options     Options  `json:"options"`
	Carriers    []string `json:"carriers,omitempty"`
}

// Package mirrors the canonical parcel in wire form.
type Package struct {
	LengthIn      float64 `json:"lengthIn"`
	WidthIn       float64 `json:"widthIn"`
	HeightIn      float64 `json:"heightIn"`
	WeightLb      float64 `json:"weightLb"`
	DeclaredValue string  `json:"declaredValue,omitempty"`
	Class         string  `json:"class,omitempty"`
}

// Address mirrors the canonical address in wire form.
type Address struct {
	Line1       string `json:"line1,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
	Residential bool   `json:"residential,omitempty"`
}

// Options mirrors the canonical service options in wire form.
type Options struct {
	Speed             string `json:"speed,omitempty"`
	SignatureRequired bool   `json:"signatureRequired,omitempty"`
	Insurance         bool   `json:"insurance,omitempty"`
	InsuredValue      string `json:"insuredValue,omitempty"`
	FragileHandling   bool   `json:"fragileHandling,omitempty"`
	WeekendDelivery   bool   `json:"weekendDelivery,omitempty"`
}

// AggregationResponse is the outbound payload.
type AggregationResponse struct {
	RequestID   string         `json:"requestId"`
	Quotes      []Quote        `json:"quotes"`
	Errors      []CarrierError `json:"errors,omitempty"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// Quote is the wire form of a canonical quote.
type Quote struct {
	ID                 string    `json:"id"`
	Carrier            string    `json:"carrier"`
	ServiceCode        string    `json:"serviceCode"`
	ServiceName        string    `json:"serviceName"`
	Tier               string    `json:"tier"`
	BaseCost           string    `json:"baseCost"`
	Fees               []Fee     `json:"fees,omitempty"`
	TotalCost          string    `json:"totalCost"`
	Currency           string    `json:"currency"`
	EstimatedDelivery  time.Time `json:"estimatedDelivery"`
	GuaranteedDelivery bool      `json:"guaranteedDelivery"`
	Tags               []string  `json:"tags,omitempty"`
}

// Fee is the wire form of an itemized fee.
type Fee struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// CarrierError is the wire form of a per-carrier failure.
type CarrierError struct {
	Carrier     string `json:"carrier"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// ToDomainRequest converts the wire request, collecting field-level
// validation errors for the problem response.
func ToDomainRequest(wire QuoteRatesRequest) (domain.ShipmentRequest, map[string]string) {
	fieldErrors := make(map[string]string)

	req := domain.ShipmentRequest{
		Package: domain.Package{
			LengthIn: wire.Package.LengthIn,
			WidthIn:  wire.Package.WidthIn,
			HeightIn: wire.Package.HeightIn,
			WeightLb: wire.Package.WeightLb,
			Class:    domain.PackageClass(strings.ToLower(strings.TrimSpace(wire.Package.Class))),
		},
		Origin:      toDomainAddress(wire.Origin),
		Destination: toDomainAddress(wire.Destination),
	}

	if wire.Package.LengthIn <= 0 || wire.Package.WidthIn <= 0 || wire.Package.HeightIn <= 0 {
		fieldErrors["package.dimensions"] = "length, width, and height must be positive"
	}
	if wire.Package.WeightLb <= 0 {
		fieldErrors["package.weightLb"] = "weight must be positive"
	}
	if strings.TrimSpace(wire.Origin.CountryCode) == "" {
		fieldErrors["origin.countryCode"] = "country code is required"
	}
	if strings.TrimSpace(wire.Destination.CountryCode) == "" {
		fieldErrors["destination.countryCode"] = "country code is required"
	}

	if raw := strings.TrimSpace(wire.Package.DeclaredValue); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			fieldErrors["package.declaredValue"] = fmt.Sprintf("not a decimal amount: %q", raw)
		} else {
			req.Package.DeclaredValue = value
		}
	}

	req.Options = domain.ServiceOptions{
		Speed:             domain.SpeedTier(strings.ToLower(strings.TrimSpace(wire.Options.Speed))),
		SignatureRequired: wire.Options.SignatureRequired,
		Insurance:         wire.Options.Insurance,
		FragileHandling:   wire.Options.FragileHandling,
		WeekendDelivery:   wire.Options.WeekendDelivery,
	}
	if raw := strings.TrimSpace(wire.Options.InsuredValue); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			fieldErrors["options.insuredValue"] = fmt.Sprintf("not a decimal amount: %q", raw)
		} else if value.IsNegative() {
			fieldErrors["options.insuredValue"] = "insured value cannot be negative"
		} else {
			req.Options.InsuredValue = &value
		}
	}

	for _, carrier := range wire.Carriers {
		carrier = strings.ToLower(strings.TrimSpace(carrier))
		if carrier != "" {
			req.Carriers = append(req.Carriers, domain.CarrierID(carrier))
		}
	}

	if len(fieldErrors) == 0 {
		fieldErrors = nil
	}
	return req, fieldErrors
}

func toDomainAddress(wire Address) domain.Address {
	return domain.Address{
		Line1:       wire.Line1,
		City:        wire.City,
		State:       wire.State,
		PostalCode:  wire.PostalCode,
		CountryCode: strings.ToUpper(strings.TrimSpace(wire.CountryCode)),
		Residential: wire.Residential,
	}
}

// FromResult maps a canonical result into the wire response.
func FromResult(result *domain.AggregationResult) AggregationResponse {
	response := AggregationResponse{
		RequestID:   result.RequestID,
		Quotes:      make([]Quote, 0, len(result.Quotes)),
		GeneratedAt: result.GeneratedAt,
	}
	for _, quote := range result.Quotes {
		response.Quotes = append(response.Quotes, fromDomainQuote(quote))
	}
	for _, carrierErr := range result.Errors {
		response.Errors = append(response.Errors, CarrierError{
			Carrier:     string(carrierErr.Carrier),
			Message:     carrierErr.Message,
			Recoverable: carrierErr.Recoverable,
		})
	}
	return response
}

func fromDomainQuote(quote domain.Quote) Quote {
	wire := Quote{
		ID:                 quote.ID,
		Carrier:            string(quote.Carrier),
		ServiceCode:        quote.ServiceCode,
		ServiceName:        quote.ServiceName,
		Tier:               string(quote.Tier),
		BaseCost:           quote.BaseCost.StringFixed(domain.CurrencyPlaces),
		TotalCost:          quote.TotalCost.StringFixed(domain.CurrencyPlaces),
		Currency:           quote.Currency,
		EstimatedDelivery:  quote.EstimatedDelivery,
		GuaranteedDelivery: quote.GuaranteedDelivery,
		Tags:               quote.Tags,
	}
	for _, fee := range quote.Fees {
		wire.Fees = append(wire.Fees, Fee{
			Kind:        string(fee.Kind),
			Amount:      fee.Amount.StringFixed(domain.CurrencyPlaces),
			Description: fee.Description,
		})
	}
	return wire
}
