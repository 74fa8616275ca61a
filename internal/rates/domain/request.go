package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// CarrierID identifies a carrier backend known to the registry.
type CarrierID string

const (
	CarrierFedEx CarrierID = "fedex"
)

// SpeedTier is the canonical coarse delivery-speed classification all
// carrier-specific service codes are mapped onto.
type SpeedTier string

const (
	TierOvernight SpeedTier = "overnight"
	TierTwoDay    SpeedTier = "two-day"
	TierStandard  SpeedTier = "standard"
	TierEconomy   SpeedTier = "economy"
)

// SpeedAll selects every tier a carrier offers; any other value of
// ServiceOptions.Speed filters quotes to that tier.
const SpeedAll SpeedTier = "all"

// PackageClass is the caller-facing packaging classification. Each adapter
// maps it onto the carrier's own packaging codes and enforces that carrier's
// physical limits for the class.
type PackageClass string

const (
	ClassEnvelope PackageClass = "envelope"
	ClassPak      PackageClass = "pak"
	ClassBox      PackageClass = "box"
	ClassTube     PackageClass = "tube"
	ClassCustom   PackageClass = "custom"
)

// Address is a structurally validated shipping address. Field-format
// validation happens upstream; adapters only read what their wire formats
// need.
type Address struct {
	Line1       string
	City        string
	State       string
	PostalCode  string
	CountryCode string
	Residential bool
}

// Package describes the parcel in canonical units (inches, pounds).
type Package struct {
	LengthIn      float64
	WidthIn       float64
	HeightIn      float64
	WeightLb      float64
	DeclaredValue decimal.Decimal
	Class         PackageClass
}

// WeightKg converts the canonical pound weight for carriers that quote
// packaging limits in kilograms.
func (p Package) WeightKg() float64 {
	return p.WeightLb * 0.45359237
}

// ServiceOptions carries the caller's service selections. InsuredValue nil
// means insurance is skipped even when the flag is set.
type ServiceOptions struct {
	Speed             SpeedTier
	SignatureRequired bool
	Insurance         bool
	InsuredValue      *decimal.Decimal
	FragileHandling   bool
	WeekendDelivery   bool
}

// ShipmentRequest is the immutable input to the aggregation engine. It is
// passed by value through the pipeline and never mutated.
type ShipmentRequest struct {
	Package     Package
	Origin      Address
	Destination Address
	Options     ServiceOptions
	// Carriers restricts the target set when non-empty; otherwise the
	// orchestrator falls back to its configured default set.
	Carriers []CarrierID
}

var (
	ErrNonPositiveDimensions = errors.New("package dimensions must be positive")
	ErrNonPositiveWeight     = errors.New("package weight must be positive")
	ErrMissingCountry        = errors.New("origin and destination country codes are required")
)

// Validate enforces the structural minimum the engine itself depends on.
// Full address/package validation is an upstream concern.
func (r ShipmentRequest) Validate() error {
	if r.Package.LengthIn <= 0 || r.Package.WidthIn <= 0 || r.Package.HeightIn <= 0 {
		return ErrNonPositiveDimensions
	}
	if r.Package.WeightLb <= 0 {
		return ErrNonPositiveWeight
	}
	if strings.TrimSpace(r.Origin.CountryCode) == "" || strings.TrimSpace(r.Destination.CountryCode) == "" {
		return ErrMissingCountry
	}
	return nil
}

// International reports whether the shipment crosses a customs border.
func (r ShipmentRequest) International() bool {
	return !strings.EqualFold(strings.TrimSpace(r.Origin.CountryCode), strings.TrimSpace(r.Destination.CountryCode))
}

// SpeedFilter returns the requested tier filter, defaulting to all tiers.
func (o ServiceOptions) SpeedFilter() SpeedTier {
	if o.Speed == "" {
		return SpeedAll
	}
	return o.Speed
}
