// Package fedex adapts the FedEx rate API onto the canonical rate model.
package fedex

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	fedexclient "github.com/parcelworks/rateshop/internal/clients/http/fedex"
	"github.com/parcelworks/rateshop/internal/rates/domain"
	"github.com/parcelworks/rateshop/internal/rates/ports"
)

// packaging maps a canonical package class onto the carrier's packaging
// code and that code's physical weight cap.
type packaging struct {
	code        string
	maxWeightKg float64
}

// Zero maxWeightKg means the carrier-wide limit applies.
var packagingByClass = map[domain.PackageClass]packaging{
	domain.ClassEnvelope: {code: "FEDEX_ENVELOPE", maxWeightKg: 0.5},
	domain.ClassPak:      {code: "FEDEX_PAK", maxWeightKg: 2.5},
	domain.ClassBox:      {code: "FEDEX_BOX", maxWeightKg: 18},
	domain.ClassTube:     {code: "FEDEX_TUBE", maxWeightKg: 9},
	domain.ClassCustom:   {code: "YOUR_PACKAGING", maxWeightKg: 68},
}

// Adapter implements the RateProvider port for FedEx.
type Adapter struct {
	client *fedexclient.Client
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the adapter.
type Option func(*Adapter)

// WithClock injects the time source used for delivery estimation.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAdapter wires the wire client into the carrier adapter.
func NewAdapter(client *fedexclient.Client, logger *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{client: client, logger: logger, now: time.Now}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Carrier identifies this adapter in the registry.
func (a *Adapter) Carrier() domain.CarrierID { return domain.CarrierFedEx }

// FetchRates translates the canonical request, calls the carrier, and
// normalizes every service option in the reply. All tiers are returned;
// filtering is the orchestrator's job.
func (a *Adapter) FetchRates(ctx context.Context, req domain.ShipmentRequest) ([]domain.Quote, error) {
	rateReq, err := a.buildRateRequest(req)
	if err != nil {
		return nil, err
	}
	reply, err := a.client.RateQuotes(ctx, rateReq)
	if err != nil {
		return nil, err
	}
	return a.normalizeReply(reply, req)
}

// buildRateRequest maps canonical fields into the carrier's wire format.
// Packaging limits are enforced here, before any network I/O.
func (a *Adapter) buildRateRequest(req domain.ShipmentRequest) (fedexclient.RateRequest, error) {
	class := req.Package.Class
	if class == "" {
		class = domain.ClassCustom
	}
	pkg, ok := packagingByClass[class]
	if !ok {
		return fedexclient.RateRequest{}, domain.NewBusinessFault(domain.CarrierFedEx,
			fmt.Sprintf("unsupported package class %q", class))
	}
	if weightKg := req.Package.WeightKg(); weightKg > pkg.maxWeightKg {
		return fedexclient.RateRequest{}, domain.NewBusinessFault(domain.CarrierFedEx,
			fmt.Sprintf("package weight %.2f kg exceeds the %.1f kg limit for %s", weightKg, pkg.maxWeightKg, pkg.code))
	}

	lineItem := fedexclient.PackageLineItem{
		Weight: fedexclient.Weight{Units: "LB", Value: req.Package.WeightLb},
		Dimensions: fedexclient.Dimensions{
			Length: int(math.Ceil(req.Package.LengthIn)),
			Width:  int(math.Ceil(req.Package.WidthIn)),
			Height: int(math.Ceil(req.Package.HeightIn)),
			Units:  "IN",
		},
	}
	if req.Package.DeclaredValue.IsPositive() {
		value, _ := req.Package.DeclaredValue.Float64()
		lineItem.DeclaredValue = &fedexclient.Money{Currency: "USD", Amount: value}
	}

	return fedexclient.RateRequest{
		AccountNumber: fedexclient.AccountNumber{Value: a.client.AccountNumberValue()},
		RequestedShipment: fedexclient.RequestedShipment{
			Shipper:                   fedexclient.Party{Address: wireAddress(req.Origin)},
			Recipient:                 fedexclient.Party{Address: wireAddress(req.Destination)},
			PickupType:                "DROPOFF_AT_FEDEX_LOCATION",
			PackagingType:             pkg.code,
			RateRequestType:           []string{"ACCOUNT", "LIST"},
			RequestedPackageLineItems: []fedexclient.PackageLineItem{lineItem},
		},
	}, nil
}

func wireAddress(addr domain.Address) fedexclient.PartyAddress {
	return fedexclient.PartyAddress{
		City:                addr.City,
		StateOrProvinceCode: addr.State,
		PostalCode:          addr.PostalCode,
		CountryCode:         addr.CountryCode,
		Residential:         addr.Residential,
	}
}

var _ ports.RateProvider = (*Adapter)(nil)
