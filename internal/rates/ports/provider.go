package ports

import (
	"context"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// RateProvider is the per-carrier adapter port: translate the canonical
// request into the carrier's wire format, perform the call, and normalize
// the response back into canonical quotes. Providers return every tier they
// find; the orchestrator applies the speed filter. An empty slice with a
// nil error means the carrier had no matching services.
type RateProvider interface {
	Carrier() domain.CarrierID
	FetchRates(ctx context.Context, req domain.ShipmentRequest) ([]domain.Quote, error)
}
