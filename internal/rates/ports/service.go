package ports

import (
	"context"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// Aggregator is the driving port for the rate aggregation use case. The
// returned result always carries every targeted carrier's outcome; an error
// is returned only when the request itself is structurally invalid.
type Aggregator interface {
	Aggregate(ctx context.Context, req domain.ShipmentRequest) (*domain.AggregationResult, error)
}
