package ports

import (
	"context"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// ResultCache stores aggregation results keyed by the request fingerprint.
// TTL policy lives entirely in the implementation; the engine never assumes
// a cache exists and treats misses and errors the same way.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.AggregationResult, bool, error)
	Set(ctx context.Context, key string, result *domain.AggregationResult) error
}
