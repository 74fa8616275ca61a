// Package registry holds the fixed carrier-id → adapter mapping resolved
// once at startup.
package registry

import (
	"sort"

	"github.com/parcelworks/rateshop/internal/rates/domain"
	"github.com/parcelworks/rateshop/internal/rates/ports"
)

// Registry is built eagerly from the configured carriers and never mutated
// afterwards, so concurrent Resolve calls need no locking.
type Registry struct {
	providers map[domain.CarrierID]ports.RateProvider
}

// New indexes the provided adapters by their carrier id. Later duplicates
// for the same id replace earlier ones.
func New(providers ...ports.RateProvider) *Registry {
	indexed := make(map[domain.CarrierID]ports.RateProvider, len(providers))
	for _, provider := range providers {
		if provider != nil {
			indexed[provider.Carrier()] = provider
		}
	}
	return &Registry{providers: indexed}
}

// Resolve returns the adapter registered for the carrier id. Adapters are
// stateful (token caching), so the same instance is returned every time.
func (r *Registry) Resolve(carrier domain.CarrierID) (ports.RateProvider, error) {
	provider, ok := r.providers[carrier]
	if !ok {
		return nil, domain.NewUnknownCarrierFault(carrier)
	}
	return provider, nil
}

// Carriers lists the registered carrier ids in stable order.
func (r *Registry) Carriers() []domain.CarrierID {
	carriers := make([]domain.CarrierID, 0, len(r.providers))
	for carrier := range r.providers {
		carriers = append(carriers, carrier)
	}
	sort.Slice(carriers, func(i, j int) bool { return carriers[i] < carriers[j] })
	return carriers
}

var _ ports.Registry = (*Registry)(nil)
