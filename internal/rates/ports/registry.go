package ports

import (
	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// Registry maps carrier ids to their adapter instance. Construction is
// eager and single: one stateful adapter per carrier for the process
// lifetime, so repeated Resolve calls return the same instance.
type Registry interface {
	Resolve(carrier domain.CarrierID) (RateProvider, error)
	Carriers() []domain.CarrierID
}
