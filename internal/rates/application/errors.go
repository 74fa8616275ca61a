package application

import "errors"

// ErrInvalidRequest signals the request itself is structurally unusable.
// This is the only failure the aggregator surfaces as a hard error; every
// carrier-scoped failure becomes a CarrierError entry in the result.
var ErrInvalidRequest = errors.New("invalid shipment request")
