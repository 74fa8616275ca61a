package domain

import (
	"errors"
	"fmt"
)

// FaultKind classifies a carrier-call failure. Recoverability is derived
// from the kind, never from matching error message text.
type FaultKind string

const (
	// FaultTransport covers timeouts, connection failures, and DNS
	// failures. Transport faults are the only recoverable kind.
	FaultTransport FaultKind = "transport"
	// FaultProtocol covers malformed or rejected requests, fatal carrier
	// alerts, and authentication failures.
	FaultProtocol FaultKind = "protocol"
	// FaultBusiness covers requests that violate a carrier's physical or
	// service constraints, raised before any network I/O.
	FaultBusiness FaultKind = "business"
	// FaultUnknownCarrier means the registry has no adapter for the id.
	FaultUnknownCarrier FaultKind = "unknown-carrier"
	// FaultExtraction means a carrier response yielded no usable total.
	FaultExtraction FaultKind = "extraction"
)

// CarrierFault is the typed failure raised inside a single carrier's
// adapter call. The orchestrator converts it into a CarrierError entry
// instead of letting it escape to the caller.
type CarrierFault struct {
	Carrier CarrierID
	Kind    FaultKind
	Message string
	Err     error
}

func (f *CarrierFault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s fault: %s: %v", f.Carrier, f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s fault: %s", f.Carrier, f.Kind, f.Message)
}

func (f *CarrierFault) Unwrap() error { return f.Err }

// Recoverable reports whether the failure is transient and eligible for
// retry.
func (f *CarrierFault) Recoverable() bool { return f.Kind == FaultTransport }

// NewTransportFault wraps a network-level failure.
func NewTransportFault(carrier CarrierID, message string, err error) *CarrierFault {
	return &CarrierFault{Carrier: carrier, Kind: FaultTransport, Message: message, Err: err}
}

// NewProtocolFault wraps a non-recoverable wire or authentication failure.
func NewProtocolFault(carrier CarrierID, message string, err error) *CarrierFault {
	return &CarrierFault{Carrier: carrier, Kind: FaultProtocol, Message: message, Err: err}
}

// NewBusinessFault reports a carrier constraint violated before any I/O.
func NewBusinessFault(carrier CarrierID, message string) *CarrierFault {
	return &CarrierFault{Carrier: carrier, Kind: FaultBusiness, Message: message}
}

// NewUnknownCarrierFault reports an id the registry does not know.
func NewUnknownCarrierFault(carrier CarrierID) *CarrierFault {
	return &CarrierFault{Carrier: carrier, Kind: FaultUnknownCarrier, Message: "no adapter registered"}
}

// NewExtractionFault reports a response with no usable total charge.
func NewExtractionFault(carrier CarrierID, message string) *CarrierFault {
	return &CarrierFault{Carrier: carrier, Kind: FaultExtraction, Message: message}
}

// FaultFrom extracts the typed carrier fault from an error chain.
func FaultFrom(err error) (*CarrierFault, bool) {
	var fault *CarrierFault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
