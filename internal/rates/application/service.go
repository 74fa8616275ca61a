package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/parcelworks/rateshop/internal/rates/domain"
	"github.com/parcelworks/rateshop/internal/rates/ports"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
)

// Service is the aggregation orchestrator: it fans the request out to every
// target carrier concurrently, isolates per-carrier failures, retries
// recoverable ones with exponential backoff, composes fees onto each quote,
// and merges the outcomes into one sorted result.
type Service struct {
	registry        ports.Registry
	defaultCarriers []domain.CarrierID
	maxAttempts     int
	backoffBase     time.Duration
	now             func() time.Time
	newRequestID    func() string
}

// Option configures the orchestrator.
type Option func(*Service)

// WithDefaultCarriers sets the target set used when the request carries no
// allow-list.
func WithDefaultCarriers(carriers ...domain.CarrierID) Option {
	return func(s *Service) {
		s.defaultCarriers = append([]domain.CarrierID{}, carriers...)
	}
}

// WithMaxAttempts overrides the total attempts per carrier (including the
// first call).
func WithMaxAttempts(attempts int) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithBackoffBase overrides the base retry delay.
func WithBackoffBase(base time.Duration) Option {
	return func(s *Service) {
		if base > 0 {
			s.backoffBase = base
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orchestrator with its registry and options.
func NewService(registry ports.Registry, opts ...Option) *Service {
	s := &Service{
		registry:        registry,
		defaultCarriers: []domain.CarrierID{domain.CarrierFedEx},
		maxAttempts:     defaultMaxAttempts,
		backoffBase:     defaultBackoffBase,
		now:             time.Now,
		newRequestID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// carrierOutcome is the terminal state of one carrier's task: quotes on
// success, exactly one error on failure.
type carrierOutcome struct {
	quotes []domain.Quote
	err    *domain.CarrierError
}

// Aggregate runs the full fan-out. The caller always receives a result
// (possibly with zero quotes and one or more carrier errors); only a
// structurally invalid request fails the whole call.
func (s *Service) Aggregate(ctx context.Context, req domain.ShipmentRequest) (*domain.AggregationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	targets := s.targetCarriers(req)

	outcomes := make([]carrierOutcome, len(targets))
	group, ctx := errgroup.WithContext(ctx)
	for i, carrier := range targets {
		group.Go(func() error {
			// Tasks never return an error: one carrier's failure must not
			// cancel another's in-flight call.
			outcomes[i] = s.fetchCarrier(ctx, carrier, req)
			return nil
		})
	}
	_ = group.Wait()

	result := &domain.AggregationResult{
		RequestID:   s.newRequestID(),
		GeneratedAt: s.now().UTC(),
	}
	for _, outcome := range outcomes {
		result.Quotes = append(result.Quotes, outcome.quotes...)
		if outcome.err != nil {
			result.Errors = append(result.Errors, *outcome.err)
		}
	}
	domain.SortQuotes(result.Quotes)
	return result, nil
}

func (s *Service) targetCarriers(req domain.ShipmentRequest) []domain.CarrierID {
	if len(req.Carriers) > 0 {
		return req.Carriers
	}
	return s.defaultCarriers
}

// fetchCarrier drives one carrier from Pending to a terminal state:
// resolve, fetch with bounded retry, filter to the requested tier, and
// compose fees onto each surviving quote.
func (s *Service) fetchCarrier(ctx context.Context, carrier domain.CarrierID, req domain.ShipmentRequest) carrierOutcome {
	provider, err := s.registry.Resolve(carrier)
	if err != nil {
		return carrierOutcome{err: carrierErrorFrom(carrier, err)}
	}

	quotes, err := s.fetchWithRetry(ctx, provider, req)
	if err != nil {
		return carrierOutcome{err: carrierErrorFrom(carrier, err)}
	}

	filter := req.Options.SpeedFilter()
	composed := make([]domain.Quote, 0, len(quotes))
	for _, quote := range quotes {
		if filter != domain.SpeedAll && quote.Tier != filter {
			continue
		}
		composed = append(composed, ApplyFees(quote, req.Options))
	}
	return carrierOutcome{quotes: composed}
}

// fetchWithRetry retries the entire fetch-plus-normalize call on
// recoverable faults only, up to maxAttempts total, sleeping an
// exponentially growing delay between attempts. Retries for different
// carriers run on independent clocks.
func (s *Service) fetchWithRetry(ctx context.Context, provider ports.RateProvider, req domain.ShipmentRequest) ([]domain.Quote, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		quotes, err := provider.FetchRates(ctx, req)
		if err == nil {
			return quotes, nil
		}
		lastErr = err
		fault, ok := domain.FaultFrom(err)
		if !ok || !fault.Recoverable() || attempt == s.maxAttempts {
			break
		}
		if err := sleep(ctx, backoffDelay(s.backoffBase, attempt)); err != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func carrierErrorFrom(carrier domain.CarrierID, err error) *domain.CarrierError {
	if fault, ok := domain.FaultFrom(err); ok {
		return &domain.CarrierError{
			Carrier:     carrier,
			Message:     fault.Error(),
			Recoverable: fault.Recoverable(),
		}
	}
	return &domain.CarrierError{Carrier: carrier, Message: err.Error()}
}

var _ ports.Aggregator = (*Service)(nil)
