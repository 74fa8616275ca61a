package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/rateshop/internal/rates/adapters/registry"
	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// fakeProvider scripts per-call outcomes and records how often it was hit.
type fakeProvider struct {
	mu      sync.Mutex
	carrier domain.CarrierID
	calls   int
	fetch   func(call int) ([]domain.Quote, error)
}

func (f *fakeProvider) Carrier() domain.CarrierID { return f.carrier }

func (f *fakeProvider) FetchRates(ctx context.Context, _ domain.ShipmentRequest) ([]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fetch(call)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func validRequest() domain.ShipmentRequest {
	return domain.ShipmentRequest{
		Package: domain.Package{
			LengthIn: 12, WidthIn: 8, HeightIn: 4, WeightLb: 3.5,
			Class: domain.ClassBox,
		},
		Origin:      domain.Address{City: "Memphis", State: "TN", PostalCode: "38103", CountryCode: "US"},
		Destination: domain.Address{City: "Portland", State: "OR", PostalCode: "97201", CountryCode: "US"},
	}
}

func namedQuote(carrier domain.CarrierID, tier domain.SpeedTier, total string, delivery time.Time) domain.Quote {
	amount := decimal.RequireFromString(total)
	return domain.Quote{
		ID:                string(carrier) + "-" + string(tier),
		Carrier:           carrier,
		Tier:              tier,
		BaseCost:          amount,
		TotalCost:         amount,
		Currency:          "USD",
		EstimatedDelivery: delivery,
	}
}

func TestAggregate_InvalidRequest(t *testing.T) {
	svc := NewService(registry.New())

	_, err := svc.Aggregate(context.Background(), domain.ShipmentRequest{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	require.ErrorIs(t, err, domain.ErrNonPositiveDimensions)
}

func TestAggregate_FailureIsolation(t *testing.T) {
	delivery := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	healthy := &fakeProvider{carrier: "carrier-a", fetch: func(int) ([]domain.Quote, error) {
		return []domain.Quote{namedQuote("carrier-a", domain.TierStandard, "42.75", delivery)}, nil
	}}
	failing := &fakeProvider{carrier: "carrier-b", fetch: func(int) ([]domain.Quote, error) {
		return nil, domain.NewTransportFault("carrier-b", "connection timed out", nil)
	}}
	svc := NewService(registry.New(healthy, failing),
		WithDefaultCarriers("carrier-a", "carrier-b"),
		WithBackoffBase(time.Millisecond),
	)

	result, err := svc.Aggregate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	require.True(t, result.Quotes[0].TotalCost.Equal(decimal.RequireFromString("42.75")))
	require.Len(t, result.Errors, 1)
	require.Equal(t, domain.CarrierID("carrier-b"), result.Errors[0].Carrier)
	require.True(t, result.Errors[0].Recoverable)
	require.NotEmpty(t, result.RequestID)
	require.False(t, result.GeneratedAt.IsZero())
}

func TestAggregate_EveryCarrierAccountedFor(t *testing.T) {
	delivery := time.Now().Add(48 * time.Hour)
	providers := []*fakeProvider{
		{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
			return []domain.Quote{namedQuote("c1", domain.TierTwoDay, "20.00", delivery)}, nil
		}},
		{carrier: "c2", fetch: func(int) ([]domain.Quote, error) {
			return nil, domain.NewBusinessFault("c2", "destination not served")
		}},
		{carrier: "c3", fetch: func(int) ([]domain.Quote, error) {
			return []domain.Quote{
				namedQuote("c3", domain.TierStandard, "12.00", delivery.Add(24*time.Hour)),
				namedQuote("c3", domain.TierOvernight, "55.00", delivery.Add(-24*time.Hour)),
			}, nil
		}},
	}
	svc := NewService(registry.New(providers[0], providers[1], providers[2]),
		WithDefaultCarriers("c1", "c2", "c3"),
		WithBackoffBase(time.Millisecond),
	)

	result, err := svc.Aggregate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Len(t, result.Quotes, 3)
	require.Len(t, result.Errors, 1)
	require.Equal(t, domain.CarrierID("c2"), result.Errors[0].Carrier)
	require.False(t, result.Errors[0].Recoverable)
}

func TestAggregate_SortsByTotalThenDelivery(t *testing.T) {
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return []domain.Quote{
			namedQuote("c1", domain.TierStandard, "30.00", base.Add(72*time.Hour)),
			namedQuote("c1", domain.TierTwoDay, "18.00", base.Add(48*time.Hour)),
			namedQuote("c1", domain.TierOvernight, "18.00", base.Add(24*time.Hour)),
		}, nil
	}}
	svc := NewService(registry.New(provider), WithDefaultCarriers("c1"))

	result, err := svc.Aggregate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Len(t, result.Quotes, 3)
	// Equal totals tie-break on the earlier delivery.
	require.Equal(t, domain.TierOvernight, result.Quotes[0].Tier)
	require.Equal(t, domain.TierTwoDay, result.Quotes[1].Tier)
	require.Equal(t, domain.TierStandard, result.Quotes[2].Tier)
	for i := 1; i < len(result.Quotes); i++ {
		require.True(t, result.Quotes[i-1].TotalCost.LessThanOrEqual(result.Quotes[i].TotalCost))
	}
}

func TestAggregate_SpeedFilterAppliedAfterFetch(t *testing.T) {
	delivery := time.Now().Add(24 * time.Hour)
	provider := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return []domain.Quote{
			namedQuote("c1", domain.TierOvernight, "60.00", delivery),
			namedQuote("c1", domain.TierStandard, "15.00", delivery.Add(72*time.Hour)),
		}, nil
	}}
	svc := NewService(registry.New(provider), WithDefaultCarriers("c1"))

	req := validRequest()
	req.Options.Speed = domain.TierOvernight
	result, err := svc.Aggregate(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	require.Equal(t, domain.TierOvernight, result.Quotes[0].Tier)
}

func TestAggregate_RequestAllowListOverridesDefaults(t *testing.T) {
	delivery := time.Now().Add(24 * time.Hour)
	wanted := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return []domain.Quote{namedQuote("c1", domain.TierStandard, "10.00", delivery)}, nil
	}}
	ignored := &fakeProvider{carrier: "c2", fetch: func(int) ([]domain.Quote, error) {
		return []domain.Quote{namedQuote("c2", domain.TierStandard, "9.00", delivery)}, nil
	}}
	svc := NewService(registry.New(wanted, ignored), WithDefaultCarriers("c1", "c2"))

	req := validRequest()
	req.Carriers = []domain.CarrierID{"c1"}
	result, err := svc.Aggregate(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	require.Equal(t, domain.CarrierID("c1"), result.Quotes[0].Carrier)
	require.Equal(t, 0, ignored.callCount())
}

func TestAggregate_UnknownCarrierReportedNotFatal(t *testing.T) {
	delivery := time.Now().Add(24 * time.Hour)
	known := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return []domain.Quote{namedQuote("c1", domain.TierStandard, "10.00", delivery)}, nil
	}}
	svc := NewService(registry.New(known))

	req := validRequest()
	req.Carriers = []domain.CarrierID{"c1", "ghost"}
	result, err := svc.Aggregate(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	require.Len(t, result.Errors, 1)
	require.Equal(t, domain.CarrierID("ghost"), result.Errors[0].Carrier)
	require.False(t, result.Errors[0].Recoverable)
}

func TestAggregate_RetriesRecoverableFaultsUpToLimit(t *testing.T) {
	flaky := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return nil, domain.NewTransportFault("c1", "connection refused", nil)
	}}
	svc := NewService(registry.New(flaky),
		WithDefaultCarriers("c1"),
		WithBackoffBase(time.Millisecond),
	)

	result, err := svc.Aggregate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Equal(t, 3, flaky.callCount())
	require.Empty(t, result.Quotes)
	require.Len(t, result.Errors, 1)
	require.True(t, result.Errors[0].Recoverable)
}

func TestAggregate_RecoversWhenRetrySucceeds(t *testing.T) {
	delivery := time.Now().Add(24 * time.Hour)
	flaky := &fakeProvider{carrier: "c1", fetch: func(call int) ([]domain.Quote, error) {
		if call < 3 {
			return nil, domain.NewTransportFault("c1", "connection reset", nil)
		}
		return []domain.Quote{namedQuote("c1", domain.TierStandard, "42.75", delivery)}, nil
	}}
	svc := NewService(registry.New(flaky),
		WithDefaultCarriers("c1"),
		WithBackoffBase(time.Millisecond),
	)

	result, err := svc.Aggregate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Equal(t, 3, flaky.callCount())
	require.Len(t, result.Quotes, 1)
	require.Empty(t, result.Errors)
}

func TestAggregate_NonRecoverableFaultNotRetried(t *testing.T) {
	rejected := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return nil, domain.NewBusinessFault("c1", "weight exceeds service limit")
	}}
	svc := NewService(registry.New(rejected),
		WithDefaultCarriers("c1"),
		WithBackoffBase(time.Millisecond),
	)

	result, err := svc.Aggregate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Equal(t, 1, rejected.callCount())
	require.Len(t, result.Errors, 1)
	require.False(t, result.Errors[0].Recoverable)
}

func TestAggregate_CancelledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	flaky := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		cancel()
		return nil, domain.NewTransportFault("c1", "connection refused", nil)
	}}
	svc := NewService(registry.New(flaky),
		WithDefaultCarriers("c1"),
		WithBackoffBase(time.Minute),
	)

	result, err := svc.Aggregate(ctx, validRequest())

	require.NoError(t, err)
	require.Equal(t, 1, flaky.callCount())
	require.Len(t, result.Errors, 1)
}

func TestAggregate_ComposesFeesOnEveryQuote(t *testing.T) {
	delivery := time.Now().Add(24 * time.Hour)
	provider := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return []domain.Quote{namedQuote("c1", domain.TierStandard, "15.00", delivery)}, nil
	}}
	svc := NewService(registry.New(provider), WithDefaultCarriers("c1"))

	insured := decimal.RequireFromString("100.00")
	req := validRequest()
	req.Options = domain.ServiceOptions{
		SignatureRequired: true,
		Insurance:         true,
		InsuredValue:      &insured,
	}
	result, err := svc.Aggregate(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Quotes, 1)
	quote := result.Quotes[0]
	require.Len(t, quote.Fees, 2)
	require.True(t, quote.TotalCost.Equal(decimal.RequireFromString("23.00")), "got %s", quote.TotalCost)
}

func TestBackoffDelay_DoublesPerFailedAttempt(t *testing.T) {
	base := time.Second
	require.Equal(t, 2*time.Second, backoffDelay(base, 1))
	require.Equal(t, 4*time.Second, backoffDelay(base, 2))
	require.Equal(t, 8*time.Second, backoffDelay(base, 3))
}

func TestAggregate_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 9, 30, 0, 0, time.FixedZone("CST", -6*3600))
	provider := &fakeProvider{carrier: "c1", fetch: func(int) ([]domain.Quote, error) {
		return nil, nil
	}}
	svc := NewService(registry.New(provider),
		WithDefaultCarriers("c1"),
		WithClock(func() time.Time { return fixed }),
	)

	result, err := svc.Aggregate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Equal(t, fixed.UTC(), result.GeneratedAt)
}
