package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/parcelworks/rateshop/internal/rates/domain"
	"github.com/parcelworks/rateshop/internal/rates/ports"
)

const tracerName = "github.com/parcelworks/rateshop/internal/rates/adapters/observability/service"

// Service decorates the aggregator port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Aggregator
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create the metric instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core aggregator.
func New(inner ports.Aggregator, opts ...Option) ports.Aggregator {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Aggregate instruments the fan-out call.
func (s *Service) Aggregate(ctx context.Context, req domain.ShipmentRequest) (*domain.AggregationResult, error) {
	ctx, span := s.startSpan(ctx, "Aggregator.Aggregate",
		attribute.Int("request.carrier_count", len(req.Carriers)),
		attribute.String("request.speed", string(req.Options.SpeedFilter())),
		attribute.Bool("request.international", req.International()),
	)
	defer span.End()

	s.logInfo(ctx, "aggregating rates",
		slog.Int("carriers", len(req.Carriers)),
		slog.String("speed", string(req.Options.SpeedFilter())))
	result, err := s.inner.Aggregate(ctx, req)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "aggregation failed")
	}

	span.SetAttributes(
		attribute.Int("result.quote_count", len(result.Quotes)),
		attribute.Int("result.error_count", len(result.Errors)),
	)
	s.metrics.recordAggregation(ctx, result)
	s.logInfo(ctx, "rates aggregated",
		slog.String("request.id", result.RequestID),
		slog.Int("quotes", len(result.Quotes)),
		slog.Int("carrier_errors", len(result.Errors)))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	quotesReturned  metric.Int64Counter
	carrierFailures metric.Int64Counter
	aggregations    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	quotesReturned, _ := m.Int64Counter("rates.aggregator.quotes", metric.WithDescription("Number of quotes returned"))
	carrierFailures, _ := m.Int64Counter("rates.aggregator.carrier_failures", metric.WithDescription("Number of carrier failures recorded"))
	aggregations, _ := m.Int64Counter("rates.aggregator.requests", metric.WithDescription("Number of aggregation requests"))
	return serviceMetrics{
		quotesReturned:  quotesReturned,
		carrierFailures: carrierFailures,
		aggregations:    aggregations,
	}
}

func (m serviceMetrics) recordAggregation(ctx context.Context, result *domain.AggregationResult) {
	addCounter(ctx, m.aggregations, 1)
	addCounter(ctx, m.quotesReturned, int64(len(result.Quotes)))
	for _, carrierErr := range result.Errors {
		addCounter(ctx, m.carrierFailures, 1,
			attribute.String("carrier", string(carrierErr.Carrier)),
			attribute.Bool("recoverable", carrierErr.Recoverable))
	}
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Aggregator = (*Service)(nil)
