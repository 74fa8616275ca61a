package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	fedexclient "github.com/parcelworks/rateshop/internal/clients/http/fedex"
	platformobservability "github.com/parcelworks/rateshop/internal/platform/observability"
	rediscache "github.com/parcelworks/rateshop/internal/rates/adapters/cache/redis"
	fedexcarrier "github.com/parcelworks/rateshop/internal/rates/adapters/carrier/fedex"
	kafkaevents "github.com/parcelworks/rateshop/internal/rates/adapters/events/kafka"
	rateshttp "github.com/parcelworks/rateshop/internal/rates/adapters/http"
	ratesobs "github.com/parcelworks/rateshop/internal/rates/adapters/observability"
	"github.com/parcelworks/rateshop/internal/rates/adapters/registry"
	ratesapp "github.com/parcelworks/rateshop/internal/rates/application"
	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// Run boots the rate aggregation HTTP API with observability, carrier
// clients, caching, and event publishing wired.
func Run(ctx context.Context) error {
	const serviceName = "rateshop-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	carrierClient, err := fedexclient.NewClient(fedexclient.Config{
		BaseURL:       cfg.FedExBaseURL,
		ClientID:      cfg.FedExClientID,
		ClientSecret:  cfg.FedExClientSecret,
		AccountNumber: cfg.FedExAccountNumber,
		Timeout:       cfg.FedExTimeout,
	}, http.DefaultClient)
	if err != nil {
		return fmt.Errorf("failed to configure FedEx client: %w", err)
	}

	carriers := registry.New(fedexcarrier.NewAdapter(carrierClient, logger))

	serviceOpts := []ratesapp.Option{}
	if len(cfg.DefaultCarriers) > 0 {
		ids := make([]domain.CarrierID, 0, len(cfg.DefaultCarriers))
		for _, carrier := range cfg.DefaultCarriers {
			ids = append(ids, domain.CarrierID(carrier))
		}
		serviceOpts = append(serviceOpts, ratesapp.WithDefaultCarriers(ids...))
	}
	aggregator := ratesobs.New(
		ratesapp.NewService(carriers, serviceOpts...),
		ratesobs.WithLogger(logger),
		ratesobs.WithTracer(instruments.Tracer("internal.rates.application")),
		ratesobs.WithMeter(instruments.Meter("internal.rates.application")),
	)

	handlerOpts := []rateshttp.Option{rateshttp.WithLogger(logger)}
	if cfg.RedisAddr != "" {
		cache, err := rediscache.New(cfg.RedisAddr, cfg.CacheTTL)
		if err != nil {
			logger.Warn("result cache unavailable, serving uncached", slog.String("error", err.Error()))
		} else {
			defer func() { _ = cache.Close() }()
			handlerOpts = append(handlerOpts, rateshttp.WithCache(cache))
			logger.Info("result cache configured", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.CacheTTL))
		}
	}
	if cfg.KafkaBroker != "" && !cfg.KafkaOff {
		producer := kafkaevents.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, logger)
		defer func() { _ = producer.Close() }()
		handlerOpts = append(handlerOpts, rateshttp.WithEvents(producer))
		logger.Info("event publishing configured", slog.String("broker", cfg.KafkaBroker), slog.String("topic", cfg.KafkaTopic))
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	rateshttp.NewHandler(aggregator, handlerOpts...).Register(router)

	addr := ":" + cfg.Port
	logger.Info("rate aggregation API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("rate aggregation API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}
