// Package http exposes the rate aggregation use case over gin.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parcelworks/rateshop/internal/rates/adapters/http/mapper"
	"github.com/parcelworks/rateshop/internal/rates/application"
	"github.com/parcelworks/rateshop/internal/rates/ports"
	sharederrors "github.com/parcelworks/rateshop/internal/shared/errors"
)

// Handler serves the quote endpoint, consulting the result cache and
// publishing a summary event per aggregation. Cache and publisher are
// optional collaborators.
type Handler struct {
	aggregator ports.Aggregator
	cache      ports.ResultCache
	events     ports.EventPublisher
	logger     *slog.Logger
	responder  *sharederrors.Responder
}

// Option configures the handler's optional collaborators.
type Option func(*Handler)

// WithCache enables result caching.
func WithCache(cache ports.ResultCache) Option {
	return func(h *Handler) {
		h.cache = cache
	}
}

// WithEvents enables event publishing.
func WithEvents(events ports.EventPublisher) Option {
	return func(h *Handler) {
		h.events = events
	}
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler wires the rates HTTP surface.
func NewHandler(aggregator ports.Aggregator, opts ...Option) *Handler {
	h := &Handler{
		aggregator: aggregator,
		logger:     slog.Default(),
		responder:  sharederrors.NewResponder(""),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register attaches the routes to the router.
func (h *Handler) Register(router gin.IRouter) {
	v1 := router.Group("/v1")
	v1.POST("/rates/quotes", h.QuoteRates)
}

// QuoteRates runs one aggregation: decode, cache lookup, aggregate, cache
// fill, publish, respond. The caller always gets a result body unless the
// request itself is structurally invalid.
func (h *Handler) QuoteRates(c *gin.Context) {
	var wire mapper.QuoteRatesRequest
	if err := c.ShouldBindJSON(&wire); err != nil {
		h.responder.BadRequest(c, "request body is not valid JSON: "+err.Error())
		return
	}

	req, fieldErrors := mapper.ToDomainRequest(wire)
	if fieldErrors != nil {
		h.responder.ValidationFailed(c, fieldErrors)
		return
	}

	ctx := c.Request.Context()
	key, err := application.FingerprintRequest(req)
	if err != nil {
		// A fingerprint failure only disables caching for this call.
		h.logger.Warn("request fingerprint failed", slog.String("error", err.Error()))
		key = ""
	}

	if h.cache != nil && key != "" {
		cached, hit, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.Warn("result cache lookup failed", slog.String("error", err.Error()))
		} else if hit {
			c.JSON(http.StatusOK, mapper.FromResult(cached))
			return
		}
	}

	result, err := h.aggregator.Aggregate(ctx, req)
	if err != nil {
		if errors.Is(err, application.ErrInvalidRequest) {
			h.responder.BadRequest(c, err.Error())
			return
		}
		h.responder.RespondError(c, err)
		return
	}

	if h.cache != nil && key != "" {
		if err := h.cache.Set(ctx, key, result); err != nil {
			h.logger.Warn("result cache store failed", slog.String("error", err.Error()))
		}
	}
	if h.events != nil {
		if err := h.events.Publish(ctx, result.RequestID, application.EventFromResult(result)); err != nil {
			h.logger.Warn("aggregation event publish failed",
				slog.String("request.id", result.RequestID),
				slog.String("error", err.Error()))
		}
	}

	c.JSON(http.StatusOK, mapper.FromResult(result))
}
