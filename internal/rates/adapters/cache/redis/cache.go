// Package redis caches aggregation results with a TTL. The engine itself
// stays stateless; this adapter lives at the collaborator boundary and is
// consulted only by the HTTP layer.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/parcelworks/rateshop/internal/rates/domain"
	"github.com/parcelworks/rateshop/internal/rates/ports"
)

const (
	keyPrefix  = "rates:result:"
	defaultTTL = 30 * time.Minute
)

// Cache stores JSON-encoded aggregation results in Redis.
type Cache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// New dials Redis and verifies connectivity with a ping.
func New(addr string, ttl time.Duration) (*Cache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Get loads a cached result. A missing key is a plain miss, not an error.
func (c *Cache) Get(ctx context.Context, key string) (*domain.AggregationResult, bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var record resultRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	result := record.toDomain()
	return &result, true, nil
}

// Set stores the result under the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, result *domain.AggregationResult) error {
	raw, err := json.Marshal(recordFrom(result))
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Cache) Close() error { return c.rdb.Close() }

// resultRecord is the storage codec for a result. It mirrors the domain
// shape with JSON tags so the domain types stay tag-free.
type resultRecord struct {
	RequestID   string        `json:"requestId"`
	Quotes      []quoteRecord `json:"quotes"`
	Errors      []errorRecord `json:"errors,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

type quoteRecord struct {
	ID                 string          `json:"id"`
	Carrier            string          `json:"carrier"`
	ServiceCode        string          `json:"serviceCode"`
	ServiceName        string          `json:"serviceName"`
	Tier               string          `json:"tier"`
	BaseCost           decimal.Decimal `json:"baseCost"`
	Fees               []feeRecord     `json:"fees,omitempty"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	Currency           string          `json:"currency"`
	EstimatedDelivery  time.Time       `json:"estimatedDelivery"`
	GuaranteedDelivery bool            `json:"guaranteedDelivery"`
	Tags               []string        `json:"tags,omitempty"`
}

type feeRecord struct {
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type errorRecord struct {
	Carrier     string `json:"carrier"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

func recordFrom(result *domain.AggregationResult) resultRecord {
	record := resultRecord{
		RequestID:   result.RequestID,
		GeneratedAt: result.GeneratedAt,
		Quotes:      make([]quoteRecord, 0, len(result.Quotes)),
	}
	for _, quote := range result.Quotes {
		qr := quoteRecord{
			ID:                 quote.ID,
			Carrier:            string(quote.Carrier),
			ServiceCode:        quote.ServiceCode,
			ServiceName:        quote.ServiceName,
			Tier:               string(quote.Tier),
			BaseCost:           quote.BaseCost,
			TotalCost:          quote.TotalCost,
			Currency:           quote.Currency,
			EstimatedDelivery:  quote.EstimatedDelivery,
			GuaranteedDelivery: quote.GuaranteedDelivery,
			Tags:               quote.Tags,
		}
		for _, fee := range quote.Fees {
			qr.Fees = append(qr.Fees, feeRecord{Kind: string(fee.Kind), Amount: fee.Amount, Description: fee.Description})
		}
		record.Quotes = append(record.Quotes, qr)
	}
	for _, carrierErr := range result.Errors {
		record.Errors = append(record.Errors, errorRecord{
			Carrier:     string(carrierErr.Carrier),
			Message:     carrierErr.Message,
			Recoverable: carrierErr.Recoverable,
		})
	}
	return record
}

func (r resultRecord) toDomain() domain.AggregationResult {
	result := domain.AggregationResult{
		RequestID:   r.RequestID,
		GeneratedAt: r.GeneratedAt,
		Quotes:      make([]domain.Quote, 0, len(r.Quotes)),
	}
	for _, qr := range r.Quotes {
		quote := domain.Quote{
			ID:                 qr.ID,
			Carrier:            domain.CarrierID(qr.Carrier),
			ServiceCode:        qr.ServiceCode,
			ServiceName:        qr.ServiceName,
			Tier:               domain.SpeedTier(qr.Tier),
			BaseCost:           qr.BaseCost,
			TotalCost:          qr.TotalCost,
			Currency:           qr.Currency,
			EstimatedDelivery:  qr.EstimatedDelivery,
			GuaranteedDelivery: qr.GuaranteedDelivery,
			Tags:               qr.Tags,
		}
		for _, fr := range qr.Fees {
			quote.Fees = append(quote.Fees, domain.Fee{Kind: domain.FeeKind(fr.Kind), Amount: fr.Amount, Description: fr.Description})
		}
		result.Quotes = append(result.Quotes, quote)
	}
	for _, er := range r.Errors {
		result.Errors = append(result.Errors, domain.CarrierError{
			Carrier:     domain.CarrierID(er.Carrier),
			Message:     er.Message,
			Recoverable: er.Recoverable,
		})
	}
	return result
}

var _ ports.ResultCache = (*Cache)(nil)
