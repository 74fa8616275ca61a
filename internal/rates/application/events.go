package application

import (
	"time"

	"github.com/parcelworks/rateshop/internal/rates/domain"
)

// QuotesAggregated is the summary event emitted once per aggregation for
// downstream consumers.
type QuotesAggregated struct {
	RequestID     string    `json:"requestId"`
	Carriers      []string  `json:"carriers"`
	QuoteCount    int       `json:"quoteCount"`
	ErrorCount    int       `json:"errorCount"`
	CheapestTotal string    `json:"cheapestTotal,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// EventFromResult summarizes a result for publishing.
func EventFromResult(result *domain.AggregationResult) QuotesAggregated {
	event := QuotesAggregated{
		RequestID:   result.RequestID,
		QuoteCount:  len(result.Quotes),
		ErrorCount:  len(result.Errors),
		GeneratedAt: result.GeneratedAt,
	}
	seen := make(map[domain.CarrierID]bool)
	for _, quote := range result.Quotes {
		if !seen[quote.Carrier] {
			seen[quote.Carrier] = true
			event.Carriers = append(event.Carriers, string(quote.Carrier))
		}
	}
	for _, carrierErr := range result.Errors {
		if !seen[carrierErr.Carrier] {
			seen[carrierErr.Carrier] = true
			event.Carriers = append(event.Carriers, string(carrierErr.Carrier))
		}
	}
	if cheapest, ok := result.Cheapest(); ok {
		event.CheapestTotal = cheapest.TotalCost.StringFixed(domain.CurrencyPlaces)
		event.Currency = cheapest.Currency
	}
	return event
}
