package domain

import (
	"sort"
	"time"
)

// CarrierError records one carrier that failed after exhausting retries.
type CarrierError struct {
	Carrier     CarrierID
	Message     string
	Recoverable bool
}

// AggregationResult is what the caller receives: quotes sorted ascending by
// total cost (ties broken by earliest delivery) plus per-carrier failures.
// Every targeted carrier appears through quotes, an error, or both.
type AggregationResult struct {
	RequestID   string
	Quotes      []Quote
	Errors      []CarrierError
	GeneratedAt time.Time
}

// SortQuotes orders quotes ascending by total cost, breaking ties by the
// earlier estimated delivery.
func SortQuotes(quotes []Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		cmp := quotes[i].TotalCost.Cmp(quotes[j].TotalCost)
		if cmp != 0 {
			return cmp < 0
		}
		return quotes[i].EstimatedDelivery.Before(quotes[j].EstimatedDelivery)
	})
}

// Cheapest returns the first quote after sorting, if any.
func (r *AggregationResult) Cheapest() (Quote, bool) {
	if len(r.Quotes) == 0 {
		return Quote{}, false
	}
	return r.Quotes[0], true
}
