package ports

import "context"

// EventPublisher emits aggregation summary events for downstream consumers.
// Publishing is best effort at the HTTP boundary and never affects the
// response.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}
