// Package kafka publishes aggregation summary events for downstream
// consumers (analytics, alerting). Publishing is fire-and-forget from the
// engine's point of view.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	skafka "github.com/segmentio/kafka-go"

	"github.com/parcelworks/rateshop/internal/rates/ports"
)

// Writer is the subset of the kafka-go writer the producer needs, kept as
// an interface so tests can inject a fake.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Producer publishes JSON events keyed by request id.
type Producer struct {
	writer Writer
	logger *slog.Logger
}

// NewProducer builds a producer writing to the given broker and topic.
func NewProducer(brokerAddr, topic string, logger *slog.Logger) *Producer {
	writer := &skafka.Writer{
		Addr:     skafka.TCP(brokerAddr),
		Topic:    topic,
		Balancer: &skafka.LeastBytes{},
	}
	return NewProducerWithWriter(writer, logger)
}

// NewProducerWithWriter allows injecting a test writer.
func NewProducerWithWriter(writer Writer, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{writer: writer, logger: logger}
}

// Publish marshals the value to JSON and writes one message.
func (p *Producer) Publish(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		p.logger.Error("marshal event payload", slog.String("key", key), slog.String("error", err.Error()))
		return err
	}
	msg := skafka.Message{Key: []byte(key), Value: raw}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka write", slog.String("key", key), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error { return p.writer.Close() }

var _ ports.EventPublisher = (*Producer)(nil)
