package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rwrrioe/integrity/pkg/events"
	pkgkafka "github.com/rwrrioe/integrity/pkg/kafka"
)

// DefaultTopic receives every analytics event.
const DefaultTopic = "analytics.events"

type producer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Publisher implements port.EventPublisher on a Kafka topic.
type Publisher struct {
	producer producer
	topic    string
	logger   *slog.Logger
}

// NewPublisher creates a publisher. An empty topic selects DefaultTopic.
func NewPublisher(producer producer, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// Publish sends report events keyed by request ID. Report events carry a
// report_kind header.
func (p *Publisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	msgs, err := pkgkafka.EventMessages(evts...)
	if err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "publishing analytics events",
		slog.String("topic", p.topic),
		slog.Int("count", len(msgs)),
	)
	if err := p.producer.Publish(ctx, p.topic, msgs...); err != nil {
		return fmt.Errorf("publish analytics events to %s: %w", p.topic, err)
	}
	return nil
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// Publish implements port.EventPublisher.
func (NoopPublisher) Publish(context.Context, ...events.DomainEvent) error { return nil }
