package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rwrrioe/integrity/pkg/events"
	pkgkafka "github.com/rwrrioe/integrity/pkg/kafka"
)

// DefaultTopic receives every prediction event.
const DefaultTopic = "risk.events"

type producer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Publisher implements port.EventPublisher on a Kafka topic.
type Publisher struct {
	producer producer
	topic    string
	logger   *slog.Logger
}

// NewPublisher returns a Publisher writing to topic, or DefaultTopic when
// topic is empty.
func NewPublisher(producer producer, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// Publish writes the batch outcome events keyed by request ID.
func (p *Publisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if len(evts) == 0 {
		return nil
	}

	msgs, err := pkgkafka.EventMessages(evts...)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		p.logger.DebugContext(ctx, "publishing risk event",
			slog.String("event_type", m.Headers["event_type"]),
			slog.String("request_id", string(m.Key)),
		)
	}

	if err := p.producer.Publish(ctx, p.topic, msgs...); err != nil {
		return fmt.Errorf("publish risk events to %s: %w", p.topic, err)
	}
	return nil
}

// NoopPublisher discards events when no broker is configured.
type NoopPublisher struct{}

// Publish implements port.EventPublisher.
func (NoopPublisher) Publish(context.Context, ...events.DomainEvent) error { return nil }
