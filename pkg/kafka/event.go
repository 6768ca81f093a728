package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rwrrioe/integrity/pkg/events"
)

// HeaderCarrier is implemented by events that add their own message headers.
type HeaderCarrier interface {
	MessageHeaders() map[string]string
}

// EventMessages encodes domain events as JSON records keyed by aggregate ID.
// Every record carries event_type, event_id and occurred_at headers.
func EventMessages(evts ...events.DomainEvent) ([]Message, error) {
	msgs := make([]Message, len(evts))
	for i, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", evt.EventType(), err)
		}

		headers := map[string]string{
			"event_type":  evt.EventType(),
			"event_id":    evt.EventID(),
			"occurred_at": evt.OccurredAt().UTC().Format(time.RFC3339Nano),
		}
		if hc, ok := evt.(HeaderCarrier); ok {
			for k, v := range hc.MessageHeaders() {
				headers[k] = v
			}
		}
		msgs[i] = Message{Key: []byte(evt.AggregateID()), Value: payload, Headers: headers}
	}
	return msgs, nil
}
