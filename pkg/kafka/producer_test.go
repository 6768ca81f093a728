package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwrrioe/integrity/pkg/events"
)

func TestNewProducerPlaintextUsesDefaultTransport(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	require.NoError(t, err)

	assert.Nil(t, p.transport)
	assert.Empty(t, p.writers)
}

func TestNewProducerSecurity(t *testing.T) {
	tests := []struct {
		mechanism string
		wantErr   bool
	}{
		{mechanism: ""},
		{mechanism: "PLAIN"},
		{mechanism: "SCRAM-SHA-256"},
		{mechanism: "SCRAM-SHA-512"},
		{mechanism: "GSSAPI", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("mechanism "+tt.mechanism, func(t *testing.T) {
			p, err := NewProducer(Config{
				Brokers:       []string{"kafka:9092"},
				TLS:           true,
				SASLEnabled:   true,
				SASLMechanism: tt.mechanism,
				SASLUsername:  "integrity",
				SASLPassword:  "secret",
			})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p.transport)
			assert.NotNil(t, p.transport.SASL)
			assert.Equal(t, uint16(0x0303), p.transport.TLS.MinVersion)
		})
	}
}

func TestWriterForAppliesPrefixAndReuses(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}, TopicPrefix: "integrity.", Async: true})
	require.NoError(t, err)

	risk := mustWriter(t, p, "risk.events")
	assert.Same(t, risk, mustWriter(t, p, "risk.events"))
	assert.NotSame(t, risk, mustWriter(t, p, "analytics.events"))

	assert.Equal(t, "integrity.risk.events", risk.Topic)
	assert.True(t, risk.Async)
	assert.Equal(t, defaultWriteTimeout, risk.WriteTimeout)
	assert.IsType(t, &kafkago.Hash{}, risk.Balancer)
	assert.Len(t, p.writers, 2)
}

func mustWriter(t *testing.T, p *Producer, topic string) *kafkago.Writer {
	t.Helper()
	w, err := p.writerFor(topic)
	require.NoError(t, err)
	return w
}

func TestProducerCloseResetsWriters(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}, WriteTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, time.Second, mustWriter(t, p, "a").WriteTimeout)
	_ = mustWriter(t, p, "b")

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
	assert.NoError(t, p.Close())
}

func TestPublishAfterCloseFails(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	err = p.Publish(context.Background(), "risk.events", Message{Key: []byte("req-1"), Value: []byte("{}")})
	require.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, p.writers)
}

func TestConfig(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Brokers: []string{"kafka:9092"}}.Enabled())
	assert.Equal(t, "risk.events", Config{}.Topic("risk.events"))
	assert.Equal(t, "prod.risk.events", Config{TopicPrefix: "prod."}.Topic("risk.events"))
}

type headerEvent struct {
	events.BaseEvent
	Kind string `json:"kind"`
}

func (e headerEvent) MessageHeaders() map[string]string {
	return map[string]string{"report_kind": e.Kind}
}

func TestEventMessages(t *testing.T) {
	plain := events.NewBaseEvent("risk.batch.scored", "req-1", "prediction_batch")
	withHeaders := headerEvent{BaseEvent: events.NewBaseEvent("report.generated", "req-2", "report"), Kind: "defect"}

	msgs, err := EventMessages(plain, withHeaders)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "req-1", string(msgs[0].Key))
	assert.Equal(t, "risk.batch.scored", msgs[0].Headers["event_type"])
	assert.Equal(t, plain.EventID(), msgs[0].Headers["event_id"])
	assert.Equal(t, plain.OccurredAt().Format(time.RFC3339Nano), msgs[0].Headers["occurred_at"])
	assert.NotContains(t, msgs[0].Headers, "report_kind")

	assert.Equal(t, "defect", msgs[1].Headers["report_kind"])
	var body map[string]any
	require.NoError(t, json.Unmarshal(msgs[1].Value, &body))
	assert.Equal(t, "defect", body["kind"])
	assert.Equal(t, "req-2", body["aggregate_id"])
}
