package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("kafka producer closed")

// Message is one record handed to Publish.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer publishes to any number of topics over one shared transport.
// Writers are created on first use per topic.
type Producer struct {
	cfg       Config
	transport *kafkago.Transport

	mu      sync.Mutex
	writers map[string]*kafkago.Writer
	closed  bool
}

// NewProducer validates the security settings in cfg and returns a Producer.
// No connection is made until the first Publish.
func NewProducer(cfg Config) (*Producer, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{cfg: cfg, transport: transport, writers: map[string]*kafkago.Writer{}}, nil
}

// Publish writes messages to topic, prefixed per Config.TopicPrefix.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	w, err := p.writerFor(topic)
	if err != nil {
		return err
	}

	records := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		records[i] = kafkago.Message{Key: m.Key, Value: m.Value}
		for k, v := range m.Headers {
			records[i].Headers = append(records[i].Headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
	}

	if err := w.WriteMessages(ctx, records...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", w.Topic, err)
	}
	return nil
}

// Close flushes and closes every writer. Later Publish calls fail with
// ErrClosed; a second Close is a no-op.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer for %s: %w", topic, err))
		}
	}
	clear(p.writers)
	return errors.Join(errs...)
}

func (p *Producer) writerFor(topic string) (*kafkago.Writer, error) {
	topic = p.cfg.Topic(topic)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if w, ok := p.writers[topic]; ok {
		return w, nil
	}

	timeout := p.cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	// Hash keeps every event of one request on one partition.
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(p.cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: batchTimeout,
		WriteTimeout: timeout,
		RequiredAcks: kafkago.RequireAll,
		Async:        p.cfg.Async,
	}
	if p.transport != nil {
		w.Transport = p.transport
	}
	p.writers[topic] = w
	return w, nil
}

// newTransport returns nil, meaning the kafka-go default transport, unless
// TLS or SASL is requested.
func newTransport(cfg Config) (*kafkago.Transport, error) {
	if !cfg.TLS && !cfg.SASLEnabled {
		return nil, nil
	}

	t := &kafkago.Transport{}
	if cfg.TLS {
		t.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.SASLEnabled {
		m, err := saslMechanism(cfg)
		if err != nil {
			return nil, err
		}
		t.SASL = m
	}
	return t, nil
}

func saslMechanism(cfg Config) (sasl.Mechanism, error) {
	switch cfg.SASLMechanism {
	case "", "PLAIN":
		return plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.SASLUsername, cfg.SASLPassword)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.SASLUsername, cfg.SASLPassword)
	}
	return nil, fmt.Errorf("unsupported SASL mechanism %q", cfg.SASLMechanism)
}
