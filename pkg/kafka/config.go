package kafka

import "time"

// Config holds Kafka connection parameters. A zero Config disables
// publishing.
type Config struct {
	Brokers []string

	// TopicPrefix namespaces every topic, e.g. "integrity." + "risk.events".
	TopicPrefix string

	WriteTimeout time.Duration
	// Async returns from Publish before the broker acknowledges the batch.
	Async bool

	TLS bool

	SASLEnabled   bool
	SASLMechanism string // PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512
	SASLUsername  string
	SASLPassword  string
}

const (
	defaultWriteTimeout = 10 * time.Second
	batchTimeout        = 10 * time.Millisecond
)

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// Topic returns name with the configured prefix.
func (c Config) Topic(name string) string {
	return c.TopicPrefix + name
}
