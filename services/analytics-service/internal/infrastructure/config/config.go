package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rwrrioe/integrity/pkg/auth"
	pkgkafka "github.com/rwrrioe/integrity/pkg/kafka"
	"github.com/rwrrioe/integrity/pkg/rpc"
	"github.com/rwrrioe/integrity/pkg/tlsutil"
)

// Config holds all configuration for the analytics service.
type Config struct {
	GRPCPort    string
	HTTPPort    string
	Environment string
	LogLevel    string
	LogFile     string
	Workers     int

	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	// MapStyleFile is an optional YAML map style; empty uses the defaults.
	MapStyleFile string

	Kafka      pkgkafka.Config
	KafkaTopic string

	OTelEndpoint string
	Reflection   bool

	JWT auth.ValidatorSettings
	TLS tlsutil.Files
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GRPCPort:    getEnv("GRPC_PORT", "9080"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		Workers:     getEnvInt("WORKERS", rpc.DefaultWorkers),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		LLMTimeout:   getEnvDuration("LLM_TIMEOUT", 60*time.Second),

		MapStyleFile: getEnv("MAP_STYLE_FILE", ""),

		Kafka: pkgkafka.Config{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			TopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
			WriteTimeout:  getEnvDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
			TLS:           getEnv("KAFKA_TLS", "") == "true",
			SASLEnabled:   getEnv("KAFKA_SASL_MECHANISM", "") != "",
			SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			Async:         getEnv("KAFKA_ASYNC", "true") == "true",
		},
		KafkaTopic: getEnv("KAFKA_TOPIC", "analytics.events"),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Reflection:   getEnv("GRPC_REFLECTION", "") == "true",

		JWT: auth.ValidatorSettings{
			Secret:        getEnv("JWT_SECRET", ""),
			PublicKeyPEM:  getEnv("JWT_PUBLIC_KEY", ""),
			PublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:        getEnv("JWT_ISSUER", ""),
			Leeway:        getEnvDuration("JWT_LEEWAY", 30*time.Second),
		},
		TLS: tlsutil.Files{
			CertFile: getEnv("GRPC_TLS_CERT_FILE", ""),
			KeyFile:  getEnv("GRPC_TLS_KEY_FILE", ""),
			CAFile:   getEnv("GRPC_TLS_CA_FILE", ""),
		},
	}
}

// Validate reports configuration that would prevent the service from
// starting. The Gemini API key has no default.
func (c *Config) Validate() error {
	var errs []error
	if c.GRPCPort == "" {
		errs = append(errs, errors.New("GRPC_PORT is empty"))
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.GeminiModel == "" {
		errs = append(errs, errors.New("GEMINI_MODEL is empty"))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("WORKERS must be positive, got %d", c.Workers))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
