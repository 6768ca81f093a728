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

// Config holds all configuration for the prediction service.
type Config struct {
	GRPCPort    string
	HTTPPort    string
	Environment string
	LogLevel    string
	LogFile     string

	ModelPath       string
	ScalerPath      string
	ModelInputName  string
	ModelOutputName string
	OnnxLibraryPath string
	IntraOpThreads  int
	Workers         int

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
		GRPCPort:    getEnv("GRPC_PORT", "9081"),
		HTTPPort:    getEnv("HTTP_PORT", "8081"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),

		ModelPath:       getEnv("MODEL_PATH", "artifacts/risk_model.onnx"),
		ScalerPath:      getEnv("SCALER_PATH", "artifacts/scaler.yaml"),
		ModelInputName:  getEnv("MODEL_INPUT_NAME", "input"),
		ModelOutputName: getEnv("MODEL_OUTPUT_NAME", "output"),
		OnnxLibraryPath: getEnv("ONNXRUNTIME_SHARED_LIBRARY_PATH", ""),
		IntraOpThreads:  getEnvInt("ONNX_INTRA_OP_THREADS", 1),
		Workers:         getEnvInt("WORKERS", rpc.DefaultWorkers),

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
		KafkaTopic: getEnv("KAFKA_TOPIC", "risk.events"),

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
// starting.
func (c *Config) Validate() error {
	var errs []error
	if c.GRPCPort == "" {
		errs = append(errs, errors.New("GRPC_PORT is empty"))
	}
	if c.ModelPath == "" {
		errs = append(errs, errors.New("MODEL_PATH is empty"))
	}
	if c.ScalerPath == "" {
		errs = append(errs, errors.New("SCALER_PATH is empty"))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("WORKERS must be positive, got %d", c.Workers))
	}
	if c.IntraOpThreads < 0 {
		errs = append(errs, fmt.Errorf("ONNX_INTRA_OP_THREADS must not be negative, got %d", c.IntraOpThreads))
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
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return v
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
