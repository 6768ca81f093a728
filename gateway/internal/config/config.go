package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/rwrrioe/integrity/pkg/auth"
)

// Config holds all configuration for the API gateway.
type Config struct {
	HTTPPort  int
	LogLevel  string
	LogFormat string
	LogFile   string

	RiskAddr         string
	AnalyticsAddr    string
	RiskTimeout      time.Duration
	AnalyticsTimeout time.Duration

	// BackendCAFile enables TLS to the backends when set.
	BackendCAFile     string
	BackendServerName string

	RateLimit float64 // requests per second per client
	RateBurst int

	JWT auth.ValidatorSettings
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPPort:  getEnvInt("HTTP_PORT", 8000),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		RiskAddr:         getEnv("RISK_ADDR", "localhost:9081"),
		AnalyticsAddr:    getEnv("ANALYTICS_ADDR", "localhost:9080"),
		RiskTimeout:      getEnvDuration("RISK_TIMEOUT", 10*time.Second),
		AnalyticsTimeout: getEnvDuration("ANALYTICS_TIMEOUT", 120*time.Second),

		BackendCAFile:     getEnv("BACKEND_TLS_CA_FILE", ""),
		BackendServerName: getEnv("BACKEND_TLS_SERVER_NAME", ""),

		RateLimit: getEnvFloat("RATE_LIMIT", 20),
		RateBurst: getEnvInt("RATE_BURST", 40),

		JWT: auth.ValidatorSettings{
			Secret:        getEnv("JWT_SECRET", ""),
			PublicKeyPEM:  getEnv("JWT_PUBLIC_KEY", ""),
			PublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
			Issuer:        getEnv("JWT_ISSUER", ""),
			Leeway:        getEnvDuration("JWT_LEEWAY", 30*time.Second),
		},
	}
}

// Validate reports configuration the gateway cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.RiskAddr == "" {
		errs = append(errs, errors.New("RISK_ADDR is empty"))
	}
	if c.AnalyticsAddr == "" {
		errs = append(errs, errors.New("ANALYTICS_ADDR is empty"))
	}
	if c.RiskTimeout <= 0 || c.AnalyticsTimeout <= 0 {
		errs = append(errs, errors.New("RISK_TIMEOUT and ANALYTICS_TIMEOUT must be positive"))
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_BURST must be positive"))
	}
	return errors.Join(errs...)
}

// HTTPAddress returns the listen address.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
