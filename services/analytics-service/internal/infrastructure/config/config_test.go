package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "GRPC_PORT", "HTTP_PORT", "WORKERS", "GEMINI_API_KEY", "GEMINI_MODEL", "LLM_TIMEOUT", "MAP_STYLE_FILE", "KAFKA_TOPIC")

	cfg := Load()

	assert.Equal(t, ":9080", cfg.GRPCAddress())
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Empty(t, cfg.MapStyleFile)
	assert.Equal(t, "analytics.events", cfg.KafkaTopic)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("MAP_STYLE_FILE", "/etc/integrity/style.yaml")
	t.Setenv("WORKERS", "3")
	t.Setenv("KAFKA_BROKERS", "k1:9092")

	cfg := Load()

	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.GeminiModel)
	assert.Equal(t, 15*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "/etc/integrity/style.yaml", cfg.MapStyleFile)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{GRPCPort: "9080", GeminiAPIKey: "k", GeminiModel: "m", LLMTimeout: time.Second, Workers: 10}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no api key", mutate: func(c *Config) { c.GeminiAPIKey = "" }, errMsg: "GEMINI_API_KEY"},
		{name: "zero timeout", mutate: func(c *Config) { c.LLMTimeout = 0 }, errMsg: "LLM_TIMEOUT"},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, errMsg: "WORKERS"},
		{name: "half tls", mutate: func(c *Config) { c.TLS.KeyFile = "key.pem" }, errMsg: "GRPC_TLS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
