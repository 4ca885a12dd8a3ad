package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("ANALYTICS_CACHE_TTL_MINUTES", "")
	t.Setenv("EXECUTION_STATE_TTL_HOURS", "")
	t.Setenv("IDEMPOTENCY_TTL_MINUTES", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Analytics.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Analytics.ExecutionStateTTL)
	assert.Equal(t, time.Hour, cfg.Server.IdempotencyTTL)
	assert.False(t, cfg.OTEL.Enabled)
	assert.Equal(t, 1.0, cfg.OTEL.SampleRatio)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("ANALYTICS_CACHE_TTL_MINUTES", "3")
	t.Setenv("EXECUTION_STATE_TTL_HOURS", "not-a-number")
	t.Setenv("LOG_FORMAT_JSON", "true")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel.example.com")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Basic abc, x-scope = team")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 3*time.Minute, cfg.Analytics.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Analytics.ExecutionStateTTL, "bad values fall back to the default")
	assert.True(t, cfg.Log.FormatJSON)
	assert.Equal(t, map[string]string{"Authorization": "Basic abc", "x-scope": "team"}, cfg.OTEL.Headers)
	assert.True(t, cfg.OTEL.Insecure)
	assert.Equal(t, 0.25, cfg.OTEL.SampleRatio)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET"},
		{"otel without endpoint", func(c *Config) { c.OTEL.Enabled = true }, "OTEL_EXPORTER_OTLP_ENDPOINT"},
		{"sample ratio above one", func(c *Config) { c.OTEL.SampleRatio = 2 }, "OTEL_TRACES_SAMPLER_ARG"},
		{"zero execution ttl", func(c *Config) { c.Analytics.ExecutionStateTTL = 0 }, "EXECUTION_STATE_TTL_HOURS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				JWT:       JWTConfig{Secret: "secret"},
				Analytics: AnalyticsConfig{ExecutionStateTTL: time.Hour},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
