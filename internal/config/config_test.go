package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 20, cfg.MaxEventsPerTick)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.False(t, cfg.LogJSON)
	assert.False(t, cfg.Debug)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("TICK_INTERVAL", "500ms")
	t.Setenv("LOG_JSON", "true")

	cfg := Load()

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.True(t, cfg.LogJSON)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_ATTEMPTS", "many")
	t.Setenv("TICK_INTERVAL", "soon")
	t.Setenv("DEBUG", "kinda")

	cfg := Load()

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.False(t, cfg.Debug)
}
