package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Anthropic.APIKey = "sk-test"
	cfg.Huckleberry.Email = "parent@example.com"
	cfg.Huckleberry.Password = "secret"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "claude-opus-4-6", cfg.Anthropic.Model)
	assert.Equal(t, 10, cfg.Anthropic.MaxIterations)
	assert.Equal(t, 1800, cfg.Session.TTLSeconds)
	assert.Equal(t, 60, cfg.Session.SweepIntervalSeconds)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 7, cfg.ConvLog.RetentionDays)
	assert.Equal(t, "America/New_York", cfg.Huckleberry.Timezone)
}

func TestSessionConfigDurations(t *testing.T) {
	s := SessionConfig{TTLSeconds: 1800, SweepIntervalSeconds: 60}

	assert.Equal(t, 30*time.Minute, s.TTL())
	assert.Equal(t, time.Minute, s.SweepInterval())
}

func TestValidate(t *testing.T) {
	t.Run("should accept valid config", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("should require anthropic api key", func(t *testing.T) {
		cfg := validConfig()
		cfg.Anthropic.APIKey = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "api_key")
	})

	t.Run("should require huckleberry credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Huckleberry.Email = ""
		assert.Error(t, cfg.Validate())

		cfg = validConfig()
		cfg.Huckleberry.Password = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("should reject unknown timezone", func(t *testing.T) {
		cfg := validConfig()
		cfg.Huckleberry.Timezone = "Mars/Olympus_Mons"

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "timezone")
	})

	t.Run("should reject non-positive session ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.TTLSeconds = 0

		assert.Error(t, cfg.Validate())
	})

	t.Run("should reject invalid port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = 70000

		assert.Error(t, cfg.Validate())
	})

	t.Run("should reject non-positive max iterations", func(t *testing.T) {
		cfg := validConfig()
		cfg.Anthropic.MaxIterations = 0

		assert.Error(t, cfg.Validate())
	})
}
