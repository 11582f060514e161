package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader(t *testing.T) {
	t.Run("should return defaults when file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)

		assert.Equal(t, "claude-opus-4-6", cfg.Anthropic.Model)
		assert.Equal(t, 1800, cfg.Session.TTLSeconds)
	})

	t.Run("should load values from file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cradle.json")
		content := `{
			"anthropic": {"api_key": "sk-file", "model": "claude-haiku-4-5"},
			"session": {"ttl_seconds": 600},
			"server": {"port": 9001}
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "sk-file", cfg.Anthropic.APIKey)
		assert.Equal(t, "claude-haiku-4-5", cfg.Anthropic.Model)
		assert.Equal(t, 600, cfg.Session.TTLSeconds)
		assert.Equal(t, 9001, cfg.Server.Port)
		// Untouched keys keep defaults
		assert.Equal(t, 60, cfg.Session.SweepIntervalSeconds)
	})

	t.Run("should fill derived paths", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)

		assert.NotEmpty(t, cfg.DataDir)
		assert.Equal(t, filepath.Join(cfg.DataDir, "cradle.log"), cfg.Logging.File)
		assert.Equal(t, filepath.Join(cfg.DataDir, "conversations.jsonl"), cfg.ConvLog.Path)
	})

	t.Run("should override secrets from environment", func(t *testing.T) {
		t.Setenv("CRADLE_ANTHROPIC_API_KEY", "sk-env")
		t.Setenv("CRADLE_HUCKLEBERRY_EMAIL", "env@example.com")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)

		assert.Equal(t, "sk-env", cfg.Anthropic.APIKey)
		assert.Equal(t, "env@example.com", cfg.Huckleberry.Email)
	})

	t.Run("should error on malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cradle.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
