package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "semantic_cache", cfg.Qdrant.Collection)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 0.90, cfg.Cache.SimilarityThreshold)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers.OpenAI.Model)
	assert.Equal(t, []string{"gpt-3.5-turbo"}, cfg.Providers.OpenAI.FallbackModels)
	assert.Equal(t, "claude-3-sonnet-20240229", cfg.Providers.Anthropic.Model)
	assert.Equal(t, 12*time.Second, cfg.Verifier.Timeout)
	assert.Equal(t, "data/interactions.jsonl", cfg.Log.TracePath)
}

func TestLoader_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
cache:
  ttl: 30m
  similarity_threshold: 0.85
providers:
  openai:
    model: gpt-4o
    fallback_models:
      - gpt-4o-mini
      - gpt-3.5-turbo
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 0.85, cfg.Cache.SimilarityThreshold)
	assert.Equal(t, "gpt-4o", cfg.Providers.OpenAI.Model)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-3.5-turbo"}, cfg.Providers.OpenAI.FallbackModels)

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o644))

	t.Setenv("TRUSTGATE_SERVER_ADDR", ":7777")
	t.Setenv("TRUSTGATE_PROVIDERS_OPENAI_API_KEY", "sk-test")
	t.Setenv("TRUSTGATE_CACHE_SIMILARITY_THRESHOLD", "0.95")
	t.Setenv("TRUSTGATE_VERIFIER_ENABLED", "false")
	t.Setenv("TRUSTGATE_PROVIDERS_OPENAI_FALLBACK_MODELS", "gpt-4o, gpt-3.5-turbo")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "sk-test", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, 0.95, cfg.Cache.SimilarityThreshold)
	assert.False(t, cfg.Verifier.Enabled)
	assert.Equal(t, []string{"gpt-4o", "gpt-3.5-turbo"}, cfg.Providers.OpenAI.FallbackModels)
}

func TestLoader_EnvDuration(t *testing.T) {
	t.Setenv("TRUSTGATE_CACHE_TTL", "45m")
	t.Setenv("TRUSTGATE_VERIFIER_TIMEOUT", "5s")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5*time.Second, cfg.Verifier.Timeout)
}

func TestLoader_ValidatorRejects(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return assert.AnError }).
		Load()
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk-test"
	require.NoError(t, cfg.Validate())

	t.Run("no provider keys", func(t *testing.T) {
		c := DefaultConfig()
		err := c.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider api key")
	})

	t.Run("bad threshold", func(t *testing.T) {
		c := DefaultConfig()
		c.Providers.OpenAI.APIKey = "sk-test"
		c.Cache.SimilarityThreshold = 1.5
		require.Error(t, c.Validate())
	})

	t.Run("empty addr", func(t *testing.T) {
		c := DefaultConfig()
		c.Providers.OpenAI.APIKey = "sk-test"
		c.Server.Addr = ""
		require.Error(t, c.Validate())
	})
}
