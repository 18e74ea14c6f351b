package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 0.1, cfg.Ads.SimilarityThreshold)
	require.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	require.Equal(t, 5*time.Minute, cfg.Stats.CacheTTL)
	require.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("ADS_SIMILARITY_THRESHOLD", "0.35")
	t.Setenv("STATS_VALKEY_ENABLED", "true")
	t.Setenv("STATS_VALKEY_ADDR", "localhost:6379")
	t.Setenv("AUTH_TOKEN_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.HTTP.Address)
	require.Equal(t, 0.35, cfg.Ads.SimilarityThreshold)
	require.True(t, cfg.Stats.Valkey.Enabled)
	require.Equal(t, "localhost:6379", cfg.Stats.Valkey.Addr)
	require.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	payload := []byte("http:\n  address: \":7070\"\nads:\n  similarityThreshold: 0.25\n")
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.HTTP.Address)
	require.Equal(t, 0.25, cfg.Ads.SimilarityThreshold)
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := defaultConfig()
	cfg.Ads.SimilarityThreshold = 1.5
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresValkeyAddrWhenEnabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Stats.Valkey.Enabled = true
	require.Error(t, cfg.Validate())

	cfg.Stats.Valkey.Addr = "localhost:6379"
	require.NoError(t, cfg.Validate())
}
