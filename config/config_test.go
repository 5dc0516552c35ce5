package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CACHE_TTL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forum.yaml")
	content := "port: \"9000\"\ngraph_url: bolt://graph:7687\ncache_ttl: 1m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("GRAPH_URL", "")
	t.Setenv("CACHE_TTL", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port, "environment wins over file")
	assert.Equal(t, "bolt://graph:7687", cfg.GraphURL)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("seconds", func(t *testing.T) {
		t.Setenv("TOKEN_TTL", "60")
		t.Setenv("CACHE_TTL", "")

		cfg := Default()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, time.Minute, cfg.TokenTTL)
	})

	t.Run("retention days", func(t *testing.T) {
		t.Setenv("REPORT_RETENTION_DAYS", "2")

		cfg := Default()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, 48*time.Hour, cfg.ReportRetention)
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "soon")

		cfg := Default()
		assert.Error(t, cfg.applyEnvOverrides())
	})
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.JWTSecret, "no secret is shipped by default")
	assert.ErrorIs(t, cfg.Validate(), ErrMissingSecret)

	t.Setenv("JWT_SECRET", "s3cr3t")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
