package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.Auction.SweepInterval)
	assert.Equal(t, 3, cfg.Auction.TxMaxRetries)
	assert.Equal(t, 60, cfg.Auction.RateLimit.BidsPerMinute)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.SMTP.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
auction:
  sweep_interval: 30s
  rate_limit:
    bids_per_minute: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Auction.SweepInterval)
	assert.Equal(t, 10, cfg.Auction.RateLimit.BidsPerMinute)
	assert.Equal(t, "info", cfg.LogLevel, "untouched keys keep their defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("PD_SERVER_PORT", "7070")
	t.Setenv("PD_ENVIRONMENT", "production")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Environment)
}
