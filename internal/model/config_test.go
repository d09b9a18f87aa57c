package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, 0, cfg.API.MaxRetries)
	assert.Equal(t, 25*time.Second, cfg.Channel.Heartbeat())
	assert.Equal(t, time.Second, cfg.Channel.BaseBackoff())
	assert.Equal(t, 30*time.Second, cfg.Channel.MaxBackoff())
	assert.Equal(t, 0, cfg.Channel.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.Sync.RefreshInterval())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":3000", cfg.Proxy.Listen)
	assert.Equal(t, int64(0), cfg.Session.UserID)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://api.citas.example/
  ws_url: wss://push.citas.example
  timeout_sec: 0
session:
  user_id: 42
channel:
  max_attempts: 5
sync:
  refresh_interval_sec: 60
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.citas.example", cfg.API.BaseURL)
	assert.Equal(t, "wss://push.citas.example", cfg.API.WSURL)
	assert.Equal(t, 30, cfg.API.TimeoutSec)
	assert.Equal(t, int64(42), cfg.Session.UserID)
	assert.Equal(t, 5, cfg.Channel.MaxAttempts)
	assert.Equal(t, 25, cfg.Channel.HeartbeatSec)
	assert.Equal(t, time.Minute, cfg.Sync.RefreshInterval())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("CITAS_NOTIFY_API_BASE_URL", "http://backend:9000")
	t.Setenv("CITAS_NOTIFY_SESSION_USER_ID", "7")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	assert.Equal(t, int64(7), cfg.Session.UserID)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.API.BaseURL = "https://api.citas.example"
	cfg.Session.UserID = 99
	cfg.Channel.MaxAttempts = 3

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API.BaseURL, loaded.API.BaseURL)
	assert.Equal(t, int64(99), loaded.Session.UserID)
	assert.Equal(t, 3, loaded.Channel.MaxAttempts)
	assert.Equal(t, cfg.Cache.Path, loaded.Cache.Path)
}
