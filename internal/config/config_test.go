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
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.MaxReconnects)
	assert.False(t, cfg.History.Enabled)
	assert.False(t, cfg.Discord.Enabled())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aiptx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: https://aiptx.internal:9000
api_key: secret
timeout: 45s
poll_interval: 500ms
max_reconnects: 7
history:
  enabled: true
  host: db.internal
  port: 5433
  user: scanner
  password: hunter2
  name: scans
discord:
  token: tok
  channel_id: chan
`), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://aiptx.internal:9000", cfg.ServerURL)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 7, cfg.MaxReconnects)

	assert.True(t, cfg.History.Enabled)
	assert.Contains(t, cfg.History.DSN(), "host=db.internal")
	assert.Contains(t, cfg.History.DSN(), "port=5433")
	assert.Contains(t, cfg.History.DSN(), "dbname=scans")

	assert.True(t, cfg.Discord.Enabled())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("AIPTX_SERVER_URL", "https://env.example:8443")
	t.Setenv("AIPTX_API_KEY", "from-env")

	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example:8443", cfg.ServerURL)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestWatchReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aiptx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: http://one.test\n"), 0o600))

	loader := NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, "http://one.test", cfg.ServerURL)

	reloaded := make(chan *Config, 1)
	loader.Watch(func(next *Config) {
		select {
		case reloaded <- next:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("server_url: http://two.test\n"), 0o600))

	select {
	case next := <-reloaded:
		assert.Equal(t, "http://two.test", next.ServerURL)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}

func TestInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unterminated"), 0o600))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}
