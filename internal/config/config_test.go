package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "ws://127.0.0.1:8000/api/ws", cfg.Realtime.BaseURL)
	assert.Equal(t, time.Second, cfg.Realtime.BaseDelay)
	assert.Equal(t, 5, cfg.Realtime.MaxAttempts)
	assert.Empty(t, cfg.State.Dir)
}

func TestLoadOverridesKeepUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://flowhive.example.com/api
realtime:
  max_attempts: 8
state:
  dir: /var/lib/flowhive
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://flowhive.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 8, cfg.Realtime.MaxAttempts)
	assert.Equal(t, "/var/lib/flowhive", cfg.State.Dir)

	// Untouched fields keep their defaults.
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Second, cfg.Realtime.BaseDelay)
}

func TestExplicitRealtimeURLWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
realtime:
  base_url: wss://rt.example.com/ws
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://rt.example.com/ws", cfg.Realtime.BaseURL)
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDeriveWSBase(t *testing.T) {
	tests := []struct {
		api  string
		want string
	}{
		{"http://127.0.0.1:8000/api", "ws://127.0.0.1:8000/api/ws"},
		{"https://flowhive.example.com/api/", "wss://flowhive.example.com/api/ws"},
		{"http://localhost:9000", "ws://localhost:9000/ws"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deriveWSBase(tt.api), tt.api)
	}
}
