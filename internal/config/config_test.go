package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 20, cfg.RateLimit.Max)
	assert.Equal(t, time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 60*time.Second, cfg.GracePeriod)
	assert.Equal(t, 2, cfg.Room.MinPlayers)
	assert.Equal(t, 8, cfg.Room.MaxPlayers)
	assert.Equal(t, 100, cfg.Room.MaxRooms)
	assert.Equal(t, 30*time.Minute, cfg.Sweep.IdleRoomTimeout)
	assert.Equal(t, StoreMemory, cfg.RateLimitStore)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CARDARENA_RATE_LIMIT_MAX", "5")
	t.Setenv("CARDARENA_PORT", "9000")

	cfg, err := Load(newFlags(t, "--port", "9100"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardarena.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reconnect-grace: 90s\nmax-rooms: 12\nlog-format: text\n"), 0o600))

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.GracePeriod)
	assert.Equal(t, 12, cfg.Room.MaxRooms)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"inverted player bounds", []string{"--min-players", "6", "--max-players", "4"}},
		{"unknown store", []string{"--rate-limit-store", "etcd"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"zero grace", []string{"--reconnect-grace", "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestSessionTimeoutFeedsSweep(t *testing.T) {
	cfg, err := Load(newFlags(t, "--session-timeout", "2h"))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Session.SessionTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Sweep.SessionTimeout)
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	var buf bytes.Buffer

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
