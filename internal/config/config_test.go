package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	req.NoError(err)
	req.Equal("release", cfg.Mode)
	req.Equal(8080, cfg.Port)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(60*time.Second, cfg.PongWait)
	req.Equal("badger", cfg.Store.Driver)
	req.Equal(5, cfg.Chat.RateLimit)
	req.Equal(time.Second, cfg.Chat.RateInterval)
	req.Len(cfg.ICEServers, 1)
	req.Equal([]string{"stun:stun.l.google.com:19302"}, cfg.ICEServers[0].URLs)
}

func TestLoadFile_FileAndEnvOverride(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	req.NoError(os.WriteFile(path, []byte(`
mode: debug
port: 9000
store:
  driver: sqlite
  path: /tmp/stream.db
chat:
  rate_limit: 2
ice_servers:
  - urls: ["turn:turn.example.org:3478"]
    username: u
    credential: p
`), 0o600))
	t.Setenv("STREAM_PORT", "9100")
	t.Setenv("STREAM_STORE_PATH", "/var/lib/stream.db")

	cfg, err := LoadFile(path)
	req.NoError(err)
	req.Equal("debug", cfg.Mode)
	req.Equal(9100, cfg.Port)
	req.Equal("sqlite", cfg.Store.Driver)
	req.Equal("/var/lib/stream.db", cfg.Store.Path)
	req.Equal(2, cfg.Chat.RateLimit)
	req.Equal("u", cfg.ICEServers[0].Username)
}

func TestLoadFile_RejectsBadValues(t *testing.T) {
	t.Setenv("STREAM_PONG_WAIT", "10s")
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrPongWait)
}

func TestLoadFile_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STREAM_STORE_DRIVER", "postgres")
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrStoreDriver)
}

func TestLoad_DotEnvSelectsFile(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	req.NoError(os.WriteFile(filepath.Join(dir, "config", "config.staging.yaml"), []byte("port: 7000\n"), 0o600))
	req.NoError(os.WriteFile(filepath.Join(dir, ".env"), []byte("CONFIG_ENV=staging\nSTREAM_LOG_LEVEL=debug\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() {
		_ = os.Unsetenv("CONFIG_ENV")
		_ = os.Unsetenv("STREAM_LOG_LEVEL")
	})

	cfg, err := Load()
	req.NoError(err)
	req.Equal(7000, cfg.Port)
	req.Equal("debug", cfg.LogLevel)
}
