package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/calldesk/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CALLDESK_CONFIG_PATH", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	require.Equal(t, "Europe/Paris", cfg.Call.Timezone)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calldesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
db:
  path: /tmp/c.db
call:
  poll_interval: 5s
  verify_hangup: false
  adb_serial: R58M
`), 0o600))

	t.Setenv("CALLDESK_SERVER_PORT", "9100")
	t.Setenv("CALLDESK_PROBE_TIMEOUT", "1500ms")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "/tmp/c.db", cfg.DB.Path)
	require.Equal(t, 5*time.Second, cfg.Call.PollInterval)
	require.Equal(t, 1500*time.Millisecond, cfg.Call.ProbeTimeout)
	require.False(t, cfg.Call.VerifyHangUp)
	require.Equal(t, "R58M", cfg.Call.ADBSerial)
	// untouched keys keep their defaults
	require.Equal(t, 10*time.Second, cfg.Call.CommandTimeout)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("CALLDESK_SERVER_PORT", "eighty")
	_, err := config.Load("")
	require.Error(t, err)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("CALLDESK_TIMEZONE", "Mars/Olympus")
	_, err := config.Load("")
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
