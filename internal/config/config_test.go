package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(`
server:
  addr: ":9090"
  timeout: 3s
  corsOrigins: ["*"]
executor:
  concurrencyLimit: 8
log:
  format: json
`))
		require.NoError(t, err)
		want := Default()
		want.Server.Addr = ":9090"
		want.Server.Timeout = 3 * time.Second
		want.Server.CORSOrigins = []string{"*"}
		want.Executor.ConcurrencyLimit = 8
		want.Log.Format = "json"
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Fatalf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("unknown keys", func(t *testing.T) {
		_, err := Parse([]byte("server:\n  port: 1\n"))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Parse([]byte("executor:\n  concurrencyLimit: -1\nlog:\n  level: loud\n  format: xml\n"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "concurrencyLimit")
		require.Contains(t, err.Error(), "log.level")
		require.Contains(t, err.Error(), "log.format")
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gqlengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telemetry:\n  serviceName: starwars\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "starwars", cfg.Telemetry.ServiceName)

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLogApply(t *testing.T) {
	logger := logrus.New()
	require.NoError(t, Log{Level: "debug", Format: "json"}.Apply(logger))
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
