package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sandboxer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://codesandbox.io", cfg.Sandbox.Origin)
	require.Equal(t, 90*time.Second, cfg.Sandbox.Timeout.Std())
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)
	require.Equal(t, "/metrics", cfg.Metrics.Path)
	require.Equal(t, 4, cfg.Batch.Concurrency)
	require.Equal(t, 105*time.Second, cfg.Server.WriteTimeout.Std())
}

func TestLoadFileWithEnvExpansion(t *testing.T) {
	t.Setenv("SANDBOX_HOST", "https://sandbox.example.test")
	path := writeConfig(t, `
sandbox:
  origin: ${SANDBOX_HOST}
  timeout: 10s
logging:
  level: WARNING
  format: JSON
cache:
  enabled: true
  ttl: 1h
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://sandbox.example.test", cfg.Sandbox.Origin)
	require.Equal(t, 10*time.Second, cfg.Sandbox.Timeout.Std())
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, time.Hour, cfg.Cache.TTL.Std())
	require.Equal(t, "*/30 * * * *", cfg.Cache.PruneSchedule)

	client := cfg.SandboxClientConfig()
	require.Equal(t, "https://sandbox.example.test", client.Origin)
	require.Equal(t, 10*time.Second, client.Timeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SANDBOXER_SANDBOX_ORIGIN", "http://127.0.0.1:9000")
	t.Setenv("SANDBOXER_SANDBOX_TIMEOUT", "3s")
	t.Setenv("SANDBOXER_CONCURRENCY", "8")
	t.Setenv("SANDBOXER_CACHE_ENABLED", "true")

	cfg, err := Load(writeConfig(t, "sandbox:\n  origin: https://ignored.test\n"))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9000", cfg.Sandbox.Origin)
	require.Equal(t, 3*time.Second, cfg.Sandbox.Timeout.Std())
	require.Equal(t, 8, cfg.Batch.Concurrency)
	require.True(t, cfg.Cache.Enabled)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad duration", body: "sandbox:\n  timeout: soon\n"},
		{name: "bad yaml", body: "sandbox: [\n"},
		{name: "relative origin", body: "sandbox:\n  origin: codesandbox.io\n"},
		{name: "bad cron", body: "cache:\n  enabled: true\n  prune_schedule: hourly\n"},
		{name: "events scheme", body: "events:\n  enabled: true\n  url: http://nats\n"},
		{name: "metrics path", body: "metrics:\n  path: metrics\n"},
		{name: "env bool", body: "{}\n", env: map[string]string{"SANDBOXER_CACHE_ENABLED": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryConfig), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "configuration file not found")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandboxer.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.NoError(t, Init(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	require.Contains(t, string(data), "timeout: 1m30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Cache.Enabled)
	require.True(t, cfg.Metrics.Enabled)
}

func TestNormalizeLogging(t *testing.T) {
	require.Equal(t, LogLevelDebug, NormalizeLogLevel(" Debug "))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	require.Equal(t, LogLevelError.Slog(), NormalizeLogLevel("error").Slog())
	require.Equal(t, LogFormatText, NormalizeLogFormat("yaml"))
}
