package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every bound variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	for _, name := range env {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, time.Second, cfg.Assistant.ReplyDelay)
	assert.Zero(t, cfg.Assistant.ReplyJitter)
	assert.Empty(t, cfg.Assistant.RulesFile)
	assert.Equal(t, 30*time.Minute, cfg.Assistant.SessionIdleTTL)
	assert.Equal(t, time.Minute, cfg.Assistant.SweepInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("ASSISTANT_REPLY_DELAY", "250ms")
	t.Setenv("ASSISTANT_REPLY_JITTER", "100ms")
	t.Setenv("ASSISTANT_RULES_FILE", "/etc/carpool/rules.yaml")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Assistant.ReplyDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Assistant.ReplyJitter)
	assert.Equal(t, "/etc/carpool/rules.yaml", cfg.Assistant.RulesFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "carpool.yaml")
	body := []byte("server:\n  addr: \"9090\"\nassistant:\n  reply_delay: 2s\n  sweep_interval: 30s\nlog:\n  level: warn\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Assistant.ReplyDelay)
	assert.Equal(t, 30*time.Second, cfg.Assistant.SweepInterval)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "carpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: json\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadZeroIdleTTLDisablesExpiry(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_SESSION_IDLE_TTL", "0s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.Assistant.SessionIdleTTL)
	assert.Equal(t, time.Minute, cfg.Assistant.SweepInterval)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port with space":    {"PORT": "80 80"},
		"negative delay":     {"ASSISTANT_REPLY_DELAY": "-1s"},
		"garbage duration":   {"SERVER_IDLE_TIMEOUT": "soon"},
		"negative ttl":       {"ASSISTANT_SESSION_IDLE_TTL": "-5m"},
		"zero sweep":         {"ASSISTANT_SWEEP_INTERVAL": "0"},
		"unknown level":      {"LOG_LEVEL": "chatty"},
		"unknown log format": {"LOG_FORMAT": "xml"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range vars {
				t.Setenv(k, v)
			}

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":             ":8080",
		"3000":         ":3000",
		":3000":        ":3000",
		"0.0.0.0:3000": "0.0.0.0:3000",
		"  4000  ":     ":4000",
	}
	for in, want := range cases {
		got, err := normalizeAddr(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
