package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homegame/table"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, "memory", cfg.AuditMode)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	tc, err := cfg.TableConfig()
	require.NoError(t, err)
	assert.Equal(t, table.TurnPolicyTrustBinding, tc.TurnPolicy)
	assert.Equal(t, int64(200), tc.DefaultBaseBet)
	assert.Equal(t, table.DefaultMaxBet, tc.MaxBet)
	assert.Equal(t, table.DefaultHistoryWindow, tc.HistoryWindow)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("TURN_POLICY", "verify")
	t.Setenv("DEFAULT_BASE_BET", "50")
	t.Setenv("AUDIT_MODE", "sqlite")
	t.Setenv("AUDIT_SQLITE_PATH", ":memory:")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)

	tc, err := cfg.TableConfig()
	require.NoError(t, err)
	assert.Equal(t, table.TurnPolicyVerifyOwner, tc.TurnPolicy)
	assert.Equal(t, int64(50), tc.DefaultBaseBet)

	opts := cfg.Audit()
	assert.Equal(t, "sqlite", opts.Mode)
	assert.Equal(t, ":memory:", opts.SQLitePath)
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ALLOWED_ORIGIN=https://game.example\nLOG_FORMAT=console\n"), 0o600))
	t.Setenv("ALLOWED_ORIGIN", "")
	os.Unsetenv("ALLOWED_ORIGIN")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://game.example", cfg.AllowedOrigin)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":          {"PORT": "0"},
		"port syntax":   {"PORT": "abc"},
		"turn policy":   {"TURN_POLICY": "sometimes"},
		"base bet":      {"DEFAULT_BASE_BET": "-1"},
		"max bet":       {"MAX_BET": "0"},
		"base over max": {"DEFAULT_BASE_BET": "500", "MAX_BET": "100"},
		"log format":    {"LOG_FORMAT": "xml"},
		"audit mode":    {"AUDIT_MODE": "redis"},
		"postgres dsn":  {"AUDIT_MODE": "postgres"},
		"recent limit":  {"AUDIT_RECENT_LIMIT": "0"},
		"shutdown time": {"SHUTDOWN_TIMEOUT": "0s"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
