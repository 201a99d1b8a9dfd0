package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dataprobe/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "ADMIN_PORT", "ADMIN_ENABLED", "MAX_UPLOAD_MB", "MAX_ROWS",
		"CSV_DELIMITER", "SESSION_TTL", "SESSION_SWEEP_INTERVAL", "LOG_LEVEL", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "6060", cfg.Admin.Port)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, int64(50<<20), cfg.Data.MaxUploadBytes())
	assert.Equal(t, ',', cfg.Data.CSVDelimiter)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ADMIN_ENABLED", "false")
	t.Setenv("CSV_DELIMITER", ";")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("MAX_UPLOAD_MB", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.False(t, cfg.Admin.Enabled)
	assert.Equal(t, ';', cfg.Data.CSVDelimiter)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, int64(5<<20), cfg.Data.MaxUploadBytes())
}

func TestTabDelimiter(t *testing.T) {
	clearEnv(t)
	t.Setenv("CSV_DELIMITER", `\t`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, '\t', cfg.Data.CSVDelimiter)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "dataprobe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nsession_ttl: 10m\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "http"},
		{"GIN_MODE", "verbose"},
		{"MAX_UPLOAD_MB", "0"},
		{"SESSION_TTL", "-1m"},
		{"ADMIN_PORT", "8080"},
		{"CONFIG_FILE", "/does/not/exist.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=DEBUG\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
}
