package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "STORAGE_BACKEND",
		"DATA_DIR", "SAVE_FORMAT", "MYSQL_DSN", "CATALOG_PATH", "TICK_STEP", "WORKER_ID", "SNAPSHOT_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "json", cfg.SaveFormat)
	assert.Equal(t, 1.0, cfg.TickStep)
	assert.Zero(t, cfg.SnapshotTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STORAGE_BACKEND", "File")
	t.Setenv("SAVE_FORMAT", "yaml")
	t.Setenv("TICK_STEP", "0.25")
	t.Setenv("SNAPSHOT_TTL", "48h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, "yaml", cfg.SaveFormat)
	assert.Equal(t, 0.25, cfg.TickStep)
	assert.Equal(t, 48*time.Hour, cfg.SnapshotTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"tick step":       {"TICK_STEP": "-1"},
		"tick step text":  {"TICK_STEP": "fast"},
		"ttl":             {"SNAPSHOT_TTL": "soon"},
		"backend":         {"STORAGE_BACKEND": "floppy"},
		"mysql needs dsn": {"STORAGE_BACKEND": "mysql", "MYSQL_DSN": ""},
		"format":          {"SAVE_FORMAT": "xml"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
