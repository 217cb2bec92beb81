package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendRedis = "redis"
	BackendFile  = "file"
	BackendGdata = "gdata"
	BackendMySQL = "mysql"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL       string
	StorageBackend string
	DataDir        string
	SaveFormat     string
	MySQLDSN       string
	SnapshotTTL    time.Duration

	// CatalogPath is empty to use the embedded catalog.
	CatalogPath string
	TickStep    float64
	WorkerID    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendRedis)),
		DataDir:        getEnv("DATA_DIR", "./data"),
		SaveFormat:     strings.ToLower(getEnv("SAVE_FORMAT", "json")),
		MySQLDSN:       os.Getenv("MYSQL_DSN"),
		CatalogPath:    os.Getenv("CATALOG_PATH"),
		WorkerID:       os.Getenv("WORKER_ID"),
	}

	step, err := strconv.ParseFloat(getEnv("TICK_STEP", "1"), 64)
	if err != nil || step <= 0 {
		return nil, fmt.Errorf("invalid TICK_STEP %q: must be a positive number", os.Getenv("TICK_STEP"))
	}
	cfg.TickStep = step

	ttl, err := time.ParseDuration(getEnv("SNAPSHOT_TTL", "0s"))
	if err != nil || ttl < 0 {
		return nil, fmt.Errorf("invalid SNAPSHOT_TTL %q: must be a non-negative duration", os.Getenv("SNAPSHOT_TTL"))
	}
	cfg.SnapshotTTL = ttl

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks combinations of settings that Load cannot check one at
// a time.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendRedis, BackendFile, BackendGdata:
	case BackendMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when STORAGE_BACKEND is %s", BackendMySQL)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.SaveFormat {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("unsupported SAVE_FORMAT %q", c.SaveFormat)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
