package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/orchard-engine/internal/config"
	"github.com/jwebster45206/orchard-engine/pkg/save"
)

// GdataAppName names the per-user data directory used by the gdata backend.
const GdataAppName = "orchard_engine"

// Open builds the backend named by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Storage, error) {
	codec, err := save.CodecFor(cfg.SaveFormat)
	if err != nil {
		return nil, err
	}

	switch cfg.StorageBackend {
	case config.BackendRedis:
		return NewRedisStorage(cfg.RedisURL, codec, cfg.SnapshotTTL, logger)
	case config.BackendFile:
		return NewFileStorage(cfg.DataDir, codec, logger)
	case config.BackendGdata:
		return NewGdataStorage(GdataAppName, codec, logger)
	case config.BackendMySQL:
		return OpenMySQLStorage(ctx, cfg.MySQLDSN, codec, logger)
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}
