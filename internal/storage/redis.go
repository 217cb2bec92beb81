package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "snapshot:"

// RedisStorage keeps one encoded snapshot per game under snapshot:<uuid>.
type RedisStorage struct {
	client *redis.Client
	codec  save.Codec
	ttl    time.Duration
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// RedisOptions accepts either a redis:// URL or a bare host:port. Context
// deadlines are honoured so blocking reads stop on shutdown.
func RedisOptions(redisURL string) (*redis.Options, error) {
	opt := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		var err error
		opt, err = redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
	}
	opt.ContextTimeoutEnabled = true
	return opt, nil
}

// NewRedisStorage creates a new Redis storage instance. A zero ttl keeps
// snapshots until they are deleted.
func NewRedisStorage(redisURL string, codec save.Codec, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := RedisOptions(redisURL)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = save.JSONCodec{}
	}
	return &RedisStorage{
		client: redis.NewClient(opt),
		codec:  codec,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := range maxRetries {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveSnapshot(ctx context.Context, id uuid.UUID, snap *save.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	data, err := r.codec.Marshal(snap)
	if err != nil {
		r.logger.Error("Failed to encode snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := r.client.Set(ctx, snapshotKeyPrefix+id.String(), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*save.Snapshot, error) {
	data, err := r.client.Get(ctx, snapshotKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Snapshot not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load snapshot", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(data) == 0 {
		r.logger.Warn("Snapshot not found", "uuid", id)
		return nil, nil
	}

	snap, err := r.codec.Unmarshal(data)
	if err != nil {
		r.logger.Error("Failed to decode snapshot", "uuid", id, "error", err)
		return nil, err
	}
	return snap, nil
}

func (r *RedisStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, snapshotKeyPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
