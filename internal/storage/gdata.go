package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/quasilyte/gdata/v2"
)

const gdataSavesObject = "saves"

// GdataStorage keeps snapshots in the per-user application data directory,
// one property of the "saves" object per game.
type GdataStorage struct {
	manager *gdata.Manager
	codec   save.Codec
	logger  *slog.Logger
}

var _ Storage = (*GdataStorage)(nil)

func NewGdataStorage(appName string, codec save.Codec, logger *slog.Logger) (*GdataStorage, error) {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open gdata: %w", err)
	}
	return NewGdataStorageWithManager(manager, codec, logger), nil
}

func NewGdataStorageWithManager(manager *gdata.Manager, codec save.Codec, logger *slog.Logger) *GdataStorage {
	if codec == nil {
		codec = save.JSONCodec{}
	}
	return &GdataStorage{manager: manager, codec: codec, logger: logger}
}

func (g *GdataStorage) Ping(ctx context.Context) error {
	if g.manager == nil {
		return errors.New("gdata manager not initialized")
	}
	return nil
}

func (g *GdataStorage) Close() error { return nil }

func (g *GdataStorage) SaveSnapshot(ctx context.Context, id uuid.UUID, snap *save.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	data, err := g.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := g.manager.SaveObjectProp(gdataSavesObject, id.String(), data); err != nil {
		g.logger.Error("Failed to save snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (g *GdataStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*save.Snapshot, error) {
	if !g.manager.ObjectPropExists(gdataSavesObject, id.String()) {
		g.logger.Warn("Snapshot not found", "uuid", id)
		return nil, nil
	}
	data, err := g.manager.LoadObjectProp(gdataSavesObject, id.String())
	if err != nil {
		g.logger.Error("Failed to load snapshot", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return g.codec.Unmarshal(data)
}

func (g *GdataStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if !g.manager.ObjectPropExists(gdataSavesObject, id.String()) {
		return nil
	}
	if err := g.manager.DeleteObjectProp(gdataSavesObject, id.String()); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
