package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/save"
)

// Storage persists one snapshot per game. Each save overwrites the
// previous one.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	SaveSnapshot(ctx context.Context, id uuid.UUID, snap *save.Snapshot) error
	// LoadSnapshot returns nil, nil when the game has no save.
	LoadSnapshot(ctx context.Context, id uuid.UUID) (*save.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id uuid.UUID) error
}

// Slot binds a store to one game so it can be used as an autosave target.
type Slot struct {
	Store Storage
	ID    uuid.UUID
}

var _ save.Slot = Slot{}

func (s Slot) Write(ctx context.Context, snap *save.Snapshot) error {
	return s.Store.SaveSnapshot(ctx, s.ID, snap)
}

// Read loads the slot's snapshot, or nil when it is empty.
func (s Slot) Read(ctx context.Context) (*save.Snapshot, error) {
	return s.Store.LoadSnapshot(ctx, s.ID)
}
