package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/save"
)

// FileStorage writes each game's snapshot to <dir>/<uuid>.<format>.
type FileStorage struct {
	dir    string
	codec  save.Codec
	logger *slog.Logger
}

var _ Storage = (*FileStorage)(nil)

func NewFileStorage(dir string, codec save.Codec, logger *slog.Logger) (*FileStorage, error) {
	if dir == "" {
		dir = "./data"
	}
	if codec == nil {
		codec = save.JSONCodec{Indent: true}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStorage{dir: dir, codec: codec, logger: logger}, nil
}

// Path returns the file a game's snapshot is written to.
func (f *FileStorage) Path(id uuid.UUID) string {
	return filepath.Join(f.dir, id.String()+"."+f.codec.Name())
}

func (f *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("save directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("save path %s is not a directory", f.dir)
	}
	return nil
}

func (f *FileStorage) Close() error { return nil }

// SaveSnapshot writes to a temp file and renames it over the old save so a
// crash never leaves a half-written snapshot behind.
func (f *FileStorage) SaveSnapshot(ctx context.Context, id uuid.UUID, snap *save.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	data, err := f.codec.Marshal(snap)
	if err != nil {
		f.logger.Error("Failed to encode snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, id.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path(id)); err != nil {
		f.logger.Error("Failed to save snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (f *FileStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*save.Snapshot, error) {
	data, err := os.ReadFile(f.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("Snapshot not found", "uuid", id)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return f.codec.Unmarshal(data)
}

func (f *FileStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if err := os.Remove(f.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
