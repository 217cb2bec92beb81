package save

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// Slot is where an autosaver writes. It holds exactly one snapshot.
type Slot interface {
	Write(ctx context.Context, snap *Snapshot) error
}

// dirtyOn are the events after which the game is worth saving.
var dirtyOn = []events.Type{
	events.TreePlanted,
	events.TreeGrown,
	events.TreeDied,
	events.QuestShown,
	events.QuestCompleted,
	events.QuestClaimed,
	events.QuestFailed,
	events.LevelUp,
	events.GameWon,
	events.GameLost,
}

// Autosaver writes a snapshot at the end of any tick in which something
// worth saving happened.
type Autosaver struct {
	logger *slog.Logger
	orch   *Orchestrator
	slot   Slot
	dirty  bool
}

func NewAutosaver(orch *Orchestrator, slot Slot, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Autosaver{logger: logger, orch: orch, slot: slot}
}

// Attach marks the game dirty on every save-worthy event.
func (a *Autosaver) Attach(bus *events.Bus) {
	for _, t := range dirtyOn {
		bus.Subscribe(t, func(events.Event) { a.MarkDirty() })
	}
}

func (a *Autosaver) MarkDirty()  { a.dirty = true }
func (a *Autosaver) Dirty() bool { return a.dirty }

// Flush saves if the game is dirty. Nothing is written while a load is in
// flight; the dirty flag survives until the next flush.
func (a *Autosaver) Flush(ctx context.Context) error {
	if !a.dirty || a.orch.Loading() {
		return nil
	}
	return a.Save(ctx)
}

// Save writes a snapshot unconditionally.
func (a *Autosaver) Save(ctx context.Context) error {
	snap := a.orch.ExportState()
	if err := a.slot.Write(ctx, snap); err != nil {
		a.logger.Error("Failed to autosave", "error", err)
		return fmt.Errorf("failed to autosave: %w", err)
	}
	a.dirty = false
	a.orch.pub.Publish(events.New(events.GameSaved, ""))
	return nil
}
