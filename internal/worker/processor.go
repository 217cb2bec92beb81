package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/jwebster45206/orchard-engine/pkg/queue"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

// ErrGameNotFound is returned for actions on a game with no save.
var ErrGameNotFound = errors.New("game not found")

// Result is what one request did to its game.
type Result struct {
	Events []events.Event
	View   world.View
}

// Summary is the short form of the result sent to clients on completion.
func (r *Result) Summary() map[string]any {
	return map[string]any{
		"level":         r.View.Level,
		"xp":            r.View.XP,
		"coins":         r.View.Coins,
		"water":         r.View.Water,
		"pollution":     r.View.Pollution,
		"result":        r.View.Result,
		"tutorial_step": r.View.Tutorial.Step,
		"events":        len(r.Events),
	}
}

// Processor applies requests to saved games. Each request loads the
// latest snapshot into a fresh world, so processors hold no game state
// between requests.
type Processor struct {
	storage  storage.Storage
	catalog  *catalog.Catalog
	tickStep float64
	logger   *slog.Logger
}

func NewProcessor(store storage.Storage, cat *catalog.Catalog, tickStep float64, logger *slog.Logger) *Processor {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Processor{
		storage:  store,
		catalog:  cat,
		tickStep: tickStep,
		logger:   logger,
	}
}

func (p *Processor) newWorld() *world.World {
	return world.New(world.Options{
		Catalog:  p.catalog,
		Logger:   p.logger,
		TickStep: p.tickStep,
	})
}

// NewGame creates or resets a game and saves its starting state.
func (p *Processor) NewGame(ctx context.Context, gameID uuid.UUID) (*Result, error) {
	w := p.newWorld()
	rec := &events.Recorder{}
	w.Subscribe(rec.Publish)
	w.NewGame()

	if err := p.storage.SaveSnapshot(ctx, gameID, w.Export()); err != nil {
		return nil, fmt.Errorf("failed to save new game: %w", err)
	}
	p.logger.Info("New game saved", "game_id", gameID.String())
	return &Result{Events: rec.Events(), View: w.View()}, nil
}

// Load rebuilds a game from its save.
func (p *Processor) Load(ctx context.Context, gameID uuid.UUID) (*world.World, error) {
	snap, err := p.storage.LoadSnapshot(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID.String())
	}

	// Import into a fresh world; nothing survives between requests except the save
	w := p.newWorld()
	report := w.Import(snap)
	p.logger.Debug("Game loaded",
		"game_id", gameID.String(),
		"trees", report.Trees,
		"skipped_trees", report.SkippedTrees,
		"quests", report.Quests)
	return w, nil
}

// ApplyAction applies one action and saves the result. A rejected action
// is returned as an error and nothing is saved.
func (p *Processor) ApplyAction(ctx context.Context, gameID uuid.UUID, a world.Action) (*Result, error) {
	w, err := p.Load(ctx, gameID)
	if err != nil {
		return nil, err
	}

	// Record events from the action only, not from the load
	rec := &events.Recorder{}
	w.Subscribe(rec.Publish)

	if err := w.Apply(ctx, a); err != nil {
		return nil, err
	}

	// Save the whole game, including sequences still in flight
	if err := p.storage.SaveSnapshot(ctx, gameID, w.Export()); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}
	return &Result{Events: rec.Events(), View: w.View()}, nil
}

// Process dispatches a queued request.
func (p *Processor) Process(ctx context.Context, req *queue.Request) (*Result, error) {
	switch req.Type {
	case queue.RequestTypeNewGame:
		return p.NewGame(ctx, req.GameID)
	case queue.RequestTypeAction:
		if req.Action == nil {
			return nil, errors.New("action request without an action")
		}
		return p.ApplyAction(ctx, req.GameID, *req.Action)
	}
	return nil, fmt.Errorf("unknown request type: %s", req.Type)
}

// ImportSnapshot replaces a game with an uploaded snapshot. The snapshot
// is applied to a fresh world and that world's export is saved, so records
// the catalog cannot resolve are dropped rather than stored.
func (p *Processor) ImportSnapshot(ctx context.Context, gameID uuid.UUID, snap *save.Snapshot) (*Result, save.Report, error) {
	// Import into a fresh world; nothing survives between requests except the save
	w := p.newWorld()
	report := w.Import(snap)
	if err := p.storage.SaveSnapshot(ctx, gameID, w.Export()); err != nil {
		return nil, report, fmt.Errorf("failed to save imported game: %w", err)
	}
	p.logger.Info("Snapshot imported",
		"game_id", gameID.String(),
		"trees", report.Trees,
		"skipped_trees", report.SkippedTrees)
	return &Result{View: w.View()}, report, nil
}
