// Package world owns one running game: it builds every simulation service,
// wires them to a shared event bus, and applies player actions to them.
package world

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/dispatch"
	"github.com/jwebster45206/orchard-engine/pkg/economy"
	"github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/jwebster45206/orchard-engine/pkg/quest"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/tree"
	"github.com/jwebster45206/orchard-engine/pkg/tutorial"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrLoading       = errors.New("world is loading a save")
	ErrGameOver      = errors.New("game is over")
	ErrUnknownTree   = errors.New("unknown tree")
	ErrUnknownQuest  = errors.New("unknown quest")
	ErrLevelTooLow   = errors.New("level too low")
	ErrNoSeed        = errors.New("no seed in stock")
	ErrNPCNotReady   = errors.New("no NPC is offering that quest")
	ErrQuestActive   = errors.New("quest already accepted")
	ErrNotClaimable  = errors.New("quest is not ready to claim")
	ErrNoWater       = errors.New("water tank is empty")
	ErrWaterFull     = errors.New("water tank is full")
	ErrCannotShake   = errors.New("tree cannot be shaken")
	ErrNoFruit       = errors.New("no fruit on the ground")
)

// DefaultTickStep is the longest single simulation step. Longer ticks are
// split so that events fire in the order they would in real time.
const DefaultTickStep = 1.0

type Options struct {
	Catalog *catalog.Catalog
	Logger  *slog.Logger

	// Presenter shows tutorial guidance. Nil records it in a tutorial.Guide
	// that View reads back.
	Presenter tutorial.Presenter

	// Slot enables autosave at the end of each tick.
	Slot save.Slot

	TickStep float64
}

// World is one game. It is not safe for concurrent use: callers serialize
// access, as the worker does with its per-game lock.
type World struct {
	logger    *slog.Logger
	cat       *catalog.Catalog
	bus       *events.Bus
	presenter tutorial.Presenter
	tickStep  float64

	ledger   *economy.Ledger
	trees    *tree.Registry
	quests   *quest.Tracker
	queues   *dispatch.Dispatcher
	tutorial *tutorial.Sequencer
	orch     *save.Orchestrator
	autosave *save.Autosaver

	load   *save.LoadSequence
	refill refillSequence
}

// New builds a world with every service at its starting state. Call
// NewGame to begin play, or Import to resume a save.
func New(opts Options) *World {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	presenter := opts.Presenter
	if presenter == nil {
		presenter = &tutorial.Guide{}
	}
	step := opts.TickStep
	if step <= 0 {
		step = DefaultTickStep
	}

	w := &World{
		logger:    logger,
		cat:       cat,
		bus:       events.NewBus(logger),
		presenter: presenter,
		tickStep:  step,
	}

	names := make([]string, 0, len(cat.Trees))
	for _, t := range cat.Trees {
		names = append(names, t.Name)
	}
	w.ledger = economy.NewLedger(cat.Economy, names, w.bus, logger)
	w.trees = tree.NewRegistry(cat.Plots, w.bus, logger)
	w.queues = dispatch.NewDispatcher(cat.Queues, cat, w.bus, logger)
	w.quests = quest.NewTracker(quest.Options{
		Logger:    logger,
		Publisher: w.bus,
		Templates: cat,
		Rewarder:  w.ledger,
		Notifier:  w.queues,
	})
	w.tutorial = tutorial.NewSequencer(tutorial.DefaultScript(), presenter, w.bus, logger)
	w.tutorial.Attach(w.bus)

	w.orch = save.NewOrchestrator(save.Components{
		Catalog:  cat,
		Economy:  w.ledger,
		Trees:    w.trees,
		Quests:   w.quests,
		Queues:   w.queues,
		Tutorial: w.tutorial,
		Well:     w,
		Refresh:  w.refresh,
	}, w.bus, logger)
	if opts.Slot != nil {
		w.autosave = save.NewAutosaver(w.orch, opts.Slot, logger)
		w.autosave.Attach(w.bus)
	}

	w.bus.Subscribe(events.TreeGrown, w.onTreeGrown)
	w.bus.Subscribe(events.TreeDied, w.onTreeDied)
	w.bus.Subscribe(events.LevelUp, w.onLevelUp)
	return w
}

func (w *World) Catalog() *catalog.Catalog        { return w.cat }
func (w *World) Bus() *events.Bus                 { return w.bus }
func (w *World) Ledger() *economy.Ledger          { return w.ledger }
func (w *World) Trees() *tree.Registry            { return w.trees }
func (w *World) Quests() *quest.Tracker           { return w.quests }
func (w *World) Queues() *dispatch.Dispatcher     { return w.queues }
func (w *World) Tutorial() *tutorial.Sequencer    { return w.tutorial }
func (w *World) Orchestrator() *save.Orchestrator { return w.orch }

// Subscribe forwards every domain event to h.
func (w *World) Subscribe(h events.Handler) { w.bus.SubscribeAll(h) }

// Loading reports whether a save is still being applied.
func (w *World) Loading() bool { return w.orch.Loading() }

// NewGame puts every service back at its starting state, starts the
// tutorial, and offers the first quests.
func (w *World) NewGame() {
	if w.load != nil {
		w.logger.Warn("Starting new game over an unfinished load")
		for !w.load.Step() {
		}
		w.load = nil
	}
	w.refill = refillSequence{}
	w.ledger.Reset()
	w.trees.Clear()
	w.quests.Reset()
	w.queues.Reset()
	w.tutorial.Reset()
	w.queues.TrySpawnAll(w.ledger.Level())
	w.logger.Info("New game started", "level", w.ledger.Level(), "coins", w.ledger.Coins())
}

// Tick advances the simulation by dt seconds, split into steps no longer
// than the configured tick step. While a save is loading each call applies
// one load step instead and returns ErrLoading.
func (w *World) Tick(ctx context.Context, dt float64) error {
	if w.load != nil {
		w.stepLoad()
		return ErrLoading
	}
	if dt <= 0 || w.ledger.GameOver() {
		return nil
	}

	for dt > 0 {
		step := min(dt, w.tickStep)
		dt -= step
		w.step(step)
		if w.ledger.GameOver() {
			break
		}
	}
	return w.flush(ctx)
}

func (w *World) step(dt float64) {
	w.trees.Tick(dt)
	w.quests.Tick(dt)
	w.queues.Tick(dt)
	w.tickRefill(dt)
	w.ledger.Tick(dt)
	w.queues.TrySpawnAll(w.ledger.Level())
}

func (w *World) flush(ctx context.Context) error {
	if w.autosave == nil {
		return nil
	}
	return w.autosave.Flush(ctx)
}

// Save writes a snapshot to the autosave slot now.
func (w *World) Save(ctx context.Context) error {
	if w.autosave == nil {
		return errors.New("world has no save slot")
	}
	if w.Loading() {
		return ErrLoading
	}
	return w.autosave.Save(ctx)
}

// Export captures the full game state.
func (w *World) Export() *save.Snapshot {
	return w.orch.ExportState()
}

// Import applies a snapshot to completion. It is meant for a world that
// has just been built.
func (w *World) Import(snap *save.Snapshot) save.Report {
	w.load = nil
	return w.orch.ImportState(snap)
}

// BeginImport starts applying a snapshot across ticks: each Tick applies
// one step until the load finishes.
func (w *World) BeginImport(snap *save.Snapshot) {
	w.load = w.orch.Begin(snap)
}

func (w *World) stepLoad() {
	if w.load.Step() {
		w.logger.Debug("Load sequence finished", "trees", w.load.Report().Trees)
		w.load = nil
	}
}

func (w *World) refresh() {
	w.logger.Debug("World refreshed",
		"refilling", w.refill.active,
		"level", w.ledger.Level(),
		"trees", len(w.trees.Trees()),
		"quests", len(w.quests.Live()),
		"tutorial_step", string(w.tutorial.Step()))
}

func (w *World) onTreeGrown(e events.Event) {
	t, ok := w.trees.Tree(e.ID)
	if !ok {
		return
	}
	tmpl := t.Template()
	w.ledger.AddXP(tmpl.XPRewardPlant)
	if tmpl.PollutionReduction > 0 {
		w.ledger.ModifyPollution(-tmpl.PollutionReduction)
	}
	w.quests.AddProgress(tmpl.Name, catalog.GoalPlantTree)
}

func (w *World) onTreeDied(e events.Event) {
	t, ok := w.trees.Tree(e.ID)
	if !ok {
		return
	}
	penalty := t.Template().PollutionReduction * w.cat.Economy.DeathPollutionFactor
	if penalty > 0 {
		w.ledger.ModifyPollution(penalty)
	}
	w.logger.Info("Tree died", "tree_id", t.ID(), "plot_id", t.PlotID(), "pollution", penalty)
}

func (w *World) onLevelUp(events.Event) {
	w.queues.TrySpawnAll(w.ledger.Level())
}
