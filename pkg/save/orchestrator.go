package save

import (
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/dispatch"
	"github.com/jwebster45206/orchard-engine/pkg/economy"
	"github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/jwebster45206/orchard-engine/pkg/quest"
	"github.com/jwebster45206/orchard-engine/pkg/tree"
	"github.com/jwebster45206/orchard-engine/pkg/tutorial"
)

// Economy is the ledger side of a save.
type Economy interface {
	Export() economy.State
	Import(s economy.State)
	SetLoading(loading bool)
}

// Trees is the tree registry side of a save.
type Trees interface {
	Records() []tree.Record
	Clear()
	Spawn(tmpl *catalog.TreeTemplate, rec tree.Record) (*tree.Tree, error)
}

// Quests is the quest tracker side of a save.
type Quests interface {
	Export(templates []catalog.QuestTemplate) []quest.Record
	Import(records []quest.Record, clock float64)
	Clock() float64
}

// Queues is the NPC dispatcher side of a save.
type Queues interface {
	Export() []dispatch.Record
	Import(records []dispatch.Record)
}

// Tutorial is the tutorial side of a save.
type Tutorial interface {
	Export() tutorial.State
	Import(s tutorial.State)
}

// Well is the in-flight water refill side of a save.
type Well interface {
	ExportRefill() *economy.RefillState
	ImportRefill(s *economy.RefillState)
}

// Components are the services an orchestrator reads and restores.
type Components struct {
	Catalog  *catalog.Catalog
	Economy  Economy
	Trees    Trees
	Quests   Quests
	Queues   Queues
	Tutorial Tutorial
	Well     Well

	// Refresh runs once a load has been fully applied.
	Refresh func()
}

// Orchestrator captures and restores one consistent snapshot across every
// stateful service. It takes no part in gameplay events.
type Orchestrator struct {
	logger *slog.Logger
	pub    events.Publisher
	c      Components
	active *LoadSequence
}

func NewOrchestrator(c Components, pub events.Publisher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Discard
	}
	return &Orchestrator{logger: logger, pub: pub, c: c}
}

// ExportState reads every component. It changes nothing.
func (o *Orchestrator) ExportState() *Snapshot {
	snap := &Snapshot{
		Game:  o.c.Economy.Export(),
		Trees: o.c.Trees.Records(),
		Quest: QuestSection{
			Clock:  o.c.Quests.Clock(),
			Quests: o.c.Quests.Export(o.c.Catalog.Quests),
			Queues: o.c.Queues.Export(),
		},
		Tutorial: o.c.Tutorial.Export(),
	}
	if o.c.Well != nil {
		snap.Game.Refill = o.c.Well.ExportRefill()
	}
	return snap
}

// Loading reports whether a load sequence is in flight.
func (o *Orchestrator) Loading() bool {
	return o.active != nil && !o.active.Done()
}

// Begin starts a resumable load of snap. The caller drives it with Step,
// typically once per tick. Loading is only valid on a freshly built world.
func (o *Orchestrator) Begin(snap *Snapshot) *LoadSequence {
	if o.Loading() {
		o.logger.Warn("Abandoning load sequence already in flight")
		o.active.abandon()
	}
	o.c.Economy.SetLoading(true)
	o.active = &LoadSequence{o: o, snap: snap}
	return o.active
}

// ImportState applies snap to completion in one call.
func (o *Orchestrator) ImportState(snap *Snapshot) Report {
	seq := o.Begin(snap)
	for !seq.Step() {
	}
	return seq.Report()
}
