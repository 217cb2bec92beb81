package save

import (
	"github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/jwebster45206/orchard-engine/pkg/tree"
)

// Stage is where a load sequence is. Stages run in order.
type Stage int

const (
	StageEconomy Stage = iota
	StageClearTrees
	StageTrees
	StageQuests
	StageQueues
	StageTutorial
	StageRefresh
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageEconomy:
		return "economy"
	case StageClearTrees:
		return "clear_trees"
	case StageTrees:
		return "trees"
	case StageQuests:
		return "quests"
	case StageQueues:
		return "queues"
	case StageTutorial:
		return "tutorial"
	case StageRefresh:
		return "refresh"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Report summarizes an applied load.
type Report struct {
	Trees        int `json:"trees"`
	SkippedTrees int `json:"skippedTrees"`
	Quests       int `json:"quests"`
	Queues       int `json:"queues"`
}

// LoadSequence applies a snapshot one step at a time. Trees are restored
// one per step; every other stage takes a single step.
type LoadSequence struct {
	o      *Orchestrator
	snap   *Snapshot
	stage  Stage
	next   int
	report Report
}

func (l *LoadSequence) Stage() Stage   { return l.stage }
func (l *LoadSequence) Done() bool     { return l.stage == StageDone }
func (l *LoadSequence) Report() Report { return l.report }

// Step runs the next unit of work and reports whether the sequence is done.
func (l *LoadSequence) Step() bool {
	c := l.o.c
	switch l.stage {
	case StageEconomy:
		c.Economy.Import(l.snap.Game)
		l.stage = StageClearTrees

	case StageClearTrees:
		c.Trees.Clear()
		l.stage = StageTrees

	case StageTrees:
		if l.next >= len(l.snap.Trees) {
			l.stage = StageQuests
			break
		}
		l.restoreTree(l.snap.Trees[l.next])
		l.next++

	case StageQuests:
		c.Quests.Import(l.snap.Quest.Quests, l.snap.Quest.Clock)
		l.report.Quests = len(l.snap.Quest.Quests)
		l.stage = StageQueues

	case StageQueues:
		c.Queues.Import(l.snap.Quest.Queues)
		l.report.Queues = len(l.snap.Quest.Queues)
		l.stage = StageTutorial

	case StageTutorial:
		c.Tutorial.Import(l.snap.Tutorial)
		l.stage = StageRefresh

	case StageRefresh:
		// the ledger is already restored, so a full tank cancels the refill
		if c.Well != nil {
			c.Well.ImportRefill(l.snap.Game.Refill)
		}
		if c.Refresh != nil {
			c.Refresh()
		}
		l.finish()

	case StageDone:
	}
	return l.Done()
}

func (l *LoadSequence) restoreTree(rec tree.Record) {
	c := l.o.c
	tmpl, ok := c.Catalog.Tree(rec.TreeID)
	if !ok {
		l.o.logger.Warn("Skipping saved tree with unknown template", "tree_id", rec.TreeID, "plot_id", rec.PlotID)
		l.report.SkippedTrees++
		return
	}
	if _, err := c.Trees.Spawn(tmpl, rec); err != nil {
		l.o.logger.Warn("Skipping saved tree", "tree_id", rec.TreeID, "plot_id", rec.PlotID, "error", err)
		l.report.SkippedTrees++
		return
	}
	l.report.Trees++
}

func (l *LoadSequence) finish() {
	l.stage = StageDone
	l.o.c.Economy.SetLoading(false)
	l.o.logger.Info("Game loaded",
		"trees", l.report.Trees,
		"skipped_trees", l.report.SkippedTrees,
		"quests", l.report.Quests)
	l.o.pub.Publish(events.New(events.GameLoaded, "").
		With("trees", l.report.Trees).
		With("skipped_trees", l.report.SkippedTrees))
}

// abandon stops a sequence where it is. The world is left in whatever
// partial state the finished stages produced, with loading cleared.
func (l *LoadSequence) abandon() {
	l.stage = StageDone
	l.o.c.Economy.SetLoading(false)
}
