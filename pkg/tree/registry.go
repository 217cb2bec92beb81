package tree

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

var (
	// ErrUnknownPlot reports a plot ID that is not in the catalog.
	ErrUnknownPlot = errors.New("unknown plot")
	// ErrPlotOccupied reports planting over a living tree.
	ErrPlotOccupied = errors.New("plot already has a living tree")
	// ErrNoTree reports an action on an empty plot.
	ErrNoTree = errors.New("plot has no tree")
	// ErrTreeAlive reports chopping a tree that has not died.
	ErrTreeAlive = errors.New("only dead trees can be chopped")
)

// Plot is a spot that holds at most one tree.
type Plot struct {
	ID          string
	Position    catalog.Vec3
	SpawnOffset catalog.Vec3
	tree        *Tree
}

// Tree returns the planted tree, or nil.
func (p *Plot) Tree() *Tree { return p.tree }

func (p *Plot) Empty() bool { return p.tree == nil }

func (p *Plot) spawnPosition() catalog.Vec3 {
	return catalog.Vec3{
		X: p.Position.X + p.SpawnOffset.X,
		Y: p.Position.Y + p.SpawnOffset.Y,
		Z: p.Position.Z + p.SpawnOffset.Z,
	}
}

// Registry owns every plot and every live tree.
type Registry struct {
	logger *slog.Logger
	pub    events.Publisher

	plots map[string]*Plot
	order []string
	trees []*Tree
}

func NewRegistry(plots []catalog.PlotConfig, pub events.Publisher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Discard
	}
	r := &Registry{
		logger: logger,
		pub:    pub,
		plots:  make(map[string]*Plot, len(plots)),
	}
	for _, pc := range plots {
		r.plots[pc.ID] = &Plot{ID: pc.ID, Position: pc.Position, SpawnOffset: pc.SpawnOffset}
		r.order = append(r.order, pc.ID)
	}
	return r
}

func (r *Registry) Plot(id string) (*Plot, bool) {
	p, ok := r.plots[id]
	return p, ok
}

// Plots returns the plots in catalog order.
func (r *Registry) Plots() []*Plot {
	out := make([]*Plot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.plots[id])
	}
	return out
}

// Trees returns the live trees in planting order.
func (r *Registry) Trees() []*Tree {
	out := make([]*Tree, len(r.trees))
	copy(out, r.trees)
	return out
}

func (r *Registry) Tree(id string) (*Tree, bool) {
	for _, t := range r.trees {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// Plant puts a fresh tree on a plot. A dead tree already on the plot is
// replaced.
func (r *Registry) Plant(plotID string, tmpl *catalog.TreeTemplate) (*Tree, error) {
	p, ok := r.plots[plotID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlot, plotID)
	}
	if p.tree != nil && !p.tree.Dead() {
		return nil, ErrPlotOccupied
	}
	if p.tree != nil {
		r.remove(p.tree)
	}

	t := New(r.newID(), tmpl, p.ID, p.spawnPosition(), r.pub)
	p.tree = t
	r.trees = append(r.trees, t)

	r.pub.Publish(events.New(events.TreePlanted, t.id).
		With("plot_id", p.ID).
		With("tree", tmpl.Name))
	return t, nil
}

// Chop removes a dead tree from its plot.
func (r *Registry) Chop(plotID string) error {
	p, ok := r.plots[plotID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlot, plotID)
	}
	if p.tree == nil {
		return ErrNoTree
	}
	if !p.tree.Dead() {
		return ErrTreeAlive
	}

	t := p.tree
	r.remove(t)
	r.pub.Publish(events.New(events.TreeChopped, t.id).With("plot_id", plotID))
	return nil
}

// Spawn restores a tree from a saved record and binds it to its plot. The
// record's plot must exist; a record without a plot yields an unbound tree.
// The saved tree ID is kept unless it is missing or already taken.
func (r *Registry) Spawn(tmpl *catalog.TreeTemplate, rec Record) (*Tree, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	var p *Plot
	if rec.PlotID != "" {
		var ok bool
		p, ok = r.plots[rec.PlotID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlot, rec.PlotID)
		}
		if p.tree != nil {
			r.logger.Warn("Replacing tree on plot during restore", "plot_id", p.ID, "tree_id", p.tree.id)
			r.remove(p.tree)
		}
	}

	id := rec.ID
	if _, taken := r.Tree(id); id == "" || taken {
		id = r.newID()
	}
	t := Restore(id, tmpl, rec, r.pub)
	if p != nil {
		p.tree = t
	}
	r.trees = append(r.trees, t)
	return t, nil
}

// Clear destroys every live tree and empties every plot.
func (r *Registry) Clear() {
	for _, p := range r.plots {
		p.tree = nil
	}
	r.trees = nil
}

// Tick advances every live tree.
func (r *Registry) Tick(dt float64) {
	// a tree's events may plant or chop through handlers; iterate a copy
	for _, t := range r.Trees() {
		t.Tick(dt)
	}
}

// Records captures every live tree in planting order.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.trees))
	for _, t := range r.trees {
		out = append(out, t.Record())
	}
	return out
}

func (r *Registry) remove(t *Tree) {
	for i, lt := range r.trees {
		if lt == t {
			r.trees = append(r.trees[:i], r.trees[i+1:]...)
			break
		}
	}
	if p, ok := r.plots[t.plotID]; ok && p.tree == t {
		p.tree = nil
	}
}

func (r *Registry) newID() string {
	return uuid.NewString()
}
