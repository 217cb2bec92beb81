package tree

import (
	"errors"
	"fmt"
	"math"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// ErrInvalidRecord reports a saved tree that cannot be restored.
var ErrInvalidRecord = errors.New("invalid tree record")

// Record is the persisted form of a tree.
type Record struct {
	ID           string       `json:"id,omitempty" yaml:"id,omitempty"`
	TreeID       string       `json:"treeID" yaml:"treeID"`
	PlotID       string       `json:"plotID,omitempty" yaml:"plotID,omitempty"`
	Position     catalog.Vec3 `json:"pos" yaml:"pos"`
	Scale        catalog.Vec3 `json:"scale" yaml:"scale"`
	Health       float64      `json:"health" yaml:"health"`
	GrowTimer    float64      `json:"growTimer" yaml:"growTimer"`
	IsFullyGrown bool         `json:"isFullyGrown" yaml:"isFullyGrown"`
	IsDead       bool         `json:"isDead" yaml:"isDead"`
	IsWithered   bool         `json:"isWithered" yaml:"isWithered"`

	FruitOnTree   int     `json:"fruitOnTree,omitempty" yaml:"fruitOnTree,omitempty"`
	FruitOnGround int     `json:"fruitOnGround,omitempty" yaml:"fruitOnGround,omitempty"`
	FruitTimer    float64 `json:"fruitTimer,omitempty" yaml:"fruitTimer,omitempty"`

	// a shake in progress keeps dropping fruit after a reload
	Shaking    bool    `json:"shaking,omitempty" yaml:"shaking,omitempty"`
	ShakeTimer float64 `json:"shakeTimer,omitempty" yaml:"shakeTimer,omitempty"`
}

// Validate rejects records whose numbers would stall the simulation.
func (r Record) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"health", r.Health},
		{"growTimer", r.GrowTimer},
		{"fruitTimer", r.FruitTimer},
		{"shakeTimer", r.ShakeTimer},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidRecord, f.name, f.v)
		}
	}
	return nil
}

// Record captures the tree's persisted state.
func (t *Tree) Record() Record {
	return Record{
		ID:            t.id,
		TreeID:        t.tmpl.ID,
		PlotID:        t.plotID,
		Position:      t.position,
		Scale:         t.scale,
		Health:        t.health,
		GrowTimer:     t.growTimer,
		IsFullyGrown:  t.fullyGrown,
		IsDead:        t.dead,
		IsWithered:    t.withered,
		FruitOnTree:   t.fruitOnTree,
		FruitOnGround: t.fruitOnGround,
		FruitTimer:    t.fruitTimer,
		Shaking:       t.shake.active,
		ShakeTimer:    t.shake.timer,
	}
}

// Restore rebuilds a tree from a record. Flags are applied directly: a
// restored dead or grown tree does not replay its death or growth events.
// Callers check rec.Validate first; counts and timers are clamped here.
func Restore(id string, tmpl *catalog.TreeTemplate, rec Record, pub events.Publisher) *Tree {
	if pub == nil {
		pub = events.Discard
	}
	t := &Tree{
		id:            id,
		tmpl:          tmpl,
		plotID:        rec.PlotID,
		pub:           pub,
		position:      rec.Position,
		scale:         rec.Scale,
		health:        clamp(rec.Health, 0, tmpl.MaxHealth),
		growTimer:     max(rec.GrowTimer, 0),
		fullyGrown:    rec.IsFullyGrown,
		dead:          rec.IsDead,
		withered:      rec.IsWithered,
		fruitOnGround: max(rec.FruitOnGround, 0),
	}
	if !t.dead {
		t.fruitOnTree = max(rec.FruitOnTree, 0)
		if tmpl.MaxFruitCount >= 0 && t.fruitOnTree > tmpl.MaxFruitCount {
			t.fruitOnTree = tmpl.MaxFruitCount
		}
		t.fruitTimer = max(rec.FruitTimer, 0)
		if rec.Shaking && t.fruitOnTree > 0 {
			t.shake = shakeSequence{active: true, timer: max(rec.ShakeTimer, 0)}
		}
	}
	t.owner = t.deriveOwner()
	return t
}
