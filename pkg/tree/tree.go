package tree

import (
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// Owner is the interaction context currently allowed to act on a tree.
type Owner string

const (
	OwnerNone   Owner = "none"
	OwnerPlot   Owner = "plot"
	OwnerPhysic Owner = "physic"
)

const (
	// below this health fraction growth runs at half speed
	slowGrowthFraction = 0.4
	slowGrowthFactor   = 0.5

	witherBelow   = 0.4
	unwitherAbove = 0.6

	minScaleFactor = 0.1
)

// Tree simulates one planted tree. It is not safe for concurrent use; the
// world ticks every tree from a single goroutine.
type Tree struct {
	id     string
	tmpl   *catalog.TreeTemplate
	plotID string
	pub    events.Publisher

	position catalog.Vec3
	scale    catalog.Vec3

	health     float64
	growTimer  float64
	fullyGrown bool
	dead       bool
	withered   bool
	owner      Owner

	fruitOnTree   int
	fruitOnGround int
	fruitTimer    float64
	shake         shakeSequence
}

// New plants a fresh tree from a template.
func New(id string, tmpl *catalog.TreeTemplate, plotID string, position catalog.Vec3, pub events.Publisher) *Tree {
	if pub == nil {
		pub = events.Discard
	}
	t := &Tree{
		id:       id,
		tmpl:     tmpl,
		plotID:   plotID,
		pub:      pub,
		position: position,
		health:   clamp(tmpl.StartHealth, 0, tmpl.MaxHealth),
	}
	t.scale = t.scaleFor(0)
	t.withered = t.HealthFraction() < witherBelow
	t.owner = t.deriveOwner()
	return t
}

func (t *Tree) ID() string                      { return t.id }
func (t *Tree) Template() *catalog.TreeTemplate { return t.tmpl }
func (t *Tree) PlotID() string                  { return t.plotID }
func (t *Tree) Position() catalog.Vec3          { return t.position }
func (t *Tree) Scale() catalog.Vec3             { return t.scale }
func (t *Tree) Health() float64                 { return t.health }
func (t *Tree) GrowTimer() float64              { return t.growTimer }
func (t *Tree) FullyGrown() bool                { return t.fullyGrown }
func (t *Tree) Dead() bool                      { return t.dead }
func (t *Tree) Withered() bool                  { return t.withered }

// ActionOwner returns the cached owner. It is refreshed on every state
// change, so it always equals the derived value.
func (t *Tree) ActionOwner() Owner { return t.owner }

func (t *Tree) HealthFraction() float64 {
	if t.tmpl.MaxHealth <= 0 {
		return 0
	}
	return t.health / t.tmpl.MaxHealth
}

// Progress is the normalized growth in [0, 1].
func (t *Tree) Progress() float64 {
	if t.tmpl.TimeNeededToGrow <= 0 {
		return 1
	}
	return clamp(t.growTimer/t.tmpl.TimeNeededToGrow, 0, 1)
}

// NeedsWater reports whether a living tree is below its water-need
// threshold.
func (t *Tree) NeedsWater() bool {
	return !t.dead && t.HealthFraction() < t.tmpl.WaterNeedThreshold
}

// CanBeWatered reports whether watering would heal the tree. Spraying a
// healthy tree wastes water; callers decide how much.
func (t *Tree) CanBeWatered() bool {
	return t.NeedsWater()
}

func (t *Tree) MissingHealth() float64 {
	if t.dead {
		return 0
	}
	return t.tmpl.MaxHealth - t.health
}

// Water heals by up to amount and returns the health actually restored.
func (t *Tree) Water(amount float64) float64 {
	if amount <= 0 || !t.CanBeWatered() {
		return 0
	}
	heal := amount
	if missing := t.MissingHealth(); heal > missing {
		heal = missing
	}
	t.health = clamp(t.health+heal, 0, t.tmpl.MaxHealth)
	t.updateWithered()
	t.refreshOwner()
	return heal
}

// Tick advances the simulation by dt seconds: decay, then growth, then the
// visual flag, then fruit and shaking, then the owner.
func (t *Tree) Tick(dt float64) {
	if t.dead || dt <= 0 {
		return
	}

	t.decay(dt)
	if t.dead {
		t.refreshOwner()
		return
	}
	t.grow(dt)
	t.updateWithered()
	t.tickFruit(dt)
	t.tickShake(dt)
	t.refreshOwner()
}

func (t *Tree) decayRate() float64 {
	switch {
	case t.fullyGrown:
		return t.tmpl.GrownDecay
	case t.HealthFraction() < t.tmpl.WaterNeedThreshold:
		return t.tmpl.CriticalDecay
	default:
		return t.tmpl.HealthyDecay
	}
}

func (t *Tree) decay(dt float64) {
	t.health = clamp(t.health-t.decayRate()*dt, 0, t.tmpl.MaxHealth)
	if t.health <= 0 && !t.dead {
		t.die()
	}
}

func (t *Tree) die() {
	t.dead = true
	t.withered = true
	t.fruitOnTree = 0
	t.fruitTimer = 0
	t.shake = shakeSequence{}

	t.pub.Publish(events.New(events.TreeDied, t.id).
		With("plot_id", t.plotID).
		With("tree", t.tmpl.Name).
		With("pollution", t.tmpl.PollutionReduction))
}

func (t *Tree) grow(dt float64) {
	if t.fullyGrown {
		return
	}

	rate := 1.0
	if t.HealthFraction() < slowGrowthFraction {
		rate = slowGrowthFactor
	}
	t.growTimer += dt * rate
	if t.tmpl.TimeNeededToGrow > 0 && t.growTimer > t.tmpl.TimeNeededToGrow {
		t.growTimer = t.tmpl.TimeNeededToGrow
	}

	progress := t.Progress()
	t.scale = t.scaleFor(progress)
	if progress >= 1 {
		t.fullyGrown = true
		t.pub.Publish(events.New(events.TreeGrown, t.id).
			With("plot_id", t.plotID).
			With("tree", t.tmpl.Name))
	}
}

func (t *Tree) scaleFor(progress float64) catalog.Vec3 {
	return catalog.Lerp(t.tmpl.MaxScale.Scale(minScaleFactor), t.tmpl.MaxScale, progress)
}

func (t *Tree) updateWithered() {
	if t.dead {
		return
	}
	hp := t.HealthFraction()
	if !t.withered && hp < witherBelow {
		t.withered = true
	} else if t.withered && hp > unwitherAbove {
		t.withered = false
	}
}

func (t *Tree) deriveOwner() Owner {
	switch {
	case t.dead || t.NeedsWater():
		return OwnerPlot
	case t.fullyGrown:
		return OwnerPhysic
	default:
		return OwnerNone
	}
}

func (t *Tree) refreshOwner() {
	next := t.deriveOwner()
	if next == t.owner {
		return
	}
	prev := t.owner
	t.owner = next
	if next != OwnerPhysic {
		t.shake = shakeSequence{}
	}
	t.pub.Publish(events.New(events.TreeOwnerChanged, t.id).
		With("owner", string(next)).
		With("previous", string(prev)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
