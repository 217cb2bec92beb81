package tree

import "github.com/jwebster45206/orchard-engine/pkg/events"

// shakeSequence drops fruit one at a time while a shake is in progress.
type shakeSequence struct {
	active bool
	timer  float64
}

func (t *Tree) FruitOnTree() int   { return t.fruitOnTree }
func (t *Tree) FruitOnGround() int { return t.fruitOnGround }
func (t *Tree) Shaking() bool      { return t.shake.active }

// Shake starts dropping fruit. Only a grown, healthy tree (owner Physic)
// can be shaken, and only when it is not already shaking.
func (t *Tree) Shake() bool {
	if t.owner != OwnerPhysic || t.shake.active {
		return false
	}
	t.shake = shakeSequence{active: true}
	return true
}

// TakeFruit removes one fruit from the ground.
func (t *Tree) TakeFruit() bool {
	if t.fruitOnGround <= 0 {
		return false
	}
	t.fruitOnGround--
	return true
}

func (t *Tree) tickFruit(dt float64) {
	interval := t.tmpl.FruitSpawnInterval
	if !t.fullyGrown || t.NeedsWater() || t.tmpl.MaxFruitCount <= 0 || interval <= 0 {
		return
	}

	t.fruitTimer += dt
	for t.fruitTimer >= interval {
		t.fruitTimer -= interval
		if t.fruitOnTree >= t.tmpl.MaxFruitCount {
			continue
		}
		t.fruitOnTree++
		t.pub.Publish(events.New(events.FruitSpawned, t.id).
			With("tree", t.tmpl.Name).
			With("count", t.fruitOnTree))
	}
}

func (t *Tree) tickShake(dt float64) {
	if !t.shake.active {
		return
	}

	t.shake.timer += dt
	interval := t.tmpl.FruitDropInterval
	for t.fruitOnTree > 0 && t.shake.timer >= interval {
		t.shake.timer -= interval
		t.fruitOnTree--
		t.fruitOnGround++
		t.pub.Publish(events.New(events.FruitDropped, t.id).
			With("tree", t.tmpl.Name).
			With("on_ground", t.fruitOnGround))
	}
	if t.fruitOnTree == 0 {
		t.shake = shakeSequence{}
	}
}
