package world

import (
	"math"

	"github.com/jwebster45206/orchard-engine/pkg/economy"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// refillSequence fills the water tank at the well, a little every tick,
// until the tank is full or the player walks away.
type refillSequence struct {
	active bool
	filled float64
}

// Refilling reports whether the tank is being filled.
func (w *World) Refilling() bool { return w.refill.active }

func (w *World) startRefill() error {
	if w.ledger.WaterFull() {
		return ErrWaterFull
	}
	if w.refill.active {
		return nil
	}
	w.refill = refillSequence{active: true}
	w.emit(events.Refill, "")
	return nil
}

func (w *World) tickRefill(dt float64) {
	if !w.refill.active {
		return
	}
	w.refill.filled += w.ledger.AddWater(w.cat.Watering.RefillRatePerSecond * dt)
	if w.ledger.WaterFull() {
		w.logger.Debug("Water tank full", "filled", w.refill.filled)
		w.refill = refillSequence{}
	}
}

// ExportRefill captures a refill in progress, or nil when there is none.
func (w *World) ExportRefill() *economy.RefillState {
	if !w.refill.active {
		return nil
	}
	return &economy.RefillState{Active: true, Filled: w.refill.filled}
}

// ImportRefill resumes a saved refill. It is dropped when the tank is
// already full.
func (w *World) ImportRefill(s *economy.RefillState) {
	w.refill = refillSequence{}
	if s == nil || !s.Active || w.ledger.WaterFull() {
		return
	}
	filled := s.Filled
	if math.IsNaN(filled) || filled < 0 {
		filled = 0
	}
	w.refill = refillSequence{active: true, filled: filled}
}
