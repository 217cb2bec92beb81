package dispatch

import (
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// Dispatcher holds one queue per difficulty tier, in catalog order.
type Dispatcher struct {
	logger *slog.Logger
	queues []*Queue
}

func NewDispatcher(cfgs []catalog.QueueConfig, templates Templates, pub events.Publisher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	for _, cfg := range cfgs {
		d.queues = append(d.queues, NewQueue(cfg, templates, pub, logger))
	}
	return d
}

func (d *Dispatcher) Queues() []*Queue { return d.queues }

func (d *Dispatcher) Queue(diff catalog.Difficulty) (*Queue, bool) {
	for _, q := range d.queues {
		if q.Difficulty() == diff {
			return q, true
		}
	}
	return nil, false
}

// TrySpawnAll gives every tier a chance to spawn. It returns the number of
// actors spawned.
func (d *Dispatcher) TrySpawnAll(playerLevel int) int {
	n := 0
	for _, q := range d.queues {
		if q.TrySpawnNext(playerLevel) {
			n++
		}
	}
	return n
}

// OnQuestFinished forwards to every queue; only the queue whose actor holds
// questID reacts.
func (d *Dispatcher) OnQuestFinished(questID string) {
	for _, q := range d.queues {
		q.OnQuestFinished(questID)
	}
}

func (d *Dispatcher) Tick(dt float64) {
	for _, q := range d.queues {
		q.Tick(dt)
	}
}

// ReadyFor reports whether any tier is offering questID right now.
func (d *Dispatcher) ReadyFor(questID string) bool {
	for _, q := range d.queues {
		if q.ReadyFor(questID) {
			return true
		}
	}
	return false
}

// Actors returns the live actors across all tiers.
func (d *Dispatcher) Actors() []*Actor {
	var out []*Actor
	for _, q := range d.queues {
		if q.actor != nil {
			out = append(out, q.actor)
		}
	}
	return out
}

func (d *Dispatcher) Export() []Record {
	out := make([]Record, 0, len(d.queues))
	for _, q := range d.queues {
		out = append(out, q.Export())
	}
	return out
}

// Import restores each record onto the queue of the same tier. Tiers with
// no record are reset.
func (d *Dispatcher) Import(records []Record) {
	seen := make(map[catalog.Difficulty]bool, len(records))
	for _, r := range records {
		q, ok := d.Queue(r.Difficulty)
		if !ok {
			d.logger.Warn("Skipping saved queue for unknown tier", "difficulty", string(r.Difficulty))
			continue
		}
		q.Import(r)
		seen[r.Difficulty] = true
	}
	for _, q := range d.queues {
		if !seen[q.Difficulty()] {
			q.Reset()
		}
	}
}

func (d *Dispatcher) Reset() {
	for _, q := range d.queues {
		q.Reset()
	}
}
