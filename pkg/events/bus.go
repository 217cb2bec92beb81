package events

import (
	"log/slog"
	"sync"
)

// Handler consumes one event.
type Handler func(Event)

// Bus is a synchronous in-process dispatcher. Publishing from inside a
// handler does not recurse: the event is queued and delivered after the
// current delivery finishes, so handlers always observe events in publish
// order.
type Bus struct {
	logger *slog.Logger

	handlers map[Type][]Handler
	all      []Handler

	pending     []Event
	dispatching bool
}

var _ Publisher = (*Bus)(nil)

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger:   logger,
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers h for one event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.handlers[t] = append(b.handlers[t], h)
}

// SubscribeAll registers h for every event. Catch-all handlers run after
// the typed handlers of each event.
func (b *Bus) SubscribeAll(h Handler) {
	b.all = append(b.all, h)
}

func (b *Bus) Publish(e Event) {
	b.pending = append(b.pending, e)
	if b.dispatching {
		return
	}

	b.dispatching = true
	defer func() { b.dispatching = false }()

	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		b.logger.Debug("Dispatching event", "type", next.Type, "id", next.ID)
		for _, h := range b.handlers[next.Type] {
			h(next)
		}
		for _, h := range b.all {
			h(next)
		}
	}
}

// Recorder keeps every event it receives. It is safe for concurrent use so
// tests can read it while a world publishes.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Of returns the recorded events of type t in order.
func (r *Recorder) Of(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
