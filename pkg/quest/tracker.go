package quest

import (
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// Status is the lifecycle state of an accepted quest.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusClaimed   Status = "claimed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusClaimed || s == StatusFailed
}

// Entry is the runtime wrapper around an accepted quest template.
type Entry struct {
	Template   *catalog.QuestTemplate
	Progress   int
	StartTime  float64
	Remaining  float64
	FinishTime float64
	Status     Status
}

func (e Entry) ID() string    { return e.Template.ID }
func (e Entry) Required() int { return e.Template.RequiredAmount }
func (e Entry) Timed() bool   { return e.Template.HasTimer }

// Templates resolves quest IDs. *catalog.Catalog satisfies it.
type Templates interface {
	Quest(id string) (*catalog.QuestTemplate, bool)
}

// Rewarder receives the rewards of a claimed quest.
type Rewarder interface {
	GrantQuestReward(q *catalog.QuestTemplate)
}

// FinishNotifier is told when a quest is claimed or failed so the queue
// that offered it can move on.
type FinishNotifier interface {
	OnQuestFinished(questID string)
}

// Tracker owns every accepted quest. Live quests (active or completed and
// unclaimed) are kept in acceptance order; claimed and failed quests move
// to a history that is never mutated again.
type Tracker struct {
	logger    *slog.Logger
	pub       events.Publisher
	templates Templates
	rewarder  Rewarder
	notifier  FinishNotifier

	live    map[string]*Entry
	order   []string
	history map[string]*Entry
	clock   float64
}

// Options wires a tracker's collaborators. Nil fields are allowed.
type Options struct {
	Logger    *slog.Logger
	Publisher events.Publisher
	Templates Templates
	Rewarder  Rewarder
	Notifier  FinishNotifier
}

func NewTracker(opts Options) *Tracker {
	t := &Tracker{
		logger:    opts.Logger,
		pub:       opts.Publisher,
		templates: opts.Templates,
		rewarder:  opts.Rewarder,
		notifier:  opts.Notifier,
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.pub == nil {
		t.pub = events.Discard
	}
	t.Reset()
	return t
}

// SetNotifier replaces the finish notifier. The world sets it after the
// queues exist.
func (t *Tracker) SetNotifier(n FinishNotifier) {
	t.notifier = n
}

// Reset forgets every quest.
func (t *Tracker) Reset() {
	t.live = make(map[string]*Entry)
	t.order = nil
	t.history = make(map[string]*Entry)
	t.clock = 0
}

// Clock is the simulated time used for quest timestamps.
func (t *Tracker) Clock() float64 { return t.clock }

// StartQuest accepts a quest. It returns false when the quest is already
// live, or when it was finished before and is not repeatable.
func (t *Tracker) StartQuest(tmpl *catalog.QuestTemplate) bool {
	if tmpl == nil {
		return false
	}
	if _, ok := t.live[tmpl.ID]; ok {
		t.logger.Warn("Quest already active", "quest_id", tmpl.ID)
		return false
	}
	if _, ok := t.history[tmpl.ID]; ok {
		if !tmpl.Repeatable {
			t.logger.Debug("Quest already finished and not repeatable", "quest_id", tmpl.ID)
			return false
		}
		delete(t.history, tmpl.ID)
	}

	e := &Entry{
		Template:  tmpl,
		StartTime: t.clock,
		Status:    StatusActive,
	}
	if tmpl.HasTimer {
		e.Remaining = tmpl.Duration
	}
	t.live[tmpl.ID] = e
	t.order = append(t.order, tmpl.ID)

	t.pub.Publish(events.New(events.QuestShown, tmpl.ID).
		With("title", tmpl.Title).
		With("required", tmpl.RequiredAmount))
	return true
}

// AddProgress counts one occurrence of goal for target against every
// matching active quest, in acceptance order. Completions are applied only
// after every increment, so completion side effects never run mid-scan.
func (t *Tracker) AddProgress(target string, goal catalog.GoalType) {
	var crossed []*Entry
	for _, id := range t.order {
		e := t.live[id]
		if e.Status != StatusActive || !e.Template.Matches(target, goal) {
			continue
		}
		if e.Progress >= e.Required() {
			continue
		}
		e.Progress++
		t.pub.Publish(events.New(events.QuestProgress, id).
			With("progress", e.Progress).
			With("required", e.Required()))
		if e.Progress >= e.Required() {
			crossed = append(crossed, e)
		}
	}

	for _, e := range crossed {
		e.Status = StatusCompleted
		t.logger.Info("Quest completed", "quest_id", e.ID())
		t.pub.Publish(events.New(events.QuestCompleted, e.ID()))
	}
}

// Claim grants the rewards of a completed quest and retires it.
func (t *Tracker) Claim(questID string) bool {
	e, ok := t.live[questID]
	if !ok || e.Status != StatusCompleted {
		t.logger.Debug("Ignoring claim for quest that is not completed", "quest_id", questID)
		return false
	}

	if t.rewarder != nil {
		t.rewarder.GrantQuestReward(e.Template)
	}
	e.Status = StatusClaimed
	t.retire(e)

	t.pub.Publish(events.New(events.QuestClaimed, questID).
		With("xp", e.Template.RewardXP).
		With("coins", e.Template.RewardCoins))
	t.notifyFinished(questID)
	return true
}

// Fail ends an active quest. Its last progress is kept for the record.
func (t *Tracker) Fail(questID string) bool {
	e, ok := t.live[questID]
	if !ok || e.Status != StatusActive {
		t.logger.Debug("Ignoring fail for quest that is not active", "quest_id", questID)
		return false
	}
	t.fail(e)
	return true
}

func (t *Tracker) fail(e *Entry) {
	e.Status = StatusFailed
	t.retire(e)
	t.logger.Info("Quest failed", "quest_id", e.ID(), "progress", e.Progress)
	t.pub.Publish(events.New(events.QuestFailed, e.ID()).With("progress", e.Progress))
	t.notifyFinished(e.ID())
}

// Tick advances the clock and the timers of active timed quests. A quest
// whose timer runs out fails on that tick and is never ticked again.
func (t *Tracker) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	t.clock += dt

	var expired []*Entry
	for _, id := range t.order {
		e := t.live[id]
		if e.Status != StatusActive || !e.Timed() {
			continue
		}
		e.Remaining -= dt
		if e.Remaining <= 0 {
			e.Remaining = 0
			expired = append(expired, e)
		}
	}

	for _, e := range expired {
		if e.Status == StatusActive {
			t.fail(e)
		}
	}
}

// Get returns a copy of the quest's current wrapper, live or finished.
func (t *Tracker) Get(questID string) (Entry, bool) {
	if e, ok := t.live[questID]; ok {
		return *e, true
	}
	if e, ok := t.history[questID]; ok {
		return *e, true
	}
	return Entry{}, false
}

// Status returns the quest's status and whether it was ever accepted.
func (t *Tracker) Status(questID string) (Status, bool) {
	e, ok := t.Get(questID)
	return e.Status, ok
}

// Live returns active and completed-unclaimed quests in acceptance order.
func (t *Tracker) Live() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.live[id])
	}
	return out
}

func (t *Tracker) retire(e *Entry) {
	e.FinishTime = t.clock
	delete(t.live, e.ID())
	for i, id := range t.order {
		if id == e.ID() {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.history[e.ID()] = e
}

func (t *Tracker) notifyFinished(questID string) {
	if t.notifier != nil {
		t.notifier.OnQuestFinished(questID)
	}
}
