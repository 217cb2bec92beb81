package dispatch

import (
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

// Templates resolves quest IDs. *catalog.Catalog satisfies it.
type Templates interface {
	Quest(id string) (*catalog.QuestTemplate, bool)
}

// Queue offers one difficulty tier's quests in order through at most one
// live actor.
type Queue struct {
	logger *slog.Logger
	pub    events.Publisher
	cfg    catalog.QueueConfig
	quests []*catalog.QuestTemplate

	index     int
	actor     *Actor
	restoring bool
}

// NewQueue resolves the tier's quest order. Unknown quest IDs are logged and
// left out of the sequence.
func NewQueue(cfg catalog.QueueConfig, templates Templates, pub events.Publisher, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Discard
	}
	q := &Queue{
		logger: logger.With("difficulty", string(cfg.Difficulty)),
		pub:    pub,
		cfg:    cfg,
	}
	for _, id := range cfg.QuestOrder {
		tmpl, ok := templates.Quest(id)
		if !ok {
			q.logger.Error("Queue references unknown quest", "quest_id", id)
			continue
		}
		q.quests = append(q.quests, tmpl)
	}
	return q
}

func (q *Queue) Difficulty() catalog.Difficulty { return q.cfg.Difficulty }

// CurrentIndex is the position of the next quest to offer.
func (q *Queue) CurrentIndex() int { return q.index }

func (q *Queue) Len() int { return len(q.quests) }

// Exhausted reports whether every quest in the tier has been offered.
func (q *Queue) Exhausted() bool { return q.index >= len(q.quests) }

// Actor returns the live actor, or nil.
func (q *Queue) Actor() *Actor { return q.actor }

func (q *Queue) HasActor() bool { return q.actor != nil }

// ActiveQuestID is the quest held by the live actor, or "".
func (q *Queue) ActiveQuestID() string {
	if q.actor == nil {
		return ""
	}
	return q.actor.questID
}

// ReturnPointIndex is the spawn point the live actor will walk back to, or
// -1 when there is no actor or it returns to the quest point.
func (q *Queue) ReturnPointIndex() int {
	if q.actor == nil {
		return -1
	}
	return q.actor.returnIndex
}

// ReadyFor reports whether questID is being offered by an actor standing at
// the quest point.
func (q *Queue) ReadyFor(questID string) bool {
	return q.actor != nil && q.actor.questID == questID && q.actor.ReadyForInteraction()
}

// TrySpawnNext spawns an actor for the next quest when the tier is unlocked,
// no actor is live, and quests remain.
func (q *Queue) TrySpawnNext(playerLevel int) bool {
	if q.restoring {
		return false
	}
	if playerLevel < q.cfg.Level() {
		return false
	}
	if q.actor != nil || q.Exhausted() {
		return false
	}
	if q.index >= len(q.cfg.SpawnPoints) {
		q.logger.Error("Spawn point count is less than quest count", "index", q.index, "spawn_points", len(q.cfg.SpawnPoints))
		return false
	}

	tmpl := q.quests[q.index]
	spawn := q.cfg.SpawnPoints[q.index]
	q.actor = newActor(tmpl, spawn, q.cfg.QuestPoint, spawn, q.index, q.cfg.WalkSpeed)
	q.index++

	q.logger.Info("NPC spawned", "quest_id", tmpl.ID, "npc_id", tmpl.NPCID, "actor_id", q.actor.id)
	q.pub.Publish(events.New(events.NPCSpawned, tmpl.ID).
		With("npc_id", tmpl.NPCID).
		With("actor_id", q.actor.id).
		With("difficulty", string(q.cfg.Difficulty)))
	return true
}

// CanReuse reports whether the live actor may be handed next in place.
func (q *Queue) CanReuse(next *catalog.QuestTemplate) bool {
	if !q.cfg.ReuseSameNPC || q.actor == nil || next == nil {
		return false
	}
	if next.ForceNewNPC {
		return false
	}
	return q.actor.npcID == next.NPCID
}

// OnQuestFinished advances the tier after questID was claimed or failed.
// Quests not held by this queue's actor are ignored.
func (q *Queue) OnQuestFinished(questID string) {
	if q.actor == nil || q.actor.questID != questID || q.actor.phase == PhaseLeaving {
		return
	}

	if q.Exhausted() {
		q.sendAway()
		return
	}

	next := q.quests[q.index]
	if !q.CanReuse(next) {
		q.sendAway()
		return
	}

	q.actor.assign(next)
	q.index++
	q.logger.Info("NPC reassigned", "quest_id", next.ID, "actor_id", q.actor.id)
	q.pub.Publish(events.New(events.NPCReassigned, next.ID).
		With("npc_id", next.NPCID).
		With("actor_id", q.actor.id).
		With("previous", questID))
}

func (q *Queue) sendAway() {
	q.actor.leave()
	q.pub.Publish(events.New(events.NPCLeaving, q.actor.questID).With("actor_id", q.actor.id))
}

// Tick walks the live actor. An actor that reaches its return point is
// removed, which frees the tier for the next spawn.
func (q *Queue) Tick(dt float64) {
	if q.actor == nil || dt <= 0 {
		return
	}
	if !q.actor.step(dt) {
		return
	}

	switch q.actor.phase {
	case PhaseWalking:
		q.actor.phase = PhaseAtQuestPoint
		q.pub.Publish(events.New(events.NPCArrived, q.actor.questID).With("actor_id", q.actor.id))
	case PhaseLeaving:
		gone := q.actor
		q.actor = nil
		q.logger.Debug("NPC gone", "actor_id", gone.id)
		q.pub.Publish(events.New(events.NPCGone, gone.questID).With("actor_id", gone.id))
	}
}

// RestoreFromSave rebuilds the queue from a saved record. A recorded actor
// is recreated standing at the quest point. Spawning stays suppressed until
// the restore returns, whatever path it takes.
func (q *Queue) RestoreFromSave(index int, questID string, hasActor bool, returnIndex int) {
	q.restoring = true
	defer func() { q.restoring = false }()

	q.actor = nil
	if index < 0 {
		index = 0
	}
	if index > len(q.quests) {
		q.logger.Warn("Saved queue index past end of quest order", "index", index, "quests", len(q.quests))
		index = len(q.quests)
	}
	q.index = index

	if !hasActor || questID == "" {
		return
	}

	var tmpl *catalog.QuestTemplate
	for _, t := range q.quests {
		if t.ID == questID {
			tmpl = t
			break
		}
	}
	if tmpl == nil {
		q.logger.Warn("Saved NPC quest is not in this queue", "quest_id", questID)
		return
	}

	returnPoint := q.cfg.QuestPoint
	if returnIndex >= 0 && returnIndex < len(q.cfg.SpawnPoints) {
		returnPoint = q.cfg.SpawnPoints[returnIndex]
	} else {
		returnIndex = -1
	}
	q.actor = newActor(tmpl, q.cfg.QuestPoint, q.cfg.QuestPoint, returnPoint, returnIndex, q.cfg.WalkSpeed)
	q.actor.phase = PhaseAtQuestPoint
}

// Reset returns the queue to its first quest with no actor.
func (q *Queue) Reset() {
	q.actor = nil
	q.index = 0
	q.restoring = false
}

// Record is the persisted form of a queue.
type Record struct {
	Difficulty       catalog.Difficulty `json:"difficulty" yaml:"difficulty"`
	CurrentIndex     int                `json:"currentIndex" yaml:"currentIndex"`
	ActiveQuestID    string             `json:"activeQuestID" yaml:"activeQuestID"`
	HasActiveNPC     bool               `json:"hasActiveNPC" yaml:"hasActiveNPC"`
	ReturnPointIndex int                `json:"returnPointIndex" yaml:"returnPointIndex"`
}

// Export records the queue. An actor already walking out is not recorded;
// a fresh one spawns after the load instead.
func (q *Queue) Export() Record {
	r := Record{
		Difficulty:       q.cfg.Difficulty,
		CurrentIndex:     q.index,
		ReturnPointIndex: -1,
	}
	if q.actor != nil && q.actor.phase != PhaseLeaving {
		r.ActiveQuestID = q.actor.questID
		r.HasActiveNPC = true
		r.ReturnPointIndex = q.actor.returnIndex
	}
	return r
}

// Import applies a record produced by Export.
func (q *Queue) Import(r Record) {
	q.RestoreFromSave(r.CurrentIndex, r.ActiveQuestID, r.HasActiveNPC, r.ReturnPointIndex)
}
