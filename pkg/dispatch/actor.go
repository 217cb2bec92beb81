package dispatch

import (
	"github.com/google/uuid"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
)

// Phase is where an actor is in its walk-in, wait, walk-out sequence.
type Phase string

const (
	PhaseWalking      Phase = "walking"
	PhaseAtQuestPoint Phase = "at_quest_point"
	PhaseLeaving      Phase = "leaving"
)

const (
	defaultWalkSpeed = 3.5
	stoppingDistance = 0.3
)

// Actor is the NPC a queue uses to offer its current quest.
type Actor struct {
	id          string
	npcID       string
	questID     string
	position    catalog.Vec3
	questPoint  catalog.Vec3
	returnPoint catalog.Vec3
	returnIndex int
	speed       float64
	phase       Phase
}

func newActor(q *catalog.QuestTemplate, spawn, questPoint, returnPoint catalog.Vec3, returnIndex int, speed float64) *Actor {
	if speed <= 0 {
		speed = defaultWalkSpeed
	}
	return &Actor{
		id:          uuid.NewString(),
		npcID:       q.NPCID,
		questID:     q.ID,
		position:    spawn,
		questPoint:  questPoint,
		returnPoint: returnPoint,
		returnIndex: returnIndex,
		speed:       speed,
		phase:       PhaseWalking,
	}
}

func (a *Actor) ID() string                { return a.id }
func (a *Actor) NPCID() string             { return a.npcID }
func (a *Actor) QuestID() string           { return a.questID }
func (a *Actor) Position() catalog.Vec3    { return a.position }
func (a *Actor) Phase() Phase              { return a.phase }
func (a *Actor) ReturnIndex() int          { return a.returnIndex }
func (a *Actor) ReadyForInteraction() bool { return a.phase == PhaseAtQuestPoint }

func (a *Actor) target() catalog.Vec3 {
	if a.phase == PhaseLeaving {
		return a.returnPoint
	}
	return a.questPoint
}

// step walks toward the current target and reports arrival.
func (a *Actor) step(dt float64) bool {
	if a.phase == PhaseAtQuestPoint {
		return false
	}
	a.position = a.position.MoveTowards(a.target(), a.speed*dt)
	return a.position.Distance(a.target()) <= stoppingDistance
}

// assign hands the actor a new quest. Any walk in progress is abandoned and
// the actor heads back to the quest point.
func (a *Actor) assign(q *catalog.QuestTemplate) {
	a.questID = q.ID
	a.npcID = q.NPCID
	a.phase = PhaseWalking
}

func (a *Actor) leave() {
	a.phase = PhaseLeaving
}
