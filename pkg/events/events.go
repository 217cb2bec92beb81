package events

// Type names a domain event. Values are stable: they are published to
// clients verbatim.
type Type string

const (
	// tree lifecycle
	TreePlanted      Type = "tree.planted"
	TreeGrown        Type = "tree.grown"
	TreeDied         Type = "tree.died"
	TreeChopped      Type = "tree.chopped"
	TreeOwnerChanged Type = "tree.owner_changed"
	FruitSpawned     Type = "tree.fruit_spawned"
	FruitDropped     Type = "tree.fruit_dropped"

	// quest tracker
	QuestShown     Type = "quest.shown"
	QuestProgress  Type = "quest.progress"
	QuestCompleted Type = "quest.completed"
	QuestClaimed   Type = "quest.claimed"
	QuestFailed    Type = "quest.failed"

	// quest queues
	NPCSpawned    Type = "npc.spawned"
	NPCArrived    Type = "npc.arrived"
	NPCReassigned Type = "npc.reassigned"
	NPCLeaving    Type = "npc.leaving"
	NPCGone       Type = "npc.gone"

	// economy
	LevelUp          Type = "game.level_up"
	PollutionChanged Type = "game.pollution_changed"
	GameWon          Type = "game.won"
	GameLost         Type = "game.lost"
	GameLoaded       Type = "game.loaded"
	GameSaved        Type = "game.saved"

	// tutorial
	TutorialStep     Type = "tutorial.step"
	TutorialFinished Type = "tutorial.finished"

	// player actions
	PlayerMove    Type = "player.move"
	InteractNPC   Type = "player.interact_npc"
	OpenQuest     Type = "player.open_quest"
	BuySeed       Type = "player.buy_seed"
	ReachPlot     Type = "player.reach_plot"
	Plant         Type = "player.plant"
	Water         Type = "player.water"
	Refill        Type = "player.refill"
	ShakeTree     Type = "player.shake_tree"
	PickupFruit   Type = "player.pickup_fruit"
	OpenInventory Type = "player.open_inventory"
	SellFruit     Type = "player.sell_fruit"
)

// Event is a fire-and-forget notification. ID carries the quest, tree, or
// NPC the event is about, when there is one.
type Event struct {
	Type Type           `json:"type"`
	ID   string         `json:"id,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// New builds an event for id.
func New(t Type, id string) Event {
	return Event{Type: t, ID: id}
}

// With returns a copy of e with key set in its data.
func (e Event) With(key string, value any) Event {
	data := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}

// Publisher is the producer side of the bus.
type Publisher interface {
	Publish(e Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
