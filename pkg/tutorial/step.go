package tutorial

import "github.com/jwebster45206/orchard-engine/pkg/events"

// Step is one state of the tutorial.
type Step string

const (
	StepNone          Step = "None"
	StepMove          Step = "Move"
	StepInteractNPC   Step = "InteractNPC"
	StepOpenQuest     Step = "OpenQuest"
	StepBuySeed       Step = "BuySeed"
	StepReachPlot     Step = "ReachPlot"
	StepPlant         Step = "Plant"
	StepWater         Step = "Water"
	StepRefill        Step = "Refill"
	StepTreeGrow      Step = "TreeGrow"
	StepClaimQuest    Step = "ClaimQuest"
	StepTreeShake     Step = "TreeShake"
	StepPickupFruit   Step = "PickupFruit"
	StepOpenInventory Step = "OpenInventory"
	StepSellFruit     Step = "SellFruit"
	StepFinished      Step = "Finished"
)

var allSteps = []Step{
	StepNone, StepMove, StepInteractNPC, StepOpenQuest, StepBuySeed,
	StepReachPlot, StepPlant, StepWater, StepRefill, StepTreeGrow,
	StepClaimQuest, StepTreeShake, StepPickupFruit, StepOpenInventory,
	StepSellFruit, StepFinished,
}

func (s Step) Valid() bool {
	for _, v := range allSteps {
		if v == s {
			return true
		}
	}
	return false
}

// Parameterized steps wait for a specific quest ID as well as an event type.
func (s Step) Parameterized() bool {
	return s == StepInteractNPC || s == StepClaimQuest
}

// awaited maps each unparameterized step to the event that completes it.
var awaited = map[events.Type]Step{
	events.PlayerMove:    StepMove,
	events.OpenQuest:     StepOpenQuest,
	events.BuySeed:       StepBuySeed,
	events.ReachPlot:     StepReachPlot,
	events.Plant:         StepPlant,
	events.Water:         StepWater,
	events.Refill:        StepRefill,
	events.TreeGrown:     StepTreeGrow,
	events.ShakeTree:     StepTreeShake,
	events.PickupFruit:   StepPickupFruit,
	events.OpenInventory: StepOpenInventory,
	events.SellFruit:     StepSellFruit,
}

// Listens lists every event type the sequencer reacts to.
func Listens() []events.Type {
	out := []events.Type{events.InteractNPC, events.QuestClaimed}
	for t := range awaited {
		out = append(out, t)
	}
	return out
}
