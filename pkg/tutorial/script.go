package tutorial

import "github.com/jwebster45206/orchard-engine/pkg/catalog"

// Transition is where a step leads. ExpectNPC and ExpectClaim, when set,
// replace the branch memory before the next step is entered.
type Transition struct {
	To          Step
	ExpectNPC   string
	ExpectClaim string
}

// Script is the data that drives a sequencer.
type Script struct {
	Start Step

	// Linear holds the transition out of each unparameterized step.
	Linear map[Step]Transition
	// Interact picks the step after talking to the expected NPC, keyed by
	// the quest that NPC is offering.
	Interact map[string]Transition
	// Claim picks the step after claiming the expected quest.
	Claim map[string]Transition

	Narratives         map[Step]string
	InteractNarratives map[string]string
	ClaimNarratives    map[string]string

	// Landmarks name the point of interest a step points at.
	Landmarks map[Step]string

	FinishMessage  string
	FinishDuration float64
}

func (s *Script) interactNarrative(questID string) string {
	if n, ok := s.InteractNarratives[questID]; ok {
		return n
	}
	return "Talk to the NPC"
}

func (s *Script) claimNarrative(questID string) string {
	if n, ok := s.ClaimNarratives[questID]; ok {
		return n
	}
	return "Claim the quest reward"
}

// DefaultScript is the tutorial that walks the player through the four easy
// quests: buy a seed, plant and grow it, harvest, then sell.
func DefaultScript() *Script {
	return &Script{
		Start: StepMove,
		Linear: map[Step]Transition{
			StepMove:          {To: StepInteractNPC, ExpectNPC: "E1"},
			StepOpenQuest:     {To: StepBuySeed},
			StepBuySeed:       {To: StepClaimQuest, ExpectClaim: "E1"},
			StepReachPlot:     {To: StepPlant},
			StepPlant:         {To: StepWater},
			StepWater:         {To: StepRefill},
			StepRefill:        {To: StepTreeGrow},
			StepTreeGrow:      {To: StepClaimQuest, ExpectClaim: "E2"},
			StepTreeShake:     {To: StepPickupFruit},
			StepPickupFruit:   {To: StepClaimQuest, ExpectClaim: "E3"},
			StepOpenInventory: {To: StepSellFruit},
			StepSellFruit:     {To: StepClaimQuest, ExpectClaim: "E4"},
		},
		Interact: map[string]Transition{
			"E1": {To: StepOpenQuest},
			"E2": {To: StepReachPlot},
			"E3": {To: StepTreeShake},
			"E4": {To: StepOpenInventory},
		},
		Claim: map[string]Transition{
			"E1": {To: StepInteractNPC, ExpectNPC: "E2"},
			"E2": {To: StepInteractNPC, ExpectNPC: "E3"},
			"E3": {To: StepInteractNPC, ExpectNPC: "E4"},
			"E4": {To: StepFinished},
		},
		Narratives: map[Step]string{
			StepMove:          "Use WASD to move",
			StepOpenQuest:     "Press [L] to see all your quests",
			StepBuySeed:       "Go to the shop and buy seeds",
			StepReachPlot:     "Go to the planting plot",
			StepPlant:         "Plant the seed",
			StepWater:         "Water the plant when the tree withers",
			StepRefill:        "Refill the water in the well",
			StepTreeGrow:      "Wait until the tree is fully grown. Water it if needed",
			StepTreeShake:     "Approach the tree and shake it to drop the fruit",
			StepPickupFruit:   "Pick up the fruit",
			StepOpenInventory: "Press [I] to open Inventory",
			StepSellFruit:     "Sell the fruit to the shop to get coins",
		},
		InteractNarratives: map[string]string{
			"E1": "Talk to the Mayor",
			"E2": "Talk to the Mayor again",
			"E3": "Talk to the Mayor again",
			"E4": "Talk to the Merchant",
		},
		ClaimNarratives: map[string]string{
			"E1": "Claim your first quest reward",
			"E2": "Claim the planting reward",
			"E3": "Claim the harvesting reward",
			"E4": "Claim the selling reward",
		},
		Landmarks: map[Step]string{
			StepBuySeed:   catalog.LandmarkBuyShop,
			StepReachPlot: catalog.LandmarkPlot,
			StepRefill:    catalog.LandmarkWell,
			StepSellFruit: catalog.LandmarkSellShop,
		},
		FinishMessage:  "Tutorial finished. Keep planting and caring for your trees to keep pollution under control.",
		FinishDuration: 5,
	}
}
