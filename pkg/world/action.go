package world

import "fmt"

// Kind names a player or system action.
type Kind string

const (
	ActTick          Kind = "tick"
	ActMove          Kind = "move"
	ActTalk          Kind = "talk"
	ActAccept        Kind = "accept"
	ActOpenQuest     Kind = "open_quest"
	ActBuySeed       Kind = "buy_seed"
	ActReachPlot     Kind = "reach_plot"
	ActPlant         Kind = "plant"
	ActWater         Kind = "water"
	ActRefill        Kind = "refill"
	ActStopRefill    Kind = "stop_refill"
	ActShake         Kind = "shake"
	ActPickup        Kind = "pickup"
	ActOpenInventory Kind = "open_inventory"
	ActSell          Kind = "sell"
	ActClaim         Kind = "claim"
	ActChop          Kind = "chop"
	ActReset         Kind = "reset"
)

var kinds = []Kind{
	ActTick, ActMove, ActTalk, ActAccept, ActOpenQuest, ActBuySeed,
	ActReachPlot, ActPlant, ActWater, ActRefill, ActStopRefill, ActShake,
	ActPickup, ActOpenInventory, ActSell, ActClaim, ActChop, ActReset,
}

// Kinds lists every action the world accepts.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func (k Kind) Valid() bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Action is one command applied to a world. Only the fields the kind uses
// are read.
type Action struct {
	Kind    Kind    `json:"kind" yaml:"kind"`
	QuestID string  `json:"questId,omitempty" yaml:"questId,omitempty"`
	PlotID  string  `json:"plotId,omitempty" yaml:"plotId,omitempty"`
	TreeID  string  `json:"treeId,omitempty" yaml:"treeId,omitempty"`
	Amount  int     `json:"amount,omitempty" yaml:"amount,omitempty"`
	Seconds float64 `json:"seconds,omitempty" yaml:"seconds,omitempty"`
}

// Validate checks that the fields a kind needs are present. It does not
// look anything up.
func (a Action) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	switch a.Kind {
	case ActTalk, ActAccept, ActClaim:
		if a.QuestID == "" {
			return fmt.Errorf("%s requires questId", a.Kind)
		}
	case ActBuySeed, ActSell:
		if a.TreeID == "" {
			return fmt.Errorf("%s requires treeId", a.Kind)
		}
	case ActPlant:
		if a.PlotID == "" || a.TreeID == "" {
			return fmt.Errorf("%s requires plotId and treeId", a.Kind)
		}
	case ActReachPlot, ActWater, ActShake, ActPickup, ActChop:
		if a.PlotID == "" {
			return fmt.Errorf("%s requires plotId", a.Kind)
		}
	}
	if a.Amount < 0 || a.Seconds < 0 {
		return fmt.Errorf("%s amounts must not be negative", a.Kind)
	}
	return nil
}

func (a Action) String() string {
	switch {
	case a.QuestID != "":
		return fmt.Sprintf("%s(%s)", a.Kind, a.QuestID)
	case a.PlotID != "" && a.TreeID != "":
		return fmt.Sprintf("%s(%s, %s)", a.Kind, a.PlotID, a.TreeID)
	case a.PlotID != "":
		return fmt.Sprintf("%s(%s)", a.Kind, a.PlotID)
	case a.TreeID != "":
		return fmt.Sprintf("%s(%s)", a.Kind, a.TreeID)
	}
	return string(a.Kind)
}
