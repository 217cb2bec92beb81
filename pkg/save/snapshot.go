package save

import (
	"github.com/jwebster45206/orchard-engine/pkg/dispatch"
	"github.com/jwebster45206/orchard-engine/pkg/economy"
	"github.com/jwebster45206/orchard-engine/pkg/quest"
	"github.com/jwebster45206/orchard-engine/pkg/tree"
	"github.com/jwebster45206/orchard-engine/pkg/tutorial"
)

// Snapshot is the whole persisted game. There is one per game slot and it
// is overwritten on every save.
type Snapshot struct {
	Game     economy.State  `json:"game" yaml:"game"`
	Trees    []tree.Record  `json:"trees" yaml:"trees"`
	Quest    QuestSection   `json:"quest" yaml:"quest"`
	Tutorial tutorial.State `json:"tutorial" yaml:"tutorial"`
}

// QuestSection holds quest and queue records. Clock is the quest tracker's
// simulated time, which every quest timestamp is relative to.
type QuestSection struct {
	Clock  float64           `json:"clock,omitempty" yaml:"clock,omitempty"`
	Quests []quest.Record    `json:"quests" yaml:"quests"`
	Queues []dispatch.Record `json:"queues" yaml:"queues"`
}
