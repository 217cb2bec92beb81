package main

import (
	"fmt"

	"github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

type lineKind int

const (
	lineEvent lineKind = iota
	linePlayer
	lineNotice
	lineError
)

type feedLine struct {
	kind lineKind
	text string
}

// feed is the scrolling log under the farm view. It keeps the newest max
// lines.
type feed struct {
	max   int
	lines []feedLine
}

func newFeed(max int) *feed {
	return &feed{max: max}
}

func (f *feed) add(kind lineKind, text string) {
	f.lines = append(f.lines, feedLine{kind: kind, text: text})
	if over := len(f.lines) - f.max; over > 0 {
		f.lines = append(f.lines[:0], f.lines[over:]...)
	}
}

func (f *feed) record(e events.Event) {
	if text := describe(e); text != "" {
		f.add(lineEvent, text)
	}
}

// describe words an event for the player. Events the player caused
// directly, and noisy ones, are left out.
func describe(e events.Event) string {
	switch e.Type {
	case events.TreePlanted:
		return fmt.Sprintf("A sapling takes root (%s).", e.ID)
	case events.TreeGrown:
		return fmt.Sprintf("Tree %s is fully grown.", e.ID)
	case events.TreeDied:
		return fmt.Sprintf("Tree %s has died.", e.ID)
	case events.TreeChopped:
		return fmt.Sprintf("Tree %s was chopped down.", e.ID)
	case events.FruitDropped:
		return fmt.Sprintf("Fruit fell from tree %s.", e.ID)
	case events.QuestShown:
		return fmt.Sprintf("New quest: %s.", e.ID)
	case events.QuestCompleted:
		return fmt.Sprintf("Quest %s complete! Claim your reward.", e.ID)
	case events.QuestClaimed:
		return fmt.Sprintf("Quest %s claimed.", e.ID)
	case events.QuestFailed:
		return fmt.Sprintf("Quest %s failed.", e.ID)
	case events.NPCArrived:
		return fmt.Sprintf("A villager is waiting with quest %s.", e.ID)
	case events.NPCLeaving:
		return fmt.Sprintf("The villager with quest %s is leaving.", e.ID)
	case events.LevelUp:
		return "Level up!"
	case events.GameWon:
		return "The valley is clean again. You win!"
	case events.GameLost:
		return "Pollution has taken the valley. Game over. Type reset to try again."
	case events.GameLoaded:
		return "Save loaded."
	case events.TutorialFinished:
		return "Tutorial complete."
	}
	return ""
}

func describeAction(a world.Action) string {
	return "> " + a.String()
}
