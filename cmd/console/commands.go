package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/orchard-engine/pkg/world"
)

// aliases are the short verbs the console accepts alongside action kinds.
var aliases = map[string]world.Kind{
	"buy":       world.ActBuySeed,
	"goto":      world.ActReachPlot,
	"stop":      world.ActStopRefill,
	"inventory": world.ActOpenInventory,
	"inv":       world.ActOpenInventory,
	"quests":    world.ActOpenQuest,
	"wait":      world.ActTick,
	"pick":      world.ActPickup,
}

const helpText = `Actions:
• move                      walk around (starts the tutorial)
• talk <quest>              speak to the NPC offering a quest
• accept <quest>            accept the quest an NPC is offering
• quests                    open the quest log
• buy <tree>                buy a seed (oak, apple, mango)
• goto <plot>               walk to a plot
• plant <plot> <tree>       plant a seed
• water <plot> [seconds]    water a tree
• refill / stop             fill the water tank at the well
• shake <plot>              shake fruit loose
• pick <plot>               pick up a fallen fruit
• inventory                 open the inventory
• sell <tree> [amount]      sell fruit
• claim <quest>             claim a completed quest
• chop <plot>               remove a dead tree
• wait <seconds>            let time pass
• reset                     start over

Plots may be given as a number: "water 3" is "water plot-3".

Commands:
• /help    show this help
• /save    save now
• /copy    copy the save to the clipboard
• /pause   pause or resume time
• /speed N run time N times faster
• Ctrl+C   quit
`

// parseAction turns one line of console input into a world action.
func parseAction(input string) (world.Action, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return world.Action{}, fmt.Errorf("empty command")
	}

	kind, ok := aliases[fields[0]]
	if !ok {
		kind = world.Kind(fields[0])
	}
	if !kind.Valid() {
		return world.Action{}, fmt.Errorf("unknown command %q, try /help", fields[0])
	}
	args := fields[1:]
	a := world.Action{Kind: kind}

	var err error
	switch kind {
	case world.ActTalk, world.ActAccept, world.ActClaim:
		a.QuestID = strings.ToUpper(arg(args, 0))
	case world.ActBuySeed:
		a.TreeID = arg(args, 0)
	case world.ActSell:
		a.TreeID = arg(args, 0)
		a.Amount, err = optInt(args, 1)
	case world.ActReachPlot, world.ActShake, world.ActPickup, world.ActChop:
		a.PlotID = plotID(arg(args, 0))
	case world.ActPlant:
		a.PlotID = plotID(arg(args, 0))
		a.TreeID = arg(args, 1)
	case world.ActWater:
		a.PlotID = plotID(arg(args, 0))
		a.Seconds, err = optFloat(args, 1)
	case world.ActTick:
		a.Seconds, err = optFloat(args, 0)
		if err == nil && a.Seconds <= 0 {
			err = fmt.Errorf("wait needs a number of seconds")
		}
	}
	if err != nil {
		return world.Action{}, err
	}
	if err := a.Validate(); err != nil {
		return world.Action{}, err
	}
	return a, nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func plotID(s string) string {
	if _, err := strconv.Atoi(s); err == nil {
		return "plot-" + s
	}
	return s
}

func optInt(args []string, i int) (int, error) {
	s := arg(args, i)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

func optFloat(args []string, i int) (float64, error) {
	s := arg(args, i)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid number of seconds %q", s)
	}
	return f, nil
}
