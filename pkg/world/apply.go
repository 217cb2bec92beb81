package world

import (
	"context"
	"fmt"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/jwebster45206/orchard-engine/pkg/tree"
)

// Apply runs one action. Rejected actions return an error and leave the
// world unchanged.
func (w *World) Apply(ctx context.Context, a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Kind == ActReset {
		w.NewGame()
		return nil
	}
	if a.Kind == ActTick {
		return w.Tick(ctx, a.Seconds)
	}
	if w.load != nil {
		return ErrLoading
	}
	if w.ledger.GameOver() {
		return ErrGameOver
	}

	var err error
	switch a.Kind {
	case ActMove:
		w.emit(events.PlayerMove, "")
	case ActTalk:
		err = w.talk(a.QuestID)
	case ActAccept:
		err = w.accept(a.QuestID)
	case ActOpenQuest:
		w.emit(events.OpenQuest, "")
	case ActBuySeed:
		err = w.buySeed(a.TreeID)
	case ActReachPlot:
		err = w.reachPlot(a.PlotID)
	case ActPlant:
		err = w.plant(a.PlotID, a.TreeID)
	case ActWater:
		err = w.water(a.PlotID, a.Seconds)
	case ActRefill:
		err = w.startRefill()
	case ActStopRefill:
		w.refill = refillSequence{}
	case ActShake:
		err = w.shake(a.PlotID)
	case ActPickup:
		err = w.pickup(a.PlotID)
	case ActOpenInventory:
		w.emit(events.OpenInventory, "")
	case ActSell:
		err = w.sell(a.TreeID, a.Amount)
	case ActClaim:
		err = w.claim(a.QuestID)
	case ActChop:
		err = w.trees.Chop(a.PlotID)
	}
	if err != nil {
		w.logger.Debug("Action rejected", "action", a.String(), "error", err)
		return err
	}
	return nil
}

func (w *World) emit(t events.Type, id string) {
	w.bus.Publish(events.New(t, id))
}

func (w *World) talk(questID string) error {
	if !w.queues.ReadyFor(questID) {
		return fmt.Errorf("%w: %s", ErrNPCNotReady, questID)
	}
	w.emit(events.InteractNPC, questID)
	return nil
}

// accept takes the quest offered by an NPC standing at its quest point.
func (w *World) accept(questID string) error {
	tmpl, ok := w.cat.Quest(questID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuest, questID)
	}
	if !w.queues.ReadyFor(questID) {
		return fmt.Errorf("%w: %s", ErrNPCNotReady, questID)
	}
	if !w.quests.StartQuest(tmpl) {
		return fmt.Errorf("%w: %s", ErrQuestActive, questID)
	}
	return nil
}

func (w *World) claim(questID string) error {
	if _, ok := w.cat.Quest(questID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuest, questID)
	}
	if !w.quests.Claim(questID) {
		return fmt.Errorf("%w: %s", ErrNotClaimable, questID)
	}
	return nil
}

func (w *World) treeTemplate(id string) (*catalog.TreeTemplate, error) {
	tmpl, ok := w.cat.Tree(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTree, id)
	}
	return tmpl, nil
}

func (w *World) buySeed(treeID string) error {
	tmpl, err := w.treeTemplate(treeID)
	if err != nil {
		return err
	}
	if w.ledger.Level() < tmpl.RequiredLevel {
		return fmt.Errorf("%w: %s needs level %d", ErrLevelTooLow, tmpl.Name, tmpl.RequiredLevel)
	}
	if err := w.ledger.Spend(tmpl.SeedBuyPrice); err != nil {
		return err
	}
	if err := w.ledger.AddSeed(tmpl.Name, 1); err != nil {
		w.ledger.AddCoins(tmpl.SeedBuyPrice)
		return err
	}
	w.quests.AddProgress(tmpl.Name, catalog.GoalBuySeed)
	w.emit(events.BuySeed, tmpl.ID)
	return nil
}

func (w *World) plotTree(plotID string) (*tree.Tree, error) {
	p, ok := w.trees.Plot(plotID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tree.ErrUnknownPlot, plotID)
	}
	if p.Empty() {
		return nil, tree.ErrNoTree
	}
	return p.Tree(), nil
}

func (w *World) reachPlot(plotID string) error {
	if _, ok := w.trees.Plot(plotID); !ok {
		return fmt.Errorf("%w: %s", tree.ErrUnknownPlot, plotID)
	}
	w.emit(events.ReachPlot, plotID)
	return nil
}

// plant uses one seed. The planting reward is paid when the tree is fully
// grown, not here.
func (w *World) plant(plotID, treeID string) error {
	tmpl, err := w.treeTemplate(treeID)
	if err != nil {
		return err
	}
	if !w.ledger.HasSeed(tmpl.Name) {
		return fmt.Errorf("%w: %s", ErrNoSeed, tmpl.Name)
	}
	t, err := w.trees.Plant(plotID, tmpl)
	if err != nil {
		return err
	}
	if err := w.ledger.TakeSeed(tmpl.Name); err != nil {
		w.logger.Error("Failed to take seed after planting", "tree", tmpl.Name, "error", err)
	}
	w.emit(events.Plant, t.ID())
	return nil
}

// water sprays a tree for the given number of seconds (one when unset). A
// tree that needs water is healed at the watering cost per HP; anything
// else wastes water at the waste rate.
func (w *World) water(plotID string, seconds float64) error {
	t, err := w.plotTree(plotID)
	if err != nil {
		return err
	}
	if w.ledger.Water() <= 0 {
		return ErrNoWater
	}
	if seconds <= 0 {
		seconds = 1
	}

	cfg := w.cat.Watering
	if t.CanBeWatered() && cfg.CostPerHP > 0 {
		need := t.MissingHealth() * cfg.CostPerHP
		used := w.ledger.UseWater(need)
		healed := t.Water(used / cfg.CostPerHP)
		w.logger.Debug("Tree watered", "tree_id", t.ID(), "healed", healed, "water_used", used)
	} else {
		wasted := w.ledger.UseWater(cfg.WastePerSecond * seconds)
		w.logger.Debug("Water wasted", "tree_id", t.ID(), "water_used", wasted)
	}
	w.emit(events.Water, t.ID())
	return nil
}

func (w *World) shake(plotID string) error {
	t, err := w.plotTree(plotID)
	if err != nil {
		return err
	}
	if !t.Shake() {
		return ErrCannotShake
	}
	w.emit(events.ShakeTree, t.ID())
	return nil
}

// pickup collects one fallen fruit. Fruit already on the ground can still
// be picked up after its tree dies.
func (w *World) pickup(plotID string) error {
	t, err := w.plotTree(plotID)
	if err != nil {
		return err
	}
	if !t.TakeFruit() {
		return ErrNoFruit
	}
	tmpl := t.Template()
	if err := w.ledger.AddFruit(tmpl.Name, 1); err != nil {
		return err
	}
	w.ledger.AddXP(tmpl.XPRewardHarvest)
	w.quests.AddProgress(tmpl.Name, catalog.GoalHarvestFruit)
	w.emit(events.PickupFruit, t.ID())
	return nil
}

func (w *World) sell(treeID string, amount int) error {
	tmpl, err := w.treeTemplate(treeID)
	if err != nil {
		return err
	}
	if amount <= 0 {
		amount = 1
	}
	if err := w.ledger.TakeFruit(tmpl.Name, amount); err != nil {
		return err
	}
	w.ledger.AddCoins(amount * tmpl.FruitSellPrice)
	for range amount {
		w.quests.AddProgress(tmpl.Name, catalog.GoalSellFruit)
	}
	w.emit(events.SellFruit, tmpl.ID)
	return nil
}
