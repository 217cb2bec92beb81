package catalog

import (
	"errors"
	"fmt"
)

// Validate reports problems that make the catalog unusable. Problems the
// engine tolerates at runtime (a queue with fewer spawn points than quests)
// are returned by Warnings instead.
func (c *Catalog) Validate() error {
	var errs []error

	treeIDs := make(map[string]bool)
	treeNames := make(map[string]bool)
	for i, t := range c.Trees {
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("trees[%d]: id is required", i))
			continue
		}
		if treeIDs[t.ID] {
			errs = append(errs, fmt.Errorf("tree %q: duplicate id", t.ID))
		}
		treeIDs[t.ID] = true
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("tree %q: name is required", t.ID))
		} else if treeNames[t.Name] {
			errs = append(errs, fmt.Errorf("tree %q: duplicate name %q", t.ID, t.Name))
		}
		treeNames[t.Name] = true
		if t.MaxHealth <= 0 {
			errs = append(errs, fmt.Errorf("tree %q: maxHealth must be positive", t.ID))
		}
		if t.StartHealth < 0 || t.StartHealth > t.MaxHealth {
			errs = append(errs, fmt.Errorf("tree %q: startHealth must be within [0, maxHealth]", t.ID))
		}
		if t.TimeNeededToGrow <= 0 {
			errs = append(errs, fmt.Errorf("tree %q: timeNeededToGrow must be positive", t.ID))
		}
		if t.WaterNeedThreshold < 0 || t.WaterNeedThreshold > 1 {
			errs = append(errs, fmt.Errorf("tree %q: waterNeedThreshold must be a fraction", t.ID))
		}
		if t.GrownDecay < 0 || t.HealthyDecay < 0 || t.CriticalDecay < 0 {
			errs = append(errs, fmt.Errorf("tree %q: decay rates cannot be negative", t.ID))
		}
	}

	questIDs := make(map[string]bool)
	for i, q := range c.Quests {
		if q.ID == "" {
			errs = append(errs, fmt.Errorf("quests[%d]: id is required", i))
			continue
		}
		if questIDs[q.ID] {
			errs = append(errs, fmt.Errorf("quest %q: duplicate id", q.ID))
		}
		questIDs[q.ID] = true
		if !q.Goal.Valid() {
			errs = append(errs, fmt.Errorf("quest %q: unknown goal %q", q.ID, q.Goal))
		}
		if !q.Difficulty.Valid() {
			errs = append(errs, fmt.Errorf("quest %q: unknown difficulty %q", q.ID, q.Difficulty))
		}
		if q.RequiredAmount <= 0 {
			errs = append(errs, fmt.Errorf("quest %q: requiredAmount must be positive", q.ID))
		}
		if q.Target == "" {
			errs = append(errs, fmt.Errorf("quest %q: target is required (use %q for a wildcard)", q.ID, AnyTarget))
		} else if q.Target != AnyTarget && q.Goal != GoalDeliverItem && !treeNames[q.Target] {
			errs = append(errs, fmt.Errorf("quest %q: target %q is not a tree name", q.ID, q.Target))
		}
		if q.HasTimer && q.Duration <= 0 {
			errs = append(errs, fmt.Errorf("quest %q: timed quest needs a positive duration", q.ID))
		}
		if q.NPCID == "" {
			errs = append(errs, fmt.Errorf("quest %q: npcId is required", q.ID))
		}
	}

	tiers := make(map[Difficulty]bool)
	queued := make(map[string]Difficulty)
	for _, qc := range c.Queues {
		if !qc.Difficulty.Valid() {
			errs = append(errs, fmt.Errorf("queue: unknown difficulty %q", qc.Difficulty))
			continue
		}
		if tiers[qc.Difficulty] {
			errs = append(errs, fmt.Errorf("queue %s: duplicate tier", qc.Difficulty))
		}
		tiers[qc.Difficulty] = true
		for _, id := range qc.QuestOrder {
			if !questIDs[id] {
				errs = append(errs, fmt.Errorf("queue %s: unknown quest %q", qc.Difficulty, id))
				continue
			}
			if prev, ok := queued[id]; ok {
				errs = append(errs, fmt.Errorf("queue %s: quest %q already queued in %s", qc.Difficulty, id, prev))
			}
			queued[id] = qc.Difficulty
		}
	}

	plotIDs := make(map[string]bool)
	for i, p := range c.Plots {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("plots[%d]: id is required", i))
			continue
		}
		if plotIDs[p.ID] {
			errs = append(errs, fmt.Errorf("plot %q: duplicate id", p.ID))
		}
		plotIDs[p.ID] = true
	}

	e := c.Economy
	if e.MaxWater <= 0 || e.MaxPollution <= 0 {
		errs = append(errs, errors.New("economy: maxWater and maxPollution must be positive"))
	}
	if e.WinPollution >= e.LosePollution {
		errs = append(errs, errors.New("economy: winPollution must be below losePollution"))
	}
	if len(e.XPTable) == 0 && e.XPStep <= 0 {
		errs = append(errs, errors.New("economy: xpTable or xpStep is required"))
	}

	return errors.Join(errs...)
}

// Warnings lists tolerated configuration mismatches.
func (c *Catalog) Warnings() []string {
	var out []string
	for _, qc := range c.Queues {
		if len(qc.SpawnPoints) < len(qc.QuestOrder) {
			out = append(out, fmt.Sprintf("queue %s: %d spawn points for %d quests", qc.Difficulty, len(qc.SpawnPoints), len(qc.QuestOrder)))
		}
	}
	for _, q := range c.Quests {
		found := false
		for _, qc := range c.Queues {
			for _, id := range qc.QuestOrder {
				if id == q.ID {
					found = true
				}
			}
		}
		if !found {
			out = append(out, fmt.Sprintf("quest %q is not offered by any queue", q.ID))
		}
	}
	if len(c.Plots) == 0 {
		out = append(out, "no plots defined")
	}
	return out
}
