package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	require.NoError(t, c.Validate())
	assert.Empty(t, c.Warnings())

	oak, ok := c.Tree("oak")
	require.True(t, ok)
	assert.Equal(t, "Oak", oak.Name)
	assert.Equal(t, 60.0, oak.TimeNeededToGrow)

	byName, ok := c.TreeByName("Oak")
	require.True(t, ok)
	assert.Same(t, oak, byName)

	for _, id := range []string{"E1", "E2", "E3", "E4"} {
		q, ok := c.Quest(id)
		require.True(t, ok, id)
		assert.Equal(t, Easy, q.Difficulty)
	}

	// omitted sections keep stock tuning
	assert.Equal(t, 300, c.Economy.StartCoins)
	assert.Equal(t, 100.0, c.Watering.RefillRatePerSecond)
}

func TestQueueLevel(t *testing.T) {
	tests := []struct {
		cfg  QueueConfig
		want int
	}{
		{QueueConfig{Difficulty: Easy}, 1},
		{QueueConfig{Difficulty: Medium}, 3},
		{QueueConfig{Difficulty: Hard}, 5},
		{QueueConfig{Difficulty: Hard, RequiredLevel: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.cfg.Difficulty), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Level())
		})
	}
}

func TestQuestTemplate_Matches(t *testing.T) {
	specific := QuestTemplate{Goal: GoalPlantTree, Target: "Oak"}
	wildcard := QuestTemplate{Goal: GoalHarvestFruit, Target: AnyTarget}

	assert.True(t, specific.Matches("Oak", GoalPlantTree))
	assert.False(t, specific.Matches("Apple", GoalPlantTree))
	assert.False(t, specific.Matches("Oak", GoalBuySeed))
	assert.True(t, wildcard.Matches("Mango", GoalHarvestFruit))
	assert.False(t, wildcard.Matches("Mango", GoalSellFruit))
}

func TestLoad_YAML(t *testing.T) {
	doc := `
name: tiny
trees:
  - id: oak
    name: Oak
    maxHealth: 100
    startHealth: 50
    waterNeedThreshold: 0.4
    timeNeededToGrow: 30
quests:
  - id: Q1
    title: plant one
    difficulty: Easy
    npcId: mayor
    goal: PlantTree
    target: Oak
    requiredAmount: 1
queues:
  - difficulty: Easy
    questOrder: [Q1]
    spawnPoints: [{x: 1, y: 0, z: 0}]
    reuseSameNpc: true
plots:
  - id: p1
economy:
  startCoins: 5
`
	c, err := Load([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 5, c.Economy.StartCoins)
	assert.Equal(t, 1000.0, c.Economy.MaxWater, "unset economy fields keep defaults")
	_, ok := c.Plot("p1")
	assert.True(t, ok)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	_, err := Load([]byte(`{"trees":[],"bogus":1}`), FormatJSON)
	assert.Error(t, err)

	_, err = Load([]byte("bogus: 1\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Load([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Trees, len(Default().Trees))

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Catalog {
		c := &Catalog{
			Trees:    []TreeTemplate{NewTreeTemplate("oak", "Oak")},
			Quests:   []QuestTemplate{{ID: "Q1", Difficulty: Easy, NPCID: "a", Goal: GoalPlantTree, Target: "Oak", RequiredAmount: 1}},
			Queues:   []QueueConfig{{Difficulty: Easy, QuestOrder: []string{"Q1"}, SpawnPoints: []Vec3{{}}}},
			Plots:    []PlotConfig{{ID: "p1"}},
			Economy:  DefaultEconomy(),
			Watering: DefaultWatering(),
		}
		c.Index()
		return c
	}

	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(c *Catalog)
	}{
		{"duplicate tree", func(c *Catalog) { c.Trees = append(c.Trees, NewTreeTemplate("oak", "Oak2")) }},
		{"zero grow time", func(c *Catalog) { c.Trees[0].TimeNeededToGrow = 0 }},
		{"start health above max", func(c *Catalog) { c.Trees[0].StartHealth = 500 }},
		{"unknown goal", func(c *Catalog) { c.Quests[0].Goal = "Dance" }},
		{"unknown target", func(c *Catalog) { c.Quests[0].Target = "Birch" }},
		{"timer without duration", func(c *Catalog) { c.Quests[0].HasTimer = true }},
		{"missing npc", func(c *Catalog) { c.Quests[0].NPCID = "" }},
		{"queue references unknown quest", func(c *Catalog) { c.Queues[0].QuestOrder = append(c.Queues[0].QuestOrder, "Q9") }},
		{"quest queued twice", func(c *Catalog) {
			c.Queues = append(c.Queues, QueueConfig{Difficulty: Medium, QuestOrder: []string{"Q1"}})
		}},
		{"win above lose", func(c *Catalog) { c.Economy.WinPollution = 95 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestWarnings_SpawnPointShortfall(t *testing.T) {
	c := &Catalog{
		Quests: []QuestTemplate{{ID: "Q1"}, {ID: "Q2"}},
		Queues: []QueueConfig{{Difficulty: Easy, QuestOrder: []string{"Q1", "Q2"}, SpawnPoints: []Vec3{{}}}},
		Plots:  []PlotConfig{{ID: "p1"}},
	}
	w := c.Warnings()
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "1 spawn points for 2 quests")
}

func TestLerp(t *testing.T) {
	a := Vec3{}
	b := Vec3{X: 2, Y: 4, Z: 6}
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, Lerp(a, b, 0.5))
	assert.Equal(t, b, Lerp(a, b, 3))
	assert.Equal(t, a, Lerp(a, b, -1))
}
