package catalog

import "math"

// Vec3 is a world-space position or scale.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Lerp interpolates between a and b by t in [0, 1].
func Lerp(a, b Vec3, t float64) Vec3 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// Scale multiplies every component by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := o.X-v.X, o.Y-v.Y, o.Z-v.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// MoveTowards steps from v toward target by at most maxStep.
func (v Vec3) MoveTowards(target Vec3, maxStep float64) Vec3 {
	d := v.Distance(target)
	if d <= maxStep || d == 0 {
		return target
	}
	return Lerp(v, target, maxStep/d)
}

// GoalType is what a quest counts.
type GoalType string

const (
	GoalBuySeed      GoalType = "BuySeed"
	GoalPlantTree    GoalType = "PlantTree"
	GoalHarvestFruit GoalType = "HarvestFruit"
	GoalSellFruit    GoalType = "SellFruit"
	GoalDeliverItem  GoalType = "DeliverItem"
)

// AnyTarget matches every target name.
const AnyTarget = "Any"

func (g GoalType) Valid() bool {
	switch g {
	case GoalBuySeed, GoalPlantTree, GoalHarvestFruit, GoalSellFruit, GoalDeliverItem:
		return true
	}
	return false
}

// Difficulty is a quest tier. Each tier has its own NPC queue.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// DefaultRequiredLevel is the player level a tier unlocks at when the queue
// config leaves it unset.
func (d Difficulty) DefaultRequiredLevel() int {
	switch d {
	case Easy:
		return 1
	case Medium:
		return 3
	case Hard:
		return 5
	}
	return 0
}

// QuestKind is descriptive only.
type QuestKind string

const (
	KindMain   QuestKind = "Main"
	KindSide   QuestKind = "Side"
	KindRandom QuestKind = "Random"
)

// TreeTemplate is the designer data for one tree type.
type TreeTemplate struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	MaxHealth   float64 `json:"maxHealth" yaml:"maxHealth"`
	StartHealth float64 `json:"startHealth" yaml:"startHealth"`

	GrownDecay    float64 `json:"grownDecay" yaml:"grownDecay"`
	HealthyDecay  float64 `json:"healthyDecay" yaml:"healthyDecay"`
	CriticalDecay float64 `json:"criticalDecay" yaml:"criticalDecay"`

	// WaterNeedThreshold is a fraction of MaxHealth.
	WaterNeedThreshold float64 `json:"waterNeedThreshold" yaml:"waterNeedThreshold"`
	TimeNeededToGrow   float64 `json:"timeNeededToGrow" yaml:"timeNeededToGrow"`
	MaxScale           Vec3    `json:"maxScale" yaml:"maxScale"`

	XPRewardPlant      int     `json:"xpRewardPlant" yaml:"xpRewardPlant"`
	XPRewardHarvest    int     `json:"xpRewardHarvest" yaml:"xpRewardHarvest"`
	PollutionReduction float64 `json:"pollutionReduction" yaml:"pollutionReduction"`

	SeedBuyPrice   int `json:"seedBuyPrice" yaml:"seedBuyPrice"`
	FruitSellPrice int `json:"fruitSellPrice" yaml:"fruitSellPrice"`
	RequiredLevel  int `json:"requiredLevel" yaml:"requiredLevel"`

	MaxFruitCount      int     `json:"maxFruitCount" yaml:"maxFruitCount"`
	FruitSpawnInterval float64 `json:"fruitSpawnInterval" yaml:"fruitSpawnInterval"`
	FruitDropInterval  float64 `json:"fruitDropInterval" yaml:"fruitDropInterval"`
}

// NewTreeTemplate returns a template carrying the stock tuning values.
func NewTreeTemplate(id, name string) TreeTemplate {
	return TreeTemplate{
		ID:                 id,
		Name:               name,
		MaxHealth:          100,
		StartHealth:        50,
		GrownDecay:         1,
		HealthyDecay:       2,
		CriticalDecay:      5,
		WaterNeedThreshold: 0.4,
		TimeNeededToGrow:   60,
		MaxScale:           Vec3{X: 1, Y: 1, Z: 1},
		XPRewardPlant:      10,
		XPRewardHarvest:    2,
		PollutionReduction: 3,
		SeedBuyPrice:       10,
		FruitSellPrice:     5,
		RequiredLevel:      1,
		MaxFruitCount:      3,
		FruitSpawnInterval: 5,
		FruitDropInterval:  0.3,
	}
}

// QuestTemplate is the immutable designer data for one quest.
type QuestTemplate struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Kind        QuestKind  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`

	// NPCID identifies the character offering the quest. Consecutive quests
	// with the same NPCID may be handed out by the same actor.
	NPCID       string `json:"npcId" yaml:"npcId"`
	ForceNewNPC bool   `json:"forceNewNpc,omitempty" yaml:"forceNewNpc,omitempty"`

	Goal           GoalType `json:"goal" yaml:"goal"`
	Target         string   `json:"target" yaml:"target"`
	RequiredAmount int      `json:"requiredAmount" yaml:"requiredAmount"`

	RewardXP                 int     `json:"rewardXp,omitempty" yaml:"rewardXp,omitempty"`
	RewardCoins              int     `json:"rewardCoins,omitempty" yaml:"rewardCoins,omitempty"`
	RewardPollutionReduction float64 `json:"rewardPollutionReduction,omitempty" yaml:"rewardPollutionReduction,omitempty"`

	HasTimer   bool    `json:"hasTimer,omitempty" yaml:"hasTimer,omitempty"`
	Duration   float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	Repeatable bool    `json:"repeatable,omitempty" yaml:"repeatable,omitempty"`
}

// Matches reports whether a progress event counts toward this quest.
func (q *QuestTemplate) Matches(target string, goal GoalType) bool {
	if q.Goal != goal {
		return false
	}
	return q.Target == AnyTarget || q.Target == target
}

// QueueConfig describes the NPC queue for one difficulty tier.
type QueueConfig struct {
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty"`
	RequiredLevel int        `json:"requiredLevel,omitempty" yaml:"requiredLevel,omitempty"`
	QuestOrder    []string   `json:"questOrder" yaml:"questOrder"`

	// SpawnPoints are index-aligned with QuestOrder. The actor spawned for
	// QuestOrder[i] walks in from SpawnPoints[i] and returns there.
	SpawnPoints  []Vec3  `json:"spawnPoints" yaml:"spawnPoints"`
	QuestPoint   Vec3    `json:"questPoint" yaml:"questPoint"`
	ReuseSameNPC bool    `json:"reuseSameNpc" yaml:"reuseSameNpc"`
	WalkSpeed    float64 `json:"walkSpeed,omitempty" yaml:"walkSpeed,omitempty"`
}

// Level returns the unlock level, falling back to the tier default.
func (q *QueueConfig) Level() int {
	if q.RequiredLevel > 0 {
		return q.RequiredLevel
	}
	return q.Difficulty.DefaultRequiredLevel()
}

type PlotConfig struct {
	ID          string `json:"id" yaml:"id"`
	Position    Vec3   `json:"position" yaml:"position"`
	SpawnOffset Vec3   `json:"spawnOffset,omitempty" yaml:"spawnOffset,omitempty"`
}

// EconomyConfig holds the player resource tuning.
type EconomyConfig struct {
	StartLevel int `json:"startLevel" yaml:"startLevel"`
	StartCoins int `json:"startCoins" yaml:"startCoins"`

	// XPTable lists the XP needed for each level-up. Past the end of the
	// table every level costs XPStep more than the previous one.
	XPTable []int `json:"xpTable" yaml:"xpTable"`
	XPStep  int   `json:"xpStep" yaml:"xpStep"`

	StartWater float64 `json:"startWater" yaml:"startWater"`
	MaxWater   float64 `json:"maxWater" yaml:"maxWater"`

	StartPollution    float64 `json:"startPollution" yaml:"startPollution"`
	MaxPollution      float64 `json:"maxPollution" yaml:"maxPollution"`
	PollutionStep     float64 `json:"pollutionStep" yaml:"pollutionStep"`
	PollutionInterval float64 `json:"pollutionInterval" yaml:"pollutionInterval"`
	WinPollution      float64 `json:"winPollution" yaml:"winPollution"`
	LosePollution     float64 `json:"losePollution" yaml:"losePollution"`

	// DeathPollutionFactor scales a dead tree's pollution penalty relative
	// to the reduction it would have granted.
	DeathPollutionFactor float64 `json:"deathPollutionFactor" yaml:"deathPollutionFactor"`
}

func DefaultEconomy() EconomyConfig {
	return EconomyConfig{
		StartLevel:           1,
		StartCoins:           300,
		XPTable:              []int{20, 50, 100, 200, 350, 600, 1000},
		XPStep:               500,
		StartWater:           500,
		MaxWater:             1000,
		StartPollution:       75,
		MaxPollution:         100,
		PollutionStep:        1,
		PollutionInterval:    20,
		WinPollution:         20,
		LosePollution:        90,
		DeathPollutionFactor: 1,
	}
}

type WateringConfig struct {
	CostPerHP           float64 `json:"costPerHp" yaml:"costPerHp"`
	WastePerSecond      float64 `json:"wastePerSecond" yaml:"wastePerSecond"`
	RefillRatePerSecond float64 `json:"refillRatePerSecond" yaml:"refillRatePerSecond"`
}

func DefaultWatering() WateringConfig {
	return WateringConfig{
		CostPerHP:           1,
		WastePerSecond:      10,
		RefillRatePerSecond: 100,
	}
}

// Landmark names used by the tutorial guide.
const (
	LandmarkBuyShop  = "buyShop"
	LandmarkSellShop = "sellShop"
	LandmarkWell     = "well"
	LandmarkPlot     = "plot"
)

// Catalog is the full set of designer data a world is built from.
type Catalog struct {
	Name      string          `json:"name,omitempty" yaml:"name,omitempty"`
	Trees     []TreeTemplate  `json:"trees" yaml:"trees"`
	Quests    []QuestTemplate `json:"quests" yaml:"quests"`
	Queues    []QueueConfig   `json:"queues" yaml:"queues"`
	Plots     []PlotConfig    `json:"plots" yaml:"plots"`
	Economy   EconomyConfig   `json:"economy" yaml:"economy"`
	Watering  WateringConfig  `json:"watering" yaml:"watering"`
	Landmarks map[string]Vec3 `json:"landmarks,omitempty" yaml:"landmarks,omitempty"`

	trees      map[string]*TreeTemplate
	treeByName map[string]*TreeTemplate
	quests     map[string]*QuestTemplate
	plots      map[string]*PlotConfig
}

// Index rebuilds the lookup tables. Load calls it; code that builds a
// Catalog literal must call it before any lookup.
func (c *Catalog) Index() {
	c.trees = make(map[string]*TreeTemplate, len(c.Trees))
	c.treeByName = make(map[string]*TreeTemplate, len(c.Trees))
	for i := range c.Trees {
		t := &c.Trees[i]
		c.trees[t.ID] = t
		c.treeByName[t.Name] = t
	}
	c.quests = make(map[string]*QuestTemplate, len(c.Quests))
	for i := range c.Quests {
		c.quests[c.Quests[i].ID] = &c.Quests[i]
	}
	c.plots = make(map[string]*PlotConfig, len(c.Plots))
	for i := range c.Plots {
		c.plots[c.Plots[i].ID] = &c.Plots[i]
	}
}

func (c *Catalog) Tree(id string) (*TreeTemplate, bool) {
	t, ok := c.trees[id]
	return t, ok
}

func (c *Catalog) TreeByName(name string) (*TreeTemplate, bool) {
	t, ok := c.treeByName[name]
	return t, ok
}

func (c *Catalog) Quest(id string) (*QuestTemplate, bool) {
	q, ok := c.quests[id]
	return q, ok
}

func (c *Catalog) Plot(id string) (*PlotConfig, bool) {
	p, ok := c.plots[id]
	return p, ok
}

// Queue returns the queue config for a tier.
func (c *Catalog) Queue(d Difficulty) (*QueueConfig, bool) {
	for i := range c.Queues {
		if c.Queues[i].Difficulty == d {
			return &c.Queues[i], true
		}
	}
	return nil, false
}

// Landmark returns a named point of interest.
func (c *Catalog) Landmark(name string) (Vec3, bool) {
	p, ok := c.Landmarks[name]
	return p, ok
}
