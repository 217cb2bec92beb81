package economy

import (
	"errors"
	"log/slog"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
)

var (
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrUnknownItem       = errors.New("unknown item")
	ErrOutOfStock        = errors.New("not enough in stock")
)

// Result is how a game ended, if it has.
type Result string

const (
	ResultNone Result = ""
	ResultWon  Result = "won"
	ResultLost Result = "lost"
)

// Ledger holds the player's resources: level and XP, coins, water,
// pollution, and seed and fruit stocks keyed by tree name.
type Ledger struct {
	logger *slog.Logger
	pub    events.Publisher
	cfg    catalog.EconomyConfig
	items  []string

	level   int
	xp      int
	prevXP  int
	nextXP  int
	xpIndex int
	coins   int

	water     float64
	pollution float64
	pollTimer float64

	seeds  map[string]int
	fruits map[string]int

	result  Result
	loading bool
}

// NewLedger builds a ledger at the configured starting values. items are
// the tree names that may be stocked.
func NewLedger(cfg catalog.EconomyConfig, items []string, pub events.Publisher, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Discard
	}
	l := &Ledger{
		logger: logger,
		pub:    pub,
		cfg:    cfg,
		items:  items,
	}
	l.Reset()
	return l
}

// Reset restores every starting value.
func (l *Ledger) Reset() {
	l.level = l.cfg.StartLevel
	if l.level < 1 {
		l.level = 1
	}
	l.xp = 0
	l.prevXP = 0
	l.xpIndex = 0
	l.nextXP = l.threshold(0)
	l.coins = l.cfg.StartCoins
	l.water = l.cfg.StartWater
	l.pollution = l.cfg.StartPollution
	l.pollTimer = 0
	l.result = ResultNone
	l.seeds = make(map[string]int, len(l.items))
	l.fruits = make(map[string]int, len(l.items))
	for _, name := range l.items {
		l.seeds[name] = 0
		l.fruits[name] = 0
	}
}

func (l *Ledger) threshold(i int) int {
	if i < len(l.cfg.XPTable) {
		return l.cfg.XPTable[i]
	}
	return l.cfg.XPStep
}

func (l *Ledger) Level() int               { return l.level }
func (l *Ledger) XP() int                  { return l.xp }
func (l *Ledger) PrevXP() int              { return l.prevXP }
func (l *Ledger) NextXP() int              { return l.nextXP }
func (l *Ledger) Coins() int               { return l.coins }
func (l *Ledger) Water() float64           { return l.water }
func (l *Ledger) MaxWater() float64        { return l.cfg.MaxWater }
func (l *Ledger) Pollution() float64       { return l.pollution }
func (l *Ledger) MaxPollution() float64    { return l.cfg.MaxPollution }
func (l *Ledger) Result() Result           { return l.result }
func (l *Ledger) GameOver() bool           { return l.result != ResultNone }
func (l *Ledger) Loading() bool            { return l.loading }
func (l *Ledger) Seeds(name string) int    { return l.seeds[name] }
func (l *Ledger) Fruits(name string) int   { return l.fruits[name] }
func (l *Ledger) Items() []string          { return l.items }
func (l *Ledger) WaterFull() bool          { return l.water >= l.cfg.MaxWater }
func (l *Ledger) HasSeed(name string) bool { return l.seeds[name] > 0 }

func (l *Ledger) TotalSeeds() int  { return total(l.seeds) }
func (l *Ledger) TotalFruits() int { return total(l.fruits) }

func total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// SetLoading suspends the win/lose check while a save is being restored.
func (l *Ledger) SetLoading(loading bool) {
	l.loading = loading
	if !loading {
		l.checkResult()
	}
}

// AddXP adds experience and applies every level-up it pays for.
func (l *Ledger) AddXP(amount int) {
	if amount <= 0 {
		return
	}
	l.xp += amount
	for l.xp >= l.nextXP {
		l.levelUp()
	}
}

func (l *Ledger) levelUp() {
	l.level++
	l.prevXP = l.nextXP
	if l.xpIndex < len(l.cfg.XPTable)-1 {
		l.xpIndex++
		l.nextXP = l.cfg.XPTable[l.xpIndex]
	} else {
		l.nextXP += max(l.cfg.XPStep, 1)
	}
	l.logger.Info("Level up", "level", l.level, "next_xp", l.nextXP)
	l.pub.Publish(events.New(events.LevelUp, "").With("level", l.level))
}

func (l *Ledger) AddCoins(amount int) {
	l.coins += amount
	if l.coins < 0 {
		l.coins = 0
	}
}

// Spend deducts amount coins, or fails without changing anything.
func (l *Ledger) Spend(amount int) error {
	if amount > l.coins {
		return ErrInsufficientCoins
	}
	l.coins -= amount
	return nil
}

// UseWater takes up to amount water and returns how much was taken.
func (l *Ledger) UseWater(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount > l.water {
		amount = l.water
	}
	l.water -= amount
	return amount
}

// AddWater fills up to max water and returns how much was added.
func (l *Ledger) AddWater(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	room := l.cfg.MaxWater - l.water
	if room < 0 {
		room = 0
	}
	if amount > room {
		amount = room
	}
	l.water += amount
	return amount
}

// ModifyPollution shifts pollution by delta within [0, max] and re-checks
// the game result.
func (l *Ledger) ModifyPollution(delta float64) {
	before := l.pollution
	l.pollution += delta
	if l.pollution < 0 {
		l.pollution = 0
	}
	if l.pollution > l.cfg.MaxPollution {
		l.pollution = l.cfg.MaxPollution
	}
	if l.pollution != before {
		l.pub.Publish(events.New(events.PollutionChanged, "").
			With("pollution", l.pollution).
			With("delta", l.pollution-before))
	}
	l.checkResult()
}

func (l *Ledger) AddSeed(name string, n int) error {
	return l.adjust(l.seeds, name, n)
}

func (l *Ledger) TakeSeed(name string) error {
	return l.adjust(l.seeds, name, -1)
}

func (l *Ledger) AddFruit(name string, n int) error {
	return l.adjust(l.fruits, name, n)
}

func (l *Ledger) TakeFruit(name string, n int) error {
	return l.adjust(l.fruits, name, -n)
}

func (l *Ledger) adjust(stock map[string]int, name string, delta int) error {
	have, ok := stock[name]
	if !ok {
		l.logger.Warn("Item not registered", "item", name)
		return ErrUnknownItem
	}
	if have+delta < 0 {
		return ErrOutOfStock
	}
	stock[name] = have + delta
	return nil
}

// GrantQuestReward pays out a claimed quest.
func (l *Ledger) GrantQuestReward(q *catalog.QuestTemplate) {
	l.AddXP(q.RewardXP)
	l.AddCoins(q.RewardCoins)
	if q.RewardPollutionReduction > 0 {
		l.ModifyPollution(-q.RewardPollutionReduction)
	}
}

// Tick drifts pollution upward on its interval.
func (l *Ledger) Tick(dt float64) {
	if dt <= 0 || l.GameOver() || l.cfg.PollutionInterval <= 0 {
		return
	}
	l.pollTimer += dt
	for l.pollTimer >= l.cfg.PollutionInterval && !l.GameOver() {
		l.pollTimer -= l.cfg.PollutionInterval
		l.ModifyPollution(l.cfg.PollutionStep)
	}
}

func (l *Ledger) checkResult() {
	if l.loading || l.GameOver() {
		return
	}
	switch {
	case l.pollution <= l.cfg.WinPollution:
		l.result = ResultWon
		l.logger.Info("Game won", "pollution", l.pollution)
		l.pub.Publish(events.New(events.GameWon, "").With("pollution", l.pollution))
	case l.pollution >= l.cfg.LosePollution:
		l.result = ResultLost
		l.logger.Info("Game lost", "pollution", l.pollution)
		l.pub.Publish(events.New(events.GameLost, "").With("pollution", l.pollution))
	}
}
