package economy

import "math"

// Stock is one named inventory line.
type Stock struct {
	Name   string `json:"name" yaml:"name"`
	Amount int    `json:"amount" yaml:"amount"`
}

// State is the persisted form of a ledger.
type State struct {
	Level        int     `json:"level" yaml:"level"`
	Coins        int     `json:"coins" yaml:"coins"`
	XP           int     `json:"xp" yaml:"xp"`
	PrevXP       int     `json:"prevXp" yaml:"prevXp"`
	NextXP       int     `json:"nextXp" yaml:"nextXp"`
	CurrentWater float64 `json:"currentWater" yaml:"currentWater"`
	Pollution    float64 `json:"pollution" yaml:"pollution"`
	SeedStocks   []Stock `json:"seedStocks" yaml:"seedStocks"`
	FruitStocks  []Stock `json:"fruitStocks" yaml:"fruitStocks"`

	PollutionTimer float64 `json:"pollutionTimer,omitempty" yaml:"pollutionTimer,omitempty"`
	Result         Result  `json:"result,omitempty" yaml:"result,omitempty"`

	// Refill is written by the world, not the ledger.
	Refill *RefillState `json:"refill,omitempty" yaml:"refill,omitempty"`
}

// RefillState is a water refill in progress at the well.
type RefillState struct {
	Active bool    `json:"active" yaml:"active"`
	Filled float64 `json:"filled,omitempty" yaml:"filled,omitempty"`
}

// Export captures the ledger. Stocks are listed in item order.
func (l *Ledger) Export() State {
	s := State{
		Level:          l.level,
		Coins:          l.coins,
		XP:             l.xp,
		PrevXP:         l.prevXP,
		NextXP:         l.nextXP,
		CurrentWater:   l.water,
		Pollution:      l.pollution,
		PollutionTimer: l.pollTimer,
		Result:         l.result,
		SeedStocks:     make([]Stock, 0, len(l.items)),
		FruitStocks:    make([]Stock, 0, len(l.items)),
	}
	for _, name := range l.items {
		s.SeedStocks = append(s.SeedStocks, Stock{Name: name, Amount: l.seeds[name]})
		s.FruitStocks = append(s.FruitStocks, Stock{Name: name, Amount: l.fruits[name]})
	}
	return s
}

// Import replaces the ledger with s. Stock lines for unknown items are
// skipped with a warning.
func (l *Ledger) Import(s State) {
	l.Reset()

	if s.Level > 0 {
		l.level = s.Level
	}
	l.coins = s.Coins
	l.xp = s.XP
	l.prevXP = s.PrevXP
	if s.NextXP > 0 {
		l.nextXP = s.NextXP
	}
	l.xpIndex = len(l.cfg.XPTable) - 1
	for i, v := range l.cfg.XPTable {
		if v == l.nextXP {
			l.xpIndex = i
			break
		}
	}
	if l.xpIndex < 0 {
		l.xpIndex = 0
	}

	// NaN keeps the starting value set by Reset
	if !math.IsNaN(s.CurrentWater) {
		l.water = clamp(s.CurrentWater, 0, l.cfg.MaxWater)
	}
	if !math.IsNaN(s.Pollution) {
		l.pollution = clamp(s.Pollution, 0, l.cfg.MaxPollution)
	}
	if s.PollutionTimer > 0 {
		l.pollTimer = s.PollutionTimer
	}
	l.result = s.Result

	for _, st := range s.SeedStocks {
		if _, ok := l.seeds[st.Name]; !ok {
			l.logger.Warn("Skipping saved seed stock for unknown item", "item", st.Name)
			continue
		}
		l.seeds[st.Name] = max(st.Amount, 0)
	}
	for _, st := range s.FruitStocks {
		if _, ok := l.fruits[st.Name]; !ok {
			l.logger.Warn("Skipping saved fruit stock for unknown item", "item", st.Name)
			continue
		}
		l.fruits[st.Name] = max(st.Amount, 0)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
