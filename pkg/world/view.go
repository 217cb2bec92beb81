package world

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/tutorial"
)

// View is a read model of the whole game for clients.
type View struct {
	Loading bool    `json:"loading"`
	Result  string  `json:"result,omitempty"`
	Clock   float64 `json:"clock"`

	Level     int            `json:"level"`
	XP        int            `json:"xp"`
	NextXP    int            `json:"nextXp"`
	Coins     int            `json:"coins"`
	Water     float64        `json:"water"`
	MaxWater  float64        `json:"maxWater"`
	Refilling bool           `json:"refilling"`
	Pollution float64        `json:"pollution"`
	Seeds     map[string]int `json:"seeds"`
	Fruits    map[string]int `json:"fruits"`

	Plots    []PlotView   `json:"plots"`
	Quests   []QuestView  `json:"quests"`
	NPCs     []NPCView    `json:"npcs"`
	Tutorial TutorialView `json:"tutorial"`
}

type PlotView struct {
	ID   string    `json:"id"`
	Tree *TreeView `json:"tree,omitempty"`
}

type TreeView struct {
	ID            string  `json:"id"`
	Template      string  `json:"template"`
	Name          string  `json:"name"`
	Health        float64 `json:"health"`
	HealthPct     float64 `json:"healthPct"`
	Progress      float64 `json:"progress"`
	FullyGrown    bool    `json:"fullyGrown"`
	Dead          bool    `json:"dead"`
	Withered      bool    `json:"withered"`
	NeedsWater    bool    `json:"needsWater"`
	Owner         string  `json:"owner"`
	FruitOnTree   int     `json:"fruitOnTree"`
	FruitOnGround int     `json:"fruitOnGround"`
}

type QuestView struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	Progress  int     `json:"progress"`
	Required  int     `json:"required"`
	Remaining float64 `json:"remaining,omitempty"`
	Timed     bool    `json:"timed,omitempty"`
}

type NPCView struct {
	ActorID    string             `json:"actorId"`
	NPCID      string             `json:"npcId"`
	QuestID    string             `json:"questId"`
	Difficulty catalog.Difficulty `json:"difficulty"`
	Phase      string             `json:"phase"`
	Position   catalog.Vec3       `json:"position"`
	Ready      bool               `json:"ready"`
}

type TutorialView struct {
	Step          string `json:"step"`
	ExpectedNPC   string `json:"expectedNpc,omitempty"`
	ExpectedClaim string `json:"expectedClaim,omitempty"`
	Finished      bool   `json:"finished"`
	Narrative     string `json:"narrative,omitempty"`
	Target        string `json:"target,omitempty"`
}

var titleCase = cases.Title(language.English)

// Title formats a display name the way clients show it.
func Title(s string) string {
	return titleCase.String(s)
}

// View builds a snapshot of everything a client shows. It changes nothing.
func (w *World) View() View {
	l := w.ledger
	v := View{
		Loading:   w.Loading(),
		Result:    string(l.Result()),
		Clock:     w.quests.Clock(),
		Level:     l.Level(),
		XP:        l.XP(),
		NextXP:    l.NextXP(),
		Coins:     l.Coins(),
		Water:     l.Water(),
		MaxWater:  l.MaxWater(),
		Refilling: w.refill.active,
		Pollution: l.Pollution(),
		Seeds:     make(map[string]int),
		Fruits:    make(map[string]int),
	}
	for _, name := range l.Items() {
		v.Seeds[name] = l.Seeds(name)
		v.Fruits[name] = l.Fruits(name)
	}

	for _, p := range w.trees.Plots() {
		pv := PlotView{ID: p.ID}
		if t := p.Tree(); t != nil {
			pv.Tree = &TreeView{
				ID:            t.ID(),
				Template:      t.Template().ID,
				Name:          t.Template().Name,
				Health:        t.Health(),
				HealthPct:     t.HealthFraction() * 100,
				Progress:      t.Progress(),
				FullyGrown:    t.FullyGrown(),
				Dead:          t.Dead(),
				Withered:      t.Withered(),
				NeedsWater:    t.NeedsWater(),
				Owner:         string(t.ActionOwner()),
				FruitOnTree:   t.FruitOnTree(),
				FruitOnGround: t.FruitOnGround(),
			}
		}
		v.Plots = append(v.Plots, pv)
	}

	for _, e := range w.quests.Sorted() {
		qv := QuestView{
			ID:       e.ID(),
			Title:    Title(e.Template.Title),
			Status:   string(e.Status),
			Progress: e.Progress,
			Required: e.Required(),
			Timed:    e.Timed(),
		}
		if e.Timed() {
			qv.Remaining = e.Remaining
		}
		v.Quests = append(v.Quests, qv)
	}

	for _, q := range w.queues.Queues() {
		a := q.Actor()
		if a == nil {
			continue
		}
		v.NPCs = append(v.NPCs, NPCView{
			ActorID:    a.ID(),
			NPCID:      a.NPCID(),
			QuestID:    a.QuestID(),
			Difficulty: q.Difficulty(),
			Phase:      string(a.Phase()),
			Position:   a.Position(),
			Ready:      a.ReadyForInteraction(),
		})
	}

	v.Tutorial = TutorialView{
		Step:          string(w.tutorial.Step()),
		ExpectedNPC:   w.tutorial.ExpectedNPC(),
		ExpectedClaim: w.tutorial.ExpectedClaim(),
		Finished:      w.tutorial.Finished(),
	}
	if g, ok := w.presenter.(*tutorial.Guide); ok {
		v.Tutorial.Narrative = g.Narrative()
		if target, ok := g.Target(); ok {
			v.Tutorial.Target = target.String()
		}
	}
	return v
}
