package tutorial

import (
	"fmt"
	"log/slog"
	"sync"
)

// TargetKind says how a presenter should resolve a guide target.
type TargetKind string

const (
	TargetNPC      TargetKind = "npc"
	TargetLandmark TargetKind = "landmark"
)

// Target is a point of interest. For TargetNPC, ID is the quest the NPC is
// offering; for TargetLandmark it is a catalog landmark name.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// Presenter shows tutorial guidance to the player.
type Presenter interface {
	ShowNarrative(text string)
	HideNarrative()
	PointTo(target Target)
	ClearGuide()
	Notify(text string, seconds float64)
}

// LogPresenter writes guidance to a logger. Headless services use it.
type LogPresenter struct {
	Logger *slog.Logger
}

func (p LogPresenter) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p LogPresenter) ShowNarrative(text string) { p.log().Debug("Tutorial narrative", "text", text) }
func (p LogPresenter) HideNarrative()            {}
func (p LogPresenter) PointTo(target Target)     { p.log().Debug("Tutorial guide", "target", target.String()) }
func (p LogPresenter) ClearGuide()               {}
func (p LogPresenter) Notify(text string, seconds float64) {
	p.log().Info("Tutorial notice", "text", text, "seconds", seconds)
}

// Guide is a Presenter that remembers what is currently on screen.
type Guide struct {
	mu        sync.Mutex
	narrative string
	target    *Target
	notices   []string
}

func (g *Guide) ShowNarrative(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.narrative = text
}

func (g *Guide) HideNarrative() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.narrative = ""
}

func (g *Guide) PointTo(target Target) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.target = &target
}

func (g *Guide) ClearGuide() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.target = nil
}

func (g *Guide) Notify(text string, _ float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notices = append(g.notices, text)
}

// Narrative is the line currently shown, or "".
func (g *Guide) Narrative() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.narrative
}

// Target is the point currently indicated.
func (g *Guide) Target() (Target, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.target == nil {
		return Target{}, false
	}
	return *g.target, true
}

// Notices returns and clears the pending notifications.
func (g *Guide) Notices() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.notices
	g.notices = nil
	return out
}
