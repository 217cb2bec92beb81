package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

// TestSuite defines a complete integration test scenario.
// It either has Steps of its own, or references other Cases.
type TestSuite struct {
	Name  string         `json:"name" yaml:"name"`
	Seed  *save.Snapshot `json:"seed,omitempty" yaml:"seed,omitempty"`
	Steps []TestStep     `json:"steps,omitempty" yaml:"steps,omitempty"`
	Cases []string       `json:"cases,omitempty" yaml:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one action and the state expected after it. A step with
// Reseed set puts the game back to the suite's seed instead.
type TestStep struct {
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	Action       *world.Action `json:"action,omitempty" yaml:"action,omitempty"`
	Reseed       bool          `json:"reseed,omitempty" yaml:"reseed,omitempty"`
	ExpectReject string        `json:"expect_reject,omitempty" yaml:"expect_reject,omitempty"`
	Expectations Expectations  `json:"expect" yaml:"expect"`
}

// Expectations defines what to check in the game view after a step.
type Expectations struct {
	Level            *int    `json:"level,omitempty" yaml:"level,omitempty"`
	Coins            *int    `json:"coins,omitempty" yaml:"coins,omitempty"`
	MinXP            *int    `json:"min_xp,omitempty" yaml:"min_xp,omitempty"`
	Result           *string `json:"result,omitempty" yaml:"result,omitempty"`
	TutorialStep     *string `json:"tutorial_step,omitempty" yaml:"tutorial_step,omitempty"`
	TutorialFinished *bool   `json:"tutorial_finished,omitempty" yaml:"tutorial_finished,omitempty"`

	Seeds  map[string]int `json:"seeds,omitempty" yaml:"seeds,omitempty"`
	Fruits map[string]int `json:"fruits,omitempty" yaml:"fruits,omitempty"`

	// Plots maps a plot ID to the tree template on it, or "empty".
	Plots map[string]string `json:"plots,omitempty" yaml:"plots,omitempty"`

	// Quests maps a quest ID to its status.
	Quests map[string]string `json:"quests,omitempty" yaml:"quests,omitempty"`

	// NPCs lists quests an NPC should be waiting to offer.
	NPCs []string `json:"npcs_ready,omitempty" yaml:"npcs_ready,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName  string
	StepName  string
	Success   bool
	Error     error
	Duration  time.Duration
	RequestID string
	IsReseed  bool
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	GameID   uuid.UUID
}
