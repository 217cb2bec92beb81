package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/orchard-engine/pkg/world"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running orchard-engine API
// and worker.
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &suite)
	default:
		err = json.Unmarshal(content, &suite)
	}
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}
	return jobs, nil
}

// RunSuite executes a complete test suite on a fresh game
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	gameID, err := CreateGame(ctx, r.Client, r.BaseURL)
	if err != nil {
		result.Error = fmt.Errorf("failed to create game: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameID = gameID

	if err := r.seed(ctx, gameID, suite); err != nil {
		result.Error = fmt.Errorf("failed to seed game: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, gameID, suite, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}
		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) seed(ctx context.Context, gameID uuid.UUID, suite TestSuite) error {
	if suite.Seed == nil {
		return nil
	}
	return PutSnapshot(ctx, r.Client, r.BaseURL, gameID, suite.Seed)
}

// runStep applies one step and checks its expectations.
func (r *Runner) runStep(ctx context.Context, gameID uuid.UUID, suite TestSuite, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}
	fail := func(err error) TestResult {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	switch {
	case step.Reseed:
		result.IsReseed = true
		if suite.Seed == nil {
			// Without a seed the suite started from a new game.
			step.Action = &world.Action{Kind: world.ActReset}
			break
		}
		if err := r.seed(ctx, gameID, suite); err != nil {
			return fail(fmt.Errorf("failed to reseed game: %w", err))
		}
	case step.Action == nil:
		return fail(fmt.Errorf("step has no action"))
	}

	if step.Action != nil {
		requestID, err := PostAction(ctx, r.Client, r.BaseURL, gameID, *step.Action)
		if err != nil {
			return fail(fmt.Errorf("failed to post action: %w", err))
		}
		result.RequestID = requestID

		status, err := PollForRequest(ctx, r.Client, r.BaseURL, gameID, requestID)
		if err != nil {
			return fail(err)
		}
		if err := checkOutcome(step, status); err != nil {
			return fail(err)
		}
	}

	view, err := GetGame(ctx, r.Client, r.BaseURL, gameID)
	if err != nil {
		return fail(fmt.Errorf("failed to get game: %w", err))
	}
	if err := CheckExpectations(step.Expectations, view); err != nil {
		return fail(fmt.Errorf("expectation failed: %w", err))
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func checkOutcome(step TestStep, status *RequestStatus) error {
	rejected := status.Status == "failed"
	switch {
	case step.ExpectReject == "" && rejected:
		return fmt.Errorf("action %s was rejected: %s", step.Action, status.Error)
	case step.ExpectReject != "" && !rejected:
		return fmt.Errorf("expected action %s to be rejected with %q", step.Action, step.ExpectReject)
	case step.ExpectReject != "" && !strings.Contains(status.Error, step.ExpectReject):
		return fmt.Errorf("expected rejection %q, got %q", step.ExpectReject, status.Error)
	}
	return nil
}

// CheckExpectations validates a game view against a step's expectations.
func CheckExpectations(exp Expectations, v *world.View) error {
	if exp.Level != nil && v.Level != *exp.Level {
		return fmt.Errorf("expected level %d, got %d", *exp.Level, v.Level)
	}
	if exp.Coins != nil && v.Coins != *exp.Coins {
		return fmt.Errorf("expected %d coins, got %d", *exp.Coins, v.Coins)
	}
	if exp.MinXP != nil && v.XP < *exp.MinXP {
		return fmt.Errorf("expected at least %d xp, got %d", *exp.MinXP, v.XP)
	}
	if exp.Result != nil && v.Result != *exp.Result {
		return fmt.Errorf("expected result %q, got %q", *exp.Result, v.Result)
	}
	if exp.TutorialStep != nil && v.Tutorial.Step != *exp.TutorialStep {
		return fmt.Errorf("expected tutorial step %s, got %s", *exp.TutorialStep, v.Tutorial.Step)
	}
	if exp.TutorialFinished != nil && v.Tutorial.Finished != *exp.TutorialFinished {
		return fmt.Errorf("expected tutorial finished %t, got %t", *exp.TutorialFinished, v.Tutorial.Finished)
	}

	for name, want := range exp.Seeds {
		if got := v.Seeds[name]; got != want {
			return fmt.Errorf("expected %d %s seeds, got %d", want, name, got)
		}
	}
	for name, want := range exp.Fruits {
		if got := v.Fruits[name]; got != want {
			return fmt.Errorf("expected %d %s fruit, got %d", want, name, got)
		}
	}

	for plotID, want := range exp.Plots {
		idx := slices.IndexFunc(v.Plots, func(p world.PlotView) bool { return p.ID == plotID })
		if idx < 0 {
			return fmt.Errorf("expected plot %s to exist", plotID)
		}
		got := "empty"
		if t := v.Plots[idx].Tree; t != nil {
			got = t.Template
		}
		if got != want {
			return fmt.Errorf("expected plot %s to hold %s, got %s", plotID, want, got)
		}
	}

	for questID, want := range exp.Quests {
		idx := slices.IndexFunc(v.Quests, func(q world.QuestView) bool { return q.ID == questID })
		if idx < 0 {
			return fmt.Errorf("expected quest %s to be tracked", questID)
		}
		if got := v.Quests[idx].Status; got != want {
			return fmt.Errorf("expected quest %s to be %s, got %s", questID, want, got)
		}
	}

	for _, questID := range exp.NPCs {
		ready := slices.ContainsFunc(v.NPCs, func(n world.NPCView) bool {
			return n.QuestID == questID && n.Ready
		})
		if !ready {
			return fmt.Errorf("expected an NPC waiting with quest %s", questID)
		}
	}
	return nil
}
