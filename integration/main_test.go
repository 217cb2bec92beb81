//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/orchard-engine/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func TestMain(m *testing.M) {
	fmt.Printf("Running Orchard Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

func newRunner(mode runner.ErrorHandlingMode) *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.ErrorHandlingMode = mode
	r.Logger = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

func TestIntegrationSuites(t *testing.T) {
	testFiles, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range testFiles {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	runJobs(t, newRunner(runner.ErrorHandlingContinue), jobs)
}

// TestSingleSuite allows running individual test suites for debugging
// Supports multiple cases comma-separated: -case "case1,case2,case3"
func TestSingleSuite(t *testing.T) {
	flag.Parse()
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}

	var jobs []runner.TestJob
	for _, name := range strings.Split(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		file := filepath.Join("cases", name)
		if filepath.Ext(file) == "" {
			file += ".json"
		}
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Fatalf("Failed to load test suite %s: %v", file, err)
		}
		jobs = append(jobs, expanded...)
	}
	runJobs(t, newRunner(runner.ErrorHandlingMode(*errFlag)), jobs)
}

func runJobs(t *testing.T, r *runner.Runner, jobs []runner.TestJob) {
	t.Helper()
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

		result, err := r.RunSuite(ctx, job.Suite)
		if err != nil && result.Error == nil {
			result.Error = err
		}
		t.Logf("Game ID: %s", result.GameID)

		for _, step := range result.Results {
			switch {
			case step.Success && step.IsReseed:
				t.Logf("   ↻ %s (%v)", step.StepName, step.Duration)
			case step.Success:
				t.Logf("   ✓ %s (%v)", step.StepName, step.Duration)
			default:
				t.Errorf("   ✗ %s: %v", step.StepName, step.Error)
			}
		}

		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, result.Error))
			t.Errorf("[%d/%d] FAILED: %s", i+1, len(jobs), job.Name)
			if r.ErrorHandlingMode == runner.ErrorHandlingExit {
				break
			}
			continue
		}
		t.Logf("[%d/%d] PASSED: %s in %v", i+1, len(jobs), job.Name, result.Duration)
	}

	t.Logf("Integration Test Summary:")
	t.Logf("   Passed: %d", len(jobs)-len(failed))
	t.Logf("   Failed: %d", len(failed))
	if len(failed) > 0 {
		sort.Strings(failed)
		for _, failure := range failed {
			t.Logf("   - %s", failure)
		}
		t.Fatalf("Integration tests failed")
	}
}

// discoverTestFiles lists the suites directly under dir. Suites in
// subdirectories are only run through a sequence that names them.
func discoverTestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".json", ".yaml", ".yml":
			if !e.IsDir() {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	return files, nil
}
