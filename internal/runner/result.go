// Package runner executes discovered suites: per-test command execution
// and pattern matching, suite-level setup/teardown sequencing, update-mode
// rewriting of mismatched expected output, and a bounded-concurrency
// scheduler with signal-driven interrupt handling.
package runner

import (
	"time"

	"github.com/cctr-run/cctr/internal/cctrerrors"
	"github.com/cctr-run/cctr/internal/pattern"
)

// Outcome identifies which of the three terminal states a TestResult is in.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	Skipped
)

// TestResult is the outcome of running one TestCase.
type TestResult struct {
	SuiteName  string
	FilePath   string
	Name       string
	Outcome    Outcome
	Code       cctrerrors.Code // set when Outcome == Failed, and to SetupFailed for tests skipped after a failed setup
	Reason     string          // skip reason, or failure detail
	Mismatch   *pattern.Mismatch
	Stdout     string
	Stderr     string
	Warning    string // non-empty when the command may not have run as written
	Elapsed    time.Duration
	Bindings   pattern.Bindings
}

// SuiteResult is the aggregate outcome of one suite's run.
type SuiteResult struct {
	SuiteName      string
	Tests          []TestResult
	SetupErr       error
	TeardownErr    error
	Elapsed        time.Duration
	Interrupted    bool
}

func (r SuiteResult) Passed() bool {
	if r.SetupErr != nil {
		return false
	}
	for _, t := range r.Tests {
		if t.Outcome == Failed {
			return false
		}
	}
	return true
}

func (r SuiteResult) Counts() (passed, failed, skipped int) {
	for _, t := range r.Tests {
		switch t.Outcome {
		case Passed:
			passed++
		case Failed:
			failed++
		case Skipped:
			skipped++
		}
	}
	return
}
