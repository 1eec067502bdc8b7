package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cctr-run/cctr/internal/cctrerrors"
	"github.com/cctr-run/cctr/internal/corpus"
	"github.com/cctr-run/cctr/internal/discovery"
	"github.com/cctr-run/cctr/internal/expr"
	"github.com/cctr-run/cctr/internal/pattern"
	"github.com/cctr-run/cctr/internal/value"
	"github.com/cctr-run/cctr/internal/workspace"
)

// Options configures a single suite run.
type Options struct {
	Shell      string // overrides the platform default shell; empty means use defaultShell()
	TmpRoot    string // parent directory for ephemeral workspaces; "" means os.TempDir()
	ExtraEnv   []string
	Update     bool
	PatternArg string      // -p substring filter on "suite/file: test-name"
	ListOnly   bool        // -l
	ShouldStop func() bool // returns true once an interrupt has been received
	Stream     io.Writer   // non-nil at -vv: child stdout/stderr are copied here live
	OnStart    func(suiteName string) // called once, before a suite's first test runs
}

// pendingUpdate is one scheduled byte-range rewrite, collected during a
// suite run and applied in a single end-to-start pass afterward.
type pendingUpdate struct {
	file     string
	rng      corpus.ByteRange
	newText  string
}

// RunSuite executes one discovered suite: workspace creation, setup
// (skip-all on failure), regular tests in file order, always-run
// teardown, workspace teardown. Teardown always runs even when setup
// failed, since a suite that allocates resources in setup must not leak
// them just because setup itself didn't finish cleanly.
func RunSuite(ctx context.Context, suite discovery.Suite, opts Options) SuiteResult {
	start := time.Now()
	result := SuiteResult{SuiteName: suite.Name}

	if opts.OnStart != nil {
		opts.OnStart(suite.Name)
	}

	tmpRoot := opts.TmpRoot
	if tmpRoot == "" {
		tmpRoot = os.TempDir()
	}
	ws, err := workspace.Create(tmpRoot, suite.Dir, suite.FixtureDir)
	if err != nil {
		result.SetupErr = err
		result.Elapsed = time.Since(start)
		return result
	}
	defer ws.Destroy()

	env := append(append([]string{}, opts.ExtraEnv...), ws.EnvAdditions()...)

	var updates []pendingUpdate
	setupFailed := false

	if suite.SetupFile != "" {
		parsed, perr := corpus.ParseFile(suite.SetupFile)
		if perr != nil {
			result.SetupErr = perr
			setupFailed = true
		} else {
			for _, tc := range parsed.Tests {
				tr, _ := runOneTest(ctx, suite.Name, tc, ws.Path, env, opts)
				if tr.Outcome == Failed {
					result.SetupErr = fmt.Errorf("setup test %q failed: %s", tc.Name, tr.Reason)
					setupFailed = true
					break
				}
			}
		}
	}

	if setupFailed {
		for _, f := range suite.TestFiles {
			parsed, perr := corpus.ParseFile(f)
			if perr != nil {
				continue
			}
			for _, tc := range parsed.Tests {
				result.Tests = append(result.Tests, TestResult{
					SuiteName: suite.Name, FilePath: f, Name: tc.Name,
					Outcome: Skipped, Code: cctrerrors.SetupFailed, Reason: "setup failed",
				})
			}
		}
	} else {
		for _, f := range suite.TestFiles {
			if opts.ShouldStop != nil && opts.ShouldStop() {
				result.Interrupted = true
				break
			}
			parsed, perr := corpus.ParseFile(f)
			if perr != nil {
				result.Tests = append(result.Tests, TestResult{
					SuiteName: suite.Name, FilePath: f,
					Outcome: Failed, Code: cctrerrors.Parse, Reason: perr.Error(),
				})
				continue
			}
			if filePlatformExcluded(parsed.FileDirectives) {
				for _, tc := range parsed.Tests {
					result.Tests = append(result.Tests, TestResult{
						SuiteName: suite.Name, FilePath: f, Name: tc.Name,
						Outcome: Skipped, Reason: "platform mismatch",
					})
				}
				continue
			}
			for _, tc := range parsed.Tests {
				if opts.ShouldStop != nil && opts.ShouldStop() {
					result.Interrupted = true
					break
				}
				if opts.PatternArg != "" && !strings.Contains(qualifiedName(suite.Name, f, tc.Name), opts.PatternArg) {
					continue
				}
				if opts.ListOnly {
					result.Tests = append(result.Tests, TestResult{SuiteName: suite.Name, FilePath: f, Name: tc.Name, Outcome: Skipped, Reason: "listed"})
					continue
				}
				tr, upd := runOneTest(ctx, suite.Name, tc, ws.Path, env, opts)
				result.Tests = append(result.Tests, tr)
				if upd != nil {
					updates = append(updates, *upd)
				}
			}
		}
	}

	if suite.TeardownFile != "" {
		parsed, perr := corpus.ParseFile(suite.TeardownFile)
		if perr != nil {
			result.TeardownErr = perr
		} else {
			for _, tc := range parsed.Tests {
				tr, _ := runOneTest(ctx, suite.Name, tc, ws.Path, env, opts)
				if tr.Outcome == Failed {
					result.TeardownErr = fmt.Errorf("teardown test %q failed: %s", tc.Name, tr.Reason)
					break
				}
			}
		}
	}

	if opts.Update && len(updates) > 0 {
		if err := applyUpdates(updates); err != nil {
			result.TeardownErr = err
		}
	}

	result.Elapsed = time.Since(start)
	return result
}

func qualifiedName(suiteName, file, testName string) string {
	return fmt.Sprintf("%s/%s: %s", suiteName, fileBase(file), testName)
}

func fileBase(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

func filePlatformExcluded(dirs []corpus.Directive) bool {
	for _, d := range dirs {
		if d.Kind == corpus.DirPlatform && !platformListIncludes(d.Platforms) {
			return true
		}
	}
	return false
}

func platformListIncludes(platforms []string) bool {
	goos := runtime.GOOS
	for _, p := range platforms {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == goos || (p == "unix" && goos != "windows") {
			return true
		}
	}
	return false
}

// runOneTest runs the directive checks, command, and matching for a single
// TestCase. It returns a non-nil *pendingUpdate when opts.Update is set
// and the test failed in a way the updater may fix (a hole-free,
// constraint-free pattern mismatch).
func runOneTest(ctx context.Context, suiteName string, tc corpus.TestCase, workDir string, env []string, opts Options) (TestResult, *pendingUpdate) {
	tr := TestResult{SuiteName: suiteName, FilePath: tc.FilePath, Name: tc.Name}

	allDirectives := append(append([]corpus.Directive{}, tc.FileDirectives...), tc.TestDirectives...)
	for _, d := range allDirectives {
		switch d.Kind {
		case corpus.DirPlatform:
			if !platformListIncludes(d.Platforms) {
				tr.Outcome = Skipped
				tr.Reason = "platform mismatch"
				return tr, nil
			}
		case corpus.DirSkip:
			if d.SkipIfCmd == "" {
				tr.Outcome = Skipped
				tr.Reason = skipReason(d.SkipReason)
				return tr, nil
			}
			res := runCommand(ctx, effectiveShell(opts.Shell, allDirectives), expandCommandTemplate(d.SkipIfCmd, workDir, workDir), workDir, env, nil)
			if res.ExitCode == 0 {
				tr.Outcome = Skipped
				tr.Reason = skipReason(d.SkipReason)
				return tr, nil
			}
		}
	}

	shell := effectiveShell(opts.Shell, allDirectives)
	command := expandCommandTemplate(tc.Command, workDir, workDir)
	start := time.Now()
	res := runCommand(ctx, shell, command, workDir, env, opts.Stream)
	tr.Elapsed = time.Since(start)
	tr.Stdout, tr.Stderr = res.Stdout, res.Stderr
	tr.Warning = res.Warning

	if res.Err != nil {
		tr.Outcome = Failed
		tr.Code = cctrerrors.Execution
		tr.Reason = res.Err.Error()
		return tr, nil
	}

	exitOnly := strings.TrimSpace(tc.ExpectedPattern) == ""
	if exitOnly {
		if res.ExitCode == 0 {
			tr.Outcome = Passed
		} else {
			tr.Outcome = Failed
			tr.Code = cctrerrors.NonZeroExit
			tr.Reason = fmt.Sprintf("exit code %d", res.ExitCode)
		}
		return tr, nil
	}

	if res.ExitCode != 0 {
		tr.Outcome = Failed
		tr.Code = cctrerrors.NonZeroExit
		tr.Reason = fmt.Sprintf("exit code %d", res.ExitCode)
		return tr, nil
	}

	compiled, cerr := pattern.Compile(tc.ExpectedPattern, pattern.TemplateVars{"WORK_DIR": workDir, "FIXTURE_DIR": workDir}, os.LookupEnv)
	if cerr != nil {
		tr.Outcome = Failed
		tr.Code = cctrerrors.Parse
		tr.Reason = cerr.Error()
		return tr, nil
	}

	// Trailing newlines are dropped, matching the parser's trimming of
	// trailing blank lines from the expected region.
	actual := strings.TrimRight(pattern.Normalize(res.Stdout), "\n")
	bindings, mismatch := compiled.Match(actual)
	if mismatch != nil {
		tr.Outcome = Failed
		tr.Code = cctrerrors.PatternMismatch
		tr.Mismatch = mismatch
		tr.Reason = "pattern mismatch"
		if opts.Update && len(compiled.HoleNames) == 0 && len(tc.Where) == 0 {
			return tr, &pendingUpdate{file: tc.FilePath, rng: tc.ExpectedRange, newText: actual}
		}
		return tr, nil
	}
	tr.Bindings = bindings

	envLookup := expr.Env(os.LookupEnv)
	vBindings := map[string]value.Value{}
	for k, v := range bindings {
		vBindings[k] = v
	}
	for _, constraint := range tc.Where {
		ok, eerr := expr.EvalBool(constraint, vBindings, envLookup)
		if eerr != nil {
			tr.Outcome = Failed
			tr.Code = cctrerrors.ConstraintFail
			tr.Reason = fmt.Sprintf("%s: %v", constraint, eerr)
			return tr, nil
		}
		if !ok {
			tr.Outcome = Failed
			tr.Code = cctrerrors.ConstraintFail
			tr.Reason = constraint
			return tr, nil
		}
	}

	tr.Outcome = Passed
	return tr, nil
}

func skipReason(reason string) string {
	if reason == "" {
		return "skipped"
	}
	return reason
}

func effectiveShell(override string, dirs []corpus.Directive) string {
	for _, d := range dirs {
		if d.Kind == corpus.DirShell {
			return d.ShellName
		}
	}
	if override != "" {
		return override
	}
	return defaultShell()
}
