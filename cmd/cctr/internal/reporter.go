package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/cctr-run/cctr/internal/runner"
)

// reporter formats SuiteResults to a writer: one character per test in
// non-verbose mode, a line per test at -v, and failures always showing
// the full diff plus a stderr tail.
type reporter struct {
	w         io.Writer
	verbosity int
	noColor   bool
}

func newReporter(w io.Writer, verbosity int, noColor bool) *reporter {
	return &reporter{w: w, verbosity: verbosity, noColor: noColor}
}

const (
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func (r *reporter) color(code, s string) string {
	if r.noColor {
		return s
	}
	return code + s + ansiReset
}

func (r *reporter) reportSuite(res runner.SuiteResult) {
	if r.verbosity == 0 {
		for _, t := range res.Tests {
			fmt.Fprint(r.w, r.charFor(t.Outcome))
		}
	} else {
		for _, t := range res.Tests {
			fmt.Fprintf(r.w, "%s  %s (%s)\n", r.charFor(t.Outcome), t.Name, t.Elapsed)
		}
	}

	for _, t := range res.Tests {
		if t.Warning != "" {
			fmt.Fprintf(r.w, "\nwarning: %s/%s: %s: %s\n", res.SuiteName, fileBaseName(t.FilePath), t.Name, t.Warning)
		}
		if t.Outcome != runner.Failed {
			continue
		}
		r.reportFailure(res.SuiteName, t)
	}

	passed, failed, skipped := res.Counts()
	summary := fmt.Sprintf("%s: %d passed, %d failed, %d skipped (%s)",
		res.SuiteName, passed, failed, skipped, res.Elapsed)
	if res.SetupErr != nil {
		summary += fmt.Sprintf(" [setup error: %v]", res.SetupErr)
	}
	if res.TeardownErr != nil {
		summary += fmt.Sprintf(" [teardown error: %v]", res.TeardownErr)
	}
	fmt.Fprintln(r.w, "\n"+summary)
}

func (r *reporter) charFor(o runner.Outcome) string {
	switch o {
	case runner.Passed:
		return r.color(ansiGreen, ".")
	case runner.Failed:
		return r.color(ansiRed, "F")
	default:
		return r.color(ansiYellow, "s")
	}
}

func (r *reporter) reportFailure(suite string, t runner.TestResult) {
	fmt.Fprintf(r.w, "\nFAIL %s/%s: %s (%s)\n", suite, fileBaseName(t.FilePath), t.Name, t.Code)
	if t.Mismatch != nil {
		fmt.Fprintln(r.w, t.Mismatch.Diff)
	} else if t.Reason != "" {
		fmt.Fprintln(r.w, "  "+t.Reason)
	}
	if tail := stderrTail(t.Stderr, 10); tail != "" {
		fmt.Fprintln(r.w, "  stderr:")
		fmt.Fprintln(r.w, tail)
	}
}

func (r *reporter) reportTotals(results []runner.SuiteResult) {
	var passed, failed, skipped int
	for _, res := range results {
		p, f, s := res.Counts()
		passed += p
		failed += f
		skipped += s
	}
	fmt.Fprintf(r.w, "\nTOTAL: %d passed, %d failed, %d skipped across %d suites\n", passed, failed, skipped, len(results))
}

func fileBaseName(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

func stderrTail(s string, maxLines int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
