package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cctr-run/cctr/internal/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuiteDir(t *testing.T, root, name, body string) discovery.Suite {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	f := filepath.Join(dir, "t.txt")
	require.NoError(t, os.WriteFile(f, []byte(body), 0o644))
	return discovery.Suite{Name: name, Dir: dir, TestFiles: []string{f}}
}

func TestSchedulerRunsAllSuitesAndReportsEach(t *testing.T) {
	root := t.TempDir()
	suites := []discovery.Suite{
		writeSuiteDir(t, root, "a", "===\nok\n===\necho hi\n---\nhi\n"),
		writeSuiteDir(t, root, "b", "===\nok\n===\necho hi\n---\nhi\n"),
		writeSuiteDir(t, root, "c", "===\nok\n===\necho hi\n---\nhi\n"),
	}

	var mu sync.Mutex
	var reported []string
	sched := &Scheduler{Parallel: 2}
	results := sched.Run(context.Background(), suites, Options{TmpRoot: t.TempDir()}, func(r SuiteResult) {
		mu.Lock()
		reported = append(reported, r.SuiteName)
		mu.Unlock()
	})

	assert.Len(t, results, 3)
	assert.Len(t, reported, 3)
	for _, r := range results {
		assert.True(t, r.Passed())
	}
}

func TestSchedulerSequentialModeRunsSuite(t *testing.T) {
	root := t.TempDir()
	suites := []discovery.Suite{
		writeSuiteDir(t, root, "a", "===\nok\n===\necho hi\n---\nhi\n"),
	}
	sched := &Scheduler{Sequential: true}
	results := sched.Run(context.Background(), suites, Options{TmpRoot: t.TempDir()}, func(SuiteResult) {})
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed())
}

// TestCanceledContextKillsRunningCommand exercises the same cancellation
// path the scheduler's interrupt handler drives: canceling the context
// passed into RunSuite must kill the child's process group promptly
// rather than leaving RunSuite blocked until the command exits on its own.
func TestCanceledContextKillsRunningCommand(t *testing.T) {
	dir := t.TempDir()
	f := writeTest(t, dir, "slow.txt", "===\nslow\n===\nsleep 30\n---\nnever\n")
	suite := discovery.Suite{Name: "slow", Dir: dir, TestFiles: []string{f}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan SuiteResult, 1)
	go func() { done <- RunSuite(ctx, suite, Options{TmpRoot: t.TempDir()}) }()

	select {
	case res := <-done:
		require.Len(t, res.Tests, 1)
		assert.Equal(t, Failed, res.Tests[0].Outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("RunSuite did not return after context cancellation; process group was not killed")
	}
}
