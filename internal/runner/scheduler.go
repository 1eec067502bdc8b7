package runner

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/cctr-run/cctr/internal/discovery"
)

// Scheduler runs a set of discovered suites on a bounded worker pool and
// funnels their results to a single ordered reporter. The
// bounded-concurrency shape is a semaphore channel plus a sync.WaitGroup.
type Scheduler struct {
	Parallel   int  // worker count; <=0 means runtime.NumCPU()
	Sequential bool // -s: force one worker
}

// interruptState tracks the single-threaded-signal interrupt model: the
// first interrupt sets a sticky stop flag that in-flight suites observe at
// their next test boundary and cancels the context passed to every
// running command, so its process group is killed; a second interrupt
// exits the process immediately, skipping any remaining teardown.
type interruptState struct {
	stopped int32
}

func (s *interruptState) shouldStop() bool { return atomic.LoadInt32(&s.stopped) == 1 }

// Run executes suites with bounded parallelism, reporting each SuiteResult
// to report as it completes. report is called from a single goroutine, so
// it may safely print without its own locking. Run installs its own
// interrupt handler for the duration of the call.
func (s *Scheduler) Run(ctx context.Context, suites []discovery.Suite, opts Options, report func(SuiteResult)) []SuiteResult {
	limit := s.Parallel
	if s.Sequential {
		limit = 1
	}
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	istate := &interruptState{}
	opts.ShouldStop = istate.shouldStop

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	// With SIGPIPE ignored, a write to a closed output pipe returns an error
	// instead of terminating the process.
	signal.Ignore(syscall.SIGPIPE)
	go func() {
		for range sigCh {
			if !atomic.CompareAndSwapInt32(&istate.stopped, 0, 1) {
				os.Exit(130) // second interrupt: skip teardown, exit now
			}
			cancel() // first interrupt: kill every running command's process group
		}
	}()

	resultsCh := make(chan SuiteResult, len(suites))
	semaphore := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for _, suite := range suites {
		if istate.shouldStop() {
			break
		}
		suite := suite
		wg.Add(1)
		semaphore <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()
			resultsCh <- RunSuite(ctx, suite, opts)
		}()
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var all []SuiteResult
	for r := range resultsCh {
		all = append(all, r)
		reportSafely(report, r)
	}
	return all
}

// reportSafely recovers any panic raised by the reporter, so a failure
// while reporting one suite does not stop the collection of the others.
// Broken output pipes are handled by Run ignoring SIGPIPE.
func reportSafely(report func(SuiteResult), r SuiteResult) {
	defer func() {
		recover()
	}()
	report(r)
}
