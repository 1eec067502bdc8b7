package internal

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cctr-run/cctr/internal/cctrconfig"
	"github.com/cctr-run/cctr/internal/discovery"
	"github.com/cctr-run/cctr/internal/remote"
	"github.com/cctr-run/cctr/internal/runner"
	"github.com/cctr-run/cctr/internal/statusserver"
)

// runRoot discovers and runs the suites under a test root. Discovery and
// parse errors return an error here (mapped to exit code 2 by Execute);
// once suites are running, failures are reported as results and a failed
// run returns an exitCodeError carrying code 1, which Execute turns into
// that exit code instead of treating it as a usage problem.
func runRoot(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := cctrconfig.Load(configPath)
	if err != nil {
		return err
	}

	repoSpec, _ := cmd.Flags().GetString("repo")
	if repoSpec != "" {
		spec, perr := remote.ParseSpec(repoSpec)
		if perr != nil {
			return perr
		}
		dir, cerr := remote.CacheDir(spec)
		if cerr != nil {
			return cerr
		}
		if ferr := remote.NewFetcher().Fetch(cmd.Context(), spec, dir); ferr != nil {
			return ferr
		}
		root = dir
	}

	stdinMode := root == discovery.StdinSentinel
	if stdinMode {
		tmp, terr := writeStdinCorpus(cmd)
		if terr != nil {
			return terr
		}
		defer os.Remove(tmp)
		root = tmp
	}

	suites, err := discovery.Discover(root)
	if err != nil {
		return err
	}

	pattern, _ := cmd.Flags().GetString("pattern")
	update, _ := cmd.Flags().GetBool("update")
	listOnly, _ := cmd.Flags().GetBool("list")
	verbosity, _ := cmd.Flags().GetCount("verbose")
	sequential, _ := cmd.Flags().GetBool("sequential")
	noColor, _ := cmd.Flags().GetBool("no-color")
	shell, _ := cmd.Flags().GetString("shell")
	parallel, _ := cmd.Flags().GetInt("parallel")
	serveAddr, _ := cmd.Flags().GetString("serve")

	if shell == "" {
		shell = cfg.Shell
	}
	if parallel == 0 {
		parallel = cfg.Parallel
	}
	if !noColor {
		noColor = cfg.NoColor
	}

	rep := newReporter(cmd.OutOrStdout(), verbosity, noColor)

	var status *statusserver.Server
	if serveAddr != "" {
		status = statusserver.New(serveAddr)
		go status.ListenAndServe()
		defer status.Shutdown()
	}

	opts := runner.Options{
		Shell:      shell,
		ExtraEnv:   cfg.Env,
		Update:     update,
		PatternArg: pattern,
		ListOnly:   listOnly,
	}
	if verbosity >= 2 {
		opts.Stream = cmd.OutOrStdout()
	}
	if status != nil {
		opts.OnStart = status.MarkRunning
	}

	sched := &runner.Scheduler{Parallel: parallel, Sequential: sequential}
	results := sched.Run(context.Background(), suites, opts, func(r runner.SuiteResult) {
		rep.reportSuite(r)
		if status != nil {
			status.Report(r)
		}
	})

	exitCode := 0
	for _, r := range results {
		if !r.Passed() || r.TeardownErr != nil {
			exitCode = 1
		}
	}
	rep.reportTotals(results)
	if exitCode != 0 {
		return &exitCodeError{code: exitCode}
	}
	return nil
}

// exitCodeError lets runRoot report a specific process exit code (1 when a test failed)
// through cobra's RunE error return without that return being treated as
// a usage error and printed with cobra's own error formatting.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return "" }

func writeStdinCorpus(cmd *cobra.Command) (string, error) {
	dir, err := os.MkdirTemp("", "cctr-stdin-")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "stdin.txt")
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}
