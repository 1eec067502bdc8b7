// Package internal implements cctr's cobra command tree: a NewRootCmd
// constructor building persistent flags plus an Execute() wrapper,
// rather than package-level globals.
package internal

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the cctr root command. The root command itself runs a
// test root (a single positional test root argument plus flags), since
// the whole tool is one verb, rather than dispatching to subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cctr [test-root]",
		Short: "cctr runs corpus-file end-to-end tests for command-line tools",
		Long: `cctr discovers suites of plain-text corpus tests, runs each test's
command through a shell, and compares the captured output against an
expected pattern that may contain typed holes and "where" constraints.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRoot,
	}

	cmd.Flags().StringP("pattern", "p", "", "substring filter on \"suite/file: test-name\"")
	cmd.Flags().BoolP("update", "u", false, "rewrite mismatched expected-output regions in place")
	cmd.Flags().BoolP("list", "l", false, "list discovered tests without executing them")
	cmd.Flags().CountP("verbose", "v", "increase output verbosity (-v line per test, -vv streams child output)")
	cmd.Flags().BoolP("sequential", "s", false, "run suites sequentially instead of in parallel")
	cmd.Flags().Bool("no-color", false, "disable ANSI color in output")
	cmd.Flags().String("shell", "", "override the default shell used to run commands")
	cmd.Flags().String("config", ".cctr.yml", "path to the project config file")
	cmd.Flags().Int("parallel", 0, "number of suites to run concurrently (0 means host CPU count)")
	cmd.Flags().String("repo", "", "fetch the corpus from a GitHub repository (owner/repo[:ref]) instead of a local path")
	cmd.Flags().String("serve", "", "serve live run status over HTTP at this address (e.g. :8089) while running")

	cmd.AddCommand(NewVersionCmd())
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

// Execute runs the root command and exits with the matching code: 0 if
// every non-skipped test passed, 1 if any failed, 2 on a discovery,
// parse, or usage error. The 1/2 split is distinguished via exitCodeError.
func Execute() {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err == nil {
		return
	}
	var ec *exitCodeError
	if errors.As(err, &ec) {
		os.Exit(ec.code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
