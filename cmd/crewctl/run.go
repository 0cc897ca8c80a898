// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/invowk/crewctl/internal/executor"
)

var runTargets targetFlags

var runCmd = &cobra.Command{
	Use:   "run <dotted-task-name> [args...]",
	Short: "Resolve a registered task and run it across the target provider",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	addTargetFlags(runCmd, &runTargets)
}

// silenceIfExitError suppresses cobra's own "Error: ..." and usage
// output when err is an *ExitError — the outcome set was already
// printed, so cobra has nothing useful to add.
func silenceIfExitError(c *cobra.Command, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		c.SilenceErrors = true
		c.SilenceUsage = true
	}
}

func runRun(c *cobra.Command, args []string) error {
	name := args[0]
	taskArgs := make([]any, len(args)-1)
	for i, a := range args[1:] {
		taskArgs[i] = a
	}

	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	factory, err := a.Loader.Resolve(name)
	if err != nil {
		return err
	}

	p, err := runTargets.buildProvider()
	if err != nil {
		return err
	}

	exec := executor.New(p, runTargets.concurrency)
	defer exec.Close()

	results, err := exec.RunTask(c.Context(), a.Logger, factory(), taskArgs...)
	if err != nil {
		return err
	}

	err = renderAndExit(c, results)
	silenceIfExitError(c, err)
	return err
}

// renderAndExit prints results as JSON or human-readable output per the
// --json flag, then returns nil when every outcome passed, or an
// *ExitError carrying exitCode's non-zero code when any outcome
// failed/errored — Execute translates it to os.Exit after cobra has
// unwound every deferred cleanup.
func renderAndExit(c *cobra.Command, results *executor.ResultSet) error {
	set := toOutcomeSet(results)
	if jsonOutput {
		if err := printOutcomeJSON(c.OutOrStdout(), set); err != nil {
			return err
		}
	} else {
		printOutcomeHuman(c.OutOrStdout(), set)
	}
	if code := exitCode(set); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
