// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/invowk/crewctl/internal/executor"
)

var testTargets targetFlags

var testCmd = &cobra.Command{
	Use:   "test <dotted-task-name>",
	Short: "Run every test registered against a task across the target provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runTest,
}

func init() {
	addTargetFlags(testCmd, &testTargets)
}

func runTest(c *cobra.Command, args []string) error {
	name := args[0]

	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	tests, err := a.Loader.Tests(name)
	if err != nil {
		return err
	}

	p, err := testTargets.buildProvider()
	if err != nil {
		return err
	}

	combined := &executor.ResultSet{}
	for _, factory := range tests {
		t := factory()
		scope := a.Logger.OpenTest(name, t.Descriptor().Name)

		exec := executor.New(p, testTargets.concurrency)
		results, err := exec.RunTask(c.Context(), a.Logger, t)
		exec.Close()
		scope.Close(err)
		if err != nil {
			return err
		}
		combined.Passed = append(combined.Passed, results.Passed...)
		combined.Failed = append(combined.Failed, results.Failed...)
		combined.Errored = append(combined.Errored, results.Errored...)
	}

	err = renderAndExit(c, combined)
	silenceIfExitError(c, err)
	return err
}
