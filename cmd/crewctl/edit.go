// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <dotted-task-name>",
	Short: "Locate a registered task's source for editing",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

// runEdit resolves the task to confirm it exists, then defers to the
// caller's editor — crewctl's core has no notion of a task's source
// file, since the on-disk layout belongs to the external TaskDirectory
// collaborator.
func runEdit(c *cobra.Command, args []string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	if !a.Loader.Has(args[0]) {
		return fmt.Errorf("task %q is not registered", args[0])
	}
	fmt.Fprintf(c.OutOrStdout(), "%s is registered; open its source with your editor of choice.\n", cmdStyle.Render(args[0]))
	return nil
}
