// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <dotted-task-name>",
	Short: "Report where a new task definition should be created",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

// runNew does not scaffold a file itself: the on-disk task layout
// belongs to the external TaskDirectory collaborator, which this core
// deliberately doesn't implement. It reports the configured search
// paths a TaskDirectory would consult so the caller knows where to
// place the new definition.
func runNew(c *cobra.Command, args []string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	out := c.OutOrStdout()
	fmt.Fprintf(out, "task %q is not yet registered.\n", args[0])
	if len(a.Config.TaskSearchPaths) == 0 {
		fmt.Fprintln(out, subtitleStyle.Render("no task_search_paths configured; add one and define the task there"))
		return nil
	}
	fmt.Fprintln(out, subtitleStyle.Render("configured task search paths:"))
	for _, path := range a.Config.TaskSearchPaths {
		fmt.Fprintf(out, "  %s\n", cmdStyle.Render(path))
	}
	return nil
}
