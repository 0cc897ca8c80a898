// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/crewctl/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every task the loader knows about",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(c *cobra.Command, _ []string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	found := false
	a.Loader.EachTask(func(name string, factory registry.TaskFactory) bool {
		found = true
		desc := factory().Descriptor()
		fmt.Fprintf(c.OutOrStdout(), "%s  %s\n", cmdStyle.Render(name), desc.Description)
		return true
	})

	if !found {
		fmt.Fprintln(c.OutOrStdout(), subtitleStyle.Render("no tasks registered"))
	}
	return nil
}
