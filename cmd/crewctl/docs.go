// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/crewctl/internal/registry"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print reference documentation for every registered, non-NoDoc task",
	Args:  cobra.NoArgs,
	RunE:  runDocs,
}

func runDocs(c *cobra.Command, _ []string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	out := c.OutOrStdout()
	wroteAny := false
	a.Loader.EachTask(func(name string, factory registry.TaskFactory) bool {
		desc := factory().Descriptor()
		if desc.NoDoc {
			return true
		}
		wroteAny = true
		fmt.Fprintln(out, titleStyle.Render(desc.Name))
		if desc.Description != "" {
			fmt.Fprintln(out, subtitleStyle.Render(desc.Description))
		}
		for _, arg := range desc.Args {
			fmt.Fprintf(out, "  %s %s\n", cmdStyle.Render(arg.Name), arg.Type)
		}
		fmt.Fprintln(out)
		return true
	})
	if !wroteAny {
		fmt.Fprintln(out, subtitleStyle.Render("no documented tasks registered"))
	}
	return nil
}
