// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <dotted-task-name>",
	Short: "Show a task's declared arguments and return type",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(c *cobra.Command, args []string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	factory, err := a.Loader.Resolve(args[0])
	if err != nil {
		return err
	}
	desc := factory().Descriptor()

	out := c.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(desc.Name))
	if desc.Description != "" {
		fmt.Fprintln(out, subtitleStyle.Render(desc.Description))
	}
	if desc.Memoize {
		fmt.Fprintln(out, subtitleStyle.Render("memoized: true"))
	}
	if desc.Returns != "" {
		fmt.Fprintf(out, "returns: %s\n", desc.Returns)
	}
	if len(desc.Args) == 0 {
		fmt.Fprintln(out, "args: (none)")
		return nil
	}
	fmt.Fprintln(out, "args:")
	for _, arg := range desc.Args {
		required := ""
		if arg.Required {
			required = " required"
		}
		variadic := ""
		if arg.Variadic {
			variadic = " variadic"
		}
		fmt.Fprintf(out, "  %s %s%s%s", cmdStyle.Render(arg.Name), arg.Type, required, variadic)
		if arg.Description != "" {
			fmt.Fprintf(out, "  %s", subtitleStyle.Render(arg.Description))
		}
		fmt.Fprintln(out)
	}
	return nil
}
