// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/invowk/crewctl/internal/executor"
	pkgcontext "github.com/invowk/crewctl/pkg/context"
)

var shTargets targetFlags

var shCmd = &cobra.Command{
	Use:   "sh <command>",
	Short: "Run an ad hoc shell command across the target provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runSh,
}

func init() {
	addTargetFlags(shCmd, &shTargets)
}

func runSh(c *cobra.Command, args []string) error {
	command := args[0]

	p, err := shTargets.buildProvider()
	if err != nil {
		return err
	}

	exec := executor.New(p, shTargets.concurrency)
	defer exec.Close()

	fn := func(ctx context.Context, cc pkgcontext.Context) (any, error) {
		return cc.Sh(ctx, command, pkgcontext.ShOpts{})
	}

	results, err := exec.Invoke(c.Context(), fn)
	if err != nil {
		return err
	}

	err = renderAndExit(c, results)
	silenceIfExitError(c, err)
	return err
}
