// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for crewctl, a thin cobra
// wrapper around the task/executor/provider core: each verb resolves or
// binds a Task, runs it across whatever Provider the target flags
// describe, and prints the resulting OutcomeSet.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/crewctl/internal/app"
)

// Build-time variables set via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "crewctl",
	Short: "Agentless multi-target command orchestrator",
	Long: titleStyle.Render("crewctl") + subtitleStyle.Render(" - run tasks and shell commands across local, SSH, and Docker targets") + `

crewctl drives tasks written against its Local/SSH/Docker contexts over
a bounded-concurrency executor, without installing any agent on the
targets it reaches.

` + subtitleStyle.Render("Examples:") + `
  crewctl list
  crewctl run fs.write --host 10.0.0.1-4 -- /etc/motd "hello"
  crewctl sh "uptime" --container web1 --container web2
  crewctl info fs.write`,
}

func versionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)
}

// Execute adds all child commands to the root command and runs it via
// fang's enhanced cobra styling. Called once by main.main. An *ExitError
// returned by a verb carries the outcome-derived exit code; any other
// error exits 1.
func Execute() {
	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as the OutcomeSet JSON wire format")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(shCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(editCmd)
}

// newApp is the composition root every verb calls at the top of its
// RunE; it returns the cleanup closure the caller must defer.
func newApp() (*app.App, func(), error) {
	return app.New(nil)
}
