// SPDX-License-Identifier: MPL-2.0

// Command crewctl is the agentless multi-target command orchestrator's
// CLI entry point. All behaviour lives in cmd/crewctl; main only
// invokes it.
package main

import cmd "github.com/invowk/crewctl/cmd/crewctl"

func main() {
	cmd.Execute()
}
