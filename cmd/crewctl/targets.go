// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/crewctl/internal/provider"
	"github.com/spf13/cobra"
)

// targetFlags holds the --host/--ssh-user/--container/--engine/--concurrency flags shared by
// every verb that fans a task or shell command out across a Provider.
type targetFlags struct {
	hosts       []string
	sshUser     string
	containers  []string
	engine      string
	concurrency int
}

func addTargetFlags(c *cobra.Command, t *targetFlags) {
	c.Flags().StringArrayVar(&t.hosts, "host", nil, "SSH target (nmap-style range expressions allowed); repeatable")
	c.Flags().StringVar(&t.sshUser, "ssh-user", "", "user to connect as for --host targets")
	c.Flags().StringArrayVar(&t.containers, "container", nil, "Docker container id to target; repeatable")
	c.Flags().StringVar(&t.engine, "engine", "", "container engine for --container targets (docker, podman)")
	c.Flags().IntVar(&t.concurrency, "concurrency", 0, "bound on concurrently driven contexts (0 = default)")
}

// buildProvider resolves exactly one of --host/--container into a
// Provider, defaulting to LocalProvider when neither is set.
func (t *targetFlags) buildProvider() (provider.Provider, error) {
	switch {
	case len(t.hosts) > 0 && len(t.containers) > 0:
		return nil, fmt.Errorf("cannot target both --host and --container in the same invocation")
	case len(t.hosts) > 0:
		return provider.NewSSHProvider(t.hosts, t.sshUser), nil
	case len(t.containers) > 0:
		p := provider.NewDockerProvider(t.containers...)
		p.Engine = t.engine
		return p, nil
	default:
		return provider.NewLocalProvider(), nil
	}
}
