// SPDX-License-Identifier: MPL-2.0

// Package provider implements lazy, single-pass context sequences:
// Local (the process-wide singleton, once), SSH (an
// nmap-range-expanded host list, optionally reached through a chain of
// tunnels), and Docker (one context per container id).
package provider

import (
	"context"
	"fmt"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/invowk/crewctl/internal/provider/hostrange"
)

// Provider is a lazy, single-pass sequence of contexts, itself
// scoped-acquirable for resources shared across the whole sequence
// (e.g. SSH tunnels). Each yields false from yield to stop early.
type Provider interface {
	Each(ctx context.Context, yield func(pkgcontext.Context) bool) error
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// LocalProvider yields the process-wide Local singleton exactly once.
type LocalProvider struct{}

// NewLocalProvider constructs a LocalProvider.
func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

// Each yields the Local singleton once.
func (p *LocalProvider) Each(_ context.Context, yield func(pkgcontext.Context) bool) error {
	yield(pkgcontext.NewLocal())
	return nil
}

// Acquire is a no-op; Local has no shared resource to set up.
func (p *LocalProvider) Acquire(context.Context) error { return nil }

// Release is a no-op.
func (p *LocalProvider) Release(context.Context) error { return nil }

// TunnelSpec describes one hop of an SSH jump-host chain.
type TunnelSpec struct {
	Host string
	User string
	Port int
}

// SSHProvider yields one SSH context per host in Hosts (each entry
// expanded via hostrange.Expand), optionally reached through a chain of
// Tunnels opened in list order (each hop through the previous one) and
// released in reverse order.
type SSHProvider struct {
	Hosts   []string
	User    string
	Tunnels []TunnelSpec

	tunnelContexts []*pkgcontext.SSH
}

// NewSSHProvider constructs an SSHProvider targeting hosts as the given
// user, optionally through tunnels.
func NewSSHProvider(hosts []string, user string, tunnels ...TunnelSpec) *SSHProvider {
	return &SSHProvider{Hosts: hosts, User: user, Tunnels: tunnels}
}

// Acquire opens the tunnel chain in order, each hop dialled through the
// previous, mirroring pitcrew's SSHProvider.__aenter__.
func (p *SSHProvider) Acquire(ctx context.Context) error {
	local := pkgcontext.Context(pkgcontext.NewLocal())
	var parent pkgcontext.Context = local
	for _, t := range p.Tunnels {
		opts := []pkgcontext.SSHOption{}
		if t.Port != 0 {
			opts = append(opts, pkgcontext.WithSSHPort(t.Port))
		}
		tunnelCtx := parent.SSHContext(t.Host, opts...)
		if err := tunnelCtx.Acquire(ctx); err != nil {
			p.releaseTunnels(ctx)
			return fmt.Errorf("provider: opening tunnel to %s: %w", t.Host, err)
		}
		p.tunnelContexts = append(p.tunnelContexts, tunnelCtx)
		parent = tunnelCtx
	}
	return nil
}

// Release closes the tunnel chain innermost-first (reverse open order).
func (p *SSHProvider) Release(ctx context.Context) error {
	p.releaseTunnels(ctx)
	return nil
}

func (p *SSHProvider) releaseTunnels(ctx context.Context) {
	for i := len(p.tunnelContexts) - 1; i >= 0; i-- {
		_ = p.tunnelContexts[i].Release(ctx)
	}
	p.tunnelContexts = nil
}

// Each expands every Hosts entry through hostrange.Expand and yields an
// SSH context per resolved host, dialled through the innermost open
// tunnel when one is present.
func (p *SSHProvider) Each(ctx context.Context, yield func(pkgcontext.Context) bool) error {
	var parent pkgcontext.Context = pkgcontext.NewLocal()
	if len(p.tunnelContexts) > 0 {
		parent = p.tunnelContexts[len(p.tunnelContexts)-1]
	}

	for _, hostExpr := range p.Hosts {
		resolved, err := hostrange.Expand(hostExpr)
		if err != nil {
			return fmt.Errorf("provider: expanding host range %q: %w", hostExpr, err)
		}
		for _, host := range resolved {
			sshCtx := parent.SSHContext(host)
			if p.User != "" {
				sshCtx.WithUser(p.User)
			}
			if !yield(sshCtx) {
				return nil
			}
		}
	}
	return nil
}

// DockerProvider yields one Docker context per entry in ContainerIDs.
type DockerProvider struct {
	ContainerIDs []string
	Engine       string
}

// NewDockerProvider constructs a DockerProvider over the given container ids.
func NewDockerProvider(containerIDs ...string) *DockerProvider {
	return &DockerProvider{ContainerIDs: containerIDs}
}

// Acquire is a no-op; containers are assumed already running.
func (p *DockerProvider) Acquire(context.Context) error { return nil }

// Release is a no-op; DockerProvider doesn't own container lifecycle.
func (p *DockerProvider) Release(context.Context) error { return nil }

// Each yields one Docker context per configured container id.
func (p *DockerProvider) Each(_ context.Context, yield func(pkgcontext.Context) bool) error {
	local := pkgcontext.Context(pkgcontext.NewLocal())
	var opts []pkgcontext.DockerOption
	if p.Engine != "" {
		opts = append(opts, pkgcontext.WithDockerEngine(p.Engine))
	}
	for _, id := range p.ContainerIDs {
		dockerCtx := local.DockerContext(id, opts...)
		if !yield(dockerCtx) {
			return nil
		}
	}
	return nil
}
