// SPDX-License-Identifier: MPL-2.0

package context

import (
	"context"
	"fmt"

	dockerclient "github.com/docker/docker/client"

	"github.com/invowk/crewctl/pkg/fileref"
)

// Docker runs commands inside a running container by shelling "docker
// exec" (or "podman exec", per the engine passed as a DockerOption) through
// the process-wide Local context — the Go rendering of pitcrew's
// DockerContext, which always dispatches via app.local_context regardless
// of which context created it.
type Docker struct {
	base

	containerID string
	engine      string // "docker" or "podman"
	local       *Local

	// api is the Docker Engine API client used to verify the container
	// is actually running before dispatching exec through the CLI. Left
	// nil for the podman engine, which this client can't reach.
	api *dockerclient.Client
}

// WithDockerEngine selects the CLI binary used to dispatch exec/cp/stop
// commands ("docker" or "podman"). Defaults to "docker".
func WithDockerEngine(engine string) DockerOption {
	return func(d *Docker) { d.engine = engine }
}

func newDocker(_ Context, containerID string, opts ...DockerOption) *Docker {
	d := &Docker{
		base:        newBase(currentUsername()),
		containerID: containerID,
		engine:      "docker",
		local:       NewLocal(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sh implements Context.
func (d *Docker) Sh(ctx context.Context, command string, opts ShOpts) (string, error) {
	return shImpl(ctx, d, command, opts)
}

// ShWithCode implements Context.
func (d *Docker) ShWithCode(ctx context.Context, command string, opts ShOpts) (int, []byte, []byte, error) {
	prepared, err := prepareCommand(ctx, d, &d.base, command)
	if err != nil {
		return -1, nil, nil, err
	}
	logger := currentLogger()
	logger.ShellStart(d.Descriptor(), prepared)
	code, stdout, stderr, err := d.exec(ctx, prepared, opts)
	logger.ShellStop(code, stdout, stderr)
	return code, stdout, stderr, err
}

// ShOk implements Context.
func (d *Docker) ShOk(ctx context.Context, command string, opts ShOpts) (bool, error) {
	code, _, _, err := d.ShWithCode(ctx, command, opts)
	if err != nil {
		return false, err
	}
	return code == 0, nil
}

// RawShWithCode implements Context.
func (d *Docker) RawShWithCode(ctx context.Context, command string) (int, []byte, []byte, error) {
	return d.exec(ctx, command, ShOpts{})
}

func (d *Docker) exec(ctx context.Context, command string, opts ShOpts) (int, []byte, []byte, error) {
	envFlags := buildDockerEnvFlags(opts.Env)
	cmd := fmt.Sprintf("%s exec -i %s%s /bin/sh -c %s", d.engine, envFlags, d.containerID, Esc(command))
	return d.local.execShell(ctx, cmd, ShOpts{Stdin: opts.Stdin})
}

// WithUser implements Context.
func (d *Docker) WithUser(user string) (restore func()) { return userRestore(&d.base, user) }

// Cd implements Context.
func (d *Docker) Cd(dir string) (restore func()) { return cdRestore(&d.base, dir) }

// RunAll implements Context.
func (d *Docker) RunAll(ctx context.Context, fns ...func(context.Context) error) error {
	return runAllWith(ctx, fns...)
}

// File implements Context.
func (d *Docker) File(path string) fileref.FileRef {
	return fileref.FileRef{Backend: d, Path: path}
}

// DockerContext implements Context.
func (d *Docker) DockerContext(containerID string, opts ...DockerOption) *Docker {
	return newDocker(d, containerID, opts...)
}

// SSHContext implements Context.
func (d *Docker) SSHContext(host string, opts ...SSHOption) *SSH {
	return newSSH(d, host, opts...)
}

// Invoke implements Context.
func (d *Docker) Invoke(ctx context.Context, fn AdHocFunc) (any, error) {
	return invokeWith(ctx, d, fn)
}

// Esc implements Context.
func (d *Docker) Esc(text string) string { return Esc(text) }

// Descriptor implements Context.
func (d *Docker) Descriptor() string {
	short := d.containerID
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("docker:%s@%s", d.user, short)
}

// Acquire implements Context. For the docker engine it dials the Engine
// API and confirms the target container is actually running before any
// exec is dispatched through the CLI, so a stopped or missing container
// fails fast with a ConnectionFailedError rather than a confusing exec
// error. The podman engine has no equivalent client, so this is a no-op
// there — the underlying Local dispatcher needs no connection of its own.
func (d *Docker) Acquire(ctx context.Context) error {
	if d.engine != "docker" {
		return nil
	}
	if d.api == nil {
		cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
		if err != nil {
			return &ConnectionFailedError{Descriptor: d.Descriptor(), Reason: err}
		}
		d.api = cli
	}
	info, err := d.api.ContainerInspect(ctx, d.containerID)
	if err != nil {
		return &ConnectionFailedError{Descriptor: d.Descriptor(), Reason: err}
	}
	if !info.State.Running {
		return &ConnectionFailedError{Descriptor: d.Descriptor(), Reason: fmt.Errorf("container %s is not running", d.containerID)}
	}
	return nil
}

// Release stops the container with a zero-second grace period, matching
// pitcrew's DockerContext.__aexit__ (docker stop -t 0), and closes the
// Engine API client opened by Acquire, if any.
func (d *Docker) Release(ctx context.Context) error {
	if d.api != nil {
		_ = d.api.Close()
		d.api = nil
	}
	cmd := fmt.Sprintf("%s stop -t 0 %s", d.engine, d.containerID)
	code, _, stderr, err := d.local.execShell(ctx, cmd, ShOpts{})
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s: exit %d: %s", cmd, code, stderr)
	}
	return nil
}

// Variant implements fileref.Backend.
func (d *Docker) Variant() string { return "docker" }

// RunRaw implements fileref.Backend.
func (d *Docker) RunRaw(ctx context.Context, command string) (int, []byte, []byte, error) {
	return d.exec(ctx, command, ShOpts{})
}

// ContainerID implements fileref.DockerHost.
func (d *Docker) ContainerID() string { return d.containerID }

// LocalBackend implements fileref.DockerHost.
func (d *Docker) LocalBackend() fileref.Backend { return d.local }
