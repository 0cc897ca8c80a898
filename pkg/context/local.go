// SPDX-License-Identifier: MPL-2.0

package context

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"sync"

	"github.com/invowk/crewctl/pkg/fileref"
)

// launcherEnvVar is stripped from the inherited environment before a
// Local command runs, the Go analogue of pitcrew's __PYVENV_LAUNCHER__
// removal — a launcher-injected variable that must not leak into spawned
// shells.
const launcherEnvVar = "CREWCTL_LAUNCHER"

// Local runs commands on the host process itself. It is a process-wide
// singleton, mirroring pitcrew's LocalContext.__new__ override.
type Local struct {
	base
}

var (
	localOnce     sync.Once
	localInstance *Local
)

// NewLocal returns the process-wide Local context, constructing it on
// first use.
func NewLocal() *Local {
	localOnce.Do(func() {
		u := currentUsername()
		localInstance = &Local{base: newBase(u)}
	})
	return localInstance
}

func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}

// Sh implements Context.
func (l *Local) Sh(ctx context.Context, command string, opts ShOpts) (string, error) {
	return shImpl(ctx, l, command, opts)
}

// ShWithCode implements Context.
func (l *Local) ShWithCode(ctx context.Context, command string, opts ShOpts) (int, []byte, []byte, error) {
	prepared, err := prepareCommand(ctx, l, &l.base, command)
	if err != nil {
		return -1, nil, nil, err
	}
	logger := currentLogger()
	logger.ShellStart(l.Descriptor(), prepared)
	code, stdout, stderr, err := l.execShell(ctx, prepared, opts)
	logger.ShellStop(code, stdout, stderr)
	return code, stdout, stderr, err
}

// ShOk implements Context.
func (l *Local) ShOk(ctx context.Context, command string, opts ShOpts) (bool, error) {
	code, _, _, err := l.ShWithCode(ctx, command, opts)
	if err != nil {
		return false, err
	}
	return code == 0, nil
}

// RawShWithCode implements Context. It runs command as-is, with no
// cwd/user preparation.
func (l *Local) RawShWithCode(ctx context.Context, command string) (int, []byte, []byte, error) {
	return l.execShell(ctx, command, ShOpts{})
}

func (l *Local) execShell(ctx context.Context, command string, opts ShOpts) (int, []byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)

	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	delete(env, launcherEnvVar)
	if opts.Env != nil {
		env = mergeEnv(env, opts.Env)
	}
	cmd.Env = envToSlice(env)

	if opts.Stdin != nil {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	code := exitCodeOf(err, cmd)
	if err != nil && code < 0 {
		return code, stdout.Bytes(), stderr.Bytes(), err
	}
	return code, stdout.Bytes(), stderr.Bytes(), nil
}

func exitCodeOf(err error, cmd *exec.Cmd) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// WithUser implements Context.
func (l *Local) WithUser(user string) (restore func()) { return userRestore(&l.base, user) }

// Cd implements Context.
func (l *Local) Cd(dir string) (restore func()) { return cdRestore(&l.base, dir) }

// RunAll implements Context.
func (l *Local) RunAll(ctx context.Context, fns ...func(context.Context) error) error {
	return runAllWith(ctx, fns...)
}

// File implements Context.
func (l *Local) File(path string) fileref.FileRef {
	return fileref.FileRef{Backend: l, Path: path}
}

// DockerContext implements Context. Commands dispatch through the
// process-wide Local singleton regardless of which context created the
// Docker context, matching pitcrew's local_context property.
func (l *Local) DockerContext(containerID string, opts ...DockerOption) *Docker {
	return newDocker(l, containerID, opts...)
}

// SSHContext implements Context.
func (l *Local) SSHContext(host string, opts ...SSHOption) *SSH {
	return newSSH(l, host, opts...)
}

// Invoke implements Context.
func (l *Local) Invoke(ctx context.Context, fn AdHocFunc) (any, error) {
	return invokeWith(ctx, l, fn)
}

// Esc implements Context.
func (l *Local) Esc(text string) string { return Esc(text) }

// Descriptor implements Context.
func (l *Local) Descriptor() string { return fmt.Sprintf("%s@local", l.user) }

// Acquire implements Context. Local has no connection to establish.
func (l *Local) Acquire(ctx context.Context) error { return nil }

// Release implements Context. Local has no connection to tear down.
func (l *Local) Release(ctx context.Context) error { return nil }

// Variant implements fileref.Backend.
func (l *Local) Variant() string { return "local" }

// RunRaw implements fileref.Backend.
func (l *Local) RunRaw(ctx context.Context, command string) (int, []byte, []byte, error) {
	return l.execShell(ctx, command, ShOpts{})
}

// ResolvePath implements fileref.LocalHost, expanding a leading ~ to the
// acting user's home directory.
func (l *Local) ResolvePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", path, err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// shImpl implements the shared Sh semantics (run, log, assert success,
// decode stdout) for any backend, mirroring pitcrew's Context.sh.
func shImpl(ctx context.Context, c Context, command string, opts ShOpts) (string, error) {
	code, out, errOut, err := c.ShWithCode(ctx, command, opts)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", &CommandFailedError{Command: command, Code: code, Stdout: out, Stderr: errOut}
	}
	return string(out), nil
}
