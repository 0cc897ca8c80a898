// SPDX-License-Identifier: MPL-2.0

// Package context implements crewctl's execution contexts: Local, SSH, and
// Docker backends that a Task runs shell commands against. It is the Go
// rendering of pitcrew's context.py — a context is a (backend, user,
// working-directory) triple plus backend-specific transport state, and
// every command passes through the same cwd/user-escalation preparation
// before it reaches the backend.
package context

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/invowk/crewctl/pkg/fileref"
)

// ShOpts configures a single shell invocation.
type ShOpts struct {
	// Stdin is piped to the command's standard input when non-nil.
	Stdin []byte
	// Env overlays additional environment variables onto the context's
	// inherited environment for this invocation only.
	Env map[string]string
}

// AdHocFunc is an inline unit of work run through Context.Invoke, the Go
// equivalent of pitcrew's invoke(fn, *args) ad hoc task creation.
type AdHocFunc func(ctx context.Context, c Context) (any, error)

// DockerOption configures a context created by Context.DockerContext.
type DockerOption func(*Docker)

// SSHOption configures a context created by Context.SSHContext.
type SSHOption func(*SSH)

// Context is the contract every execution backend implements: command
// execution, scoped user/directory changes, child-context construction,
// ad hoc invocation, and shell escaping.
type Context interface {
	// Sh runs command, raising a *CommandFailedError if it exits non-zero,
	// and returns stdout decoded as UTF-8.
	Sh(ctx context.Context, command string, opts ShOpts) (string, error)
	// ShWithCode runs command and returns its exit code and raw output
	// without raising on non-zero exit.
	ShWithCode(ctx context.Context, command string, opts ShOpts) (int, []byte, []byte, error)
	// ShOk reports whether command exited zero.
	ShOk(ctx context.Context, command string, opts ShOpts) (bool, error)
	// RawShWithCode runs command without cwd/user preparation. Used
	// internally to discover the actual logged-in user.
	RawShWithCode(ctx context.Context, command string) (int, []byte, []byte, error)
	// WithUser sets the user commands run as until restore is called.
	WithUser(user string) (restore func())
	// Cd changes the working directory until restore is called. A
	// relative dir is joined onto the current directory; an absolute one
	// replaces it.
	Cd(dir string) (restore func())
	// RunAll runs fns concurrently and returns the first error, if any.
	RunAll(ctx context.Context, fns ...func(context.Context) error) error
	// File returns a reference to path on this context's filesystem.
	File(path string) fileref.FileRef
	// DockerContext returns a context for the named container. Its
	// commands run through the process-wide Local context, whichever
	// context created it.
	DockerContext(containerID string, opts ...DockerOption) *Docker
	// SSHContext returns an SSH context for host. An *SSH receiver
	// tunnels the connection through its own client; any other receiver
	// dials host directly.
	SSHContext(host string, opts ...SSHOption) *SSH
	// Invoke runs fn with this context, the Go analogue of pitcrew's
	// create_task/invoke ad hoc dispatch.
	Invoke(ctx context.Context, fn AdHocFunc) (any, error)
	// Esc shell-escapes text for safe interpolation into a command string.
	Esc(text string) string
	// Descriptor returns a short human-readable identity ("user@local",
	// "ssh:user@host", "docker:user@abcdef").
	Descriptor() string
	// Acquire establishes the backing connection, if any.
	Acquire(ctx context.Context) error
	// Release tears down the backing connection, if any.
	Release(ctx context.Context) error
	// Memo returns this context's per-task-type result cache, used by
	// pkg/task to implement memoised invocation.
	Memo() *Memo
}

// Memo is a per-context cache of memoised task results, keyed by the
// concrete task type. Mutual exclusion is required here because the
// executor drives many goroutines against a provider's contexts
// concurrently.
type Memo struct {
	mu     sync.Mutex
	values map[reflect.Type]any
}

// Get returns the cached value for key and whether it was present.
func (m *Memo) Get(key reflect.Type) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *Memo) Set(key reflect.Type, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[reflect.Type]any)
	}
	m.values[key] = value
}

// base holds the state common to every backend: the acting user, the
// current working directory, lazily-discovered actual user, and the
// memoisation cache. It is embedded by Local, SSH, and Docker.
type base struct {
	user      string
	directory string

	actualUserOnce sync.Once
	actualUser     string
	actualUserErr  error

	memo Memo
}

func newBase(user string) base {
	return base{user: user}
}

func (b *base) Memo() *Memo { return &b.memo }

// Esc shell-escapes text using POSIX single-quote quoting, the Go
// equivalent of Python's shlex.quote (pitcrew context.py's esc()).
func Esc(text string) string {
	if text == "" {
		return "''"
	}
	if !strings.ContainsAny(text, " \t\n\"'`$&|;()<>*?[]{}~!#%^=\\") {
		return text
	}
	return "'" + strings.ReplaceAll(text, "'", `'"'"'`) + "'"
}

// fillActualUser discovers the user commands actually run as (via
// "whoami" on the raw, unprepared channel) and memoises it for the
// lifetime of the context, mirroring pitcrew's fill_actual_user. When
// the actual user differs from the acting user, a warning is logged
// once, the Go equivalent of pitcrew's "Escalating user!" print.
func fillActualUser(ctx context.Context, c Context, b *base) error {
	b.actualUserOnce.Do(func() {
		code, out, _, err := c.RawShWithCode(ctx, "whoami")
		if err != nil {
			b.actualUserErr = fmt.Errorf("unable to run whoami to determine the user: %w", err)
			return
		}
		if code != 0 {
			b.actualUserErr = fmt.Errorf("unable to run whoami to determine the user: exit code %d", code)
			return
		}
		b.actualUser = strings.TrimSpace(string(out))
		if b.actualUser != "" && b.actualUser != b.user {
			slog.Warn("escalating user", "descriptor", c.Descriptor(), "actual_user", b.actualUser, "wanted_user", b.user)
		}
	})
	return b.actualUserErr
}

// prepareCommand wraps command with the cwd prefix and, when the acting
// user differs from the actually logged-in user, a sudo escalation —
// the Go rendering of pitcrew's _prepare_command, applied identically by
// every backend's ShWithCode.
func prepareCommand(ctx context.Context, c Context, b *base, command string) (string, error) {
	if err := fillActualUser(ctx, c, b); err != nil {
		return "", err
	}

	if b.directory != "" {
		command = fmt.Sprintf("cd %s && %s", Esc(b.directory), command)
	}
	if b.actualUser != "" && b.actualUser != b.user {
		command = fmt.Sprintf("sudo -u %s -- /bin/sh -c %s", Esc(b.user), Esc(command))
	}
	return command, nil
}

// cdRestore implements Context.Cd's scoped directory change.
func cdRestore(b *base, dir string) func() {
	old := b.directory
	oldBase := old
	if oldBase == "" {
		oldBase = "."
	}
	next := dir
	if !strings.HasPrefix(dir, "/") {
		next = oldBase + "/" + dir
	}
	b.directory = next
	return func() { b.directory = old }
}

// userRestore implements Context.WithUser's scoped user change.
func userRestore(b *base, user string) func() {
	old := b.user
	b.user = user
	return func() { b.user = old }
}

// mergeEnv overlays delta onto base, returning a new map; base is never
// mutated.
func mergeEnv(base map[string]string, delta map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(delta))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range delta {
		out[k] = v
	}
	return out
}

// envToSlice renders an environment map as NAME=VALUE pairs suitable for
// exec.Cmd.Env.
func envToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// buildDockerEnvFlags renders env as repeated "-e NAME=VALUE" docker exec
// flags, shell-escaped, matching pitcrew's DockerContext.sh_with_code.
func buildDockerEnvFlags(env map[string]string) string {
	var b strings.Builder
	for k, v := range env {
		b.WriteString("-e ")
		b.WriteString(Esc(k + "=" + v))
		b.WriteString(" ")
	}
	return b.String()
}

// invokeWith implements Context.Invoke for any backend.
func invokeWith(ctx context.Context, c Context, fn AdHocFunc) (any, error) {
	return fn(ctx, c)
}

// runAllWith implements Context.RunAll: run fns concurrently, return the
// first error encountered (pitcrew's run_all awaits completion order but
// does not short-circuit on error; we likewise wait for all to finish).
func runAllWith(ctx context.Context, fns ...func(context.Context) error) error {
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			defer wg.Done()
			errs[i] = fn(ctx)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
