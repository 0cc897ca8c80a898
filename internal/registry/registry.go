// SPDX-License-Identifier: MPL-2.0

// Package registry implements the task loader and the PackageProxy
// chainable accessor pitcrew calls a "package" (self.fs.write(...)):
// the Go rendering of app.py's task resolution against the in-memory
// task factory map the external TaskDirectory collaborator populates.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/invowk/crewctl/pkg/task"
)

// TaskFactory constructs a fresh Task instance per invocation, rather
// than sharing one mutable Task value across every caller.
type TaskFactory func() task.Task

// TestFactory constructs a fresh Task instance representing one of a
// task's registered tests; tests are ordinary Tasks run against the
// task under test's declared Context, not a distinct type.
type TestFactory func() task.Task

// TaskDirectory is the external collaborator that discovers task and
// test definitions on disk and populates a Loader. Its concrete
// on-disk layout is out of scope here — only the contract a Loader
// presents against it is. Loader satisfies this interface directly.
type TaskDirectory interface {
	Resolve(dotted string) (TaskFactory, error)
	Tests(dotted string) ([]TestFactory, error)
	Has(dotted string) bool
	Iterate(yield func(name string, factory TaskFactory) bool)
}

// ErrTaskNotFound is the sentinel wrapped by TaskNotFoundError.
var ErrTaskNotFound = errors.New("task not found")

// TaskNotFoundError is returned when a dotted task name has no
// registered factory.
type TaskNotFoundError struct {
	Name string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %q not found", e.Name)
}

// Unwrap returns ErrTaskNotFound for errors.Is compatibility.
func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

// Loader owns the dotted-name -> TaskFactory map populated by an
// external TaskDirectory collaborator; the on-disk layout that fills
// this map is out of scope here, only the contract against it.
type Loader struct {
	mu    sync.RWMutex
	tasks map[string]TaskFactory
	tests map[string][]TestFactory
}

// NewLoader constructs an empty Loader.
func NewLoader() *Loader {
	return &Loader{
		tasks: make(map[string]TaskFactory),
		tests: make(map[string][]TestFactory),
	}
}

// Register adds or replaces the factory for a dotted task name.
func (l *Loader) Register(name string, factory TaskFactory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks[name] = factory
}

// Resolve returns the factory registered under name.
func (l *Loader) Resolve(name string) (TaskFactory, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	factory, ok := l.tasks[name]
	if !ok {
		return nil, &TaskNotFoundError{Name: name}
	}
	return factory, nil
}

// Has reports whether name has a registered factory.
func (l *Loader) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.tasks[name]
	return ok
}

// HasPackage reports whether any registered task's dotted name starts
// with prefix + ".", i.e. whether prefix names a non-leaf package.
func (l *Loader) HasPackage(prefix string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	want := prefix + "."
	for name := range l.tasks {
		if strings.HasPrefix(name, want) {
			return true
		}
	}
	return false
}

// EachTask traverses registered tasks in lexicographic dotted-name
// order, stopping early if yield returns false.
func (l *Loader) EachTask(yield func(name string, factory TaskFactory) bool) {
	l.mu.RLock()
	names := make([]string, 0, len(l.tasks))
	for name := range l.tasks {
		names = append(names, name)
	}
	factories := l.tasks
	l.mu.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		if !yield(name, factories[name]) {
			return
		}
	}
}

// Iterate is EachTask under the name TaskDirectory declares, so Loader
// satisfies that interface directly.
func (l *Loader) Iterate(yield func(name string, factory TaskFactory) bool) {
	l.EachTask(yield)
}

// RegisterTest adds a test factory under the dotted name of the task
// it exercises.
func (l *Loader) RegisterTest(taskName string, factory TestFactory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tests[taskName] = append(l.tests[taskName], factory)
}

// Tests returns the test factories registered against taskName, if any.
func (l *Loader) Tests(taskName string) ([]TestFactory, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !containsKey(l.tasks, taskName) {
		return nil, &TaskNotFoundError{Name: taskName}
	}
	return l.tests[taskName], nil
}

func containsKey(m map[string]TaskFactory, key string) bool {
	_, ok := m[key]
	return ok
}

// PackageProxy is a small chainable accessor over a dotted task
// namespace, giving proxy.Pkg("fs").Pkg("write").Call(ctx, path, content)
// as the Go equivalent of pitcrew's dynamic attribute dispatch
// (self.fs.write(...)).
type PackageProxy struct {
	cc     pkgcontext.Context
	loader *Loader
	prefix string
	logger task.Logger
}

// NewPackageProxy constructs the root proxy for cc against loader.
// logger may be nil, defaulting to task.NoopLogger.
func NewPackageProxy(cc pkgcontext.Context, loader *Loader, logger task.Logger) *PackageProxy {
	if logger == nil {
		logger = task.NoopLogger
	}
	return &PackageProxy{cc: cc, loader: loader, logger: logger}
}

// Pkg extends the dotted prefix by name, returning a child proxy.
func (p *PackageProxy) Pkg(name string) *PackageProxy {
	next := name
	if p.prefix != "" {
		next = p.prefix + "." + name
	}
	return &PackageProxy{cc: p.cc, loader: p.loader, prefix: next, logger: p.logger}
}

// Call resolves the proxy's accumulated dotted name as a task and
// invokes it with args against the proxy's context.
func (p *PackageProxy) Call(ctx context.Context, args ...any) (any, error) {
	factory, err := p.loader.Resolve(p.prefix)
	if err != nil {
		return nil, err
	}
	return task.Invoke(ctx, p.cc, p.logger, factory(), args...)
}
