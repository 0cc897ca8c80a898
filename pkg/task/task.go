// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
)

// Descriptor describes a task: its dotted name, human description,
// declared arguments, an optional semantic return type annotation, the
// memoize flag, and the NoDoc flag. Associated tests belong to the
// external TaskDirectory collaborator rather than the task itself.
type Descriptor struct {
	Name        string
	Description string
	Args        []ArgDecl
	// Returns names the semantic type Run/Verify must produce ("string",
	// "int", "bool", "float", "bytes", or "" for no enforcement).
	Returns string
	// Memoize caches the first successful result per context and
	// returns it on every later invocation in that context.
	Memoize bool
	// NoDoc excludes this task from generated documentation. The core
	// never reads this field itself; it exists for the external docs
	// collaborator.
	NoDoc bool
}

// InvocationContext bundles the cancellation context with the execution
// context a task runs against.
type InvocationContext struct {
	context.Context
	CC pkgcontext.Context
}

// Task is a named unit of work bound to exactly one context for the
// duration of one invocation. Run is mandatory; a task additionally
// implementing Verifier opts into the verify-run-verify lifecycle via
// a plain type assertion — no decorator stacking.
type Task interface {
	Descriptor() Descriptor
	Run(ictx InvocationContext, p Params) (any, error)
}

// Verifier is the optional capability a Task implements to participate
// in test-run-test idempotence discipline.
type Verifier interface {
	Verify(ictx InvocationContext, p Params) (any, error)
}

// Logger receives task invocation lifecycle events. internal/activitylog
// satisfies this structurally without importing pkg/task, keeping the
// dependency direction internal -> pkg.
type Logger interface {
	// OpenTask opens a logging scope for name and returns a function to
	// close it, called with the invocation's terminal error (nil on
	// success).
	OpenTask(name string, params map[string]any) func(err error)
}

type noopLogger struct{}

func (noopLogger) OpenTask(string, map[string]any) func(error) {
	return func(error) {}
}

// NoopLogger discards all task lifecycle events.
var NoopLogger Logger = noopLogger{}

// Invoke runs task against cc with the given positional arguments: a
// memoisation check, a logging scope, the verify/run/re-verify cycle
// (or run-only when task has no Verify), declared return-type
// enforcement, and cache insertion on memoised success.
func Invoke(ctx context.Context, cc pkgcontext.Context, logger Logger, t Task, positional ...any) (any, error) {
	desc := t.Descriptor()
	taskType := reflect.TypeOf(t)

	params, err := Bind(desc.Args, positional, nil)
	if err != nil {
		return nil, err
	}

	if desc.Memoize {
		if cached, ok := cc.Memo().Get(taskType); ok {
			return cached, nil
		}
	}

	if logger == nil {
		logger = NoopLogger
	}
	closeScope := logger.OpenTask(desc.Name, params.Snapshot())

	ictx := InvocationContext{Context: ctx, CC: cc}

	result, err, wrap := runLifecycle(ictx, t, params)
	closeScope(err)
	if err != nil {
		if wrap {
			return nil, &TaskFailureError{TaskName: desc.Name, Cause: err}
		}
		return nil, err
	}

	if desc.Returns != "" {
		if err := enforceReturnType(desc.Returns, result); err != nil {
			return nil, err
		}
	}

	if desc.Memoize {
		cc.Memo().Set(taskType, result)
	}
	return result, nil
}

// runLifecycle implements the verify/run/re-verify or run-only dispatch,
// separated from Invoke so it can be unit-tested without a Logger/Memo.
// The returned bool reports whether Invoke should wrap a non-nil error in
// a *TaskFailureError: only a run-only task's Run failure and a
// still-failing post-run re-verify count as task failure proper, per
// spec §4.6(3c) — an initial Verify's non-assertion error and the
// interior Run call's error propagate unchanged.
func runLifecycle(ictx InvocationContext, t Task, params Params) (any, error, bool) {
	verifier, ok := t.(Verifier)
	if !ok {
		result, err := t.Run(ictx, params)
		return result, err, err != nil
	}

	result, err := verifier.Verify(ictx, params)
	var assertErr *AssertionError
	if err == nil {
		return result, nil, false
	}
	if !errors.As(err, &assertErr) {
		return nil, err, false
	}

	if _, err := t.Run(ictx, params); err != nil {
		return nil, err, false
	}

	result, err = verifier.Verify(ictx, params)
	if err != nil {
		return nil, err, true
	}
	return result, nil, false
}

func enforceReturnType(wanted string, got any) error {
	if got == nil {
		return &ReturnTypeMismatchError{Wanted: wanted, Got: "nil"}
	}
	gotKind := reflect.TypeOf(got).Kind().String()
	switch wanted {
	case "string":
		if _, ok := got.(string); ok {
			return nil
		}
	case "int":
		if _, ok := got.(int); ok {
			return nil
		}
	case "bool":
		if _, ok := got.(bool); ok {
			return nil
		}
	case "float":
		if _, ok := got.(float64); ok {
			return nil
		}
	case "bytes":
		if _, ok := got.([]byte); ok {
			return nil
		}
	case "any":
		return nil
	default:
		return fmt.Errorf("task: unknown return type annotation %q", wanted)
	}
	return &ReturnTypeMismatchError{Wanted: wanted, Got: gotKind}
}
