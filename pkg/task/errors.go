// SPDX-License-Identifier: MPL-2.0

package task

import (
	"errors"
	"fmt"
)

// ErrMissingArgument is the sentinel wrapped by MissingArgumentError.
var ErrMissingArgument = errors.New("missing required argument")

// MissingArgumentError is returned by Bind when a required ArgDecl has no
// positional, keyword, or default value.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument %q", e.Name)
}

// Unwrap returns ErrMissingArgument for errors.Is compatibility.
func (e *MissingArgumentError) Unwrap() error { return ErrMissingArgument }

// ErrUnexpectedArgument is the sentinel wrapped by UnexpectedArgumentError.
var ErrUnexpectedArgument = errors.New("unexpected argument")

// UnexpectedArgumentError is returned by Bind when extra positional or
// keyword values are supplied beyond what's declared.
type UnexpectedArgumentError struct {
	Name  string
	Index int
}

func (e *UnexpectedArgumentError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unexpected keyword argument %q", e.Name)
	}
	return fmt.Sprintf("unexpected positional argument at index %d", e.Index)
}

// Unwrap returns ErrUnexpectedArgument for errors.Is compatibility.
func (e *UnexpectedArgumentError) Unwrap() error { return ErrUnexpectedArgument }

// ErrArgumentTypeMismatch is the sentinel wrapped by ArgumentTypeMismatchError.
var ErrArgumentTypeMismatch = errors.New("argument type mismatch")

// ArgumentTypeMismatchError is returned by Bind/Process when a supplied
// value cannot be coerced to the declared ArgType.
type ArgumentTypeMismatchError struct {
	Name   string
	Wanted ArgType
	Got    any
}

func (e *ArgumentTypeMismatchError) Error() string {
	return fmt.Sprintf("argument %q: wanted %s, got %T (%v)", e.Name, e.Wanted, e.Got, e.Got)
}

// Unwrap returns ErrArgumentTypeMismatch for errors.Is compatibility.
func (e *ArgumentTypeMismatchError) Unwrap() error { return ErrArgumentTypeMismatch }

// ErrReservedArgumentName is the sentinel wrapped by ReservedArgumentNameError.
var ErrReservedArgumentName = errors.New("reserved argument name")

// ReservedArgumentNameError is returned when a task declares an argument
// named "env", reserved for the per-invocation environment overlay.
type ReservedArgumentNameError struct {
	Name string
}

func (e *ReservedArgumentNameError) Error() string {
	return fmt.Sprintf("argument name %q is reserved", e.Name)
}

// Unwrap returns ErrReservedArgumentName for errors.Is compatibility.
func (e *ReservedArgumentNameError) Unwrap() error { return ErrReservedArgumentName }

// ErrAssertion is the sentinel wrapped by AssertionError.
var ErrAssertion = errors.New("assertion failed")

// AssertionError is the one error kind verify is allowed to recover from:
// a failed precondition the caller can retry after running the task body.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

// Unwrap returns ErrAssertion for errors.Is compatibility.
func (e *AssertionError) Unwrap() error { return ErrAssertion }

// Assertf constructs an *AssertionError with a formatted message, the Go
// equivalent of pitcrew's bare `assert` statements inside verify.
func Assertf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// ErrTaskFailure is the sentinel wrapped by TaskFailureError.
var ErrTaskFailure = errors.New("task failed")

// TaskFailureError wraps the Run error of a task without Verify, or the
// error of the Verify that still fails after Run, annotated with the
// task's name for executor outcome reporting. An error from the first
// Verify is not wrapped.
type TaskFailureError struct {
	TaskName string
	Cause    error
}

func (e *TaskFailureError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.TaskName, e.Cause)
}

// Unwrap returns the underlying cause, then ErrTaskFailure, for
// errors.Is/errors.As compatibility.
func (e *TaskFailureError) Unwrap() []error { return []error{e.Cause, ErrTaskFailure} }

// ErrReturnTypeMismatch is the sentinel wrapped by ReturnTypeMismatchError.
var ErrReturnTypeMismatch = errors.New("return type mismatch")

// ReturnTypeMismatchError is returned when a task's declared return
// descriptor doesn't match the value Run/Verify actually produced.
type ReturnTypeMismatchError struct {
	Wanted string
	Got    string
}

func (e *ReturnTypeMismatchError) Error() string {
	return fmt.Sprintf("return type mismatch: wanted %s, got %s", e.Wanted, e.Got)
}

// Unwrap returns ErrReturnTypeMismatch for errors.Is compatibility.
func (e *ReturnTypeMismatchError) Unwrap() error { return ErrReturnTypeMismatch }
