// SPDX-License-Identifier: MPL-2.0

package context

import (
	"errors"
	"fmt"
)

// ErrCommandFailed is the sentinel wrapped by CommandFailedError.
var ErrCommandFailed = errors.New("command failed")

// CommandFailedError is returned by Sh when a command exits non-zero.
// It is the Go equivalent of pitcrew's sh() assertion failure.
type CommandFailedError struct {
	Command string
	Code    int
	Stdout  []byte
	Stderr  []byte
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("expected exit code of 0, got %d when running\nCOMMAND: %s\nOUT: %s\nERR: %s",
		e.Code, e.Command, e.Stdout, e.Stderr)
}

// Unwrap returns ErrCommandFailed for errors.Is compatibility.
func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }

// ErrConnectionFailed is the sentinel wrapped by ConnectionFailedError.
var ErrConnectionFailed = errors.New("connection failed")

// ConnectionFailedError is returned when a context fails to establish its
// backing connection (SSH dial, tunnel hop, container lookup).
type ConnectionFailedError struct {
	Descriptor string
	Reason     error
}

func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Descriptor, e.Reason)
}

// Unwrap returns ErrConnectionFailed for errors.Is compatibility.
func (e *ConnectionFailedError) Unwrap() error { return ErrConnectionFailed }

// ErrConnectionLost is the sentinel wrapped by ConnectionLostError.
var ErrConnectionLost = errors.New("connection lost")

// ConnectionLostError is returned when a previously-acquired connection is
// no longer usable (dropped tunnel, closed SSH client).
type ConnectionLostError struct {
	Descriptor string
	Reason     error
}

func (e *ConnectionLostError) Error() string {
	return fmt.Sprintf("connection to %s lost: %v", e.Descriptor, e.Reason)
}

// Unwrap returns ErrConnectionLost for errors.Is compatibility.
func (e *ConnectionLostError) Unwrap() error { return ErrConnectionLost }
