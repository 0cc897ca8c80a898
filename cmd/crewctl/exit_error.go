// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitError signals a specific process exit code from a RunE handler
// without calling os.Exit directly, so deferred cleanup (App.cleanup,
// Executor.Close) still runs before the process actually exits.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }
