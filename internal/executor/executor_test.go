// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"testing"

	"github.com/invowk/crewctl/internal/provider"
	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/invowk/crewctl/pkg/task"
	"github.com/stretchr/testify/require"
)

type echoTask struct {
	desc task.Descriptor
}

func (e *echoTask) Descriptor() task.Descriptor { return e.desc }

func (e *echoTask) Run(ictx task.InvocationContext, p task.Params) (any, error) {
	return ictx.CC.Descriptor(), nil
}

func TestExecutor_RunTask_OverLocalProvider_OnePassedOutcome(t *testing.T) {
	ex := New(provider.NewLocalProvider(), 10)
	results, err := ex.RunTask(context.Background(), task.NoopLogger, &echoTask{desc: task.Descriptor{Name: "echo"}})
	require.NoError(t, err)
	require.Len(t, results.Passed, 1)
	require.Empty(t, results.Failed)
	require.Empty(t, results.Errored)
	require.Contains(t, results.Passed[0].ContextDescriptor, "@local")
}

type failingTask struct {
	desc task.Descriptor
	err  error
}

func (f *failingTask) Descriptor() task.Descriptor { return f.desc }
func (f *failingTask) Run(task.InvocationContext, task.Params) (any, error) {
	return nil, f.err
}

func TestExecutor_RunTask_NonAssertionFailure_BucketsAsErrored(t *testing.T) {
	boom := errUnrelated{}
	ex := New(provider.NewLocalProvider(), 10)
	results, err := ex.RunTask(context.Background(), task.NoopLogger, &failingTask{desc: task.Descriptor{Name: "boom"}, err: boom})
	require.NoError(t, err)
	require.Empty(t, results.Passed)
	require.Empty(t, results.Failed)
	require.Len(t, results.Errored, 1)
}

func TestExecutor_RunTask_AssertionFailure_BucketsAsFailed(t *testing.T) {
	ex := New(provider.NewLocalProvider(), 10)
	results, err := ex.RunTask(context.Background(), task.NoopLogger, &failingTask{
		desc: task.Descriptor{Name: "not-converged"},
		err:  task.Assertf("precondition not met"),
	})
	require.NoError(t, err)
	require.Empty(t, results.Passed)
	require.Len(t, results.Failed, 1)
	require.Empty(t, results.Errored)
}

func TestExecutor_Invoke_AdHocFunc_OverDockerProvider(t *testing.T) {
	ex := New(provider.NewDockerProvider("c1", "c2"), 10)
	results, err := ex.Invoke(context.Background(), func(_ context.Context, c pkgcontext.Context) (any, error) {
		return c.Descriptor(), nil
	})
	require.NoError(t, err)
	require.Len(t, results.Passed, 2)
}

type errUnrelated struct{}

func (errUnrelated) Error() string { return "unrelated failure" }
