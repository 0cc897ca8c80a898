// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"testing"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	desc    Descriptor
	runN    int
	runFn   func(ictx InvocationContext, p Params) (any, error)
	verifyN int
	verifyFn func(ictx InvocationContext, p Params) (any, error)
}

func (f *fakeTask) Descriptor() Descriptor { return f.desc }

func (f *fakeTask) Run(ictx InvocationContext, p Params) (any, error) {
	f.runN++
	if f.runFn != nil {
		return f.runFn(ictx, p)
	}
	return nil, nil
}

type fakeVerifiedTask struct {
	fakeTask
}

func (f *fakeVerifiedTask) Verify(ictx InvocationContext, p Params) (any, error) {
	f.verifyN++
	if f.verifyFn != nil {
		return f.verifyFn(ictx, p)
	}
	return nil, nil
}

func TestInvoke_RunOnly_NoVerifier(t *testing.T) {
	ft := &fakeTask{
		desc: Descriptor{Name: "plain"},
		runFn: func(InvocationContext, Params) (any, error) {
			return "ok", nil
		},
	}
	cc := pkgcontext.NewLocal()
	result, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 1, ft.runN)
}

func TestInvoke_VerifyPassesImmediately_NeverRuns(t *testing.T) {
	ft := &fakeVerifiedTask{fakeTask: fakeTask{desc: Descriptor{Name: "idempotent"}}}
	ft.verifyFn = func(InvocationContext, Params) (any, error) {
		return "already-done", nil
	}
	cc := pkgcontext.NewLocal()
	result, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.NoError(t, err)
	require.Equal(t, "already-done", result)
	require.Equal(t, 0, ft.runN)
	require.Equal(t, 1, ft.verifyN)
}

func TestInvoke_VerifyFailsThenRunThenReverify(t *testing.T) {
	ft := &fakeVerifiedTask{fakeTask: fakeTask{desc: Descriptor{Name: "converges"}}}
	ft.verifyFn = func(InvocationContext, Params) (any, error) {
		if ft.runN == 0 {
			return nil, Assertf("not yet converged")
		}
		return "converged", nil
	}
	cc := pkgcontext.NewLocal()
	result, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.NoError(t, err)
	require.Equal(t, "converged", result)
	require.Equal(t, 1, ft.runN)
	require.Equal(t, 2, ft.verifyN)
}

func TestInvoke_VerifyNonAssertionError_PropagatesWithoutRunning(t *testing.T) {
	boom := errors.New("boom")
	ft := &fakeVerifiedTask{fakeTask: fakeTask{desc: Descriptor{Name: "broken"}}}
	ft.verifyFn = func(InvocationContext, Params) (any, error) {
		return nil, boom
	}
	cc := pkgcontext.NewLocal()
	_, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, ft.runN)
}

func TestInvoke_MemoizedTask_RunsOnceAcrossInvocations(t *testing.T) {
	ft := &fakeTask{
		desc: Descriptor{Name: "cached", Memoize: true},
		runFn: func(InvocationContext, Params) (any, error) {
			return "computed", nil
		},
	}
	cc := pkgcontext.NewLocal()
	r1, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.NoError(t, err)
	r2, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.NoError(t, err)
	require.Equal(t, r1, r2)
	require.Equal(t, 1, ft.runN)
}

func TestInvoke_ReturnTypeMismatch_Errors(t *testing.T) {
	ft := &fakeTask{
		desc: Descriptor{Name: "wrong-return", Returns: "int"},
		runFn: func(InvocationContext, Params) (any, error) {
			return "not an int", nil
		},
	}
	cc := pkgcontext.NewLocal()
	_, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.Error(t, err)
	var mismatch *ReturnTypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestInvoke_BindError_Propagates(t *testing.T) {
	ft := &fakeTask{
		desc: Descriptor{
			Name: "needs-arg",
			Args: []ArgDecl{NewArg("path", TypeString).Required().Done()},
		},
	}
	cc := pkgcontext.NewLocal()
	_, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.Error(t, err)
	var missing *MissingArgumentError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, 0, ft.runN)
}

func TestInvoke_RunFailure_WrapsAsTaskFailure(t *testing.T) {
	boom := errors.New("disk full")
	ft := &fakeTask{
		desc: Descriptor{Name: "fails"},
		runFn: func(InvocationContext, Params) (any, error) {
			return nil, boom
		},
	}
	cc := pkgcontext.NewLocal()
	_, err := Invoke(context.Background(), cc, NoopLogger, ft)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	var failure *TaskFailureError
	require.ErrorAs(t, err, &failure)
	require.Equal(t, "fails", failure.TaskName)
}

func TestInvoke_PassesBoundParamsToRun(t *testing.T) {
	ft := &fakeTask{
		desc: Descriptor{
			Name: "greet",
			Args: []ArgDecl{NewArg("name", TypeString).Required().Done()},
		},
	}
	ft.runFn = func(_ InvocationContext, p Params) (any, error) {
		return "hello " + p.Get("name").(string), nil
	}
	cc := pkgcontext.NewLocal()
	result, err := Invoke(context.Background(), cc, NoopLogger, ft, "world")
	require.NoError(t, err)
	require.Equal(t, "hello world", result)
}
