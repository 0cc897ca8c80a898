// SPDX-License-Identifier: MPL-2.0

package context

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocal_IsSingleton(t *testing.T) {
	t.Parallel()
	require.Same(t, NewLocal(), NewLocal())
}

func TestLocal_Sh_ReturnsStdout(t *testing.T) {
	l := NewLocal()
	out, err := l.Sh(context.Background(), "echo -n hello", ShOpts{})
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestLocal_Sh_FailsOnNonZeroExit(t *testing.T) {
	l := NewLocal()
	_, err := l.Sh(context.Background(), "exit 3", ShOpts{})
	require.Error(t, err)

	var cmdErr *CommandFailedError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 3, cmdErr.Code)
}

func TestLocal_ShOk(t *testing.T) {
	l := NewLocal()
	ok, err := l.ShOk(context.Background(), "true", ShOpts{})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.ShOk(context.Background(), "false", ShOpts{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocal_Cd_PrefixesCommandWithDirectory(t *testing.T) {
	l := NewLocal()
	restore := l.Cd("/tmp")
	defer restore()

	out, err := l.Sh(context.Background(), "pwd", ShOpts{})
	require.NoError(t, err)
	require.Equal(t, "/tmp\n", out)
}

func TestLocal_Env_OverlaysOntoInherited(t *testing.T) {
	l := NewLocal()
	out, err := l.Sh(context.Background(), "echo -n $CREWCTL_TEST_VAR", ShOpts{
		Env: map[string]string{"CREWCTL_TEST_VAR": "set-by-opts"},
	})
	require.NoError(t, err)
	require.Equal(t, "set-by-opts", out)
}

func TestLocal_ResolvePath_ExpandsTilde(t *testing.T) {
	l := NewLocal()
	resolved, err := l.ResolvePath("~/foo")
	require.NoError(t, err)
	require.NotEqual(t, "~/foo", resolved)
	require.Contains(t, resolved, "foo")
}

func TestLocal_Descriptor(t *testing.T) {
	l := NewLocal()
	require.Contains(t, l.Descriptor(), "@local")
}

func TestLocal_Invoke_RunsFuncWithContext(t *testing.T) {
	l := NewLocal()
	result, err := l.Invoke(context.Background(), func(ctx context.Context, c Context) (any, error) {
		return c.Descriptor(), nil
	})
	require.NoError(t, err)
	require.Equal(t, l.Descriptor(), result)
}

func TestLocal_RunAll_CollectsFirstError(t *testing.T) {
	l := NewLocal()
	err := l.RunAll(context.Background(),
		func(context.Context) error { return nil },
		func(context.Context) error { return errBoom },
	)
	require.ErrorIs(t, err, errBoom)
}

var errBoom = errors.New("boom")
