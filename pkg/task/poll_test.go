// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testPollInterval = time.Millisecond

func TestPoll_SucceedsImmediately(t *testing.T) {
	t.Parallel()
	ictx := InvocationContext{Context: context.Background()}

	calls := 0
	result, err := Poll(ictx, func() (any, error) {
		calls++
		return "ready", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ready", result)
	require.Equal(t, 1, calls)
}

func TestPoll_RetriesOnAssertionFailureUntilItPasses(t *testing.T) {
	t.Parallel()
	ictx := InvocationContext{Context: context.Background()}

	calls := 0
	result, err := Poll(ictx, func() (any, error) {
		calls++
		if calls < 3 {
			return nil, Assertf("not ready yet")
		}
		return "ready", nil
	}, WithPollInterval(testPollInterval))

	require.NoError(t, err)
	require.Equal(t, "ready", result)
	require.Equal(t, 3, calls)
}

func TestPoll_NonAssertionErrorAbortsImmediately(t *testing.T) {
	t.Parallel()
	ictx := InvocationContext{Context: context.Background()}

	calls := 0
	wantErr := errors.New("boom")
	_, err := Poll(ictx, func() (any, error) {
		calls++
		return nil, wantErr
	})

	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 1, calls)
}

func TestPoll_StopsWhenContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ictx := InvocationContext{Context: ctx}

	_, err := Poll(ictx, func() (any, error) {
		return nil, Assertf("never ready")
	})

	require.Error(t, err)
}
