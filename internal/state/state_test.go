// SPDX-License-Identifier: MPL-2.0

package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFile_StartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	s, err := Open(path)
	require.NoError(t, err)
	_, ok := s.Get("key")
	require.False(t, ok)
}

func TestSetSaveOpen_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	s, err := Open(path)
	require.NoError(t, err)

	s.Set("last_deploy", "2026-07-30")
	require.NoError(t, s.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get("last_deploy")
	require.True(t, ok)
	require.Equal(t, "2026-07-30", v)
}

func TestDelete_RemovesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.toml")
	s, err := Open(path)
	require.NoError(t, err)

	s.Set("k", "v")
	s.Delete("k")
	_, ok := s.Get("k")
	require.False(t, ok)
}
