// SPDX-License-Identifier: MPL-2.0

package context

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEsc_PassesThroughSafeWords(t *testing.T) {
	t.Parallel()
	require.Equal(t, "hello", Esc("hello"))
	require.Equal(t, "/usr/bin/foo", Esc("/usr/bin/foo"))
}

func TestEsc_QuotesUnsafeText(t *testing.T) {
	t.Parallel()
	require.Equal(t, "''", Esc(""))
	require.Equal(t, "'hello world'", Esc("hello world"))
	require.Equal(t, `'it'"'"'s'`, Esc("it's"))
	require.Equal(t, "'$(rm -rf /)'", Esc("$(rm -rf /)"))
}

func TestCdRestore_RelativeJoinsOntoCurrent(t *testing.T) {
	t.Parallel()
	b := &base{directory: "/srv/app"}
	restore := cdRestore(b, "logs")
	require.Equal(t, "/srv/app/logs", b.directory)
	restore()
	require.Equal(t, "/srv/app", b.directory)
}

func TestCdRestore_AbsoluteReplaces(t *testing.T) {
	t.Parallel()
	b := &base{directory: "/srv/app"}
	restore := cdRestore(b, "/tmp")
	require.Equal(t, "/tmp", b.directory)
	restore()
	require.Equal(t, "/srv/app", b.directory)
}

func TestCdRestore_NoCurrentDirectoryDefaultsToDot(t *testing.T) {
	t.Parallel()
	b := &base{}
	restore := cdRestore(b, "logs")
	require.Equal(t, "./logs", b.directory)
	restore()
	require.Equal(t, "", b.directory)
}

func TestUserRestore_SetsAndRestores(t *testing.T) {
	t.Parallel()
	b := &base{user: "alice"}
	restore := userRestore(b, "root")
	require.Equal(t, "root", b.user)
	restore()
	require.Equal(t, "alice", b.user)
}

func TestMemo_GetSet(t *testing.T) {
	t.Parallel()
	var m Memo
	key := reflect.TypeOf(struct{ X int }{})

	_, ok := m.Get(key)
	require.False(t, ok)

	m.Set(key, 42)
	v, ok := m.Get(key)
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestBuildDockerEnvFlags_Empty(t *testing.T) {
	t.Parallel()
	require.Equal(t, "", buildDockerEnvFlags(nil))
}

func TestBuildDockerEnvFlags_EscapesValues(t *testing.T) {
	t.Parallel()
	got := buildDockerEnvFlags(map[string]string{"FOO": "bar baz"})
	require.Equal(t, "-e 'FOO=bar baz' ", got)
}

func TestMergeEnv_OverlaysWithoutMutatingBase(t *testing.T) {
	t.Parallel()
	base := map[string]string{"A": "1", "B": "2"}
	merged := mergeEnv(base, map[string]string{"B": "3", "C": "4"})

	require.Equal(t, map[string]string{"A": "1", "B": "2"}, base)
	require.Equal(t, map[string]string{"A": "1", "B": "3", "C": "4"}, merged)
}
