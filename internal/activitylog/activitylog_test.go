// SPDX-License-Identifier: MPL-2.0

package activitylog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&bytes.Buffer{}, nil)
	return New(&buf, slog.New(handler)), &buf
}

func TestOpenTask_WritesOpenAndCloseLines(t *testing.T) {
	l, buf := newTestLogger()
	close := l.OpenTask("deploy.staging", map[string]any{"env": "staging"})
	close(nil)

	out := buf.String()
	require.Contains(t, out, "task deploy.staging")
	require.Contains(t, out, "✓")
}

func TestOpenTask_FailureRendersErrorGlyph(t *testing.T) {
	l, buf := newTestLogger()
	close := l.OpenTask("deploy.staging", nil)
	close(errors.New("boom"))

	require.Contains(t, buf.String(), "✗")
}

func TestNestedScopes_IndentByDepth(t *testing.T) {
	l, buf := newTestLogger()
	outer := l.OpenTask("outer", nil)
	inner := l.OpenTask("inner", nil)
	inner(nil)
	outer(nil)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	require.True(t, strings.HasPrefix(lines[1], "  "), "inner open line should be indented: %q", lines[1])
}

func TestOpenCopy_RendersBothEndpoints(t *testing.T) {
	l, buf := newTestLogger()
	scope := l.OpenCopy("local@me", "/src", "ssh:me@host", "/dst")
	scope.Close(nil)

	require.Contains(t, buf.String(), "local@me:/src -> ssh:me@host:/dst")
}

func TestOpenTest_RendersTaskAndTestName(t *testing.T) {
	l, buf := newTestLogger()
	scope := l.OpenTest("deploy.staging", "smoke")
	scope.Close(nil)

	require.Contains(t, buf.String(), "deploy.staging::smoke")
}

func TestShellStartStop_RendersCommandAndExitCode(t *testing.T) {
	l, buf := newTestLogger()
	l.ShellStart("local@me", "echo hi")
	l.ShellStop(0, []byte("hi\n"), nil)

	out := buf.String()
	require.Contains(t, out, "echo hi")
	require.Contains(t, out, "exit 0")
}

func TestTruncate_CapsAtLimit(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := truncate(long)
	require.Less(t, len(got), len(long))
	require.True(t, strings.HasSuffix(got, "…"))
}

func TestGlobal_IsSingleton(t *testing.T) {
	require.Same(t, Global(), Global())
}
