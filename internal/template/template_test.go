// SPDX-License-Identifier: MPL-2.0

package template

import (
	"os"
	"path/filepath"
	"testing"

	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestRenderAsBytes_SubstitutesVars(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "greeting.tmpl", "hello {{.Name}}")

	tmpl := New("greeting.tmpl", dir)
	out, err := tmpl.RenderAsBytes(map[string]any{"Name": "world"})
	require.NoError(t, err)
	require.Equal(t, "hello world", string(out))
}

func TestRenderAsBytes_MissingSource_Errors(t *testing.T) {
	tmpl := New("nope.tmpl", t.TempDir())
	_, err := tmpl.RenderAsBytes(nil)
	require.Error(t, err)
}

func TestRender_WritesUniquelyNamedFileUnderTempDir(t *testing.T) {
	srcDir := t.TempDir()
	writeSource(t, srcDir, "config.tmpl", "port={{.Port}}")

	outDir, cleanup, err := NewTempDir()
	require.NoError(t, err)
	defer cleanup()

	tmpl := New("config.tmpl", srcDir)
	ref1, err := tmpl.Render(outDir, pkgcontext.NewLocal(), map[string]any{"Port": 8080})
	require.NoError(t, err)
	ref2, err := tmpl.Render(outDir, pkgcontext.NewLocal(), map[string]any{"Port": 9090})
	require.NoError(t, err)

	require.NotEqual(t, ref1.Path, ref2.Path)
	require.FileExists(t, ref1.Path)
	require.FileExists(t, ref2.Path)

	body1, err := os.ReadFile(ref1.Path)
	require.NoError(t, err)
	require.Equal(t, "port=8080", string(body1))
}

func TestNewTempDir_CleanupRemovesDirectory(t *testing.T) {
	dir, cleanup, err := NewTempDir()
	require.NoError(t, err)
	require.DirExists(t, dir)
	cleanup()
	require.NoDirExists(t, dir)
}
