// SPDX-License-Identifier: MPL-2.0

// Package template renders text/template sources into unique temporary
// files (or in-memory bytes) for tasks that need to stage a rendered
// artifact before copying it onto a target context.
package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/google/uuid"

	"github.com/invowk/crewctl/pkg/fileref"
)

// Template renders a named text/template source from sourceDir.
type Template struct {
	Name      string
	sourceDir string
}

// New constructs a Template for name, a file relative to sourceDir.
func New(name, sourceDir string) *Template {
	return &Template{Name: name, sourceDir: sourceDir}
}

func (t *Template) parse() (*template.Template, error) {
	path := filepath.Join(t.sourceDir, t.Name)
	tmpl, err := template.New(filepath.Base(path)).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("template: parsing %s: %w", path, err)
	}
	return tmpl, nil
}

// RenderAsBytes executes the template against vars and returns the
// rendered output without touching disk.
func (t *Template) RenderAsBytes(vars map[string]any) ([]byte, error) {
	tmpl, err := t.parse()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("template: rendering %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// Render executes the template against vars, writes the result to a
// uuid-suffixed file under tempDir, and returns a Local FileRef to it.
func (t *Template) Render(tempDir string, local fileref.LocalHost, vars map[string]any) (fileref.FileRef, error) {
	rendered, err := t.RenderAsBytes(vars)
	if err != nil {
		return fileref.FileRef{}, err
	}

	outName := fmt.Sprintf("%s-%s", filepath.Base(t.Name), uuid.NewString())
	outPath := filepath.Join(tempDir, outName)
	if err := os.WriteFile(outPath, rendered, 0o644); err != nil {
		return fileref.FileRef{}, fmt.Errorf("template: writing rendered %s: %w", t.Name, err)
	}

	return fileref.FileRef{Backend: local, Path: outPath}, nil
}

// NewTempDir creates a process-wide scratch directory for rendered
// templates and returns it along with a best-effort cleanup function,
// a Result{..., Cleanup} composition-root shape.
func NewTempDir() (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "crewctl-templates-*")
	if err != nil {
		return "", func() {}, fmt.Errorf("template: creating temp dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
