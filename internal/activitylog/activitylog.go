// SPDX-License-Identifier: MPL-2.0

// Package activitylog renders the hierarchical, coloured, indented
// activity log of task/copy/test/shell scopes opened during an
// invocation, pairing every scope transition with a log/slog record at
// debug level so the human-readable layer never drifts from the
// structured one.
package activitylog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions, same construction pattern as the CLI's own style
// constants, with a palette per scope kind instead of per message kind.
var (
	colorTask    = lipgloss.Color("#3B82F6")
	colorCopy    = lipgloss.Color("#F59E0B")
	colorTest    = lipgloss.Color("#7C3AED")
	colorShell   = lipgloss.Color("#9CA3AF")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")

	taskStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorTask)
	copyStyle    = lipgloss.NewStyle().Foreground(colorCopy)
	testStyle    = lipgloss.NewStyle().Foreground(colorTest)
	shellStyle   = lipgloss.NewStyle().Foreground(colorShell)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
)

const truncateLimit = 100

// truncate cuts s to truncateLimit bytes and appends "…" when it is longer.
func truncate(s string) string {
	if len(s) <= truncateLimit {
		return s
	}
	return s[:truncateLimit] + "…"
}

// kind identifies what a Scope represents, driving its colour and glyph.
type kind int

const (
	kindTask kind = iota
	kindCopy
	kindTest
)

// Logger is the hierarchical console/slog renderer. The zero value has
// no writer and no slog logger and cannot be used; construct one with
// New (explicit writer, as in tests) or take the shared one from Global.
type Logger struct {
	mu     sync.Mutex
	stack  []string
	out    io.Writer
	slogAt *slog.Logger
}

// New constructs a Logger writing human output to out and pairing every
// scope event with a slog record via slogAt (nil uses slog.Default()).
func New(out io.Writer, slogAt *slog.Logger) *Logger {
	if slogAt == nil {
		slogAt = slog.Default()
	}
	return &Logger{out: out, slogAt: slogAt}
}

var (
	globalOnce sync.Once
	global     *Logger
)

// Global returns the process-wide singleton logger, writing to stderr.
func Global() *Logger {
	globalOnce.Do(func() {
		global = New(os.Stderr, nil)
	})
	return global
}

// Scope is a handle to one open log entry; Close pops it off the stack
// and writes the finish line with elapsed duration and outcome glyph.
type Scope struct {
	logger *Logger
	kind   kind
	label  string
	depth  int
	start  time.Time
}

func (l *Logger) open(k kind, style lipgloss.Style, label string) *Scope {
	l.mu.Lock()
	depth := len(l.stack)
	l.stack = append(l.stack, label)
	l.mu.Unlock()

	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(l.out, "%s%s\n", indent, style.Render(label))
	l.slogAt.Debug("scope opened", "kind", kindName(k), "label", label, "depth", depth)

	return &Scope{logger: l, kind: k, label: label, depth: depth, start: time.Now()}
}

// Close pops s off the stack and renders the finish line. err nil means
// success (green check); non-nil means failure (red cross).
func (s *Scope) Close(err error) {
	elapsed := time.Since(s.start)

	s.logger.mu.Lock()
	if n := len(s.logger.stack); n > 0 {
		s.logger.stack = s.logger.stack[:n-1]
	}
	s.logger.mu.Unlock()

	indent := strings.Repeat("  ", s.depth)
	glyph, style := "✓", successStyle
	if err != nil {
		glyph, style = "✗", errorStyle
	}
	fmt.Fprintf(s.logger.out, "%s%s %s (%s)\n", indent, style.Render(glyph), s.label, elapsed.Round(time.Millisecond))

	level := slog.LevelDebug
	attrs := []any{"kind", kindName(s.kind), "label", s.label, "depth", s.depth, "elapsed", elapsed}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, "error", err)
	}
	s.logger.slogAt.Log(context.Background(), level, "scope closed", attrs...)
}

func kindName(k kind) string {
	switch k {
	case kindTask:
		return "task"
	case kindCopy:
		return "copy"
	case kindTest:
		return "test"
	default:
		return "unknown"
	}
}

// OpenTask opens a scope for a task invocation, rendering its name and a
// truncated view of its bound parameters, and returns a closer taking
// the invocation's terminal error. This satisfies pkg/task.Logger
// structurally, so *Logger can be passed directly to task.Invoke without
// pkg/task importing this package.
func (l *Logger) OpenTask(name string, params map[string]any) func(error) {
	label := fmt.Sprintf("task %s %s", name, truncate(formatParams(params)))
	scope := l.open(kindTask, taskStyle, strings.TrimSpace(label))
	return scope.Close
}

// OpenCopy opens a scope for a cross-context file copy.
func (l *Logger) OpenCopy(srcDescriptor, srcPath, dstDescriptor, dstPath string) *Scope {
	label := fmt.Sprintf("copy %s:%s -> %s:%s", srcDescriptor, srcPath, dstDescriptor, dstPath)
	return l.open(kindCopy, copyStyle, truncate(label))
}

// OpenTest opens a scope for one test associated with a task.
func (l *Logger) OpenTest(taskName, testName string) *Scope {
	label := fmt.Sprintf("test %s::%s", taskName, testName)
	return l.open(kindTest, testStyle, truncate(label))
}

// ShellStart records a command about to run against a context,
// truncating to the same 100-character limit as task params.
func (l *Logger) ShellStart(descriptor, command string) {
	l.mu.Lock()
	depth := len(l.stack)
	l.mu.Unlock()
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(l.out, "%s%s\n", indent, shellStyle.Render(fmt.Sprintf("$ [%s] %s", descriptor, truncate(command))))
	l.slogAt.Debug("shell start", "descriptor", descriptor, "command", truncate(command))
}

// ShellStop records a finished command's exit code and captured output.
func (l *Logger) ShellStop(code int, stdout, stderr []byte) {
	l.mu.Lock()
	depth := len(l.stack)
	l.mu.Unlock()
	indent := strings.Repeat("  ", depth)
	style := successStyle
	if code != 0 {
		style = errorStyle
	}
	fmt.Fprintf(l.out, "%s%s\n", indent, style.Render(fmt.Sprintf("-> exit %d", code)))
	l.slogAt.Debug("shell stop", "code", code,
		"stdout", truncate(string(stdout)), "stderr", truncate(string(stderr)))
}

func formatParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for k, v := range params {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}
