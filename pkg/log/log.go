// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/nondestruct/pkg/history"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent version entries
	nameWidth   = 35 // Base width for version name
	opWidth     = 30 // Width for operation descriptor
	statusWidth = 12 // Width for status text
)

// 🏷️ EventKind says what happened to a version
type EventKind int

const (
	EventAdmitted   EventKind = iota // new version recorded
	EventInspected                   // result recorded without a new file
	EventCheckpoint                  // version recorded with no result
	EventRolledBack                  // every version discarded
	EventFinalized                   // current version written next to the original
)

// String returns a string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventAdmitted:
		return "admitted"
	case EventInspected:
		return "inspected"
	case EventCheckpoint:
		return "checkpoint"
	case EventRolledBack:
		return "rolled back"
	case EventFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// 🎯 VersionEvent is one line of a file's report
type VersionEvent struct {
	Path      string    // Version path
	Operation string    // Operation descriptor, empty for checkpoints
	Kind      EventKind // What happened
	Failed    bool      // Whether the operation reported failure
}

// 📦 FileReport groups the events of one versioned file
type FileReport struct {
	Original string // Original path
	WorkDir  string // Working directory
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	current   *FileReport
	events    []VersionEvent
	finalized int
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatEvent formats a version event for display
func (l *Logger) formatEvent(ev VersionEvent) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case ev.Failed || ev.Kind == EventRolledBack:
		symbol = '✗'
		symbolColor = color.FgRed
	case ev.Kind == EventAdmitted:
		symbol = '✓'
		symbolColor = color.FgGreen
	case ev.Kind == EventFinalized:
		symbol = '→'
		symbolColor = color.FgBlue
	case ev.Kind == EventInspected:
		symbol = '•'
		symbolColor = color.FgCyan
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	op := ev.Operation
	if op == "" {
		op = "-"
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, filepath.Base(ev.Path)),
		color.New(color.FgMagenta).Sprint(fmt.Sprintf("%-*s", opWidth, op)),
		fmt.Sprintf("%-*s", statusWidth, ev.Kind))
}

// 📝 LogEvent logs a version event
func (l *Logger) LogEvent(ctx context.Context, ev VersionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, ev)
	if ev.Kind == EventFinalized {
		l.finalized++
	}

	fmt.Fprintln(l.console, l.formatEvent(ev))

	l.zlog.Info().
		Str("version", ev.Path).
		Str("operation", ev.Operation).
		Str("kind", ev.Kind.String()).
		Bool("failed", ev.Failed).
		Msg("version event")
}

// 📜 LogHistory logs one event per recorded result, in admission order
func (l *Logger) LogHistory(ctx context.Context, original string, h *history.History) {
	for _, v := range h.Versions() {
		results := h.Results(v)
		if len(results) == 0 {
			l.LogEvent(ctx, VersionEvent{Path: v, Kind: EventCheckpoint})
			continue
		}
		for i, res := range results {
			kind := EventAdmitted
			if i > 0 || v == original {
				kind = EventInspected
			}
			l.LogEvent(ctx, VersionEvent{
				Path:      v,
				Operation: res.Operation().String(),
				Kind:      kind,
				Failed:    !res.Success(),
			})
		}
	}
}

// 📝 StartFile starts the report of one versioned file
func (l *Logger) StartFile(ctx context.Context, report FileReport) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &report
	l.events = nil

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(filepath.Base(report.Original)),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(filepath.Dir(report.Original)))

	l.zlog.Info().
		Str("original", report.Original).
		Str("work_dir", report.WorkDir).
		Msg("starting file report")
}

// 📝 EndFile ends the current file report
func (l *Logger) EndFile(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.zlog.Info().
		Str("original", l.current.Original).
		Int("events", len(l.events)).
		Msg("file report complete")

	l.current = nil
	l.events = nil
}

// Finalized returns how many finalize events were logged
func (l *Logger) Finalized() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.finalized
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("nondestruct")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
