// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in the
// status line.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status line message once it has been
// visible for logRecordFadeDelay. Serial identifies the message it
// belongs to so a newer message is not cleared early.
type logRecordFadeMsg struct {
	Serial int
}

// logRecordFadeDelay is how long a log message replaces the record
// count in the status line.
const logRecordFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that routes the collector's own log
// records into the running dashboard. Records below the configured
// level are dropped, as are all records before SetProgram is called.
//
// Handlers derived via WithAttrs/WithGroup share the program pointer,
// so one SetProgram call reaches all of them.
type LogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

// NewLogHandler creates a handler delivering records at or above level.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram attaches the program that receives log messages. Passing
// nil detaches it; later records are dropped.
func (handler *LogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

// Enabled reports whether records at level are delivered.
func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record and sends it to the program.
func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}

	message := logRecordMsg{Summary: handler.summarize(record), Level: record.Level}
	// Send blocks until the event loop accepts the message, and Handle
	// may run inside Update.
	go program.Send(message)
	return nil
}

// summarize renders "message (key=value, ...)", handler attrs first.
func (handler *LogHandler) summarize(record slog.Record) string {
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}

	var parts []string
	for _, attr := range handler.attrs {
		parts = append(parts, formatAttr("", attr))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, formatAttr(prefix, attr))
		return true
	})

	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

// WithAttrs returns a handler with attrs appended. Group prefixes are
// applied to the attrs at the time they are added.
func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := sliceClone(handler.attrs)
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	for _, attr := range attrs {
		prefixed = append(prefixed, slog.Attr{Key: prefix + attr.Key, Value: attr.Value})
	}
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   prefixed,
		groups:  sliceClone(handler.groups),
	}
}

// WithGroup returns a handler that qualifies later attrs with name.
func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   sliceClone(handler.attrs),
		groups:  append(sliceClone(handler.groups), name),
	}
}

func formatAttr(prefix string, attr slog.Attr) string {
	return fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value.Resolve())
}

// sliceClone returns a shallow copy so derived handlers never share a
// backing array.
func sliceClone[T any](source []T) []T {
	if source == nil {
		return nil
	}
	result := make([]T, len(source))
	copy(result, source)
	return result
}
