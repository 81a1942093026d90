// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/bureau-foundation/heimdall/lib/config"
	"github.com/bureau-foundation/heimdall/lib/dashboard"
)

// collectorLog is the collector's own logging, split across the
// destinations that exist while it runs.
type collectorLog struct {
	logger *slog.Logger

	// stderr gates the stderr handler. It is closed while the
	// dashboard owns the terminal.
	stderr *gatedHandler

	// dashboard posts warnings and errors to the dashboard status
	// line.
	dashboard *dashboard.LogHandler

	file io.Closer
}

// newCollectorLog builds the logger: stderr (text on a terminal, JSON
// otherwise), the dashboard status line, and the --log-file JSON file
// when configured.
func newCollectorLog(cfg *config.Config, stderr *os.File) (*collectorLog, error) {
	level := cfg.SlogLevel()
	options := &slog.HandlerOptions{Level: level}

	var stderrHandler slog.Handler
	if term.IsTerminal(int(stderr.Fd())) {
		stderrHandler = slog.NewTextHandler(stderr, options)
	} else {
		stderrHandler = slog.NewJSONHandler(stderr, options)
	}

	result := &collectorLog{
		stderr:    newGatedHandler(stderrHandler),
		dashboard: dashboard.NewLogHandler(max(level, slog.LevelWarn)),
	}
	handlers := fanoutHandler{result.stderr, result.dashboard}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		result.file = file
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	result.logger = slog.New(handlers)
	return result, nil
}

// Close closes the log file, if any.
func (l *collectorLog) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// gatedHandler forwards to its handler only while open. Derived
// handlers share the gate.
type gatedHandler struct {
	handler slog.Handler
	open    *atomic.Bool
}

func newGatedHandler(handler slog.Handler) *gatedHandler {
	open := new(atomic.Bool)
	open.Store(true)
	return &gatedHandler{handler: handler, open: open}
}

// SetOpen opens or closes the gate.
func (g *gatedHandler) SetOpen(open bool) {
	g.open.Store(open)
}

func (g *gatedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return g.open.Load() && g.handler.Enabled(ctx, level)
}

func (g *gatedHandler) Handle(ctx context.Context, record slog.Record) error {
	if !g.open.Load() {
		return nil
	}
	return g.handler.Handle(ctx, record)
}

func (g *gatedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &gatedHandler{handler: g.handler.WithAttrs(attrs), open: g.open}
}

func (g *gatedHandler) WithGroup(name string) slog.Handler {
	return &gatedHandler{handler: g.handler.WithGroup(name), open: g.open}
}

// fanoutHandler sends each record to every handler enabled for its
// level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var first error
	for _, handler := range handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
