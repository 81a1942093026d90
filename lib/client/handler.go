// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/heimdall/lib/logrecord"
)

// LevelKey is the variable that carries the slog level of records sent
// through a Handler.
const LevelKey = "level"

// Handler is a slog.Handler that sends every enabled record to a
// collector through a Logger. Attributes become record variables in
// order; group names qualify keys with dots ("request.id"). The level
// is sent first, as LevelKey.
type Handler struct {
	logger *Logger
	level  slog.Leveler
	vars   []logrecord.Var
	prefix string
}

// NewHandler wraps logger. A nil level means slog.LevelInfo.
func NewHandler(logger *Logger, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{logger: logger, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	vars := make([]logrecord.Var, 0, 1+len(h.vars)+record.NumAttrs())
	vars = append(vars, logrecord.Var{Key: LevelKey, Value: record.Level.String()})
	vars = append(vars, h.vars...)
	record.Attrs(func(attr slog.Attr) bool {
		vars = appendAttr(vars, h.prefix, attr)
		return true
	})

	return h.logger.LogRecord(logrecord.Record{
		Timestamp: record.Time,
		Message:   record.Message,
		Vars:      vars,
	})
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	vars := make([]logrecord.Var, len(h.vars), len(h.vars)+len(attrs))
	copy(vars, h.vars)
	for _, attr := range attrs {
		vars = appendAttr(vars, h.prefix, attr)
	}
	return &Handler{logger: h.logger, level: h.level, vars: vars, prefix: h.prefix}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{logger: h.logger, level: h.level, vars: h.vars, prefix: h.prefix + name + "."}
}

// appendAttr flattens attr into vars. Empty attrs are dropped and
// inline groups (empty key) do not add a prefix, per the slog.Handler
// contract.
func appendAttr(vars []logrecord.Var, prefix string, attr slog.Attr) []logrecord.Var {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return vars
	}
	if attr.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if attr.Key != "" {
			groupPrefix = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			vars = appendAttr(vars, groupPrefix, member)
		}
		return vars
	}
	return append(vars, logrecord.Var{Key: prefix + attr.Key, Value: attr.Value.String()})
}
