// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/heimdall/lib/status"
)

// Run drives the dashboard on the terminal until the operator quits or
// detaches, a shutdown requested elsewhere completes, or ctx is
// cancelled. logHandler, when non-nil, is attached to the program for
// the duration of the session so collector log records appear in the
// status line.
//
// The program does not install its own signal handler: SIGINT and
// SIGTERM are expected to reach the registry through the caller, and
// the dashboard follows the registry.
func Run(ctx context.Context, cfg Config, logHandler *LogHandler, options ...tea.ProgramOption) (Outcome, error) {
	model := NewModel(ctx, cfg)

	options = append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	}, options...)
	program := tea.NewProgram(model, options...)

	if logHandler != nil {
		logHandler.SetProgram(program)
		defer logHandler.SetProgram(nil)
	}

	final, err := program.Run()
	if err != nil {
		if ctx.Err() != nil {
			_ = cfg.Registry.Set(status.Dashboard, status.StoppedStatus)
			return OutcomeShutdown, nil
		}
		_ = cfg.Registry.Set(status.Dashboard, status.FailedStatus(err.Error()))
		return OutcomeShutdown, fmt.Errorf("dashboard: %w", err)
	}

	finalModel, ok := final.(Model)
	if !ok || !finalModel.Finished() {
		_ = cfg.Registry.Set(status.Dashboard, status.StoppedStatus)
		return OutcomeShutdown, nil
	}
	return finalModel.Outcome(), nil
}
