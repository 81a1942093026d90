// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/heimdall/lib/status"
)

// Theme defines the color palette for the collector dashboard. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Role status colors.
	StatusRunning     lipgloss.Color
	StatusTerminating lipgloss.Color
	StatusStopped     lipgloss.Color
	StatusFailed      lipgloss.Color

	// Status-line colors for log records routed into the dashboard.
	WarningText lipgloss.Color
	ErrorText   lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	FocusColor       lipgloss.Color
	HelpText         lipgloss.Color

	// Key and value colors in the info panel.
	KeyForeground   lipgloss.Color
	ValueForeground lipgloss.Color

	// HotAccent tints rows for records that arrived recently.
	HotAccent lipgloss.Color

	// Overlay boxes (exit confirmation).
	OverlayForeground lipgloss.Color
	OverlayBackground lipgloss.Color
}

// StatusColor returns the color for a role state.
func (theme Theme) StatusColor(state status.State) lipgloss.Color {
	switch state {
	case status.Running:
		return theme.StatusRunning
	case status.Terminating:
		return theme.StatusTerminating
	case status.Stopped:
		return theme.StatusStopped
	case status.Failed:
		return theme.StatusFailed
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusRunning:     lipgloss.Color("114"), // green
	StatusTerminating: lipgloss.Color("220"), // amber
	StatusStopped:     lipgloss.Color("245"), // gray
	StatusFailed:      lipgloss.Color("196"), // red

	WarningText: lipgloss.Color("220"),
	ErrorText:   lipgloss.Color("196"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	FocusColor:       lipgloss.Color("75"),
	HelpText:         lipgloss.Color("241"),

	KeyForeground:   lipgloss.Color("141"),
	ValueForeground: lipgloss.Color("252"),

	HotAccent: lipgloss.Color("58"), // dark amber background tint

	OverlayForeground: lipgloss.Color("252"),
	OverlayBackground: lipgloss.Color("237"),
}
