// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// ConfirmDialog is a small boxed question answered with a single key.
// It only renders; the owning model routes keys.
type ConfirmDialog struct {
	Title  string
	Prompt string

	// Hint is shown under the prompt, e.g. "y: yes   n: no".
	Hint string
}

// Render produces the dialog lines for overlay splicing. Every line
// has the same visible width and a solid background.
func (dialog ConfirmDialog) Render(theme Theme) []string {
	innerWidth := max(ansi.StringWidth(dialog.Title), ansi.StringWidth(dialog.Prompt), ansi.StringWidth(dialog.Hint))

	background := lipgloss.NewStyle().
		Background(theme.OverlayBackground).
		Foreground(theme.OverlayForeground)
	title := background.Bold(true).Foreground(theme.HeaderForeground)
	hint := background.Foreground(theme.HelpText)

	blank := padDialogLine("", innerWidth, background)
	return []string{
		blank,
		padDialogLine(title.Render(dialog.Title), innerWidth, background),
		blank,
		padDialogLine(background.Render(dialog.Prompt), innerWidth, background),
		padDialogLine(hint.Render(dialog.Hint), innerWidth, background),
		blank,
	}
}

// padDialogLine frames content with one background cell on the left and
// fills the right side to innerWidth plus one cell.
func padDialogLine(content string, innerWidth int, background lipgloss.Style) string {
	fill := max(innerWidth-ansi.StringWidth(content), 0) + 1
	return background.Render(" ") + content + background.Render(strings.Repeat(" ", fill))
}
