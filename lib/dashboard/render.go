// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/heimdall/lib/ingest"
	"github.com/bureau-foundation/heimdall/lib/status"
	"github.com/bureau-foundation/heimdall/lib/storage"
	"github.com/bureau-foundation/heimdall/lib/tui"
)

// infoTimestampLayout shows the full producer timestamp, offset
// included, in the info panel.
const infoTimestampLayout = "2006-01-02 15:04:05.000000 -07:00"

var confirmQuitDialog = tui.ConfirmDialog{
	Title:  "Quit heimdall",
	Prompt: "Stop all listeners and exit?",
	Hint:   "y: yes   n: no",
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	sections := []string{
		model.renderStatusLine(),
		model.renderThreads(),
		model.renderSeparator(),
		model.renderList(),
		model.renderSeparator(),
		model.renderInfo(),
		model.help.View(model.keys),
	}
	output := strings.Join(sections, "\n")

	if model.overlay == overlayConfirmQuit {
		output = tui.CenterOverlay(output, confirmQuitDialog.Render(model.theme), model.width, model.height)
	}
	return output
}

// renderStatusLine shows the record count, or the most recent
// collector log message while it is fresh.
func (model Model) renderStatusLine() string {
	if model.logMessage != nil {
		color := model.theme.WarningText
		if model.logMessage.Level >= slog.LevelError {
			color = model.theme.ErrorText
		}
		style := lipgloss.NewStyle().Foreground(color).Bold(true)
		return style.Render(ansi.Truncate(singleLine(model.logMessage.Summary), model.width, "…"))
	}

	line := fmt.Sprintf("%d logs, q to quit", model.controller.Count())
	if model.shuttingDown {
		line = fmt.Sprintf("%d logs, shutting down", model.controller.Count())
	}
	rendered := lipgloss.NewStyle().Foreground(model.theme.HeaderForeground).Bold(true).Render(line)

	if model.refreshErr != nil {
		errorText := "  " + singleLine(model.refreshErr.Error())
		rendered += lipgloss.NewStyle().Foreground(model.theme.ErrorText).Render(errorText)
	}
	return ansi.Truncate(rendered, model.width, "…")
}

// renderThreads lists every registered role with its status.
func (model Model) renderThreads() string {
	labelStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	parts := make([]string, 0, len(model.roles))
	for _, entry := range model.roles {
		stateStyle := lipgloss.NewStyle().Foreground(model.theme.StatusColor(entry.Status.State))
		part := labelStyle.Render(string(entry.Role)+" ") + stateStyle.Render(entry.Status.String())
		if stats, ok := model.listenerStats(entry.Role); ok {
			part += labelStyle.Render(fmt.Sprintf(" (%d stored, %d dropped)", stats.Stored, stats.DecodeFailures))
		}
		parts = append(parts, part)
	}
	line := labelStyle.Render("threads: ") + strings.Join(parts, labelStyle.Render("  "))
	return ansi.Truncate(line, model.width, "…")
}

func (model Model) listenerStats(role status.Role) (ingest.Stats, bool) {
	for _, listener := range model.listeners {
		if listener.Role() == role {
			return listener.Stats(), true
		}
	}
	return ingest.Stats{}, false
}

func (model Model) renderSeparator() string {
	return lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", max(model.width, 0)))
}

// renderList draws exactly listHeight rows, newest record first, with
// a scrollbar in the last column.
func (model Model) renderList() string {
	textWidth := max(model.width-1, 1)

	normalStyle := lipgloss.NewStyle().Foreground(model.theme.NormalText).Width(textWidth)
	selectedStyle := lipgloss.NewStyle().
		Foreground(model.theme.SelectedForeground).
		Background(model.theme.SelectedBackground).
		Bold(true).
		Width(textWidth)
	hotStyle := lipgloss.NewStyle().
		Foreground(model.theme.NormalText).
		Background(model.theme.HotAccent).
		Width(textWidth)
	faintStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText).Width(textWidth)

	visible := model.controller.Visible()
	scroll := model.controller.ScrollOffset()
	selected := model.controller.SelectedRank()
	now := model.clock.Now()

	scrollbar := strings.Split(tui.RenderScrollbar(model.theme, model.listHeight,
		model.controller.Count(), model.listHeight, scroll, true), "\n")

	rows := make([]string, model.listHeight)
	for index := range rows {
		var row string
		switch {
		case index < len(visible):
			stored := visible[index]
			text := ansi.Truncate(singleLine(stored.Record.Format()), textWidth, "…")
			switch {
			case scroll+index == selected:
				row = selectedStyle.Render(text)
			case model.heat.Heat(stored.SequenceID, now) > 0:
				row = hotStyle.Render(text)
			default:
				row = normalStyle.Render(text)
			}
		case index == 0 && model.controller.Count() == 0:
			row = faintStyle.Render("no logs received yet")
		default:
			row = normalStyle.Render("")
		}
		if index < len(scrollbar) {
			row += scrollbar[index]
		}
		rows[index] = row
	}
	return strings.Join(rows, "\n")
}

// renderInfo draws the info viewport at its fixed height.
func (model Model) renderInfo() string {
	return lipgloss.NewStyle().
		Height(model.info.Height).
		MaxHeight(model.info.Height).
		Render(model.info.View())
}

// renderInfoContent formats one record for the info panel:
//
//	at   2026-01-02 15:04:05.000000 +01:00
//	from app v1.2.3
//	on   10.0.0.7:41234 pid 812
//	os   Linux 6.8.0
//
//	message text
//	with
//	  key = value
func (model Model) renderInfoContent(stored storage.StoredRecord) string {
	labelStyle := lipgloss.NewStyle().Foreground(model.theme.KeyForeground).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(model.theme.ValueForeground)
	faintStyle := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	record := stored.Record
	producer := record.Context
	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-4s", label)) + " " + valueStyle.Render(value)
	}

	lines := []string{
		field("at", record.Timestamp.Format(infoTimestampLayout)),
		field("from", fmt.Sprintf("%s v%s", producer.AppName, producer.Version)),
		field("on", fmt.Sprintf("%s pid %d", producer.SenderAddress, producer.ProcessID)),
		field("os", producer.OSDescription),
		"",
	}
	for _, line := range strings.Split(record.Message, "\n") {
		lines = append(lines, valueStyle.Render(line))
	}
	if len(record.Vars) > 0 {
		lines = append(lines, labelStyle.Render("with"))
		for _, variable := range record.Vars {
			lines = append(lines, "  "+valueStyle.Render(variable.Key)+
				faintStyle.Render(" = ")+valueStyle.Render(singleLine(variable.Value)))
		}
	}
	return strings.Join(lines, "\n")
}

// singleLine flattens embedded line breaks so a record never spans
// more than one list row.
func singleLine(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	return strings.NewReplacer("\r\n", " ⏎ ", "\n", " ⏎ ", "\r", " ").Replace(text)
}
