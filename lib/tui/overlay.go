// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// resetStyle ends any SGR state the underlying line left open, so the
// overlay and the text after it start from a clean style.
const resetStyle = "\x1b[0m"

// SpliceOverlay draws overlay rows over view with the top-left corner
// at (column, row). Rows that fall outside the view are dropped; the
// view never grows. Styling in the covered lines survives on both sides
// of the overlay.
func SpliceOverlay(view string, overlay []string, column, row int) string {
	if len(overlay) == 0 {
		return view
	}
	lines := strings.Split(view, "\n")
	width := ansi.StringWidth(overlay[0])

	for offset, overlayRow := range overlay {
		target := row + offset
		if target < 0 || target >= len(lines) {
			continue
		}
		lines[target] = spliceLine(lines[target], overlayRow, column, width)
	}
	return strings.Join(lines, "\n")
}

// spliceLine replaces width cells of line starting at column. A line
// shorter than column is padded with spaces first.
func spliceLine(line, overlay string, column, width int) string {
	var builder strings.Builder

	left := ansi.Truncate(line, column, "")
	builder.WriteString(left)
	builder.WriteString(strings.Repeat(" ", max(column-ansi.StringWidth(left), 0)))

	builder.WriteString(resetStyle)
	builder.WriteString(overlay)
	builder.WriteString(resetStyle)

	if resume := column + width; resume < ansi.StringWidth(line) {
		builder.WriteString(ansi.TruncateLeft(line, resume, ""))
	}
	return builder.String()
}

// CenterOverlay places overlay in the middle of a screenWidth by
// screenHeight view.
func CenterOverlay(view string, overlay []string, screenWidth, screenHeight int) string {
	if len(overlay) == 0 {
		return view
	}
	column := max((screenWidth-ansi.StringWidth(overlay[0]))/2, 0)
	row := max((screenHeight-len(overlay))/2, 0)
	return SpliceOverlay(view, overlay, column, row)
}
