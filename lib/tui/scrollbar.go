// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar produces a single-column scrollbar of the given
// height for a list of totalItems of which visibleItems are shown
// starting at scrollOffset.
//
// When everything fits, the thumb spans the whole height. The thumb
// uses the focus color when focused and the border color otherwise.
func RenderScrollbar(theme Theme, height, totalItems, visibleItems, scrollOffset int, focused bool) string {
	if height <= 0 {
		return ""
	}

	thumbColor := theme.BorderColor
	if focused {
		thumbColor = theme.FocusColor
	}
	track := lipgloss.NewStyle().Foreground(theme.BorderColor).Render("│")
	thumb := lipgloss.NewStyle().Foreground(thumbColor).Render("┃")

	thumbStart, thumbSize := ScrollbarThumb(height, totalItems, visibleItems, scrollOffset)

	lines := make([]string, height)
	for index := range lines {
		if index >= thumbStart && index < thumbStart+thumbSize {
			lines[index] = thumb
		} else {
			lines[index] = track
		}
	}
	return strings.Join(lines, "\n")
}

// ScrollbarThumb returns the first row and length of the thumb. The
// thumb is proportional to visibleItems/totalItems, at least one row,
// and positioned proportionally to scrollOffset within the scrollable
// range.
func ScrollbarThumb(height, totalItems, visibleItems, scrollOffset int) (start, size int) {
	if height <= 0 {
		return 0, 0
	}
	if totalItems <= visibleItems || totalItems <= 0 {
		return 0, height
	}

	size = max(height*visibleItems/totalItems, 1)

	scrollableRange := totalItems - visibleItems
	trackRange := height - size
	if scrollableRange > 0 && trackRange > 0 {
		start = scrollOffset * trackRange / scrollableRange
	}
	start = max(min(start, height-size), 0)
	return start, size
}
