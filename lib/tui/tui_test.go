// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/heimdall/lib/status"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestScrollbarThumb(t *testing.T) {
	tests := []struct {
		name                         string
		height, total, visible, skip int
		wantStart, wantSize          int
	}{
		{"everything fits", 10, 5, 10, 0, 0, 10},
		{"empty list", 10, 0, 10, 0, 0, 10},
		{"top of long list", 10, 100, 10, 0, 0, 1},
		{"bottom of long list", 10, 100, 10, 90, 9, 1},
		{"half visible at top", 10, 20, 10, 0, 0, 5},
		{"half visible at bottom", 10, 20, 10, 10, 5, 5},
		{"zero height", 0, 20, 10, 0, 0, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			start, size := ScrollbarThumb(test.height, test.total, test.visible, test.skip)
			if start != test.wantStart || size != test.wantSize {
				t.Errorf("ScrollbarThumb(%d, %d, %d, %d) = (%d, %d), want (%d, %d)",
					test.height, test.total, test.visible, test.skip,
					start, size, test.wantStart, test.wantSize)
			}
		})
	}
}

func TestRenderScrollbarHeight(t *testing.T) {
	rendered := RenderScrollbar(DefaultTheme, 6, 60, 6, 0, true)
	lines := strings.Split(rendered, "\n")
	if len(lines) != 6 {
		t.Fatalf("scrollbar has %d lines, want 6", len(lines))
	}
	if lines[0] != "┃" {
		t.Errorf("first line = %q, want thumb", lines[0])
	}
	if lines[5] != "│" {
		t.Errorf("last line = %q, want track", lines[5])
	}
	if RenderScrollbar(DefaultTheme, 0, 10, 1, 0, false) != "" {
		t.Error("zero-height scrollbar should render empty")
	}
}

func TestSpliceOverlay(t *testing.T) {
	view := "aaaaaaaa\nbbbbbbbb\ncccccccc"
	got := SpliceOverlay(view, []string{"XX", "YY"}, 3, 1)
	lines := strings.Split(got, "\n")
	if lines[0] != "aaaaaaaa" {
		t.Errorf("line 0 changed: %q", lines[0])
	}
	if plain := ansi.Strip(lines[1]); plain != "bbbXXbbb" {
		t.Errorf("line 1 = %q, want %q", plain, "bbbXXbbb")
	}
	if plain := ansi.Strip(lines[2]); plain != "cccYYccc" {
		t.Errorf("line 2 = %q, want %q", plain, "cccYYccc")
	}
}

func TestSpliceOverlayClipsBelowView(t *testing.T) {
	view := "aaaa\nbbbb"
	got := SpliceOverlay(view, []string{"X", "Y", "Z"}, 0, 1)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("overlay grew the view to %d lines", len(lines))
	}
	if plain := ansi.Strip(lines[1]); plain != "Xbbb" {
		t.Errorf("line 1 = %q, want %q", plain, "Xbbb")
	}
}

func TestSpliceOverlayPadsShortLines(t *testing.T) {
	got := SpliceOverlay("ab", []string{"X"}, 4, 0)
	if plain := ansi.Strip(got); plain != "ab  X" {
		t.Errorf("got %q, want %q", plain, "ab  X")
	}
}

func TestConfirmDialogUniformWidth(t *testing.T) {
	dialog := ConfirmDialog{
		Title:  "Exit",
		Prompt: "Stop the collector?",
		Hint:   "y: yes   n: no",
	}
	lines := dialog.Render(DefaultTheme)
	if len(lines) == 0 {
		t.Fatal("no lines rendered")
	}
	width := ansi.StringWidth(lines[0])
	for index, line := range lines {
		if got := ansi.StringWidth(line); got != width {
			t.Errorf("line %d width = %d, want %d", index, got, width)
		}
	}
	joined := ansi.Strip(strings.Join(lines, "\n"))
	for _, want := range []string{"Exit", "Stop the collector?", "y: yes"} {
		if !strings.Contains(joined, want) {
			t.Errorf("dialog missing %q", want)
		}
	}
}

func TestCenterOverlay(t *testing.T) {
	view := strings.Repeat(strings.Repeat(".", 10)+"\n", 4) + strings.Repeat(".", 10)
	got := CenterOverlay(view, []string{"##"}, 10, 5)
	lines := strings.Split(got, "\n")
	if plain := ansi.Strip(lines[2]); plain != "....##...." {
		t.Errorf("center line = %q", plain)
	}
}

func TestHeatTracker(t *testing.T) {
	tracker := NewHeatTracker()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if heat := tracker.Heat(7, start); heat != 0 {
		t.Errorf("unknown record heat = %v, want 0", heat)
	}

	tracker.Ignite(7, start)
	if heat := tracker.Heat(7, start); heat != 1 {
		t.Errorf("heat at ignition = %v, want 1", heat)
	}
	half := start.Add(HeatDecayDuration / 2)
	if heat := tracker.Heat(7, half); heat < 0.49 || heat > 0.51 {
		t.Errorf("heat at half decay = %v, want ~0.5", heat)
	}
	if !tracker.HasHot(half) {
		t.Error("HasHot should be true during decay")
	}

	done := start.Add(HeatDecayDuration)
	if heat := tracker.Heat(7, done); heat != 0 {
		t.Errorf("heat after decay = %v, want 0", heat)
	}
	if tracker.HasHot(done) {
		t.Error("HasHot should be false after decay")
	}
	if len(tracker.ignitions) != 0 {
		t.Errorf("decayed entries not pruned: %d left", len(tracker.ignitions))
	}
}

func TestStatusColor(t *testing.T) {
	theme := DefaultTheme
	cases := map[status.State]lipgloss.Color{
		status.Running:     theme.StatusRunning,
		status.Terminating: theme.StatusTerminating,
		status.Stopped:     theme.StatusStopped,
		status.Failed:      theme.StatusFailed,
	}
	for state, want := range cases {
		if got := theme.StatusColor(state); got != want {
			t.Errorf("StatusColor(%v) = %v, want %v", state, got, want)
		}
	}
}
