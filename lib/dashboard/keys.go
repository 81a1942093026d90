// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings. The log list shows the
// newest record at the top, so "up" means newer.
type KeyMap struct {
	Newer    key.Binding
	Older    key.Binding
	Newest   key.Binding
	Oldest   key.Binding
	Center   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	InfoUp   key.Binding // Scroll the info panel.
	InfoDown key.Binding

	Quit   key.Binding // Opens the exit confirmation.
	Detach key.Binding // Closes the dashboard; workers keep running.
	Help   key.Binding

	// Confirmation overlay.
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap is the built-in key binding set: vim-style j/k
// alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Newer: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "newer"),
	),
	Older: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "older"),
	),
	Newest: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "newest"),
	),
	Oldest: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "oldest"),
	),
	Center: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "center"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("PgUp", "page newer"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("PgDn", "page older"),
	),
	InfoUp: key.NewBinding(
		key.WithKeys("K", "shift+up"),
		key.WithHelp("K", "info up"),
	),
	InfoDown: key.NewBinding(
		key.WithKeys("J", "shift+down"),
		key.WithHelp("J", "info down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Detach: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "detach"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y", "enter"),
		key.WithHelp("y", "yes"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n", "no"),
	),
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Newer, keys.Older, keys.Quit, keys.Detach, keys.Help}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Newer, keys.Older, keys.PageUp, keys.PageDown},
		{keys.Newest, keys.Oldest, keys.Center},
		{keys.InfoUp, keys.InfoDown},
		{keys.Quit, keys.Detach, keys.Help},
	}
}
