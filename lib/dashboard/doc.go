// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard implements the collector's live terminal view, a
// bubbletea program with four panels:
//
//   - a status line with the record count (or the latest collector
//     warning, for a few seconds)
//   - the threads line, one entry per registered role and its status
//   - the log list, newest first, with a scrollbar and a brief
//     highlight on records that just arrived
//   - the info panel with the selected record's context and variables
//
// The model refreshes on a fixed tick (DefaultRefreshInterval). Each
// tick reads the record count and, only when the visible range is not
// cached, one window from storage through a view.Controller, then
// snapshots the status registry.
//
// # Shutdown
//
// Quitting asks for confirmation in an overlay. Once confirmed, the
// dashboard calls RequestShutdown on the registry and keeps ticking
// until every other role is Stopped or Failed; only then does it mark
// itself Stopped and exit. The same path runs when a shutdown is
// requested elsewhere (a signal handler), because the dashboard polls
// its own role on every tick.
//
// Detaching (w) closes only the dashboard. The listeners keep running
// and the caller falls back to headless operation.
package dashboard
