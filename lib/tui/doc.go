// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides terminal UI building blocks for the collector
// dashboard: the color [Theme], a proportional scrollbar, ANSI-aware
// overlay splicing for modal dialogs, a [ConfirmDialog], and a
// [HeatTracker] that tints recently arrived records.
//
// The dashboard owns layout and data; this package only renders.
package tui
