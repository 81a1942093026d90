// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "time"

// HeatDecayDuration is how long a newly arrived record glows. Heat
// starts at 1.0 and decays linearly to 0.0 over this duration.
const HeatDecayDuration = 3 * time.Second

// HeatTracker maps record sequence ids to their arrival time so the
// list can tint records that just came in.
type HeatTracker struct {
	ignitions map[int64]time.Time
}

// NewHeatTracker creates an empty heat tracker.
func NewHeatTracker() *HeatTracker {
	return &HeatTracker{ignitions: make(map[int64]time.Time)}
}

// Ignite marks a record as just arrived. Igniting again resets the
// decay.
func (tracker *HeatTracker) Ignite(sequenceID int64, now time.Time) {
	tracker.ignitions[sequenceID] = now
}

// Heat returns the current intensity for a record: 1.0 at ignition,
// decaying linearly to 0.0 over HeatDecayDuration.
func (tracker *HeatTracker) Heat(sequenceID int64, now time.Time) float64 {
	ignition, exists := tracker.ignitions[sequenceID]
	if !exists {
		return 0.0
	}
	elapsed := now.Sub(ignition)
	if elapsed >= HeatDecayDuration {
		return 0.0
	}
	return 1.0 - float64(elapsed)/float64(HeatDecayDuration)
}

// HasHot reports whether any record still has heat, dropping entries
// that have fully decayed.
func (tracker *HeatTracker) HasHot(now time.Time) bool {
	hot := false
	for sequenceID, ignition := range tracker.ignitions {
		if now.Sub(ignition) < HeatDecayDuration {
			hot = true
			continue
		}
		delete(tracker.ignitions, sequenceID)
	}
	return hot
}
