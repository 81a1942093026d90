// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock supplies the current time. Production code injects Real();
// tests inject Fake() and move time explicitly.
type Clock interface {
	// Now returns the current time, carrying the local UTC offset.
	Now() time.Time
}
