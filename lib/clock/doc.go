// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Record producers stamp every record with Clock.Now, and the
// dashboard uses it to age its arrival highlight. In production,
// Real() reads the system clock. In tests, Fake() returns a clock that
// only moves when told to:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	logger, _ := client.Dial(client.Config{Address: addr, Clock: c})
//	c.Advance(5 * time.Second)
package clock
