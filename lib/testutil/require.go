// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the part of testing.TB the helpers use. Tests of the helpers
// themselves substitute a recorder.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed first.
//
//	record := testutil.RequireReceive(t, stored, 5*time.Second, "record %d stored", 3)
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	deadline := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer deadline.Stop()

	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for a value: %s", describe(msgAndArgs))
		}
		return value
	case <-deadline.C:
		t.Fatalf("no value within %v: %s", timeout, describe(msgAndArgs))
	}
	var zero T
	return zero
}

// RequireClosed waits until ch is closed or delivers a value, failing
// the test after timeout. Done channels (a listener goroutine exiting,
// registry.Done) are the usual argument.
func RequireClosed(t TB, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	deadline := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer deadline.Stop()

	select {
	case <-ch:
	case <-deadline.C:
		t.Fatalf("channel still open after %v: %s", timeout, describe(msgAndArgs))
	}
}

// Eventually calls condition every interval until it reports true. The
// test fails if that has not happened by timeout. Use it for state a
// goroutine publishes without a channel, such as storage counts.
//
//	testutil.Eventually(t, func() bool { n, _ := store.Count(ctx); return n == 3 },
//		5*time.Second, 10*time.Millisecond, "three records")
func Eventually(t TB, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	ticker := time.NewTicker(interval) //nolint:realclock test hang prevention
	defer ticker.Stop()
	deadline := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer deadline.Stop()

	for !condition() {
		select {
		case <-ticker.C:
		case <-deadline.C:
			if condition() {
				return
			}
			t.Fatalf("condition still false after %v: %s", timeout, describe(msgAndArgs))
			return
		}
	}
}

// describe renders the optional trailing arguments: nothing, a plain
// message, or a format string with its operands.
func describe(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "(no message)"
	case len(msgAndArgs) == 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
