// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fatalRecorder captures Fatalf calls instead of stopping the test.
type fatalRecorder struct {
	message string
}

func (r *fatalRecorder) Helper() {}

func (r *fatalRecorder) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Errorf("RequireReceive = %d, want 7", got)
	}
}

func TestRequireReceiveTimesOut(t *testing.T) {
	recorder := &fatalRecorder{}
	got := RequireReceive(recorder, make(chan int), 10*time.Millisecond, "value %d", 7)
	if got != 0 {
		t.Errorf("RequireReceive returned %d after a timeout, want the zero value", got)
	}
	if !strings.Contains(recorder.message, "value 7") {
		t.Errorf("failure message = %q, want the formatted description", recorder.message)
	}
}

func TestRequireReceiveClosedChannel(t *testing.T) {
	recorder := &fatalRecorder{}
	ch := make(chan string)
	close(ch)
	RequireReceive(recorder, ch, time.Second, "closed")
	if !strings.Contains(recorder.message, "closed while waiting") {
		t.Errorf("failure message = %q", recorder.message)
	}
}

func TestRequireClosed(t *testing.T) {
	done := make(chan struct{})
	close(done)
	RequireClosed(t, done, time.Second, "already closed")

	recorder := &fatalRecorder{}
	RequireClosed(recorder, make(chan struct{}), 10*time.Millisecond, "never closed")
	if !strings.Contains(recorder.message, "never closed") {
		t.Errorf("failure message = %q", recorder.message)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		args []any
		want string
	}{
		{nil, "(no message)"},
		{[]any{"plain"}, "plain"},
		{[]any{42}, "42"},
		{[]any{"listener %s on %d", "alt", 62001}, "listener alt on 62001"},
	}
	for _, test := range tests {
		if got := describe(test.args); got != test.want {
			t.Errorf("describe(%v) = %q, want %q", test.args, got, test.want)
		}
	}
}

func TestEventuallySucceeds(t *testing.T) {
	var calls atomic.Int32
	Eventually(t, func() bool { return calls.Add(1) >= 3 }, time.Second, time.Millisecond, "three calls")
	if calls.Load() < 3 {
		t.Errorf("condition evaluated %d times", calls.Load())
	}
}

func TestEventuallyTimesOut(t *testing.T) {
	recorder := &fatalRecorder{}
	Eventually(recorder, func() bool { return false }, 20*time.Millisecond, 5*time.Millisecond, "never")
	if recorder.message == "" {
		t.Error("Eventually did not fail on a condition that never holds")
	}
}

func TestUniqueID(t *testing.T) {
	first := UniqueID("probe")
	second := UniqueID("probe")
	if first == second || !strings.HasPrefix(first, "probe-") {
		t.Errorf("UniqueID returned %q then %q", first, second)
	}
}
