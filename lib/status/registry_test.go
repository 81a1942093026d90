// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/heimdall/lib/testutil"
)

func TestRegisterAndGet(t *testing.T) {
	registry := NewRegistry(nil)

	if !registry.Register(Listener) {
		t.Fatal("first Register returned false")
	}
	if registry.Register(Listener) {
		t.Error("duplicate Register returned true")
	}

	status, ok := registry.Get(Listener)
	if !ok || status != RunningStatus {
		t.Errorf("Get(listener) = %v, %v; want running", status, ok)
	}
	if _, ok := registry.Get(Dashboard); ok {
		t.Error("Get(dashboard) found an unregistered role")
	}
}

func TestTerminalStatesAreSticky(t *testing.T) {
	for _, terminal := range []Status{StoppedStatus, FailedStatus("disk full")} {
		t.Run(terminal.String(), func(t *testing.T) {
			registry := NewRegistry(nil)
			registry.Register(Listener)
			if err := registry.Set(Listener, terminal); err != nil {
				t.Fatalf("Set(%v): %v", terminal, err)
			}

			for _, next := range []Status{RunningStatus, TerminatingStatus, StoppedStatus, FailedStatus("other")} {
				if next == terminal {
					continue
				}
				err := registry.Set(Listener, next)
				var transitionError *TransitionError
				if !errors.As(err, &transitionError) {
					t.Errorf("Set(%v) after %v: err = %v, want *TransitionError", next, terminal, err)
				}
			}

			if err := registry.Set(Listener, terminal); err != nil {
				t.Errorf("identical terminal write rejected: %v", err)
			}
			if status, _ := registry.Get(Listener); status != terminal {
				t.Errorf("status = %v, want %v", status, terminal)
			}
		})
	}
}

func TestTerminatingCannotReturnToRunning(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(Listener)
	registry.RequestShutdown()

	if err := registry.Set(Listener, RunningStatus); err == nil {
		t.Error("Terminating -> Running accepted")
	}
	if err := registry.Set(Listener, StoppedStatus); err != nil {
		t.Errorf("Terminating -> Stopped rejected: %v", err)
	}
}

func TestRunningToStoppedDirectly(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(AltListener)
	if err := registry.Set(AltListener, StoppedStatus); err != nil {
		t.Fatalf("Running -> Stopped rejected: %v", err)
	}
}

func TestRequestShutdownOnlyAffectsRunning(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(Listener)
	registry.Register(AltListener)
	registry.Register(Dashboard)
	if err := registry.Set(AltListener, FailedStatus("bind lost")); err != nil {
		t.Fatal(err)
	}

	moved := registry.RequestShutdown()
	if fmt.Sprint(moved) != fmt.Sprint([]Role{Listener, Dashboard}) {
		t.Errorf("moved = %v, want [listener dashboard]", moved)
	}
	if status, _ := registry.Get(AltListener); status != FailedStatus("bind lost") {
		t.Errorf("failed role overwritten: %v", status)
	}
	if status, _ := registry.Get(Listener); status != TerminatingStatus {
		t.Errorf("listener = %v, want terminating", status)
	}

	if again := registry.RequestShutdown(); len(again) != 0 {
		t.Errorf("second RequestShutdown moved %v", again)
	}
}

func TestShouldStop(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(Listener)

	if registry.ShouldStop(Listener) {
		t.Error("running role told to stop")
	}
	if !registry.ShouldStop(AltListener) {
		t.Error("unknown role not told to stop")
	}
	registry.RequestShutdown()
	if !registry.ShouldStop(Listener) {
		t.Error("terminating role not told to stop")
	}
}

func TestAllStoppedExcept(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(Listener)
	registry.Register(Dashboard)

	if registry.AllStoppedExcept(Dashboard) {
		t.Error("AllStoppedExcept true while listener running")
	}
	registry.RequestShutdown()
	if registry.AllStoppedExcept(Dashboard) {
		t.Error("AllStoppedExcept true while listener terminating")
	}
	registry.Set(Listener, StoppedStatus)
	if !registry.AllStoppedExcept(Dashboard) {
		t.Error("AllStoppedExcept false after listener stopped")
	}
	if registry.AllStoppedExcept(Listener) {
		t.Error("AllStoppedExcept(listener) true while dashboard terminating")
	}
}

func TestSnapshotOrderAndIsolation(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(Dashboard)
	registry.Register(Listener)
	registry.Register(AltListener)

	snapshot := registry.Snapshot()
	want := []Role{Dashboard, Listener, AltListener}
	for index, entry := range snapshot {
		if entry.Role != want[index] {
			t.Errorf("snapshot[%d] = %s, want %s", index, entry.Role, want[index])
		}
	}

	registry.RequestShutdown()
	if snapshot[0].Status != RunningStatus {
		t.Error("snapshot changed after registry mutation")
	}
}

func TestDoneClosesWhenAllTerminal(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(Listener)
	registry.Register(Dashboard)
	done := registry.Done()

	registry.Set(Listener, StoppedStatus)
	select {
	case <-done:
		t.Fatal("Done closed with dashboard still running")
	default:
	}

	registry.Set(Dashboard, FailedStatus("terminal lost"))
	testutil.RequireClosed(t, done, time.Second, "registry done")
}

func TestConcurrentOwnersAndRequesters(t *testing.T) {
	registry := NewRegistry(nil)
	roles := make([]Role, 16)
	for index := range roles {
		roles[index] = Role(fmt.Sprintf("worker-%d", index))
		registry.Register(roles[index])
	}

	var wait sync.WaitGroup
	for _, role := range roles {
		wait.Add(1)
		go func() {
			defer wait.Done()
			for !registry.ShouldStop(role) {
				time.Sleep(time.Millisecond)
			}
			if err := registry.Set(role, StoppedStatus); err != nil {
				t.Errorf("Set(%s, stopped): %v", role, err)
			}
		}()
	}
	for range 4 {
		wait.Add(1)
		go func() {
			defer wait.Done()
			registry.RequestShutdown()
		}()
	}
	wait.Wait()

	testutil.RequireClosed(t, registry.Done(), time.Second, "all workers stopped")
	for _, entry := range registry.Snapshot() {
		if entry.Status != StoppedStatus {
			t.Errorf("%s = %v, want stopped", entry.Role, entry.Status)
		}
	}
}
