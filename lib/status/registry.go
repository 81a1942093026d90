// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"log/slog"
	"slices"
	"sync"
)

// Registry maps roles to their status. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	order   []Role
	entries map[Role]Status
	logger  *slog.Logger

	// done is closed when every registered role is terminal. It is
	// replaced when a new role is registered after closing.
	done       chan struct{}
	doneClosed bool
}

// NewRegistry returns an empty registry. A nil logger discards
// transition logs.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		entries: make(map[Role]Status),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Register records role as Running. Call it before starting the
// goroutine that owns the role, so a shutdown request issued before
// the goroutine is scheduled still reaches it. Registering a role that
// already exists is a no-op returning false.
func (r *Registry) Register(role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[role]; exists {
		return false
	}
	r.entries[role] = RunningStatus
	r.order = append(r.order, role)
	if r.doneClosed {
		r.done = make(chan struct{})
		r.doneClosed = false
	}
	r.logger.Debug("role registered", "role", role)
	return true
}

// Set overwrites the status of role. Unregistered roles are created.
// Writes that leave a terminal state, or that move a Terminating role
// back to Running, are rejected with *TransitionError unless they are
// identical to the current status.
func (r *Registry) Set(role Role, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.entries[role]
	if !exists {
		r.order = append(r.order, role)
		if r.doneClosed && !status.Terminal() {
			r.done = make(chan struct{})
			r.doneClosed = false
		}
	} else {
		if current == status {
			return nil
		}
		if current.Terminal() || (current.State == Terminating && status.State == Running) {
			return &TransitionError{Role: role, From: current, To: status}
		}
	}

	r.entries[role] = status
	r.logger.Info("role status changed", "role", role, "status", status.String())
	r.checkDoneLocked()
	return nil
}

// Get returns the status of role.
func (r *Registry) Get(role Role) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.entries[role]
	return status, ok
}

// ShouldStop reports whether the owner of role should wind down: the
// role is Terminating, already terminal, or unknown.
func (r *Registry) ShouldStop(role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.entries[role]
	return !ok || status.State != Running
}

// AllStoppedExcept reports whether every tracked role other than role
// is Stopped or Failed.
func (r *Registry) AllStoppedExcept(role Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for other, status := range r.entries {
		if other == role {
			continue
		}
		if !status.Terminal() {
			return false
		}
	}
	return true
}

// RequestShutdown moves every Running role to Terminating and returns
// the roles it moved, in registration order. Calling it again is
// harmless.
func (r *Registry) RequestShutdown() []Role {
	r.mu.Lock()
	defer r.mu.Unlock()

	var moved []Role
	for _, role := range r.order {
		if r.entries[role].State == Running {
			r.entries[role] = TerminatingStatus
			moved = append(moved, role)
		}
	}
	if len(moved) > 0 {
		r.logger.Info("shutdown requested", "roles", moved)
	}
	return moved
}

// Snapshot returns a copy of all entries in registration order.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0, len(r.order))
	for _, role := range r.order {
		entries = append(entries, Entry{Role: role, Status: r.entries[role]})
	}
	return entries
}

// Roles returns the registered roles in registration order.
func (r *Registry) Roles() []Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Done returns a channel that is closed once every registered role is
// terminal. Waiters that need the final state should call Snapshot
// after it fires.
func (r *Registry) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *Registry) checkDoneLocked() {
	if r.doneClosed || len(r.entries) == 0 {
		return
	}
	for _, status := range r.entries {
		if !status.Terminal() {
			return
		}
	}
	close(r.done)
	r.doneClosed = true
}
