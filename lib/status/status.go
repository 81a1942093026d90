// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package status

import "fmt"

// Role identifies one cooperating goroutine.
type Role string

const (
	Listener    Role = "listener"
	AltListener Role = "alt-listener"
	Dashboard   Role = "dashboard"
)

// State is the lifecycle phase of a role.
type State int

const (
	Running State = iota
	Terminating
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is the current state of a role. Reason is set only for Failed.
type Status struct {
	State  State
	Reason string
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s.State == Stopped || s.State == Failed
}

func (s Status) String() string {
	if s.State == Failed && s.Reason != "" {
		return "failed: " + s.Reason
	}
	return s.State.String()
}

// RunningStatus, TerminatingStatus and StoppedStatus are the
// reason-less statuses.
var (
	RunningStatus     = Status{State: Running}
	TerminatingStatus = Status{State: Terminating}
	StoppedStatus     = Status{State: Stopped}
)

// FailedStatus returns a Failed status carrying reason.
func FailedStatus(reason string) Status {
	return Status{State: Failed, Reason: reason}
}

// TransitionError is returned by Set for a transition the state
// machine does not allow.
type TransitionError struct {
	Role Role
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status: role %s cannot move from %s to %s", e.Role, e.From, e.To)
}

// Entry is one row of a snapshot.
type Entry struct {
	Role   Role
	Status Status
}
