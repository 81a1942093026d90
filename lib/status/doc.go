// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package status tracks the lifecycle of the collector's long-running
// goroutines and coordinates their cooperative shutdown.
//
// Each goroutine has a [Role]. A [Registry] maps roles to a [Status]
// following the state machine
//
//	Running -> Terminating -> Stopped | Failed
//	Running -> Stopped | Failed
//
// Stopped and Failed are terminal: once a role reaches one, only an
// identical write is accepted. Shutdown is requested by moving every
// Running role to Terminating ([Registry.RequestShutdown]); each owner
// notices through [Registry.ShouldStop] on its next poll and records
// its own terminal state. Nothing is ever cancelled forcibly.
//
// The registry holds a single mutex for the duration of each call and
// never calls out while holding it. Readers get value snapshots.
package status
