// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wait on a channel with a
// deadline, so a test that would otherwise hang fails with a message
// instead.
// [Eventually] polls a condition until it holds, for state that is
// published by a goroutine without a channel (status registries,
// storage counts).
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as message bodies that must be told apart after
// crossing a socket.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no heimdall-internal dependencies.
package testutil
