// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds socket helpers shared by the collector's
// listeners and the producer client: binding a UDP socket with a sized
// receive buffer, and classifying the errors a datagram poll loop sees
// (deadline expiry, closed socket, refused send).
package netutil
