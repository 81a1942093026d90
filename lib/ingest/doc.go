// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ingest receives log records over UDP and appends them to
// storage.
//
// A [Service] owns one bound datagram socket and one status role. Its
// [Service.Run] loop polls the status registry between receives; each
// receive waits at most one poll interval, so a shutdown request is
// noticed within that interval and the socket never blocks the loop
// indefinitely. Every datagram carries exactly one encoded record.
// Undecodable datagrams are logged and dropped; an append failure marks
// the role Failed and ends the loop, since the store can no longer be
// trusted to accept records.
//
// Binding happens in [Listen], before any goroutine starts, so a port
// conflict is reported to the caller as a [*BindError] and the process
// can exit before spawning workers.
package ingest
