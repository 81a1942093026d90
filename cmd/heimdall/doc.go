// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// heimdall is the log collector. It receives CBOR log records over UDP
// from any number of producers, stores them in memory or in a SQLite
// file, and shows them newest-first in a terminal dashboard.
//
// Startup happens in a fixed order so every failure is reported before
// any goroutine starts:
//
//  1. load configuration (exit 2 on error)
//  2. open storage (exit 3), then append the records of --import
//  3. bind the listener, and the alt listener when --alt-port is set
//     (exit 4)
//  4. register the roles and start the listener goroutines
//
// SIGINT and SIGTERM request a cooperative shutdown through the status
// registry; a second signal cancels outstanding work. With the
// dashboard, q asks for confirmation before shutting down and w
// detaches the dashboard while the listeners keep running. Without a
// terminal, or with --headless, the collector runs until signalled.
//
// At shutdown --export writes every stored record to an archive, the
// storage is closed, and the process exits 0 unless a listener failed.
package main
