// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage is the append-only log record store.
//
// [Storage] is the backend-agnostic contract. Records are addressed by
// rank, counting back from the most recently appended record (rank 0
// is the newest), so the dashboard can page through history without
// knowing which backend holds it. Every append is atomic and receives
// a strictly increasing sequence id; sequence order is append order,
// not timestamp order, because producers' clocks may disagree.
//
// Two backends implement it:
//
//   - [Memory] keeps records in a slice. Sequence ids are slice
//     indexes starting at 0. Everything is lost on exit.
//   - [SQLite] keeps records in a single append-only table. Sequence
//     ids are AUTOINCREMENT rowids starting at 1. Timestamps are stored
//     as fixed-width UTC text, which sorts chronologically, alongside
//     the producer's UTC offset; vars are stored as a JSON object in
//     their original order, duplicates included.
//
// [Open] picks the backend once at startup: a path selects SQLite, no
// path selects Memory. There is no migration between them.
//
// Backend failures are reported as [*Error]. A Window past the end of
// the store is a short (possibly empty) read, never an error.
package storage
