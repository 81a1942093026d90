// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package view turns a selected rank and a viewport height into reads
// against storage, fetching records in chunks so that scrolling does
// not query the backend on every frame.
//
// A [Controller] keeps the selection centered in the viewport where
// possible:
//
//	scroll = clamp(selected - height/2, 0, count - height)
//
// and caches one chunk of records starting at
// floor(scroll/chunkSize)*chunkSize, holding chunkSize+height records.
// A new chunk is fetched only when the visible range leaves the cached
// one, so moving the selection one row at a time costs about one query
// per chunkSize rows.
//
// Ranks count back from the newest record, so every append shifts
// every rank by one. The cached chunk's origin is shifted by the number
// of records appended since it was fetched, which keeps it usable until
// the visible range actually moves past it. A selection on anything but
// the newest record is shifted the same way, so it stays on the same
// record while new ones arrive; a selection on rank 0 follows the
// newest record.
package view
