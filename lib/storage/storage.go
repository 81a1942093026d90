// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/heimdall/lib/logrecord"
)

// ErrClosed is wrapped by every operation on a closed store.
var ErrClosed = errors.New("store closed")

// StoredRecord is a record together with the sequence id the store
// assigned when it was appended.
type StoredRecord struct {
	SequenceID int64
	Record     logrecord.Record
}

// Page is a Window together with the record count its ranks were
// measured against. Both come from one consistent read, so
// Count-rank-1 is the position of Records[0] in append order even while
// other goroutines append.
type Page struct {
	Records []StoredRecord
	Count   int
}

// Storage is an append-only record store with rank-addressed reads.
// Implementations are safe for concurrent use.
type Storage interface {
	// Append stores record and returns its sequence id.
	Append(ctx context.Context, record logrecord.Record) (int64, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Get returns the record at rank (0 = newest). The boolean is false
	// when rank is out of range.
	Get(ctx context.Context, rank int) (StoredRecord, bool, error)

	// Window returns up to amount records starting at rankOffset, newest
	// first. Ranks past the end are omitted.
	Window(ctx context.Context, rankOffset, amount int) ([]StoredRecord, error)

	// Page is Window plus the count at the moment of the read.
	Page(ctx context.Context, rankOffset, amount int) (Page, error)

	// Each calls fn for every record, oldest first, stopping at the
	// first error fn returns.
	Each(ctx context.Context, fn func(StoredRecord) error) error

	// Updated reports whether anything was appended since the previous
	// call, and clears the flag. The first call after opening returns
	// true.
	Updated() bool

	// Close releases the store. Subsequent operations fail with
	// ErrClosed.
	Close() error
}

// Error reports a backend failure.
type Error struct {
	// Op is the operation that failed: "open", "append", "count",
	// "window", "page", "each" or "close".
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config selects and configures a backend.
type Config struct {
	// Path is the SQLite database file. Empty selects the memory
	// backend.
	Path string

	// PoolSize is the SQLite connection pool size. Zero picks the pool
	// default.
	PoolSize int

	// Logger receives backend messages. Nil discards them.
	Logger *slog.Logger
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	if cfg.Path == "" {
		if cfg.Logger != nil {
			cfg.Logger.Info("using volatile storage")
		}
		return NewMemory(), nil
	}
	return OpenSQLite(ctx, cfg)
}

// getByWindow implements Storage.Get as a one-record Window.
func getByWindow(ctx context.Context, store Storage, rank int) (StoredRecord, bool, error) {
	if rank < 0 {
		return StoredRecord{}, false, nil
	}
	records, err := store.Window(ctx, rank, 1)
	if err != nil || len(records) == 0 {
		return StoredRecord{}, false, err
	}
	return records[0], true, nil
}
