// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/heimdall/lib/logrecord"
	"github.com/bureau-foundation/heimdall/lib/sqlitepool"
)

// schema is created idempotently on open and never altered.
// AUTOINCREMENT guarantees sequence ids are never reused.
const schema = `
CREATE TABLE IF NOT EXISTS logs (
	sequence_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp      TEXT    NOT NULL,
	utc_offset     INTEGER NOT NULL,
	message        TEXT    NOT NULL,
	sender_address TEXT    NOT NULL,
	app_name       TEXT    NOT NULL,
	process_id     INTEGER NOT NULL,
	os_description TEXT    NOT NULL,
	version        TEXT    NOT NULL,
	vars           TEXT    NOT NULL
);`

const insertRecord = `
INSERT INTO logs (timestamp, utc_offset, message, sender_address, app_name,
	process_id, os_description, version, vars)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `sequence_id, timestamp, utc_offset, message, sender_address,
	app_name, process_id, os_description, version, vars`

// SQLite is the persistent backend.
type SQLite struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger

	// count mirrors COUNT(*) so the dashboard can poll it every tick
	// without a table scan. It is loaded on open and advanced after each
	// committed append; the collector is the only writer to its file.
	count   atomic.Int64
	updated atomic.Bool
	closed  atomic.Bool
}

// OpenSQLite opens (creating if needed) the database at cfg.Path.
func OpenSQLite(ctx context.Context, cfg Config) (*SQLite, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Schema:   schema,
		Logger:   logger,
	})
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	store := &SQLite{pool: pool, logger: logger}
	store.updated.Store(true)

	var existing int64
	err = pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT COUNT(*) FROM logs", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				existing = stmt.ColumnInt64(0)
				return nil
			},
		})
	})
	if err != nil {
		pool.Close()
		return nil, &Error{Op: "open", Err: err}
	}
	store.count.Store(existing)

	logger.Info("persistent storage opened", "path", cfg.Path, "records", existing)
	return store, nil
}

// Append implements Storage.
func (s *SQLite) Append(ctx context.Context, record logrecord.Record) (int64, error) {
	if s.closed.Load() {
		return 0, &Error{Op: "append", Err: ErrClosed}
	}

	timestamp, offset := formatTimestamp(record.Timestamp)
	var sequenceID int64
	err := s.pool.Write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, insertRecord, &sqlitex.ExecOptions{
			Args: []any{
				timestamp,
				offset,
				record.Message,
				record.Context.SenderAddress,
				record.Context.AppName,
				int64(record.Context.ProcessID),
				record.Context.OSDescription,
				record.Context.Version,
				encodeVars(record.Vars),
			},
		})
		if err != nil {
			return err
		}
		sequenceID = conn.LastInsertRowID()
		return nil
	})
	if err != nil {
		return 0, &Error{Op: "append", Err: err}
	}

	s.count.Add(1)
	s.updated.Store(true)
	return sequenceID, nil
}

// Count implements Storage.
func (s *SQLite) Count(_ context.Context) (int, error) {
	if s.closed.Load() {
		return 0, &Error{Op: "count", Err: ErrClosed}
	}
	return int(s.count.Load()), nil
}

// Get implements Storage.
func (s *SQLite) Get(ctx context.Context, rank int) (StoredRecord, bool, error) {
	return getByWindow(ctx, s, rank)
}

// Window implements Storage with a descending range query.
func (s *SQLite) Window(ctx context.Context, rankOffset, amount int) ([]StoredRecord, error) {
	if s.closed.Load() {
		return nil, &Error{Op: "window", Err: ErrClosed}
	}
	if rankOffset < 0 || amount <= 0 {
		return []StoredRecord{}, nil
	}

	var window []StoredRecord
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		var err error
		window, err = queryWindow(conn, rankOffset, amount)
		return err
	})
	if err != nil {
		return nil, &Error{Op: "window", Err: err}
	}
	return window, nil
}

// Page implements Storage. The count and the range query run in one
// read transaction, so they see the same WAL snapshot; the cached count
// may lag a commit and is not used.
func (s *SQLite) Page(ctx context.Context, rankOffset, amount int) (Page, error) {
	if s.closed.Load() {
		return Page{}, &Error{Op: "page", Err: ErrClosed}
	}

	page := Page{Records: []StoredRecord{}}
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) (err error) {
		defer sqlitex.Transaction(conn)(&err)

		err = sqlitex.Execute(conn, "SELECT COUNT(*) FROM logs", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				page.Count = int(stmt.ColumnInt64(0))
				return nil
			},
		})
		if err != nil || rankOffset < 0 || amount <= 0 {
			return err
		}
		page.Records, err = queryWindow(conn, rankOffset, amount)
		return err
	})
	if err != nil {
		return Page{}, &Error{Op: "page", Err: err}
	}
	return page, nil
}

func queryWindow(conn *sqlite.Conn, rankOffset, amount int) ([]StoredRecord, error) {
	window := []StoredRecord{}
	query := "SELECT " + selectColumns + " FROM logs ORDER BY sequence_id DESC LIMIT ? OFFSET ?"
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{amount, rankOffset},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stored, err := scanRecord(stmt)
			if err != nil {
				return err
			}
			window = append(window, stored)
			return nil
		},
	})
	return window, err
}

// Each implements Storage. fn runs while a read connection is held, so
// it must not wait on another Each.
func (s *SQLite) Each(ctx context.Context, fn func(StoredRecord) error) error {
	if s.closed.Load() {
		return &Error{Op: "each", Err: ErrClosed}
	}

	var callbackErr error
	query := "SELECT " + selectColumns + " FROM logs ORDER BY sequence_id ASC"
	err := s.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if err := ctx.Err(); err != nil {
					callbackErr = err
					return err
				}
				stored, err := scanRecord(stmt)
				if err != nil {
					return err
				}
				if err := fn(stored); err != nil {
					callbackErr = err
					return err
				}
				return nil
			},
		})
	})
	if callbackErr != nil {
		return callbackErr
	}
	if err != nil {
		return &Error{Op: "each", Err: err}
	}
	return nil
}

// Updated implements Storage.
func (s *SQLite) Updated() bool {
	return s.updated.Swap(false)
}

// Close implements Storage.
func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if err := s.pool.Close(); err != nil {
		return &Error{Op: "close", Err: err}
	}
	return nil
}

func scanRecord(stmt *sqlite.Stmt) (StoredRecord, error) {
	sequenceID := stmt.ColumnInt64(0)
	timestamp, err := parseTimestamp(stmt.ColumnText(1), stmt.ColumnInt(2))
	if err != nil {
		return StoredRecord{}, fmt.Errorf("record %d: %w", sequenceID, err)
	}
	vars, err := decodeVars(stmt.ColumnText(9))
	if err != nil {
		return StoredRecord{}, fmt.Errorf("record %d: %w", sequenceID, err)
	}
	return StoredRecord{
		SequenceID: sequenceID,
		Record: logrecord.Record{
			Timestamp: timestamp,
			Message:   stmt.ColumnText(3),
			Context: logrecord.Context{
				SenderAddress: stmt.ColumnText(4),
				AppName:       stmt.ColumnText(5),
				ProcessID:     uint32(stmt.ColumnInt64(6)),
				OSDescription: stmt.ColumnText(7),
				Version:       stmt.ColumnText(8),
			},
			Vars: vars,
		},
	}, nil
}
