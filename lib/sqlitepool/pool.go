// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DefaultBusyTimeout is how long a writer queues for the database lock
// before SQLite reports SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// minPoolSize keeps a reader available while every listener writes.
const minPoolSize = 4

// Config describes the database a Pool opens.
type Config struct {
	// Path is the database file. Its directory must already exist.
	Path string

	// PoolSize is the number of connections, at least minPoolSize.
	// Zero picks one per CPU.
	PoolSize int

	// BusyTimeout defaults to DefaultBusyTimeout.
	BusyTimeout time.Duration

	// Schema is executed once inside a write transaction during Open.
	// It must be idempotent (CREATE ... IF NOT EXISTS).
	Schema string

	Logger *slog.Logger
}

// Pool hands out SQLite connections configured for an append-heavy log
// table: one writer at a time, readers never blocked by it.
type Pool struct {
	connections *sqlitex.Pool
	path        string
	logger      *slog.Logger
}

// Open creates the pool and applies cfg.Schema. Failing to open the
// file or apply the schema is reported here rather than on first use,
// so a bad path stops the collector before it binds anything.
func Open(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlitepool: Path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = runtime.NumCPU()
	}
	size = max(size, minPoolSize)
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	connections, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			return applyPragmas(conn, busyTimeout)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}
	pool := &Pool{connections: connections, path: cfg.Path, logger: logger}

	if cfg.Schema != "" {
		err := pool.Write(ctx, func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, cfg.Schema, nil)
		})
		if err != nil {
			connections.Close()
			return nil, fmt.Errorf("sqlitepool: applying schema to %s: %w", cfg.Path, err)
		}
	}

	logger.Debug("sqlite pool opened", "path", cfg.Path, "connections", size, "busy_timeout", busyTimeout)
	return pool, nil
}

// Read lends fn a connection. fn must not keep it after returning.
func (p *Pool) Read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := p.take(ctx)
	if err != nil {
		return err
	}
	defer p.connections.Put(conn)
	return fn(conn)
}

// Write lends fn a connection inside a BEGIN IMMEDIATE transaction,
// committed when fn returns nil and rolled back otherwise. Concurrent
// writers wait on busy_timeout for the lock up front instead of failing
// midway when a read transaction tries to upgrade.
func (p *Pool) Write(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := p.take(ctx)
	if err != nil {
		return err
	}
	defer p.connections.Put(conn)

	commit, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitepool: begin: %w", err)
	}
	defer commit(&err)
	return fn(conn)
}

// Close waits for lent connections to come back, then closes them all.
func (p *Pool) Close() error {
	if err := p.connections.Close(); err != nil {
		p.logger.Warn("closing sqlite pool", "path", p.path, "error", err)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Debug("sqlite pool closed", "path", p.path)
	return nil
}

func (p *Pool) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.connections.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: waiting for a connection: %w", err)
	}
	return conn, nil
}

func applyPragmas(conn *sqlite.Conn, busyTimeout time.Duration) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds()),
		"PRAGMA cache_size=-8192",
		"PRAGMA temp_store=MEMORY",
	} {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}
	return nil
}
