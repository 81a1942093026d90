// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens the collector's SQLite database as a pool of
// zombiezen.com/go/sqlite connections.
//
// Open applies an idempotent schema before returning, so an unusable
// path fails at startup. Afterwards [Pool.Read] lends a connection to a
// callback and [Pool.Write] does the same inside an IMMEDIATE
// transaction.
//
// Every connection runs with journal_mode=WAL (the dashboard reads
// while listeners append), synchronous=NORMAL, a busy_timeout (5s by
// default), an 8 MB page cache and in-memory temp storage.
//
//	pool, err := sqlitepool.Open(ctx, sqlitepool.Config{
//	    Path:   "logs.db",
//	    Schema: schema,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
package sqlitepool
