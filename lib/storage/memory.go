// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/heimdall/lib/logrecord"
)

// Memory is the volatile backend. Appends never fail except after
// Close; running out of memory is fatal to the process.
type Memory struct {
	mu      sync.RWMutex
	records []logrecord.Record
	closed  bool

	updated atomic.Bool
}

// NewMemory returns an empty volatile store.
func NewMemory() *Memory {
	memory := &Memory{}
	memory.updated.Store(true)
	return memory
}

// Append implements Storage.
func (m *Memory) Append(_ context.Context, record logrecord.Record) (int64, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, &Error{Op: "append", Err: ErrClosed}
	}
	sequenceID := int64(len(m.records))
	m.records = append(m.records, record)
	m.mu.Unlock()

	m.updated.Store(true)
	return sequenceID, nil
}

// Count implements Storage.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, &Error{Op: "count", Err: ErrClosed}
	}
	return len(m.records), nil
}

// Get implements Storage.
func (m *Memory) Get(ctx context.Context, rank int) (StoredRecord, bool, error) {
	return getByWindow(ctx, m, rank)
}

// Window implements Storage. The result is computed from the tail of
// the slice and copied out, so callers never alias the store.
func (m *Memory) Window(_ context.Context, rankOffset, amount int) ([]StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, &Error{Op: "window", Err: ErrClosed}
	}
	return m.window(rankOffset, amount), nil
}

// Page implements Storage. Count and records are read under one lock.
func (m *Memory) Page(_ context.Context, rankOffset, amount int) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Page{}, &Error{Op: "page", Err: ErrClosed}
	}
	return Page{Records: m.window(rankOffset, amount), Count: len(m.records)}, nil
}

// window must be called with mu held.
func (m *Memory) window(rankOffset, amount int) []StoredRecord {
	total := len(m.records)
	if rankOffset < 0 || amount <= 0 || rankOffset >= total {
		return []StoredRecord{}
	}
	end := min(rankOffset+amount, total)

	window := make([]StoredRecord, 0, end-rankOffset)
	for rank := rankOffset; rank < end; rank++ {
		index := total - 1 - rank
		window = append(window, StoredRecord{
			SequenceID: int64(index),
			Record:     m.records[index],
		})
	}
	return window
}

// Each implements Storage. It iterates over a snapshot of the slice
// header, so fn may append to the store without deadlocking.
func (m *Memory) Each(ctx context.Context, fn func(StoredRecord) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return &Error{Op: "each", Err: ErrClosed}
	}
	records := m.records[:len(m.records):len(m.records)]
	m.mu.RUnlock()

	for index, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(StoredRecord{SequenceID: int64(index), Record: record}); err != nil {
			return err
		}
	}
	return nil
}

// Updated implements Storage.
func (m *Memory) Updated() bool {
	return m.updated.Swap(false)
}

// Close implements Storage.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}
