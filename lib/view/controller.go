// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/heimdall/lib/storage"
)

// DefaultChunkSize is the number of records fetched beyond the viewport
// height in one backend query.
const DefaultChunkSize = 64

// Source is the subset of storage.Storage the controller reads.
type Source interface {
	Count(ctx context.Context) (int, error)
	Page(ctx context.Context, rankOffset, amount int) (storage.Page, error)
}

// Controller owns the view state for one list. It is not safe for
// concurrent use; the dashboard drives it from its update loop.
type Controller struct {
	source    Source
	chunkSize int

	viewport int
	selected int
	scroll   int
	count    int

	chunk        []storage.StoredRecord
	chunkOrigin  int
	countAtFetch int
	chunkValid   bool

	fetches int
	err     error
}

// NewController returns a controller over source. chunkSize <= 0 means
// DefaultChunkSize.
func NewController(source Source, chunkSize int) *Controller {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Controller{source: source, chunkSize: chunkSize}
}

// Refresh reads the current record count, re-clamps the cursor, and
// fetches a new chunk if the visible range is not cached. On a backend
// error the previous chunk is kept and the error is returned (and
// remembered for Err).
func (c *Controller) Refresh(ctx context.Context) error {
	count, err := c.source.Count(ctx)
	if err != nil {
		c.err = fmt.Errorf("view: count: %w", err)
		return c.err
	}
	c.advance(count)

	if c.covered() {
		c.err = nil
		return nil
	}
	if err := c.fetch(ctx); err != nil {
		return err
	}
	// Records appended after Count shift the selection, possibly past
	// the chunk just fetched.
	if !c.covered() {
		return c.fetch(ctx)
	}
	return nil
}

// SetViewport sets the number of visible rows. Negative heights are
// treated as zero.
func (c *Controller) SetViewport(height int) {
	c.viewport = max(height, 0)
	c.clamp()
}

// Select moves the selection to rank.
func (c *Controller) Select(rank int) {
	c.selected = rank
	c.clamp()
}

// Move shifts the selection by delta ranks. Positive deltas move
// towards older records.
func (c *Controller) Move(delta int) {
	c.Select(c.selected + delta)
}

// Top selects the newest record.
func (c *Controller) Top() {
	c.Select(0)
}

// Bottom selects the oldest record.
func (c *Controller) Bottom() {
	c.Select(c.count - 1)
}

// Center selects the record in the middle row of the viewport.
func (c *Controller) Center() {
	visible := min(c.viewport, c.count-c.scroll)
	if visible <= 0 {
		return
	}
	c.Select(c.scroll + visible/2)
}

// PageDown moves the selection one viewport towards older records.
func (c *Controller) PageDown() {
	c.Move(max(c.viewport, 1))
}

// PageUp moves the selection one viewport towards newer records.
func (c *Controller) PageUp() {
	c.Move(-max(c.viewport, 1))
}

// Visible returns the cached records for the viewport, newest first.
// It may be shorter than the viewport at the end of the store, and is
// empty when the store is empty or nothing has been fetched yet.
func (c *Controller) Visible() []storage.StoredRecord {
	if !c.chunkValid || c.viewport == 0 {
		return nil
	}
	origin := c.effectiveOrigin()
	start := c.scroll - origin
	end := min(c.scroll+c.viewport, c.count) - origin
	start = max(start, 0)
	end = min(end, len(c.chunk))
	if start >= end {
		return nil
	}
	return c.chunk[start:end]
}

// Selected returns the selected record, if it is cached.
func (c *Controller) Selected() (storage.StoredRecord, bool) {
	if !c.chunkValid || c.count == 0 {
		return storage.StoredRecord{}, false
	}
	index := c.selected - c.effectiveOrigin()
	if index < 0 || index >= len(c.chunk) {
		return storage.StoredRecord{}, false
	}
	return c.chunk[index], true
}

// SelectedRank returns the selected rank.
func (c *Controller) SelectedRank() int { return c.selected }

// ScrollOffset returns the rank shown in the first viewport row.
func (c *Controller) ScrollOffset() int { return c.scroll }

// Viewport returns the viewport height.
func (c *Controller) Viewport() int { return c.viewport }

// Count returns the record count seen by the last Refresh.
func (c *Controller) Count() int { return c.count }

// Fetches returns how many chunk queries have been issued.
func (c *Controller) Fetches() int { return c.fetches }

// Err returns the error from the last Refresh, or nil.
func (c *Controller) Err() error { return c.err }

// advance moves to a newer record count. A selection below the newest
// record moves with the appends so it stays on the same record. Smaller
// counts are stale reads of an append-only store and are ignored.
func (c *Controller) advance(count int) {
	if count < c.count {
		return
	}
	if appended := count - c.count; appended > 0 && c.selected > 0 {
		c.selected += appended
	}
	c.count = count
	c.clamp()
}

// clamp keeps selected within [0, count-1] and scroll within
// [0, count-viewport], both saturating at zero.
func (c *Controller) clamp() {
	c.selected = max(min(c.selected, c.count-1), 0)
	maxScroll := max(c.count-c.viewport, 0)
	c.scroll = max(min(c.selected-c.viewport/2, maxScroll), 0)
}

// effectiveOrigin is the current rank of chunk[0]: appends since the
// fetch have pushed every cached record further from rank 0.
// countAtFetch is the count the chunk's ranks were measured against,
// taken in the same read as the chunk.
func (c *Controller) effectiveOrigin() int {
	return c.chunkOrigin + (c.count - c.countAtFetch)
}

// covered reports whether the cached chunk holds every visible rank.
func (c *Controller) covered() bool {
	need := min(c.viewport, c.count-c.scroll)
	if need <= 0 {
		// Nothing to show. An empty store needs no query at all.
		return c.count == 0 || c.chunkValid
	}
	if !c.chunkValid {
		return false
	}
	origin := c.effectiveOrigin()
	return origin <= c.scroll && c.scroll+need <= origin+len(c.chunk)
}

func (c *Controller) fetch(ctx context.Context) error {
	origin := (c.scroll / c.chunkSize) * c.chunkSize
	c.fetches++
	page, err := c.source.Page(ctx, origin, c.chunkSize+c.viewport)
	if err != nil {
		c.err = fmt.Errorf("view: window at rank %d: %w", origin, err)
		return c.err
	}
	c.chunk = page.Records
	c.chunkOrigin = origin
	c.countAtFetch = page.Count
	c.chunkValid = true
	c.err = nil
	c.advance(page.Count)
	return nil
}
