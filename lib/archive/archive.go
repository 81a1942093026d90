// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/heimdall/lib/clock"
	"github.com/bureau-foundation/heimdall/lib/codec"
	"github.com/bureau-foundation/heimdall/lib/logrecord"
	"github.com/bureau-foundation/heimdall/lib/storage"
)

// FormatVersion names the layout written by Export. Import rejects
// anything else.
const FormatVersion = "heimdall-archive/1"

// digestKey is the BLAKE3 keyed-hash key for record digests: the ASCII
// domain name, zero-padded to 32 bytes.
var digestKey = [32]byte{
	'h', 'e', 'i', 'm', 'd', 'a', 'l', 'l', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e',
	'.', 'r', 'e', 'c', 'o', 'r', 'd', 's', 0, 0, 0, 0, 0, 0, 0, 0,
}

// ErrDigestMismatch is returned by Import when the records do not
// hash to the digest in the trailer.
var ErrDigestMismatch = errors.New("archive: record digest mismatch")

// FormatError reports an archive that cannot be read: unknown
// compression, wrong format version, truncation, or undecodable items.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive: %s: %v", e.Reason, e.Err)
	}
	return "archive: " + e.Reason
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// header is the first item of the body.
type header struct {
	Format    string `cbor:"format"`
	SessionID string `cbor:"session"`
	CreatedAt string `cbor:"created"`
	Count     int    `cbor:"count"`
}

// entry carries one record in its wire encoding, with the sequence id
// it had in the exporting store.
type entry struct {
	SequenceID int64  `cbor:"seq"`
	Record     []byte `cbor:"rec"`
}

// trailer closes the body. Digest covers every entry's Record bytes
// in order.
type trailer struct {
	Digest []byte `cbor:"digest"`
}

// Source is what Export reads.
type Source interface {
	Count(ctx context.Context) (int, error)
	Each(ctx context.Context, fn func(storage.StoredRecord) error) error
}

// Sink is what Import writes.
type Sink interface {
	Append(ctx context.Context, record logrecord.Record) (int64, error)
}

// Options configures Export.
type Options struct {
	// Compression defaults to CompressionNone.
	Compression CompressionTag

	// SessionID identifies the export. A zero value gets a fresh
	// random UUID.
	SessionID uuid.UUID

	// Clock stamps the header. Defaults to clock.Real().
	Clock clock.Clock
}

// Manifest describes an archive after Export or Import.
type Manifest struct {
	SessionID uuid.UUID
	CreatedAt time.Time
	Count     int
	Digest    []byte
}

// Export writes every record in src, oldest first, to w. Records
// appended to src while the export runs are not included: the count
// is fixed when the export starts.
func Export(ctx context.Context, w io.Writer, src Source, options Options) (Manifest, error) {
	sessionID := options.SessionID
	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	count, err := src.Count(ctx)
	if err != nil {
		return Manifest{}, fmt.Errorf("archive: counting records: %w", err)
	}

	if _, err := w.Write([]byte{byte(options.Compression)}); err != nil {
		return Manifest{}, fmt.Errorf("archive: writing compression tag: %w", err)
	}
	body, err := compressWriter(w, options.Compression)
	if err != nil {
		return Manifest{}, err
	}
	buffered := bufio.NewWriter(body)
	encoder := codec.NewEncoder(buffered)

	manifest := Manifest{
		SessionID: sessionID,
		CreatedAt: clk.Now(),
		Count:     count,
	}
	if err := encoder.Encode(header{
		Format:    FormatVersion,
		SessionID: sessionID.String(),
		CreatedAt: manifest.CreatedAt.Format(time.RFC3339Nano),
		Count:     count,
	}); err != nil {
		return Manifest{}, fmt.Errorf("archive: writing header: %w", err)
	}

	digest := newDigest()
	written := 0
	errDone := errors.New("done")
	err = src.Each(ctx, func(stored storage.StoredRecord) error {
		if written == count {
			return errDone
		}
		encoded, err := logrecord.Encode(stored.Record)
		if err != nil {
			return err
		}
		digest.Write(encoded)
		if err := encoder.Encode(entry{SequenceID: stored.SequenceID, Record: encoded}); err != nil {
			return err
		}
		written++
		return nil
	})
	if err != nil && !errors.Is(err, errDone) {
		return Manifest{}, fmt.Errorf("archive: writing records: %w", err)
	}
	if written != count {
		return Manifest{}, fmt.Errorf("archive: store shrank during export: wrote %d of %d records", written, count)
	}

	manifest.Digest = digest.Sum(nil)
	if err := encoder.Encode(trailer{Digest: manifest.Digest}); err != nil {
		return Manifest{}, fmt.Errorf("archive: writing trailer: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return Manifest{}, fmt.Errorf("archive: flushing: %w", err)
	}
	if err := body.Close(); err != nil {
		return Manifest{}, fmt.Errorf("archive: finishing %s stream: %w", options.Compression, err)
	}
	return manifest, nil
}

// Import reads an archive written by Export and appends its records
// to dst in their original order. Nothing is appended unless the whole
// archive decodes and its digest matches. Imported records get new
// sequence ids from dst.
func Import(ctx context.Context, r io.Reader, dst Sink) (Manifest, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return Manifest{}, &FormatError{Reason: "reading compression tag", Err: err}
	}
	body, release, err := decompressReader(r, CompressionTag(tagByte[0]))
	if err != nil {
		return Manifest{}, err
	}
	defer release()
	decoder := codec.NewDecoder(bufio.NewReader(body))

	var head header
	if err := decoder.Decode(&head); err != nil {
		return Manifest{}, &FormatError{Reason: "reading header", Err: truncation(err)}
	}
	if head.Format != FormatVersion {
		return Manifest{}, &FormatError{Reason: fmt.Sprintf("unsupported format %q", head.Format)}
	}
	if head.Count < 0 {
		return Manifest{}, &FormatError{Reason: fmt.Sprintf("negative record count %d", head.Count)}
	}
	sessionID, err := uuid.Parse(head.SessionID)
	if err != nil {
		return Manifest{}, &FormatError{Reason: "parsing session id", Err: err}
	}
	createdAt, err := time.Parse(time.RFC3339Nano, head.CreatedAt)
	if err != nil {
		return Manifest{}, &FormatError{Reason: "parsing creation time", Err: err}
	}

	digest := newDigest()
	records := make([]logrecord.Record, 0, min(head.Count, 1<<16))
	for index := range head.Count {
		if err := ctx.Err(); err != nil {
			return Manifest{}, err
		}
		var item entry
		if err := decoder.Decode(&item); err != nil {
			return Manifest{}, &FormatError{Reason: fmt.Sprintf("reading record %d of %d", index+1, head.Count), Err: truncation(err)}
		}
		digest.Write(item.Record)
		record, err := logrecord.Decode(item.Record)
		if err != nil {
			return Manifest{}, &FormatError{Reason: fmt.Sprintf("decoding record %d (sequence %d)", index+1, item.SequenceID), Err: err}
		}
		records = append(records, record)
	}

	var tail trailer
	if err := decoder.Decode(&tail); err != nil {
		return Manifest{}, &FormatError{Reason: "reading trailer", Err: truncation(err)}
	}
	sum := digest.Sum(nil)
	if !bytes.Equal(sum, tail.Digest) {
		return Manifest{}, ErrDigestMismatch
	}

	for index, record := range records {
		if _, err := dst.Append(ctx, record); err != nil {
			return Manifest{}, fmt.Errorf("archive: appending record %d of %d: %w", index+1, len(records), err)
		}
	}
	return Manifest{
		SessionID: sessionID,
		CreatedAt: createdAt,
		Count:     len(records),
		Digest:    sum,
	}, nil
}

func newDigest() hash.Hash {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		// NewKeyed only fails for keys that are not 32 bytes.
		panic("archive: blake3 keyed hasher: " + err.Error())
	}
	return hasher
}

// truncation maps a clean EOF in the middle of the body to
// io.ErrUnexpectedEOF.
func truncation(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
