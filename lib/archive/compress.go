// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies how the archive body is compressed. It is
// the first byte of every archive file; the values are part of the
// file format.
type CompressionTag uint8

const (
	// CompressionNone stores the body as-is.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 uses the LZ4 frame format. Fast, moderate ratio.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd uses zstd at the default level. Log text
	// compresses well with it.
	CompressionZstd CompressionTag = 2
)

func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses the String form of a tag.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("archive: unknown compression %q (want none, lz4, or zstd)", name)
	}
}

// nopWriteCloser gives an uncompressed body the same Close-to-flush
// shape as the compressors.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w so that writes are compressed with tag. Close
// flushes the compressor but does not close w.
func compressWriter(w io.Writer, tag CompressionTag) (io.WriteCloser, error) {
	switch tag {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("archive: zstd writer: %w", err)
		}
		return encoder, nil
	default:
		return nil, fmt.Errorf("archive: unsupported compression tag %d", uint8(tag))
	}
}

// decompressReader wraps r to decompress a body written with tag. The
// returned close function releases decoder resources.
func decompressReader(r io.Reader, tag CompressionTag) (io.Reader, func(), error) {
	switch tag {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("archive: zstd reader: %w", err)
		}
		return decoder, decoder.Close, nil
	default:
		return nil, nil, &FormatError{Reason: fmt.Sprintf("unknown compression tag %d", uint8(tag))}
	}
}
