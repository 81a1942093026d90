// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive exports stored log records to a portable file and
// imports them back.
//
// An archive is one compression tag byte ([CompressionNone],
// [CompressionLZ4], or [CompressionZstd]) followed by the compressed
// body, a CBOR sequence of:
//
//   - a header: format version, session UUID, creation time, and the
//     number of records
//   - that many entries, each holding one record in its datagram
//     encoding together with its sequence id in the exporting store
//   - a trailer with the BLAKE3 keyed digest of every entry's record
//     bytes, in order
//
// Records keep their wire encoding so an archive can be replayed to a
// collector byte for byte. Import verifies the digest before it
// appends anything, so a damaged file never half-imports.
package archive
