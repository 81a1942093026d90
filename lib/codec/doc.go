// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR encoding configuration used
// on the wire (one log record per datagram) and in export archives
// (a CBOR sequence of records).
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes, which keeps
// archive digests stable.
//
// The decoder enforces nesting and size limits and ignores unknown
// struct fields. Wire buffers carry the self-described CBOR tag
// (55799) so a receiver can validate a buffer before touching its
// contents:
//
//	data, err := codec.MarshalSelfDescribed(value)
//	if err := codec.Wellformed(codec.StripSelfDescribed(data)); err != nil { ... }
//	err = codec.Unmarshal(codec.StripSelfDescribed(data), &value)
//
// For stream-oriented operations (archives):
//
//	encoder := codec.NewEncoder(file)
//	decoder := codec.NewDecoder(file)
package codec
