// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logrecord defines the log record schema shared by producers
// and the collector, and its wire encoding.
//
// A [Record] is one structured log entry: a timestamp with an explicit
// UTC offset, a message, the producing process's [Context], and an
// ordered list of key/value [Var] pairs whose keys need not be unique.
//
// [Encode] produces a self-described CBOR buffer (tag 55799 followed by
// a map). [Decode] validates well-formedness before decoding, ignores
// keys it does not know, and fills absent optional fields with empty
// values. Only the timestamp is required: a buffer without one, or any
// malformed buffer, yields a [*DecodeError].
//
// Records are values. Nothing in this package retains a record or a
// buffer after returning.
package logrecord
