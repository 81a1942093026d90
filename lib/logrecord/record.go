// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logrecord

import (
	"strings"
	"time"
)

// Var is one key/value pair attached to a record.
type Var struct {
	Key   string
	Value string
}

// Context describes the process that produced a record.
type Context struct {
	AppName       string
	ProcessID     uint32
	OSDescription string
	Version       string

	// SenderAddress is the transport peer address, filled in by the
	// collector on receipt. Empty for records that never crossed the
	// network.
	SenderAddress string
}

// Record is one structured log entry.
type Record struct {
	Timestamp time.Time
	Message   string
	Context   Context
	Vars      []Var
}

// WithSender returns a copy of the record whose Context carries the
// given sender address. The Vars slice is shared with the receiver,
// which is fine because records are never mutated after construction.
func (r Record) WithSender(address string) Record {
	r.Context.SenderAddress = address
	return r
}

// Equal reports whether two records are identical field for field.
// Timestamps must denote the same instant with the same UTC offset.
// A nil Vars slice equals an empty one.
func (r Record) Equal(other Record) bool {
	if !r.Timestamp.Equal(other.Timestamp) {
		return false
	}
	_, offset := r.Timestamp.Zone()
	_, otherOffset := other.Timestamp.Zone()
	if offset != otherOffset {
		return false
	}
	if r.Message != other.Message || r.Context != other.Context {
		return false
	}
	if len(r.Vars) != len(other.Vars) {
		return false
	}
	for index := range r.Vars {
		if r.Vars[index] != other.Vars[index] {
			return false
		}
	}
	return true
}

// Lookup returns the value of the first var with the given key.
func (r Record) Lookup(key string) (string, bool) {
	for _, v := range r.Vars {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Format renders the one-line list form of a record:
//
//	15:04:05.000000: message key=value key=value
//
// The clock time is shown in the producer's own offset.
func (r Record) Format() string {
	var builder strings.Builder
	builder.WriteString(r.Timestamp.Format("15:04:05.000000"))
	builder.WriteString(": ")
	builder.WriteString(r.Message)
	for _, v := range r.Vars {
		builder.WriteByte(' ')
		builder.WriteString(v.Key)
		builder.WriteByte('=')
		builder.WriteString(v.Value)
	}
	return builder.String()
}

// String returns Format().
func (r Record) String() string {
	return r.Format()
}
