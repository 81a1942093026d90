// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logrecord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/heimdall/lib/codec"
)

// MaxEncodedSize is the largest buffer that fits in a single UDP
// datagram over IPv4. Producers must not send records that encode
// larger than this.
const MaxEncodedSize = 65507

// TimestampLayout is the text form of the required ts field. It keeps
// nanoseconds and the producer's offset.
const TimestampLayout = time.RFC3339Nano

// ErrUnencodableTimestamp is wrapped by Encode when the timestamp has
// no exact text form: a year outside 0000-9999, or a UTC offset of a
// day or more or with a seconds part.
var ErrUnencodableTimestamp = errors.New("timestamp cannot be encoded")

// wireRecord is the CBOR shape of a record. Timestamp is a pointer so
// that an absent ts is distinguishable from an empty one.
type wireRecord struct {
	Timestamp *string     `cbor:"ts"`
	Message   string      `cbor:"msg,omitempty"`
	Context   wireContext `cbor:"ctx"`
	Vars      [][2]string `cbor:"vars,omitempty"`
}

type wireContext struct {
	AppName       string `cbor:"app,omitempty"`
	ProcessID     uint32 `cbor:"pid,omitempty"`
	OSDescription string `cbor:"os,omitempty"`
	Version       string `cbor:"ver,omitempty"`
	SenderAddress string `cbor:"addr,omitempty"`
}

// DecodeError reports a buffer that could not be turned into a Record.
type DecodeError struct {
	// Reason is a short description of what was wrong.
	Reason string

	// Err is the underlying decoder error, if any.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logrecord: decode: %s: %v", e.Reason, e.Err)
	}
	return "logrecord: decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var decodeError *DecodeError
	return errors.As(err, &decodeError)
}

// Encode serializes a record into a self-described CBOR buffer. Text
// fields must be UTF-8 on the wire, so each run of invalid bytes is
// replaced with U+FFFD; the record Decode returns carries the
// replacement.
func Encode(record Record) ([]byte, error) {
	wire, err := toWire(record)
	if err != nil {
		return nil, fmt.Errorf("logrecord: encode: %w", err)
	}
	data, err := codec.MarshalSelfDescribed(wire)
	if err != nil {
		return nil, fmt.Errorf("logrecord: encode: %w", err)
	}
	return data, nil
}

// Decode parses a buffer produced by Encode, or by any producer that
// follows the same schema. The self-described tag is optional.
func Decode(data []byte) (Record, error) {
	if len(data) == 0 {
		return Record{}, &DecodeError{Reason: "empty buffer"}
	}
	body := codec.StripSelfDescribed(data)
	if err := codec.Wellformed(body); err != nil {
		return Record{}, &DecodeError{Reason: "malformed CBOR", Err: err}
	}

	var wire wireRecord
	if err := codec.Unmarshal(body, &wire); err != nil {
		return Record{}, &DecodeError{Reason: "unexpected structure", Err: err}
	}
	return fromWire(wire)
}

func toWire(record Record) (wireRecord, error) {
	timestamp, err := formatTimestamp(record.Timestamp)
	if err != nil {
		return wireRecord{}, err
	}
	wire := wireRecord{
		Timestamp: &timestamp,
		Message:   validText(record.Message),
		Context: wireContext{
			AppName:       validText(record.Context.AppName),
			ProcessID:     record.Context.ProcessID,
			OSDescription: validText(record.Context.OSDescription),
			Version:       validText(record.Context.Version),
			SenderAddress: validText(record.Context.SenderAddress),
		},
	}
	if len(record.Vars) > 0 {
		wire.Vars = make([][2]string, len(record.Vars))
		for index, v := range record.Vars {
			wire.Vars[index] = [2]string{validText(v.Key), validText(v.Value)}
		}
	}
	return wire, nil
}

// formatTimestamp renders t in TimestampLayout, refusing instants the
// layout would truncate or that time.Parse would reject.
func formatTimestamp(t time.Time) (string, error) {
	if _, offset := t.Zone(); offset%60 != 0 {
		return "", fmt.Errorf("%w: UTC offset %ds has a seconds part", ErrUnencodableTimestamp, offset)
	}
	text, err := t.MarshalText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnencodableTimestamp, err)
	}
	return string(text), nil
}

func validText(text string) string {
	return strings.ToValidUTF8(text, "\uFFFD")
}

func fromWire(wire wireRecord) (Record, error) {
	if wire.Timestamp == nil {
		return Record{}, &DecodeError{Reason: "missing required field ts"}
	}
	timestamp, err := time.Parse(TimestampLayout, *wire.Timestamp)
	if err != nil {
		return Record{}, &DecodeError{Reason: "invalid ts", Err: err}
	}

	record := Record{
		Timestamp: timestamp,
		Message:   wire.Message,
		Context: Context{
			AppName:       wire.Context.AppName,
			ProcessID:     wire.Context.ProcessID,
			OSDescription: wire.Context.OSDescription,
			Version:       wire.Context.Version,
			SenderAddress: wire.Context.SenderAddress,
		},
	}
	if len(wire.Vars) > 0 {
		record.Vars = make([]Var, len(wire.Vars))
		for index, pair := range wire.Vars {
			record.Vars[index] = Var{Key: pair[0], Value: pair[1]}
		}
	}
	return record, nil
}
