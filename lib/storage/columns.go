// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/bureau-foundation/heimdall/lib/logrecord"
)

// timestampLayout is fixed width (always nine fractional digits, always
// UTC) so that the text column sorts in chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

var varsParserPool fastjson.ParserPool

// formatTimestamp splits t into its sortable UTC text and its UTC
// offset in seconds.
func formatTimestamp(t time.Time) (string, int) {
	_, offset := t.Zone()
	return t.UTC().Format(timestampLayout), offset
}

func parseTimestamp(text string, offset int) (time.Time, error) {
	t, err := time.Parse(timestampLayout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", text, err)
	}
	if offset == 0 {
		return t, nil
	}
	return t.In(time.FixedZone("", offset)), nil
}

// encodeVars writes vars as a JSON object in their original order.
// Duplicate keys are kept; encoding/json cannot express that from a
// map, so the object is assembled pair by pair. Invalid UTF-8 is
// replaced run by run, the same way the wire encoding does.
func encodeVars(vars []logrecord.Var) string {
	var builder strings.Builder
	builder.WriteByte('{')
	for index, v := range vars {
		if index > 0 {
			builder.WriteByte(',')
		}
		key, _ := json.Marshal(strings.ToValidUTF8(v.Key, "\uFFFD"))
		value, _ := json.Marshal(strings.ToValidUTF8(v.Value, "\uFFFD"))
		builder.Write(key)
		builder.WriteByte(':')
		builder.Write(value)
	}
	builder.WriteByte('}')
	return builder.String()
}

// decodeVars parses a vars column. fastjson keeps object members in
// document order and does not collapse duplicate keys. Non-string
// values (written by other tools) are kept as their JSON text.
func decodeVars(text string) ([]logrecord.Var, error) {
	parser := varsParserPool.Get()
	defer varsParserPool.Put(parser)

	value, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing vars: %w", err)
	}
	object, err := value.Object()
	if err != nil {
		return nil, fmt.Errorf("parsing vars: %w", err)
	}
	if object.Len() == 0 {
		return nil, nil
	}

	vars := make([]logrecord.Var, 0, object.Len())
	object.Visit(func(key []byte, member *fastjson.Value) {
		var text string
		if member.Type() == fastjson.TypeString {
			text = string(member.GetStringBytes())
		} else {
			text = member.String()
		}
		vars = append(vars, logrecord.Var{Key: string(key), Value: text})
	})
	return vars, nil
}
