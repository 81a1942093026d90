// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleRecord mirrors the shape of a wire record: short cbor keys,
// optional fields, and a list of pairs.
type sampleRecord struct {
	Timestamp string      `cbor:"ts"`
	Message   string      `cbor:"msg,omitempty"`
	Vars      [][2]string `cbor:"vars,omitempty"`
}

// sampleRecordV2 adds a field that older readers do not know about.
type sampleRecordV2 struct {
	Timestamp string `cbor:"ts"`
	Message   string `cbor:"msg,omitempty"`
	Severity  int    `cbor:"sev"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{
		Timestamp: "2026-03-01T12:00:00.000001+01:00",
		Message:   "listener started",
		Vars:      [][2]string{{"port", "62000"}, {"port", "62001"}},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Timestamp != original.Timestamp || decoded.Message != original.Message {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if len(decoded.Vars) != 2 || decoded.Vars[1] != original.Vars[1] {
		t.Errorf("vars = %v, want %v", decoded.Vars, original.Vars)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{Timestamp: "t", Message: "m"}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestSelfDescribedPrefix(t *testing.T) {
	data, err := MarshalSelfDescribed(sampleRecord{Timestamp: "t"})
	if err != nil {
		t.Fatalf("MarshalSelfDescribed: %v", err)
	}
	if !IsSelfDescribed(data) {
		t.Fatalf("buffer %x lacks the self-described tag", data)
	}

	body := StripSelfDescribed(data)
	if IsSelfDescribed(body) {
		t.Fatal("StripSelfDescribed left the tag in place")
	}
	if err := Wellformed(body); err != nil {
		t.Fatalf("Wellformed: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Timestamp != "t" {
		t.Errorf("Timestamp = %q, want %q", decoded.Timestamp, "t")
	}

	plain := []byte{0xa0}
	if got := StripSelfDescribed(plain); !bytes.Equal(got, plain) {
		t.Errorf("StripSelfDescribed changed an untagged buffer: %x", got)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(sampleRecordV2{Timestamp: "t", Message: "m", Severity: 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal into older shape: %v", err)
	}
	if decoded.Message != "m" {
		t.Errorf("Message = %q, want %q", decoded.Message, "m")
	}

	older, err := Marshal(sampleRecord{Timestamp: "t"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var newer sampleRecordV2
	if err := Unmarshal(older, &newer); err != nil {
		t.Fatalf("Unmarshal into newer shape: %v", err)
	}
	if newer.Severity != 0 {
		t.Errorf("Severity = %d, want 0 for an absent field", newer.Severity)
	}
}

func TestWellformedRejectsMalformed(t *testing.T) {
	nested := bytes.Repeat([]byte{0x81}, maxNestedLevels+4)
	nested = append(nested, 0x00)

	cases := map[string][]byte{
		"empty":          {},
		"truncated map":  {0xa2, 0x61, 0x61},
		"reserved byte":  {0xff, 0xfe, 0xfd},
		"trailing data":  {0xa0, 0x00},
		"deeply nested":  nested,
		"short text len": {0x78, 0x10, 'a'},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Wellformed(data); err == nil {
				t.Errorf("Wellformed(%x) = nil, want error", data)
			}
		})
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record sampleRecord
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	records := []sampleRecord{
		{Timestamp: "1", Message: "a"},
		{Timestamp: "2", Message: "b"},
		{Timestamp: "3"},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if got.Timestamp != want.Timestamp || got.Message != want.Message {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]any{"msg": "hello"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"hello"`) {
		t.Errorf("notation %q does not contain \"hello\"", notation)
	}
}

func BenchmarkMarshal(b *testing.B) {
	record := sampleRecord{
		Timestamp: "2026-03-01T12:00:00.000001+01:00",
		Message:   "request served",
		Vars:      [][2]string{{"path", "/"}, {"status", "200"}},
	}

	b.ReportAllocs()
	for b.Loop() {
		Marshal(record)
	}
}
