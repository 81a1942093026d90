// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// selfDescribedPrefix is the encoded form of CBOR tag 55799 (RFC 8949
// §3.4.6). It marks a buffer as CBOR without changing the meaning of
// the item that follows.
var selfDescribedPrefix = []byte{0xd9, 0xd9, 0xf7}

// Decoding limits. A datagram never legitimately nests deeper than a
// handful of levels, so anything past these bounds is rejected before
// allocation.
const (
	maxNestedLevels  = 16
	maxArrayElements = 65536
	maxMapPairs      = 4096
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode accepts standard CBOR within the limits above. Unknown
// struct fields are ignored, which lets older collectors read records
// from newer producers.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Targets typed as any decode maps as map[string]any rather than
		// map[interface{}]interface{}, so they stay usable with
		// encoding/json and ordinary Go code.
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler:  cbor.TextUnmarshalerTextString,
		MaxNestedLevels:  maxNestedLevels,
		MaxArrayElements: maxArrayElements,
		MaxMapPairs:      maxMapPairs,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// MarshalSelfDescribed encodes v like Marshal and prefixes the result
// with the self-described CBOR tag, so any reader can recognise the
// buffer without out-of-band negotiation.
func MarshalSelfDescribed(v any) ([]byte, error) {
	body, err := encMode.Marshal(v)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(selfDescribedPrefix)+len(body))
	data = append(data, selfDescribedPrefix...)
	return append(data, body...), nil
}

// StripSelfDescribed returns data without a leading self-described
// CBOR tag. Buffers without the tag are returned unchanged.
func StripSelfDescribed(data []byte) []byte {
	return bytes.TrimPrefix(data, selfDescribedPrefix)
}

// IsSelfDescribed reports whether data starts with the self-described
// CBOR tag.
func IsSelfDescribed(data []byte) bool {
	return bytes.HasPrefix(data, selfDescribedPrefix)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Wellformed checks that data holds exactly one well-formed CBOR data
// item within the decoding limits, without decoding it into Go values.
func Wellformed(data []byte) error {
	return decMode.Wellformed(data)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Decoder = cbor.Decoder

// NewEncoder returns a CBOR encoder that writes a sequence of items
// (RFC 8742) to w using the deterministic configuration.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads a sequence of items
// from r using the standard decoding limits.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// entire contents of data. Used when logging undecodable datagrams.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
