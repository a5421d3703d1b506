// Package codec converts between builder value trees and wire text.
//
// A value tree is a composition of *ordered.Map, []any, scalars and any value
// implementing json.Marshaler (raw fragments splice themselves through that
// hook). Encode is a thin front over goccy/go-json; Decode walks the token
// stream instead of unmarshalling into map[string]any so that object key order
// survives a round trip.
package codec

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/reoring/jbuild/internal/ordered"
)

// Encode renders a value tree as JSON.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode parses JSON into a value tree: objects become *ordered.Map with keys
// in document order, arrays become []any, numbers become json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("codec: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFrom(dec, tok)
}

func decodeFrom(dec *json.Decoder, tok any) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("codec: unexpected delimiter %q", t.String())
	default:
		// string, bool, json.Number or nil.
		return tok, nil
	}
}

func decodeObject(dec *json.Decoder) (*ordered.Map, error) {
	m := ordered.New()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return m, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("codec: object key is %T, want string", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	list := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return list, nil
		}
		v, err := decodeFrom(dec, tok)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
}
