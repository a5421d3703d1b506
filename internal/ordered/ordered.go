package ordered

import (
	"bytes"
	"strconv"

	json "github.com/goccy/go-json"
)

// Map is a string-keyed mapping that remembers first-insertion order. Re-setting
// an existing key overwrites the value but keeps the key's original position
// (last write wins, original position retained).
//
// Map is not safe for concurrent mutation; each builder owns its map
// exclusively.
type Map struct {
	keys []string
	idx  map[string]int
	vals []any
}

// New returns an empty Map.
func New() *Map {
	return &Map{idx: map[string]int{}}
}

// Set stores v under key, appending the key on first insertion.
func (m *Map) Set(key string, v any) {
	if i, ok := m.idx[key]; ok {
		m.vals[i] = v
		return
	}
	m.idx[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	i, ok := m.idx[key]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// Len reports the number of keys.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. The slice is shared; callers must
// not modify it.
func (m *Map) Keys() []string { return m.keys }

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v any) bool) {
	for i, k := range m.keys {
		if !fn(k, m.vals[i]) {
			return
		}
	}
}

// MarshalJSON emits the entries as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
