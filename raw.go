package jbuild

// RawJSON holds text already known to be valid JSON. During encoding it is
// spliced into the output byte-for-byte instead of being re-encoded as a
// string literal. The fragment-cache array path produces these for cached and
// freshly cached elements; they are never mutated after creation.
type RawJSON []byte

// MarshalJSON returns the fragment verbatim. An empty fragment encodes as
// null, mirroring json.RawMessage.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r RawJSON) String() string { return string(r) }
