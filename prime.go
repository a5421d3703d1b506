package jbuild

import (
	"github.com/reoring/jbuild/codec"
	"github.com/reoring/jbuild/internal/ordered"
)

// FromJSON returns a builder whose container is primed from a previously
// rendered JSON buffer. An object primes mapping mode, an array primes list
// mode; scalar input is a parse error since a builder always holds a
// container.
func FromJSON(data []byte, opts ...Option) (*Builder, error) {
	v, err := codec.Decode(data)
	if err != nil {
		return nil, Issue{Code: CodeParseError, Message: err.Error(), Cause: err}
	}
	return fromValue(v, opts...)
}

// FromYAML is FromJSON for a YAML buffer, preserving document key order.
func FromYAML(data []byte, opts ...Option) (*Builder, error) {
	v, err := codec.DecodeYAML(data)
	if err != nil {
		return nil, Issue{Code: CodeParseError, Message: err.Error(), Cause: err}
	}
	return fromValue(v, opts...)
}

func fromValue(v any, opts ...Option) (*Builder, error) {
	b := New(opts...)
	switch t := v.(type) {
	case *ordered.Map:
		b.mode = modeMap
		b.attrs = t
	case []any:
		b.mode = modeList
		b.list = t
	default:
		return nil, Issue{
			Code:    CodeParseError,
			Message: "primed buffer must hold an object or array",
		}
	}
	return b, nil
}
