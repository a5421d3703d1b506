package jbuild

import (
	"context"
	"reflect"
)

// Call resolves a field-name-style invocation into one of the named
// operations by argument shape, first match wins:
//
//	one iterable arg + block    -> array under name, block per element
//	one arg, no block           -> Set(name, arg)
//	no args + block             -> nested object under name
//	iterable arg + field names  -> array under name, Extract per element
//	single arg + field names    -> nested object of extracted fields
//
// Anything else is an unresolved_call error naming the field and arg count.
func (b *Builder) Call(ctx context.Context, name string, args []any, block BlockFunc) error {
	switch {
	case len(args) == 1 && isIterable(args[0]) && block != nil:
		return b.Array(ctx, name, toSlice(args[0]), block)

	case len(args) == 1 && block == nil && !isIterable(args[0]):
		return b.Set(name, args[0])

	case len(args) == 0 && block != nil:
		return b.Object(name, func(c *Builder) error { return block(c, nil) })

	case len(args) >= 2 && isIterable(args[0]):
		fields, ok := fieldNames(args[1:])
		if !ok {
			return unresolvedCall(name, len(args), block != nil)
		}
		return b.Array(ctx, name, toSlice(args[0]), func(c *Builder, v any) error {
			return c.Extract(v, fields...)
		})

	case len(args) >= 2:
		fields, ok := fieldNames(args[1:])
		if !ok {
			return unresolvedCall(name, len(args), block != nil)
		}
		return b.Object(name, func(c *Builder) error {
			return c.Extract(args[0], fields...)
		})

	default:
		return unresolvedCall(name, len(args), block != nil)
	}
}

func fieldNames(args []any) ([]string, bool) {
	fields := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return nil, false
		}
		fields[i] = s
	}
	return fields, true
}

// isIterable reports whether v is collection-like for dispatch purposes.
// Byte slices and raw fragments count as scalars.
func isIterable(v any) bool {
	switch v.(type) {
	case nil, []byte, RawJSON, string:
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
