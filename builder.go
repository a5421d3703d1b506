package jbuild

import (
	"sort"

	"github.com/reoring/jbuild/internal/ordered"
)

// Ordered is the insertion-ordered mapping backing object containers. Finish
// returns *Ordered for a builder in mapping mode, which makes one builder's
// result mergeable into another.
type Ordered = ordered.Map

type containerMode int

const (
	modeUnset containerMode = iota
	modeMap
	modeList
)

// Builder accumulates key/value pairs or array elements into an ordered
// container and serializes the result to JSON. A builder starts untouched;
// the first mapping operation fixes it as an object, the first append
// operation fixes it as a list. The conversion is one-way: mixing the two
// families on one builder is a mode conflict.
type Builder struct {
	cfg   config
	mode  containerMode
	attrs *ordered.Map
	list  []any
}

// New returns an empty Builder.
func New(opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Builder{cfg: cfg}
}

// child returns a fresh builder carrying the parent's configuration, so
// cache, key format and budget settings hold at every nesting depth.
func (b *Builder) child() *Builder {
	return &Builder{cfg: b.cfg}
}

func (b *Builder) toMapMode(field string) error {
	switch b.mode {
	case modeUnset:
		b.mode = modeMap
		b.attrs = ordered.New()
		return nil
	case modeMap:
		return nil
	default:
		return modeConflict(field, "container already holds array elements")
	}
}

func (b *Builder) toListMode() error {
	switch b.mode {
	case modeUnset:
		b.mode = modeList
		b.list = []any{}
		return nil
	case modeList:
		return nil
	default:
		return modeConflict("", "container already holds object fields")
	}
}

// Set stores value under name as-is. No nesting is performed even if value is
// itself container-like; use Object for that. Re-setting a field is last
// write wins with the field's original position retained. With WithKeyFormat
// the stored key is the formatted name; with WithIgnoreNil a nil value is
// dropped.
func (b *Builder) Set(name string, value any) error {
	if b.cfg.ignoreNil && value == nil {
		return nil
	}
	if err := b.toMapMode(name); err != nil {
		return err
	}
	b.attrs.Set(b.formatKey(name), value)
	return nil
}

// Object builds a nested object under name by running fn against a fresh
// child builder. The child's finished container is stored by value; the child
// shares no state with the parent.
func (b *Builder) Object(name string, fn func(*Builder) error) error {
	if err := b.toMapMode(name); err != nil {
		return err
	}
	c := b.child()
	if err := fn(c); err != nil {
		return err
	}
	v, err := c.Finish()
	if err != nil {
		return err
	}
	b.attrs.Set(b.formatKey(name), v)
	return nil
}

// Child converts the container to list mode and appends an object built by fn
// against a fresh child builder.
func (b *Builder) Child(fn func(*Builder) error) error {
	if err := b.toListMode(); err != nil {
		return err
	}
	c := b.child()
	if err := fn(c); err != nil {
		return err
	}
	v, err := c.Finish()
	if err != nil {
		return err
	}
	b.list = append(b.list, v)
	return nil
}

// AppendRaw converts the container to list mode and appends a pre-serialized
// JSON fragment, spliced verbatim at encode time.
func (b *Builder) AppendRaw(raw RawJSON) error {
	if err := b.toListMode(); err != nil {
		return err
	}
	b.list = append(b.list, raw)
	return nil
}

// Merge bulk-inserts src into the container. Accepted shapes: *ordered.Map
// and map[string]any for mapping mode (plain map keys are inserted in sorted
// order since Go maps carry none), []any for list mode.
func (b *Builder) Merge(src any) error {
	switch s := src.(type) {
	case *ordered.Map:
		if err := b.toMapMode(""); err != nil {
			return err
		}
		var rerr error
		s.Range(func(k string, v any) bool {
			rerr = b.Set(k, v)
			return rerr == nil
		})
		return rerr
	case map[string]any:
		if err := b.toMapMode(""); err != nil {
			return err
		}
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := b.Set(k, s[k]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if err := b.toListMode(); err != nil {
			return err
		}
		b.list = append(b.list, s...)
		return nil
	default:
		return Issue{Code: CodeParseError, Message: "merge source must be an object or list"}
	}
}

func (b *Builder) formatKey(name string) string {
	if b.cfg.keyFormat == nil {
		return name
	}
	return b.cfg.keyFormat(name)
}

// Finish returns the container's current value tree: an ordered mapping, a
// list, or an empty object for an untouched builder. Values that are
// themselves Builders are resolved; RawJSON fragments pass through for the
// encoder to splice.
func (b *Builder) Finish() (any, error) {
	switch b.mode {
	case modeList:
		out := make([]any, len(b.list))
		for i, v := range b.list {
			rv, err := finishValue(v)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case modeMap:
		var ferr error
		b.attrs.Range(func(k string, v any) bool {
			rv, err := finishValue(v)
			if err != nil {
				ferr = err
				return false
			}
			b.attrs.Set(k, rv)
			return true
		})
		if ferr != nil {
			return nil, ferr
		}
		return b.attrs, nil
	default:
		return ordered.New(), nil
	}
}

func finishValue(v any) (any, error) {
	if nested, ok := v.(*Builder); ok {
		return nested.Finish()
	}
	return v, nil
}
