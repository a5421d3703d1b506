package jbuild

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// Extract reads the named properties off src and sets each under its own
// name, in the order given. Property resolution tries, in order: a string
// map key, an exported struct field (exact, then exported-case, then
// case-insensitive), and a zero-argument single-result method. Application is
// best effort: fields read before a failure stay set, and the error names the
// first property that could not be read.
func (b *Builder) Extract(src any, fields ...string) error {
	for _, f := range fields {
		v, err := property(src, f)
		if err != nil {
			return err
		}
		if err := b.Set(f, v); err != nil {
			return err
		}
	}
	return nil
}

func property(src any, name string) (any, error) {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, missingProperty(src, name)
		}
		// Methods may be declared on the pointer receiver; check before
		// indirecting.
		if v, ok := methodValue(rv, name); ok {
			return v, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if mv.IsValid() {
				return mv.Interface(), nil
			}
		}
	case reflect.Struct:
		if fv, ok := fieldValue(rv, name); ok {
			return fv, nil
		}
	}

	if rv.IsValid() {
		if v, ok := methodValue(rv, name); ok {
			return v, nil
		}
	}
	return nil, missingProperty(src, name)
}

func fieldValue(rv reflect.Value, name string) (any, bool) {
	t := rv.Type()
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return rv.FieldByIndex(f.Index).Interface(), true
	}
	if exported := strcase.ToCamel(name); exported != name {
		if f, ok := t.FieldByName(exported); ok && f.IsExported() {
			return rv.FieldByIndex(f.Index).Interface(), true
		}
	}
	if f, ok := t.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) }); ok && f.IsExported() {
		return rv.FieldByIndex(f.Index).Interface(), true
	}
	return nil, false
}

func methodValue(rv reflect.Value, name string) (any, bool) {
	m := rv.MethodByName(strcase.ToCamel(name))
	if !m.IsValid() {
		m = rv.MethodByName(name)
	}
	if !m.IsValid() {
		return nil, false
	}
	mt := m.Type()
	if mt.NumIn() != 0 || mt.NumOut() != 1 {
		return nil, false
	}
	return m.Call(nil)[0].Interface(), true
}
