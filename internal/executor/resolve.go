package executor

import (
	"context"
	"reflect"
	"strings"

	"github.com/hanpama/gqlengine/internal/schema"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// DefaultResolver serves fields that have no resolver of their own. It
// reads the field from the source value, trying in order: a key of a
// map[string]any, a key of any other string-keyed map, a struct field whose
// json tag or name matches, and an exported method without arguments
// (optionally taking a context.Context and optionally returning an error).
// A source without the field resolves to null.
func DefaultResolver(ctx context.Context, p schema.ResolveParams) (any, error) {
	name := p.Info.FieldName
	if m, ok := p.Source.(map[string]any); ok {
		return m[name], nil
	}

	rv := reflect.ValueOf(p.Source)
	if !rv.IsValid() {
		return nil, nil
	}
	if v, ok := callMethod(ctx, rv, name); ok {
		return v.value, v.err
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface(), nil
		}
	}
	return nil, nil
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}
		if tag == name {
			return rv.Field(i), true
		}
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.IsExported() && sf.Tag.Get("json") != "-" && strings.EqualFold(sf.Name, name) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

type methodResult struct {
	value any
	err   error
}

func callMethod(ctx context.Context, rv reflect.Value, name string) (methodResult, bool) {
	if name == "" {
		return methodResult{}, false
	}
	m := rv.MethodByName(strings.ToUpper(name[:1]) + name[1:])
	if !m.IsValid() {
		return methodResult{}, false
	}
	mt := m.Type()
	var in []reflect.Value
	switch {
	case mt.NumIn() == 0:
	case mt.NumIn() == 1 && mt.In(0) == contextType:
		in = []reflect.Value{reflect.ValueOf(ctx)}
	default:
		return methodResult{}, false
	}
	switch {
	case mt.NumOut() == 1:
	case mt.NumOut() == 2 && mt.Out(1) == errorType:
	default:
		return methodResult{}, false
	}

	out := m.Call(in)
	res := methodResult{value: out[0].Interface()}
	if len(out) == 2 && !out[1].IsNil() {
		res.err = out[1].Interface().(error)
	}
	return res, true
}
