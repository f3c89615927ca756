package directive

import (
	"context"
	"reflect"

	"github.com/hanpama/gqlengine/internal/schema"
)

// FilterIntrospection runs the IntrospectionFilter hooks of the directives
// applied on schema elements. A single element that a hook hides becomes
// nil; hidden elements are dropped from slices. Values that are not schema
// elements are returned unchanged.
func FilterIntrospection(ctx context.Context, s *schema.Schema, value any) (any, error) {
	if el, ok := value.(schema.Directed); ok {
		return filterElement(ctx, s, el)
	}

	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return value, nil
	}
	elemType := rv.Type().Elem()
	directedType := reflect.TypeOf((*schema.Directed)(nil)).Elem()
	if elemType.Kind() != reflect.Interface && !elemType.Implements(directedType) {
		return value, nil
	}

	out := reflect.MakeSlice(rv.Type(), 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i)
		el, ok := item.Interface().(schema.Directed)
		if !ok {
			out = reflect.Append(out, item)
			continue
		}
		kept, err := filterElement(ctx, s, el)
		if err != nil {
			return nil, err
		}
		if schema.IsNil(kept) {
			continue
		}
		kv := reflect.ValueOf(kept)
		if !kv.Type().AssignableTo(elemType) {
			kv = item
		}
		out = reflect.Append(out, kv)
	}
	return out.Interface(), nil
}

func filterElement(ctx context.Context, s *schema.Schema, el schema.Directed) (any, error) {
	if schema.IsNil(el) {
		return el, nil
	}
	applied := FromSchema(s, el.AppliedDirectives())
	next := schema.IntrospectionNext(func(context.Context) (any, error) { return el, nil })
	hooked := false
	for i := len(applied) - 1; i >= 0; i-- {
		h, ok := applied[i].Definition.Implementation.(schema.IntrospectionFilter)
		if !ok {
			continue
		}
		hooked = true
		args, inner := applied[i].Args, next
		next = func(ctx context.Context) (any, error) {
			return h.OnIntrospection(ctx, args, inner, el)
		}
	}
	if !hooked {
		return el, nil
	}
	return next(ctx)
}
