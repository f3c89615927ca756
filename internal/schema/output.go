package schema

import (
	"fmt"
	"reflect"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlengine/internal/gqlerrors"
)

// SerializeLeaf coerces a resolved value of a scalar or enum type to its
// output form. The value must not be nil.
func (t *Type) SerializeLeaf(raw any) (any, error) {
	switch t.Kind {
	case TypeKindScalar:
		if t.Serialize == nil {
			return raw, nil
		}
		out, err := t.Serialize(raw)
		if err != nil {
			return nil, err
		}
		return out, nil
	case TypeKindEnum:
		return t.serializeEnum(raw)
	}
	return nil, fmt.Errorf("type %s is not a leaf type", t.Name)
}

func (t *Type) serializeEnum(raw any) (any, error) {
	comparable := raw != nil && reflect.TypeOf(raw).Comparable()
	if comparable {
		for _, v := range t.EnumValues {
			if v.Value != nil && reflect.TypeOf(v.Value).Comparable() && v.Value == raw {
				return v.Name, nil
			}
		}
	}
	if s, ok := raw.(string); ok {
		if v := t.EnumValue(s); v != nil {
			return v.Name, nil
		}
	}
	return nil, fmt.Errorf("Enum %q cannot represent value: %s", t.Name, inspect(raw))
}

// CoerceOutput coerces a raw value against a leaf-shaped type reference
// (scalars and enums, possibly wrapped in lists and non-null). Every
// failure is reported as one InvalidValue error located at path; a null
// produced under a non-null position nulls the enclosing list.
func (s *Schema) CoerceOutput(t *TypeRef, raw any, path ast.Path) (any, gqlerror.List) {
	switch t.Kind {
	case TypeRefKindNonNull:
		if isNil(raw) {
			return nil, gqlerror.List{gqlerrors.Newf(gqlerrors.InvalidValue, path, nil,
				"Cannot return null for non-nullable type %s.", t)}
		}
		return s.CoerceOutput(t.OfType, raw, path)

	case TypeRefKindList:
		if isNil(raw) {
			return nil, nil
		}
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, gqlerror.List{gqlerrors.Newf(gqlerrors.InvalidValue, path, nil,
				"Expected Iterable, but did not find one for type %s.", t)}
		}
		out := make([]any, rv.Len())
		var errs gqlerror.List
		nulled := false
		for i := range out {
			elemPath := append(append(ast.Path(nil), path...), ast.PathIndex(i))
			v, elemErrs := s.CoerceOutput(t.OfType, rv.Index(i).Interface(), elemPath)
			errs = append(errs, elemErrs...)
			if v == nil && t.OfType.IsNonNull() {
				nulled = true
			}
			out[i] = v
		}
		if nulled {
			return nil, errs
		}
		return out, errs
	}

	if isNil(raw) {
		return nil, nil
	}
	named := s.Types[t.Named]
	if named == nil {
		return nil, gqlerror.List{gqlerrors.Newf(gqlerrors.InvalidType, path, nil, "Unknown type %q.", t.Named)}
	}
	if !named.IsLeaf() {
		return nil, gqlerror.List{gqlerrors.Newf(gqlerrors.InvalidType, path, nil,
			"Type %s is not a leaf type.", t.Named)}
	}
	v, err := named.SerializeLeaf(raw)
	if err != nil {
		return nil, gqlerror.List{gqlerrors.Wrap(gqlerrors.InvalidValue, err, path, nil)}
	}
	return v, nil
}

// isNil reports whether v is nil or a typed nil pointer, map, slice or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// IsNil reports whether a resolved value counts as GraphQL null.
func IsNil(v any) bool { return isNil(v) }
