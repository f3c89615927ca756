package coerce

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/hanpama/gqlengine/internal/schema"
)

// InputValue coerces a JSON-decoded value (as supplied for variables) to
// the internal value of type t. Every failure found is returned, joined.
func InputValue(s *schema.Schema, t *schema.TypeRef, raw any) (any, error) {
	out, errs := inputValue(s, t, raw, nil)
	return out, joinErrors(errs)
}

func inputValue(s *schema.Schema, t *schema.TypeRef, raw any, path []any) (any, []error) {
	if t.IsNonNull() {
		if raw == nil {
			return nil, []error{newError(path, nil, "Expected non-nullable type %q not to be null.", t.String())}
		}
		return inputValue(s, t.OfType, raw, path)
	}
	if raw == nil {
		return nil, nil
	}

	if t.Kind == schema.TypeRefKindList {
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			// A single value is promoted to a list of one.
			item, errs := inputValue(s, t.OfType, raw, path)
			if len(errs) > 0 {
				return nil, errs
			}
			return []any{item}, nil
		}
		out := make([]any, rv.Len())
		var errs []error
		for i := range out {
			item, itemErrs := inputValue(s, t.OfType, rv.Index(i).Interface(), extend(path, i))
			out[i] = item
			errs = append(errs, itemErrs...)
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return out, nil
	}

	named := s.Types[t.Named]
	switch {
	case named == nil:
		return nil, []error{newError(path, nil, "Unknown type %q.", t.Named)}
	case named.IsInputObject():
		return objectFromInput(s, named, raw, path)
	case named.IsEnum():
		name, ok := raw.(string)
		if !ok {
			return nil, []error{newError(path, nil, "Enum %q cannot represent non-string value: %s.", named.Name, describe(raw))}
		}
		ev := named.EnumValue(name)
		if ev == nil {
			return nil, []error{newError(path, nil, "Value %q does not exist in %q enum.", name, named.Name)}
		}
		return ev.Value, nil
	case named.IsScalar():
		if named.ParseValue == nil {
			return raw, nil
		}
		out, err := named.ParseValue(raw)
		if err != nil {
			return nil, []error{newError(path, nil, "%s", err.Error())}
		}
		return out, nil
	}
	return nil, []error{newError(path, nil, "Type %q is not an input type.", named.Name)}
}

func objectFromInput(s *schema.Schema, t *schema.Type, raw any, path []any) (any, []error) {
	in, ok := raw.(map[string]any)
	if !ok {
		return nil, []error{newError(path, nil, "Expected type %q to be an object.", t.Name)}
	}
	var errs []error
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if t.InputField(name) == nil {
			errs = append(errs, newError(extend(path, name), nil,
				"Field %q is not defined by type %q.", name, t.Name))
		}
	}

	out := map[string]any{}
	for _, field := range t.InputFields {
		fieldPath := extend(path, field.Name)
		value, present := in[field.Name]
		if !present {
			if field.HasDefault {
				out[field.Name] = field.DefaultValue
			} else if field.Type.IsNonNull() {
				errs = append(errs, newError(fieldPath, nil,
					"Field \"%s.%s\" of required type %q was not provided.", t.Name, field.Name, field.Type.String()))
			}
			continue
		}
		coerced, ferrs := inputValue(s, field.Type, value, fieldPath)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		out[field.Name] = coerced
	}
	if t.OneOf && len(errs) == 0 {
		if err := checkOneOf(t, out, path, nil); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func describe(v any) string {
	switch v.(type) {
	case map[string]any:
		return "{...}"
	case []any:
		return "[...]"
	}
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}
