package coerce

import (
	"errors"
	"strconv"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/gqlengine/internal/schema"
)

// ValueFromAST coerces a literal of the query document to the internal
// value of type t. Variables inside the literal are replaced with their
// coerced values from vars; a variable missing from vars counts as an
// omitted value. Every failure found is returned, joined.
func ValueFromAST(s *schema.Schema, t *schema.TypeRef, v *ast.Value, vars map[string]any) (any, error) {
	out, _, errs := valueFromAST(s, t, v, vars, nil)
	return out, joinErrors(errs)
}

// valueFromAST reports present=false when v is a variable missing from
// vars, so that the caller can fall back to a default.
func valueFromAST(s *schema.Schema, t *schema.TypeRef, v *ast.Value, vars map[string]any, path []any) (out any, present bool, errs []error) {
	if v == nil {
		return nil, false, nil
	}
	if v.Kind == ast.Variable {
		value, ok := vars[v.Raw]
		if !ok {
			return nil, false, nil
		}
		if value == nil && t.IsNonNull() {
			return nil, true, []error{newError(path, v.Position,
				"Expected value of non-null type %q not to be null, but variable \"$%s\" is null.", t.String(), v.Raw)}
		}
		return value, true, nil
	}

	if t.IsNonNull() {
		if v.Kind == ast.NullValue {
			return nil, true, []error{newError(path, v.Position,
				"Expected value of non-null type %q not to be null.", t.String())}
		}
		return valueFromAST(s, t.OfType, v, vars, path)
	}
	if v.Kind == ast.NullValue {
		return nil, true, nil
	}

	if t.Kind == schema.TypeRefKindList {
		if v.Kind != ast.ListValue {
			// A single value is promoted to a list of one.
			item, _, errs := valueFromAST(s, t.OfType, v, vars, path)
			if len(errs) > 0 {
				return nil, true, errs
			}
			return []any{item}, true, nil
		}
		return listFromAST(s, t.OfType, v, vars, path)
	}

	named := s.Types[t.Named]
	switch {
	case named == nil:
		return nil, true, []error{newError(path, v.Position, "Unknown type %q.", t.Named)}
	case named.IsInputObject():
		return objectFromAST(s, named, v, vars, path)
	case named.IsEnum():
		if v.Kind != ast.EnumValue {
			return nil, true, []error{newError(path, v.Position,
				"Enum %q cannot represent non-enum value: %s.", named.Name, v.String())}
		}
		ev := named.EnumValue(v.Raw)
		if ev == nil {
			return nil, true, []error{newError(path, v.Position,
				"Value %q does not exist in %q enum.", v.Raw, named.Name)}
		}
		return ev.Value, true, nil
	case named.IsScalar():
		if v.Kind == ast.ListValue || v.Kind == ast.ObjectValue {
			if named.ParseLiteral != nil {
				return nil, true, []error{newError(path, v.Position,
					"%s cannot represent value: %s", named.Name, v.String())}
			}
		}
		if named.ParseLiteral == nil {
			out, errs := plainFromAST(v, vars, path)
			return out, true, errs
		}
		out, err := named.ParseLiteral(v)
		if err != nil {
			return nil, true, []error{newError(path, v.Position, "%s", err.Error())}
		}
		return out, true, nil
	}
	return nil, true, []error{newError(path, v.Position, "Type %q is not an input type.", named.Name)}
}

func listFromAST(s *schema.Schema, item *schema.TypeRef, v *ast.Value, vars map[string]any, path []any) (any, bool, []error) {
	out := make([]any, len(v.Children))
	itemErrs := make([][]error, len(v.Children))
	coerceItem := func(i int) {
		child := v.Children[i].Value
		value, present, errs := valueFromAST(s, item, child, vars, extend(path, i))
		if !present && len(errs) == 0 {
			// A missing variable inside a list is null.
			if item.IsNonNull() {
				errs = []error{newError(extend(path, i), child.Position,
					"Expected value of non-null type %q not to be null.", item.String())}
			}
		}
		out[i], itemErrs[i] = value, errs
	}

	if s.Types[item.NamedType()].IsInputObject() && len(v.Children) > 1 {
		var g errgroup.Group
		for i := range v.Children {
			g.Go(func() error {
				coerceItem(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range v.Children {
			coerceItem(i)
		}
	}

	var errs []error
	for _, e := range itemErrs {
		errs = append(errs, e...)
	}
	if len(errs) > 0 {
		return nil, true, errs
	}
	return out, true, nil
}

func objectFromAST(s *schema.Schema, t *schema.Type, v *ast.Value, vars map[string]any, path []any) (any, bool, []error) {
	if v.Kind != ast.ObjectValue {
		return nil, true, []error{newError(path, v.Position,
			"Expected value of type %q, found %s.", t.Name, v.String())}
	}
	var errs []error
	for _, child := range v.Children {
		if t.InputField(child.Name) == nil {
			errs = append(errs, newError(extend(path, child.Name), child.Position,
				"Field %q is not defined by type %q.", child.Name, t.Name))
		}
	}

	out := map[string]any{}
	for _, field := range t.InputFields {
		fieldPath := extend(path, field.Name)
		var (
			value   any
			present bool
			ferrs   []error
		)
		if child := v.Children.ForName(field.Name); child != nil {
			value, present, ferrs = valueFromAST(s, field.Type, child, vars, fieldPath)
		}
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		if !present {
			if field.HasDefault {
				out[field.Name] = field.DefaultValue
			} else if field.Type.IsNonNull() {
				errs = append(errs, newError(fieldPath, v.Position,
					"Field \"%s.%s\" of required type %q was not provided.", t.Name, field.Name, field.Type.String()))
			}
			continue
		}
		out[field.Name] = value
	}
	if t.OneOf && len(errs) == 0 {
		if err := checkOneOf(t, out, path, v.Position); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, true, errs
	}
	return out, true, nil
}

func checkOneOf(t *schema.Type, out map[string]any, path []any, pos *ast.Position) error {
	if len(out) != 1 {
		return newError(path, pos, "OneOf Input Object %q must specify exactly one key.", t.Name)
	}
	for name, value := range out {
		if value == nil {
			return newError(extend(path, name), pos, "Field \"%s.%s\" must be non-null.", t.Name, name)
		}
	}
	return nil
}

// plainFromAST converts a literal to plain Go values for custom scalars
// without a literal parser.
func plainFromAST(v *ast.Value, vars map[string]any, path []any) (any, []error) {
	switch v.Kind {
	case ast.Variable:
		return vars[v.Raw], nil
	case ast.IntValue:
		if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return nil, []error{newError(path, v.Position, "invalid number %s", v.Raw)}
		}
		return f, nil
	case ast.FloatValue:
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return nil, []error{newError(path, v.Position, "invalid number %s", v.Raw)}
		}
		return f, nil
	case ast.BooleanValue:
		return v.Raw == "true", nil
	case ast.NullValue:
		return nil, nil
	case ast.ListValue:
		out := make([]any, len(v.Children))
		var errs []error
		for i, c := range v.Children {
			item, e := plainFromAST(c.Value, vars, extend(path, i))
			out[i] = item
			errs = append(errs, e...)
		}
		return out, errs
	case ast.ObjectValue:
		out := make(map[string]any, len(v.Children))
		var errs []error
		for _, c := range v.Children {
			item, e := plainFromAST(c.Value, vars, extend(path, c.Name))
			out[c.Name] = item
			errs = append(errs, e...)
		}
		return out, errs
	}
	// StringValue, BlockValue and EnumValue
	return v.Raw, nil
}

// errorSink collects errors from concurrent coercions.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) add(errs ...error) {
	if len(errs) == 0 {
		return
	}
	s.mu.Lock()
	s.errs = append(s.errs, errs...)
	s.mu.Unlock()
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
