// Package coerce turns argument literals of a query document and raw JSON
// variables into the internal values handed to resolvers.
//
// Coercion keeps the distinction between an omitted value and an explicit
// null: arguments and input fields that are neither supplied nor defaulted
// are absent from the result, while an explicit null is present as nil.
package coerce

import (
	"context"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/gqlengine/internal/gqlerrors"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

type argumentResult struct {
	value   any
	present bool
}

// ArgumentValues coerces the arguments supplied to one field or directive
// against their definitions. Arguments are coerced concurrently; the
// returned error joins every failure as located *gqlerror.Error values.
func ArgumentValues(ctx context.Context, s *schema.Schema, defs []*schema.InputValue, args ast.ArgumentList, vars map[string]any) (map[string]any, error) {
	results := make([]argumentResult, len(defs))
	sink := &errorSink{}

	g, ctx := errgroup.WithContext(ctx)
	for i, def := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				sink.add(err)
				return nil
			}
			value, present, errs := coerceArgument(s, def, args.ForName(def.Name), vars)
			results[i] = argumentResult{value: value, present: present}
			sink.add(errs...)
			return nil
		})
	}
	_ = g.Wait()

	if len(sink.errs) > 0 {
		return nil, errors.Join(sink.errs...)
	}
	out := make(map[string]any, len(defs))
	for i, def := range defs {
		if results[i].present {
			out[def.Name] = results[i].value
		}
	}
	return out, nil
}

func coerceArgument(s *schema.Schema, def *schema.InputValue, arg *ast.Argument, vars map[string]any) (any, bool, []error) {
	var (
		value   any
		present bool
		errs    []error
		pos     *ast.Position
	)
	if arg != nil {
		pos = arg.Position
		value, present, errs = valueFromAST(s, def.Type, arg.Value, vars, nil)
	}
	if len(errs) > 0 {
		out := make([]error, 0, len(errs))
		for _, err := range errs {
			out = append(out, argumentError(def, arg, err))
		}
		return nil, true, out
	}
	if present {
		return value, true, nil
	}
	if def.HasDefault {
		return def.DefaultValue, true, nil
	}
	if def.Type.IsNonNull() {
		locs := language.Locations(pos)
		msg := fmt.Sprintf("Argument %q of required type %q was not provided.", def.Name, def.Type.String())
		if arg != nil && arg.Value != nil && arg.Value.Kind == ast.Variable {
			msg = fmt.Sprintf("Argument %q of required type %q was provided the variable \"$%s\" which was not provided a runtime value.",
				def.Name, def.Type.String(), arg.Value.Raw)
		}
		return nil, false, []error{gqlerrors.New(gqlerrors.InvalidArgument, msg, nil, locs...)}
	}
	return nil, false, nil
}

func argumentError(def *schema.InputValue, arg *ast.Argument, err error) error {
	var cerr *Error
	if !errors.As(err, &cerr) {
		return gqlerrors.Wrap(gqlerrors.InvalidArgument, err, nil, nil)
	}
	pos := cerr.Position
	if pos == nil {
		pos = arg.Position
	}
	out := gqlerrors.Newf(gqlerrors.InvalidArgument, nil, language.Locations(pos),
		"Argument %q has invalid value %s. %s", def.Name, arg.Value.String(), cerr.Error())
	out.Err = cerr
	return out
}

// VariableValues coerces the raw variables of a request against the
// variable definitions of op. Any returned error is fatal for the request.
func VariableValues(s *schema.Schema, op *ast.OperationDefinition, raw map[string]any) (map[string]any, gqlerror.List) {
	out := map[string]any{}
	var errs gqlerror.List
	for _, def := range op.VariableDefinitions {
		locs := language.Locations(def.Position)
		t := schema.TypeRefFromAST(def.Type)
		if t == nil || !s.IsInputType(t) {
			errs = append(errs, gqlerrors.Newf(gqlerrors.InvalidVariable, nil, locs,
				"Variable \"$%s\" expected value of type %q which cannot be used as an input type.", def.Variable, def.Type.String()))
			continue
		}

		value, present := raw[def.Variable]
		if !present {
			if def.DefaultValue != nil {
				coerced, err := ValueFromAST(s, t, def.DefaultValue, nil)
				if err != nil {
					errs = append(errs, variableErrors(def, err, locs)...)
					continue
				}
				out[def.Variable] = coerced
			} else if t.IsNonNull() {
				errs = append(errs, gqlerrors.Newf(gqlerrors.InvalidVariable, nil, locs,
					"Variable \"$%s\" of required type %q was not provided.", def.Variable, t.String()))
			}
			continue
		}
		if value == nil && t.IsNonNull() {
			errs = append(errs, gqlerrors.Newf(gqlerrors.InvalidVariable, nil, locs,
				"Variable \"$%s\" of non-null type %q must not be null.", def.Variable, t.String()))
			continue
		}
		coerced, err := InputValue(s, t, value)
		if err != nil {
			errs = append(errs, variableErrors(def, err, locs)...)
			continue
		}
		out[def.Variable] = coerced
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func variableErrors(def *ast.VariableDefinition, err error, locs []gqlerror.Location) []*gqlerror.Error {
	var out []*gqlerror.Error
	for _, e := range gqlerrors.Flatten(err) {
		gerr := gqlerrors.Newf(gqlerrors.InvalidVariable, nil, locs,
			"Variable \"$%s\" got invalid value; %s", def.Variable, e.Error())
		gerr.Err = e
		out = append(out, gerr)
	}
	return out
}
