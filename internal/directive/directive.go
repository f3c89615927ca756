// Package directive composes directive hooks around selection collection,
// field resolution and introspection.
//
// Hooks are chained onion style: the first directive listed on an element
// is the outermost layer, and each layer decides when to call the next one.
// The innermost callable is the real work (an always-include decision, the
// field resolver or the unfiltered schema element).
package directive

import (
	"context"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlengine/internal/coerce"
	"github.com/hanpama/gqlengine/internal/gqlerrors"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Applied is one directive use with its coerced arguments.
type Applied struct {
	Definition *schema.Directive
	Args       map[string]any
	Position   *ast.Position
}

// Resolve validates the directives used on one selection and coerces their
// arguments. Failures are returned joined; the selection carrying them must
// not be collected.
func Resolve(ctx context.Context, s *schema.Schema, loc schema.DirectiveLocation, list ast.DirectiveList, vars map[string]any) ([]Applied, error) {
	if len(list) == 0 {
		return nil, nil
	}
	var (
		out  = make([]Applied, 0, len(list))
		errs []error
		seen = map[string]bool{}
	)
	for _, d := range list {
		locs := language.Locations(d.Position)
		def, err := s.FindDirective(d.Name)
		if err != nil {
			errs = append(errs, gqlerrors.Newf(gqlerrors.UnknownDirective, nil, locs, "Unknown directive \"@%s\".", d.Name))
			continue
		}
		if !def.AllowedAt(loc) {
			errs = append(errs, gqlerrors.Newf(gqlerrors.MisplacedDirective, nil, locs,
				"Directive \"@%s\" may not be used on %s.", d.Name, loc))
			continue
		}
		if seen[d.Name] && !def.IsRepeatable {
			errs = append(errs, gqlerrors.Newf(gqlerrors.MisplacedDirective, nil, locs,
				"The directive \"@%s\" can only be used once at this location.", d.Name))
			continue
		}
		seen[d.Name] = true

		if argErrs := checkArguments(def, d); len(argErrs) > 0 {
			errs = append(errs, argErrs...)
			continue
		}
		args, err := coerce.ArgumentValues(ctx, s, def.Arguments, d.Arguments, vars)
		if err != nil {
			for _, e := range gqlerrors.Flatten(err) {
				gerr := gqlerrors.Wrap(gqlerrors.InvalidDirectiveArgument, e, nil, locs)
				gerr.Rule = gqlerrors.InvalidDirectiveArgument
				errs = append(errs, gerr)
			}
			continue
		}
		out = append(out, Applied{Definition: def, Args: args, Position: d.Position})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func checkArguments(def *schema.Directive, d *ast.Directive) []error {
	var errs []error
	for _, arg := range d.Arguments {
		if def.Argument(arg.Name) == nil {
			errs = append(errs, gqlerrors.Newf(gqlerrors.UndefinedDirectiveArgument, nil, language.Locations(arg.Position),
				"Unknown argument \"%s\" on directive \"@%s\".", arg.Name, d.Name))
		}
	}
	for _, a := range def.Arguments {
		if a.Type.IsNonNull() && !a.HasDefault && d.Arguments.ForName(a.Name) == nil {
			errs = append(errs, gqlerrors.Newf(gqlerrors.MissingRequiredDirectiveArgument, nil, language.Locations(d.Position),
				"Directive \"@%s\" argument \"%s\" of type \"%s\" is required, but it was not provided.", d.Name, a.Name, a.Type))
		}
	}
	return errs
}

// FromSchema turns directives applied on a schema element into Applied
// values. Directives without a definition are ignored.
func FromSchema(s *schema.Schema, list []*schema.AppliedDirective) []Applied {
	if len(list) == 0 {
		return nil
	}
	out := make([]Applied, 0, len(list))
	for _, d := range list {
		def := s.Directives[d.Name]
		if def == nil {
			continue
		}
		args := d.Args
		if len(def.Arguments) > 0 {
			args = make(map[string]any, len(def.Arguments))
			for k, v := range d.Args {
				args[k] = v
			}
			for _, a := range def.Arguments {
				if _, ok := args[a.Name]; !ok && a.HasDefault {
					args[a.Name] = a.DefaultValue
				}
			}
		}
		out = append(out, Applied{Definition: def, Args: args})
	}
	return out
}

// ----- collection -----

type collectHook func(impl any, ctx context.Context, args map[string]any, next schema.CollectNext) (schema.Decision, error, bool)

func include(context.Context) (schema.Decision, error) { return schema.Include, nil }

func collect(ctx context.Context, applied []Applied, hook collectHook) (schema.Decision, error) {
	next := schema.CollectNext(include)
	for i := len(applied) - 1; i >= 0; i-- {
		a, inner := applied[i], next
		next = func(ctx context.Context) (schema.Decision, error) {
			d, err, ok := hook(a.Definition.Implementation, ctx, a.Args, inner)
			if !ok {
				return inner(ctx)
			}
			return d, err
		}
	}
	return next(ctx)
}

// CollectField runs the field collection chain for a field selection.
func CollectField(ctx context.Context, applied []Applied, field *ast.Field) (schema.Decision, error) {
	return collect(ctx, applied, func(impl any, ctx context.Context, args map[string]any, next schema.CollectNext) (schema.Decision, error, bool) {
		h, ok := impl.(schema.FieldCollector)
		if !ok {
			return schema.Include, nil, false
		}
		d, err := h.OnFieldCollection(ctx, args, next, field)
		return d, err, true
	})
}

// CollectFragmentSpread runs the collection chain for a fragment spread.
func CollectFragmentSpread(ctx context.Context, applied []Applied, spread *ast.FragmentSpread) (schema.Decision, error) {
	return collect(ctx, applied, func(impl any, ctx context.Context, args map[string]any, next schema.CollectNext) (schema.Decision, error, bool) {
		h, ok := impl.(schema.FragmentSpreadCollector)
		if !ok {
			return schema.Include, nil, false
		}
		d, err := h.OnFragmentSpreadCollection(ctx, args, next, spread)
		return d, err, true
	})
}

// CollectInlineFragment runs the collection chain for an inline fragment.
func CollectInlineFragment(ctx context.Context, applied []Applied, fragment *ast.InlineFragment) (schema.Decision, error) {
	return collect(ctx, applied, func(impl any, ctx context.Context, args map[string]any, next schema.CollectNext) (schema.Decision, error, bool) {
		h, ok := impl.(schema.InlineFragmentCollector)
		if !ok {
			return schema.Include, nil, false
		}
		d, err := h.OnInlineFragmentCollection(ctx, args, next, fragment)
		return d, err, true
	})
}

// ----- execution -----

// ExecuteField wraps resolve with the FieldExecutor hooks of applied and
// runs the chain.
func ExecuteField(ctx context.Context, applied []Applied, resolve schema.ResolveNext, p schema.ResolveParams) (any, error) {
	next := resolve
	for i := len(applied) - 1; i >= 0; i-- {
		h, ok := applied[i].Definition.Implementation.(schema.FieldExecutor)
		if !ok {
			continue
		}
		args, inner := applied[i].Args, next
		next = func(ctx context.Context) (any, error) {
			return h.OnFieldExecution(ctx, args, inner, p)
		}
	}
	return next(ctx)
}

// HasFieldExecutors reports whether any of applied wraps field execution.
func HasFieldExecutors(applied []Applied) bool {
	for _, a := range applied {
		if _, ok := a.Definition.Implementation.(schema.FieldExecutor); ok {
			return true
		}
	}
	return false
}

// Errors converts a joined error returned by Resolve into located errors.
func Errors(err error, path ast.Path) gqlerror.List {
	var out gqlerror.List
	for _, e := range gqlerrors.Flatten(err) {
		out = append(out, gqlerrors.Wrap(gqlerrors.KindOf(e), e, path, nil))
	}
	return out
}

// LocationOf returns the directive location of a selection.
func LocationOf(sel ast.Selection) schema.DirectiveLocation {
	switch sel.(type) {
	case *ast.Field:
		return schema.LocationField
	case *ast.FragmentSpread:
		return schema.LocationFragmentSpread
	case *ast.InlineFragment:
		return schema.LocationInlineFragment
	}
	panic(fmt.Sprintf("unexpected selection %T", sel))
}
