package schema

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
)

// Decision is the outcome of a collection hook chain.
type Decision int

const (
	// Include keeps the selection.
	Include Decision = iota
	// Skip drops the selection and its subtree without reporting an error.
	Skip
)

func (d Decision) String() string {
	if d == Skip {
		return "Skip"
	}
	return "Include"
}

// CollectNext continues a collection hook chain.
type CollectNext func(ctx context.Context) (Decision, error)

// ResolveNext continues a field execution hook chain.
type ResolveNext func(ctx context.Context) (any, error)

// IntrospectionNext continues an introspection hook chain. It returns the
// element as seen by the inner hooks; nil hides it.
type IntrospectionNext func(ctx context.Context) (any, error)

// FieldCollector is implemented by directives used on fields.
type FieldCollector interface {
	OnFieldCollection(ctx context.Context, args map[string]any, next CollectNext, field *ast.Field) (Decision, error)
}

// FragmentSpreadCollector is implemented by directives used on fragment spreads.
type FragmentSpreadCollector interface {
	OnFragmentSpreadCollection(ctx context.Context, args map[string]any, next CollectNext, spread *ast.FragmentSpread) (Decision, error)
}

// InlineFragmentCollector is implemented by directives used on inline fragments.
type InlineFragmentCollector interface {
	OnInlineFragmentCollection(ctx context.Context, args map[string]any, next CollectNext, fragment *ast.InlineFragment) (Decision, error)
}

// FieldExecutor wraps the resolver of every field the directive is used on,
// either in the query or on the field definition.
type FieldExecutor interface {
	OnFieldExecution(ctx context.Context, args map[string]any, next ResolveNext, p ResolveParams) (any, error)
}

// IntrospectionFilter post-processes schema elements (types, fields,
// arguments, enum values) carrying the directive before introspection
// returns them.
type IntrospectionFilter interface {
	OnIntrospection(ctx context.Context, args map[string]any, next IntrospectionNext, element Directed) (any, error)
}
