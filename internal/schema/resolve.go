package schema

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ResolveFunc produces the raw value of a field. Returned errors become
// field errors located at the field; they never abort the request.
type ResolveFunc func(ctx context.Context, p ResolveParams) (any, error)

// SubscribeFunc produces the event stream of a subscription root field. It
// is invoked once per subscription; every received value is executed as the
// source of the root field.
type SubscribeFunc func(ctx context.Context, p ResolveParams) (<-chan any, error)

// TypeResolver returns the concrete object type name of an abstract value.
type TypeResolver func(ctx context.Context, value any, info *ResolveInfo) (string, error)

// Typer can be implemented by resolved values to name their object type.
type Typer interface {
	GraphQLType() string
}

// ResolveParams are the inputs of one resolver call.
type ResolveParams struct {
	// Source is the parent value, or the root value for root fields.
	Source any
	// Args are the coerced arguments. Arguments that were neither supplied
	// nor defaulted are absent.
	Args map[string]any
	Info *ResolveInfo
}

// ResolveInfo describes the field being resolved.
type ResolveInfo struct {
	FieldName      string
	ResponseKey    string
	Field          *Field
	ParentType     *Type
	ReturnType     *TypeRef
	Schema         *Schema
	Path           ast.Path
	Locations      []gqlerror.Location
	FieldNodes     []*ast.Field
	Operation      *ast.OperationDefinition
	Fragments      ast.FragmentDefinitionList
	VariableValues map[string]any
	RootValue      any
	Node           ExecutableNode
	Execution      Execution
}

// ExecutableNode is the per-request node a field is executed for.
type ExecutableNode interface {
	ResponseKey() string
	FieldName() string
	TypeCondition() string
	ASTFields() []*ast.Field
}

// Execution exposes the per-request execution state to resolvers.
type Execution interface {
	// AddError records an additional error without failing the field.
	AddError(err error, path ast.Path, locations []gqlerror.Location)
	// MarkIntrospection flags the request as touching introspection fields.
	MarkIntrospection()
	IsIntrospection() bool
}
