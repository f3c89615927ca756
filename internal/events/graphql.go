package events

import (
	"time"

	"github.com/vektah/gqlparser/v2/ast"
)

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
	// Introspection is set when the operation queried __schema or __type.
	Introspection bool
}

// FieldStart is emitted before a field resolver is called. Fields served by
// the default resolver are not reported.
type FieldStart struct {
	TypeName  string
	FieldName string
	Path      ast.Path
}

// FieldFinish is emitted after a field resolver returned.
type FieldFinish struct {
	TypeName  string
	FieldName string
	Path      ast.Path
	Err       error
	Duration  time.Duration
}
