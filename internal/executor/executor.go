package executor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlengine/internal/coerce"
	"github.com/hanpama/gqlengine/internal/gqlerrors"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Executor runs operations against one schema. It is safe for concurrent
// use.
type Executor struct {
	schema *schema.Schema
	logger logrus.FieldLogger
	limit  int
}

type Option func(*Executor)

// WithLogger sets the logger used for recovered resolver panics.
func WithLogger(l logrus.FieldLogger) Option { return func(e *Executor) { e.logger = l } }

// WithConcurrencyLimit bounds how many siblings (fields of one object or
// elements of one list) are resolved at once. 0 means unlimited.
func WithConcurrencyLimit(n int) Option { return func(e *Executor) { e.limit = n } }

func NewExecutor(s *schema.Schema, opts ...Option) *Executor {
	e := &Executor{schema: s, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params describe one request.
type Params struct {
	Document      *ast.QueryDocument
	OperationName string
	RootValue     any
	// Variables are the raw (JSON decoded) variable values.
	Variables map[string]any
}

// Execute runs p against s with default options.
func Execute(ctx context.Context, s *schema.Schema, p Params) *ExecutionResult {
	return NewExecutor(s).Execute(ctx, p)
}

// Execute runs the operation of p. Request-fatal errors yield a result with
// nil Data; every other error is reported next to the partial data.
func (e *Executor) Execute(ctx context.Context, p Params) *ExecutionResult {
	prep, fatal := e.prepare(ctx, p)
	if fatal != nil {
		return &ExecutionResult{Errors: fatal}
	}
	return e.run(ctx, prep, p.RootValue)
}

// prepared is an operation ready to run: selected, with coerced variables
// and its collected field tree.
type prepared struct {
	document  *ast.QueryDocument
	operation *ast.OperationDefinition
	variables map[string]any
	tree      *FieldTree
	errors    gqlerror.List
}

func (e *Executor) prepare(ctx context.Context, p Params) (*prepared, gqlerror.List) {
	doc := p.Document
	if doc == nil {
		return nil, gqlerror.List{gqlerrors.New(gqlerrors.UnknownOperation, "Must provide document.", nil)}
	}
	if errs := checkOperationNames(doc); len(errs) > 0 {
		return nil, errs
	}
	op, err := selectOperation(doc, p.OperationName)
	if err != nil {
		return nil, gqlerror.List{err}
	}
	rootName, rerr := e.schema.GetOperationType(op.Operation)
	if rerr != nil {
		gerr := gqlerrors.Newf(gqlerrors.UnknownOperation, nil, language.Locations(op.Position),
			"Schema is not configured to execute %s operation.", op.Operation)
		gerr.Err = rerr
		return nil, gqlerror.List{gerr}
	}
	vars, errs := coerce.VariableValues(e.schema, op, p.Variables)
	if len(errs) > 0 {
		return nil, errs
	}

	acc := &gqlerrors.Accumulator{}
	fragments, dupes := indexFragments(doc)
	acc.Append(dupes...)
	acc.Append(unusedFragments(doc, fragments)...)

	tree := newCollector(ctx, e.schema, vars, fragments, acc).collectOperation(e.schema.Types[rootName], op)
	if errs := e.checkSubscriptionRoots(ctx, doc, op, len(tree.Roots), fragments, p.Variables); len(errs) > 0 {
		return nil, errs
	}
	return &prepared{
		document:  doc,
		operation: op,
		variables: vars,
		tree:      tree,
		errors:    acc.List(),
	}, nil
}

// checkSubscriptionRoots reports every subscription operation of doc that
// does not select exactly one root field once directives are applied and
// fragments expanded. The selected operation is counted by the caller.
func (e *Executor) checkSubscriptionRoots(ctx context.Context, doc *ast.QueryDocument, selected *ast.OperationDefinition, selectedRoots int, fragments map[string]*ast.FragmentDefinition, variables map[string]any) gqlerror.List {
	var errs gqlerror.List
	for _, op := range doc.Operations {
		if op.Operation != ast.Subscription {
			continue
		}
		roots := selectedRoots
		if op != selected {
			rootName, err := e.schema.GetOperationType(op.Operation)
			if err != nil {
				continue
			}
			vars, _ := coerce.VariableValues(e.schema, op, variables)
			roots = len(newCollector(ctx, e.schema, vars, fragments, &gqlerrors.Accumulator{}).
				collectRoots(e.schema.Types[rootName], op))
		}
		if roots != 1 {
			errs = append(errs, gqlerrors.New(gqlerrors.MultipleRootNode,
				"Subscription operations must have exactly one root field.", nil,
				language.Locations(op.Position)...))
		}
	}
	return errs
}

func (e *Executor) run(ctx context.Context, prep *prepared, rootValue any) *ExecutionResult {
	st := e.newState(prep, rootValue)
	st.executeOperation(ctx)
	return &ExecutionResult{
		Data:          st.data,
		Errors:        st.errors.List(),
		introspection: st.IsIntrospection(),
	}
}

// Subscribe runs a subscription operation: the subscribe function of the
// root field is invoked once and every event it delivers is executed as the
// root value of the operation. The channel is closed when the event stream
// ends or ctx is done. Errors that prevent the subscription are delivered
// as a single result. Operations other than subscriptions yield exactly one
// result.
func (e *Executor) Subscribe(ctx context.Context, p Params) <-chan *ExecutionResult {
	out := make(chan *ExecutionResult, 1)
	prep, fatal := e.prepare(ctx, p)
	if fatal != nil {
		out <- &ExecutionResult{Errors: fatal}
		close(out)
		return out
	}
	if prep.operation.Operation != ast.Subscription {
		out <- e.run(ctx, prep, p.RootValue)
		close(out)
		return out
	}

	source, errs := e.newState(prep, p.RootValue).subscribe(ctx)
	if len(errs) > 0 {
		out <- &ExecutionResult{Errors: errs}
		close(out)
		return out
	}
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-source:
				if !ok {
					return
				}
				select {
				case out <- e.run(ctx, prep, event):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (e *Executor) newState(prep *prepared, rootValue any) *executionState {
	st := &executionState{
		executor:  e,
		schema:    e.schema,
		document:  prep.document,
		operation: prep.operation,
		tree:      prep.tree,
		variables: prep.variables,
		rootValue: rootValue,
	}
	st.errors.Append(prep.errors...)
	return st
}

// subscribe opens the event stream of the root field.
func (st *executionState) subscribe(ctx context.Context) (<-chan any, gqlerror.List) {
	n := st.tree.Node(st.tree.Roots[0])
	path := ast.Path{ast.PathName(n.Alias)}
	if n.Field == nil {
		return nil, gqlerror.List{gqlerrors.New(gqlerrors.UnknownSchemaFieldResolver,
			"Subscription root field must be a schema field.", path, n.Locations()...)}
	}
	coordinate := fmt.Sprintf("%s.%s", n.ParentType.Name, n.Name)
	if n.Field.Subscribe == nil {
		return nil, gqlerror.List{gqlerrors.Newf(gqlerrors.ResolverError, path, n.Locations(),
			"Subscription field %q has no subscribe function.", coordinate)}
	}
	info := st.resolveInfo(n, path)
	args, err := coerce.ArgumentValues(ctx, st.schema, n.Field.Arguments, n.Fields[0].Arguments, st.variables)
	if err != nil {
		st.errors.AddKind(gqlerrors.InvalidArgument, err, path, info.Locations)
		return nil, st.errors.List()
	}
	source, err := n.Field.Subscribe(ctx, schema.ResolveParams{Source: st.rootValue, Args: args, Info: info})
	if err != nil {
		st.errors.AddKind(gqlerrors.ResolverError, err, path, info.Locations)
		return nil, st.errors.List()
	}
	if source == nil {
		return nil, gqlerror.List{gqlerrors.Newf(gqlerrors.ResolverError, path, n.Locations(),
			"Subscription field %q returned no event stream.", coordinate)}
	}
	return source, nil
}
