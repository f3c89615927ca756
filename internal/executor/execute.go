package executor

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dolmen-go/jsonmap"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/gqlengine/internal/coerce"
	"github.com/hanpama/gqlengine/internal/directive"
	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/gqlerrors"
	"github.com/hanpama/gqlengine/internal/schema"
)

// executionState holds the state of one operation run.
type executionState struct {
	executor  *Executor
	schema    *schema.Schema
	document  *ast.QueryDocument
	operation *ast.OperationDefinition
	tree      *FieldTree
	variables map[string]any
	rootValue any

	errors        gqlerrors.Accumulator
	introspection atomic.Bool

	// mu guards the response tree: data, every container and cell flags.
	mu   sync.Mutex
	data any
}

// cell is a position of the response tree a completed value is written to.
type cell struct {
	parent   *cell
	nullable bool
	// dead is set once a bubbled null replaced the value of the cell.
	dead bool
	set  func(v any)
}

func (st *executionState) AddError(err error, path ast.Path, locations []gqlerror.Location) {
	st.errors.Add(err, path, locations)
}

func (st *executionState) MarkIntrospection()    { st.introspection.Store(true) }
func (st *executionState) IsIntrospection() bool { return st.introspection.Load() }

func (st *executionState) executeOperation(ctx context.Context) {
	root := &cell{nullable: true, set: func(v any) { st.data = v }}
	obj := newObject(st.tree, st.tree.Roots)
	if !st.write(root, obj) {
		return
	}
	serial := st.operation.Operation == ast.Mutation
	st.executeFields(ctx, st.tree.Roots, st.rootValue, obj, root, nil, serial)
}

func newObject(tree *FieldTree, ids []NodeID) *jsonmap.Ordered {
	obj := &jsonmap.Ordered{
		Data:  make(map[string]interface{}, len(ids)),
		Order: make([]string, 0, len(ids)),
	}
	for _, id := range ids {
		key := tree.Node(id).Alias
		obj.Order = append(obj.Order, key)
		obj.Data[key] = nil
	}
	return obj
}

// executeFields runs the fields of one object. Fields are launched together
// and joined, or run in order when serial is set.
func (st *executionState) executeFields(ctx context.Context, ids []NodeID, source any, obj *jsonmap.Ordered, parent *cell, path ast.Path, serial bool) {
	var g *errgroup.Group
	if !serial {
		g = st.group()
	}
	for _, id := range ids {
		n := st.tree.Node(id)
		key := n.Alias
		c := &cell{parent: parent, nullable: !n.CantBeNull, set: func(v any) { obj.Data[key] = v }}
		fieldPath := appendPath(path, ast.PathName(key))
		if serial {
			st.executeField(ctx, n, source, c, fieldPath)
			continue
		}
		g.Go(func() error {
			st.executeField(ctx, n, source, c, fieldPath)
			return nil
		})
	}
	if g != nil {
		_ = g.Wait()
	}
}

func (st *executionState) group() *errgroup.Group {
	g := &errgroup.Group{}
	if st.executor.limit > 0 {
		g.SetLimit(st.executor.limit)
	}
	return g
}

func (st *executionState) executeField(ctx context.Context, n *Node, source any, c *cell, path ast.Path) {
	if st.isDead(c) {
		return
	}
	if n.Field == nil {
		st.write(c, n.ParentType.Name)
		return
	}

	info := st.resolveInfo(n, path)
	args, err := coerce.ArgumentValues(ctx, st.schema, n.Field.Arguments, n.Fields[0].Arguments, st.variables)
	if err != nil {
		st.errors.AddKind(gqlerrors.InvalidArgument, err, path, info.Locations)
		st.nullify(c)
		return
	}

	introspective := schema.IsIntrospection(n.Name) || schema.IsIntrospection(n.ParentType.Name)
	if n.Name == "__schema" || n.Name == "__type" {
		st.MarkIntrospection()
	}
	raw, err := st.resolve(ctx, n, schema.ResolveParams{Source: source, Args: args, Info: info})
	if err == nil && introspective && st.IsIntrospection() {
		raw, err = directive.FilterIntrospection(ctx, st.schema, raw)
	}
	if err != nil {
		st.errors.AddKind(gqlerrors.ResolverError, err, path, info.Locations)
		st.nullify(c)
		return
	}
	st.complete(ctx, n, info, n.Field.Type, raw, c, path)
}

// resolve calls the field resolver inside the FieldExecutor hooks of the
// field definition and of the query, in that order.
func (st *executionState) resolve(ctx context.Context, n *Node, p schema.ResolveParams) (raw any, err error) {
	fn := n.Field.Resolve
	traced := fn != nil
	if fn == nil {
		fn = DefaultResolver
	}
	applied := append(directive.FromSchema(st.schema, n.Field.Directives), n.Directives...)

	start := time.Now()
	if traced {
		eventbus.Publish(ctx, events.FieldStart{TypeName: n.ParentType.Name, FieldName: n.Name, Path: p.Info.Path})
	}
	defer func() {
		if r := recover(); r != nil {
			coordinate := n.ParentType.Name + "." + n.Name
			st.executor.logger.WithFields(logrus.Fields{
				"field": coordinate,
				"path":  p.Info.Path.String(),
			}).Errorf("resolver panicked: %v", r)
			raw = nil
			err = &gqlerror.Error{
				Message: fmt.Sprintf("Internal error while resolving %q.", coordinate),
				Rule:    gqlerrors.ResolverPanicked,
				Err:     fmt.Errorf("panic: %v", r),
			}
		}
		if traced {
			eventbus.Publish(ctx, events.FieldFinish{
				TypeName:  n.ParentType.Name,
				FieldName: n.Name,
				Path:      p.Info.Path,
				Err:       err,
				Duration:  time.Since(start),
			})
		}
	}()

	call := func(ctx context.Context) (any, error) { return fn(ctx, p) }
	if directive.HasFieldExecutors(applied) {
		return directive.ExecuteField(ctx, applied, call, p)
	}
	return call(ctx)
}

// complete coerces raw against t and writes it to c, descending into
// lists and objects.
func (st *executionState) complete(ctx context.Context, n *Node, info *schema.ResolveInfo, t *schema.TypeRef, raw any, c *cell, path ast.Path) {
	if t.IsNonNull() {
		if schema.IsNil(raw) {
			st.errors.Append(gqlerrors.Newf(gqlerrors.InvalidValue, path, info.Locations,
				"Cannot return null for non-nullable field %s.%s.", n.ParentType.Name, n.Name))
			st.nullify(c)
			return
		}
		t = t.OfType
	}
	if schema.IsNil(raw) {
		st.write(c, nil)
		return
	}

	named := st.schema.Types[t.NamedType()]
	switch {
	case t.IsList():
		st.completeList(ctx, n, info, t, raw, c, path)

	case named.IsLeaf():
		v, errs := st.schema.CoerceOutput(t, raw, path)
		for _, e := range errs {
			if len(e.Locations) == 0 {
				e.Locations = info.Locations
			}
		}
		st.errors.Append(errs...)
		if v == nil {
			if len(errs) == 0 && !c.nullable {
				st.errors.Append(gqlerrors.Newf(gqlerrors.InvalidValue, path, info.Locations,
					"Cannot return null for non-nullable field %s.%s.", n.ParentType.Name, n.Name))
			}
			st.nullify(c)
			return
		}
		st.write(c, v)

	case named.IsComposite():
		st.completeObject(ctx, n, info, named, raw, c, path)

	default:
		st.errors.Append(gqlerrors.Newf(gqlerrors.InvalidType, path, info.Locations,
			"Cannot complete value of type %q.", t.NamedType()))
		st.nullify(c)
	}
}

func (st *executionState) completeList(ctx context.Context, n *Node, info *schema.ResolveInfo, t *schema.TypeRef, raw any, c *cell, path ast.Path) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		st.errors.Append(gqlerrors.Newf(gqlerrors.InvalidValue, path, info.Locations,
			"Expected Iterable, but did not find one for field \"%s.%s\".", n.ParentType.Name, n.Name))
		st.nullify(c)
		return
	}
	item := t.OfType
	list := make([]any, rv.Len())
	if !st.write(c, list) {
		return
	}
	g := st.group()
	for i := range list {
		ec := &cell{parent: c, nullable: !item.IsNonNull(), set: func(v any) { list[i] = v }}
		value := rv.Index(i).Interface()
		itemPath := appendPath(path, ast.PathIndex(i))
		g.Go(func() error {
			st.complete(ctx, n, info, item, value, ec, itemPath)
			return nil
		})
	}
	_ = g.Wait()
}

func (st *executionState) completeObject(ctx context.Context, n *Node, info *schema.ResolveInfo, named *schema.Type, raw any, c *cell, path ast.Path) {
	objType := named
	if named.IsAbstract() {
		runtime, err := st.runtimeType(ctx, named, raw, info)
		if err != nil {
			st.errors.AddKind(gqlerrors.InvalidType, err, path, info.Locations)
			st.nullify(c)
			return
		}
		objType = runtime
	}
	ids := st.tree.ChildrenOf(n.ID, objType.Name)
	obj := newObject(st.tree, ids)
	if !st.write(c, obj) {
		return
	}
	st.executeFields(ctx, ids, raw, obj, c, path, false)
}

// runtimeType resolves the object type of a value of an abstract type: the
// type resolver of the abstract type, a "__typename" map key, the Typer
// interface, the Go type name, and finally the only possible type.
func (st *executionState) runtimeType(ctx context.Context, abstract *schema.Type, value any, info *schema.ResolveInfo) (*schema.Type, error) {
	name, err := st.runtimeTypeName(ctx, abstract, value, info)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("Abstract type %q must resolve to an Object type at runtime for field \"%s.%s\". Either the %q type should provide a type resolver or the value should name its type.",
			abstract.Name, info.ParentType.Name, info.FieldName, abstract.Name)
	}
	t := st.schema.Types[name]
	if !t.IsObject() {
		return nil, fmt.Errorf("Abstract type %q was resolved to a type %q that does not exist inside the schema.", abstract.Name, name)
	}
	if !st.schema.IsPossibleType(abstract.Name, name) {
		return nil, fmt.Errorf("Runtime Object type %q is not a possible type for %q.", name, abstract.Name)
	}
	return t, nil
}

func (st *executionState) runtimeTypeName(ctx context.Context, abstract *schema.Type, value any, info *schema.ResolveInfo) (string, error) {
	if abstract.ResolveType != nil {
		return abstract.ResolveType(ctx, value, info)
	}
	if m, ok := value.(map[string]any); ok {
		if name, ok := m[typenameField].(string); ok {
			return name, nil
		}
	}
	if typer, ok := value.(schema.Typer); ok {
		return typer.GraphQLType(), nil
	}
	rt := reflect.TypeOf(value)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if name := rt.Name(); name != "" && st.schema.Types[name].IsObject() && st.schema.IsPossibleType(abstract.Name, name) {
		return name, nil
	}
	if possible := st.schema.PossibleTypes(abstract); len(possible) == 1 {
		return possible[0].Name, nil
	}
	return "", nil
}

func (st *executionState) resolveInfo(n *Node, path ast.Path) *schema.ResolveInfo {
	return &schema.ResolveInfo{
		FieldName:      n.Name,
		ResponseKey:    n.Alias,
		Field:          n.Field,
		ParentType:     n.ParentType,
		ReturnType:     n.Field.Type,
		Schema:         st.schema,
		Path:           path,
		Locations:      n.Locations(),
		FieldNodes:     n.Fields,
		Operation:      st.operation,
		Fragments:      st.document.Fragments,
		VariableValues: st.variables,
		RootValue:      st.rootValue,
		Node:           n,
		Execution:      st,
	}
}

// write stores v at c unless c or an ancestor was nulled by bubbling.
func (st *executionState) write(c *cell, v any) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if isDead(c) {
		return false
	}
	c.set(v)
	return true
}

// nullify replaces the nearest nullable position at or above c with null.
// The root position is nullable, so data becomes null when every position
// up to it is non-null.
func (st *executionState) nullify(c *cell) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if isDead(c) {
		return
	}
	for x := c; x != nil; x = x.parent {
		if x.nullable {
			x.set(nil)
			x.dead = true
			return
		}
	}
}

func (st *executionState) isDead(c *cell) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return isDead(c)
}

func isDead(c *cell) bool {
	for x := c; x != nil; x = x.parent {
		if x.dead {
			return true
		}
	}
	return false
}
