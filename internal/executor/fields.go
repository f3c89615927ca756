package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlengine/internal/directive"
	"github.com/hanpama/gqlengine/internal/gqlerrors"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// NodeID indexes a Node inside its FieldTree.
type NodeID int

// NoParent is the parent of root nodes.
const NoParent NodeID = -1

const typenameField = "__typename"

// Node is one executable field: a schema field selected under one response
// key for one runtime object type, with every occurrence in the document
// merged into it.
type Node struct {
	ID     NodeID
	Parent NodeID
	Name   string
	Alias  string
	// Field is nil for __typename.
	Field      *schema.Field
	ParentType *schema.Type
	// Condition is the type condition the node was first selected under.
	Condition string
	// Path is the response path without list indices.
	Path       ast.Path
	Fields     []*ast.Field
	Directives []directive.Applied
	CantBeNull bool

	occurrences []occurrence
	// children groups the child nodes by runtime object type name, in
	// response key order. Guarded by the tree mutex.
	children map[string][]NodeID
}

func (n *Node) ResponseKey() string     { return n.Alias }
func (n *Node) FieldName() string       { return n.Name }
func (n *Node) TypeCondition() string   { return n.Condition }
func (n *Node) ASTFields() []*ast.Field { return n.Fields }

// Locations returns the locations of every merged occurrence.
func (n *Node) Locations() []gqlerror.Location {
	positions := make([]*ast.Position, 0, len(n.Fields))
	for _, f := range n.Fields {
		positions = append(positions, f.Position)
	}
	return language.Locations(positions...)
}

// FieldTree is the per-request arena of executable nodes. The roots are
// collected up front; the children of a node are collected for a runtime
// object type the first time a value of that type is completed, so the tree
// only grows with the types the data actually returns.
type FieldTree struct {
	RootType *schema.Type
	Roots    []NodeID

	mu        sync.Mutex
	nodes     []*Node
	collector *collector
}

// Node returns the node with the given id.
func (t *FieldTree) Node(id NodeID) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodes[id]
}

// Len reports the number of nodes collected so far.
func (t *FieldTree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// ChildrenOf returns the children of id selected for the runtime object
// type, collecting them on first use.
func (t *FieldTree) ChildrenOf(id NodeID, typeName string) []NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.nodes[id]
	if ids, ok := n.children[typeName]; ok {
		return ids
	}
	ids := t.collector.children(n, typeName)
	if n.children == nil {
		n.children = map[string][]NodeID{}
	}
	n.children[typeName] = ids
	return ids
}

func (t *FieldTree) add(n *Node) NodeID {
	n.ID = NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return n.ID
}

// ancestry is the chain of fragments spread on the current path.
type ancestry struct {
	name   string
	parent *ancestry
}

func (a *ancestry) has(name string) bool {
	for ; a != nil; a = a.parent {
		if a.name == name {
			return true
		}
	}
	return false
}

type occurrence struct {
	field   *ast.Field
	spreads *ancestry
}

type decision struct {
	include bool
	applied []directive.Applied
}

// group holds the nodes of one selection set for one runtime type.
type group struct {
	ids   []NodeID
	byKey map[string]NodeID
}

func newGroup() *group { return &group{byKey: map[string]NodeID{}} }

type collector struct {
	ctx       context.Context
	schema    *schema.Schema
	vars      map[string]any
	fragments map[string]*ast.FragmentDefinition
	tree      *FieldTree
	errs      *gqlerrors.Accumulator
	reported  map[string]bool
	decisions map[ast.Selection]decision
	// sealed is set once the operation is checked. Lazy collection repeats
	// checks that already reported, so it stays silent.
	sealed bool
}

func newCollector(ctx context.Context, s *schema.Schema, vars map[string]any, fragments map[string]*ast.FragmentDefinition, errs *gqlerrors.Accumulator) *collector {
	c := &collector{
		ctx:       ctx,
		schema:    s,
		vars:      vars,
		fragments: fragments,
		tree:      &FieldTree{},
		errs:      errs,
		reported:  map[string]bool{},
		decisions: map[ast.Selection]decision{},
	}
	c.tree.collector = c
	return c
}

// collectOperation collects the roots of op executed on root and reports the
// errors of every selection below them.
func (c *collector) collectOperation(root *schema.Type, op *ast.OperationDefinition) *FieldTree {
	c.collectRoots(root, op)
	checked := map[string]bool{}
	for _, id := range c.tree.Roots {
		n := c.tree.nodes[id]
		named := c.namedType(n)
		if !named.IsComposite() {
			continue
		}
		for _, occ := range n.occurrences {
			c.check(n.Path, c.schema.PossibleTypes(named), named, occ.field.SelectionSet, checked)
		}
	}
	c.sealed = true
	return c.tree
}

// collectRoots collects the top level of op: directives are applied and
// fragments expanded, nothing below the roots is visited.
func (c *collector) collectRoots(root *schema.Type, op *ast.OperationDefinition) []NodeID {
	c.tree.RootType = root
	g := newGroup()
	c.collectFields(NoParent, nil, root, root, op.SelectionSet, nil, g)
	c.tree.Roots = g.ids
	return g.ids
}

func (c *collector) namedType(n *Node) *schema.Type {
	if n.Field == nil {
		return nil
	}
	return c.schema.Types[n.Field.Type.NamedType()]
}

func (c *collector) collectFields(parent NodeID, path ast.Path, runtime, scope *schema.Type, set ast.SelectionSet, spreads *ancestry, g *group) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *ast.Field:
			d := c.decide(sel, appendPath(path, ast.PathName(responseKey(sel))))
			if !d.include {
				continue
			}
			c.collectField(parent, path, runtime, scope, sel, spreads, d.applied, g)

		case *ast.InlineFragment:
			if !c.decide(sel, path).include {
				continue
			}
			cond := scope
			if sel.TypeCondition != "" {
				t, ok := c.conditionType(sel.TypeCondition, sel.Position, path)
				if !ok {
					continue
				}
				cond = t
			}
			if !c.matches(cond, runtime) {
				continue
			}
			c.collectFields(parent, path, runtime, cond, sel.SelectionSet, spreads, g)

		case *ast.FragmentSpread:
			if !c.decide(sel, path).include {
				continue
			}
			def := c.fragments[sel.Name]
			if def == nil {
				c.report(gqlerrors.UndefinedFragment, path, sel.Position, "Unknown fragment %q.", sel.Name)
				continue
			}
			if spreads.has(sel.Name) {
				continue
			}
			cond, ok := c.conditionType(def.TypeCondition, def.Position, path)
			if !ok || !c.matches(cond, runtime) {
				continue
			}
			c.collectFields(parent, path, runtime, cond, def.SelectionSet, &ancestry{name: sel.Name, parent: spreads}, g)
		}
	}
}

func (c *collector) collectField(parent NodeID, path ast.Path, runtime, scope *schema.Type, sel *ast.Field, spreads *ancestry, applied []directive.Applied, g *group) {
	key := responseKey(sel)
	fieldPath := appendPath(path, ast.PathName(key))

	var def *schema.Field
	if sel.Name != typenameField {
		if _, err := c.schema.GetFieldByName(scope.Name + "." + sel.Name); err != nil {
			c.reportErr(gqlerrors.UnknownSchemaFieldResolver, err, fieldPath, sel.Position,
				"Cannot query field %q on type %q.", sel.Name, scope.Name)
			return
		}
		def = runtime.Field(sel.Name)
		if def == nil {
			c.report(gqlerrors.UnknownSchemaFieldResolver, fieldPath, sel.Position,
				"Cannot query field %q on type %q.", sel.Name, runtime.Name)
			return
		}
		if !c.checkArguments(scope, def, sel, fieldPath) {
			return
		}
	}

	if id, ok := g.byKey[key]; ok {
		n := c.tree.nodes[id]
		n.Fields = append(n.Fields, sel)
		n.occurrences = append(n.occurrences, occurrence{field: sel, spreads: spreads})
		return
	}

	n := &Node{
		Parent:      parent,
		Name:        sel.Name,
		Alias:       key,
		Field:       def,
		ParentType:  runtime,
		Path:        fieldPath,
		Fields:      []*ast.Field{sel},
		Directives:  applied,
		CantBeNull:  def == nil || def.Type.IsNonNull(),
		occurrences: []occurrence{{field: sel, spreads: spreads}},
	}
	if scope != runtime {
		n.Condition = scope.Name
	}
	id := c.tree.add(n)
	g.byKey[key] = id
	g.ids = append(g.ids, id)
}

// children collects the children of n for one runtime object type, merging
// the selection sets of every occurrence. The caller holds the tree mutex.
func (c *collector) children(n *Node, typeName string) []NodeID {
	named := c.namedType(n)
	runtime := c.schema.Types[typeName]
	if !named.IsComposite() || !runtime.IsObject() {
		return nil
	}
	g := newGroup()
	for _, occ := range n.occurrences {
		c.collectFields(n.ID, n.Path, runtime, named, occ.field.SelectionSet, occ.spreads, g)
	}
	return g.ids
}

// check reports the errors of a selection set whose values may be of any of
// the runtime types, without building nodes. A fragment is checked once per
// set of runtime types it applies to, which also stops spread cycles.
func (c *collector) check(path ast.Path, runtimes []*schema.Type, scope *schema.Type, set ast.SelectionSet, checked map[string]bool) {
	for _, selection := range set {
		switch sel := selection.(type) {
		case *ast.Field:
			fieldPath := appendPath(path, ast.PathName(responseKey(sel)))
			if !c.decide(sel, fieldPath).include || sel.Name == typenameField {
				continue
			}
			def, err := c.schema.GetFieldByName(scope.Name + "." + sel.Name)
			if err != nil {
				c.reportErr(gqlerrors.UnknownSchemaFieldResolver, err, fieldPath, sel.Position,
					"Cannot query field %q on type %q.", sel.Name, scope.Name)
				continue
			}
			if !c.checkArguments(scope, def, sel, fieldPath) {
				continue
			}
			if named := c.schema.Types[def.Type.NamedType()]; named.IsComposite() {
				c.check(fieldPath, c.schema.PossibleTypes(named), named, sel.SelectionSet, checked)
			}

		case *ast.InlineFragment:
			if !c.decide(sel, path).include {
				continue
			}
			cond := scope
			if sel.TypeCondition != "" {
				t, ok := c.conditionType(sel.TypeCondition, sel.Position, path)
				if !ok {
					continue
				}
				cond = t
			}
			if narrowed := c.narrow(cond, runtimes); len(narrowed) > 0 {
				c.check(path, narrowed, cond, sel.SelectionSet, checked)
			}

		case *ast.FragmentSpread:
			if !c.decide(sel, path).include {
				continue
			}
			def := c.fragments[sel.Name]
			if def == nil {
				c.report(gqlerrors.UndefinedFragment, path, sel.Position, "Unknown fragment %q.", sel.Name)
				continue
			}
			cond, ok := c.conditionType(def.TypeCondition, def.Position, path)
			if !ok {
				continue
			}
			narrowed := c.narrow(cond, runtimes)
			key := sel.Name + "|" + typeNames(narrowed)
			if len(narrowed) == 0 || checked[key] {
				continue
			}
			checked[key] = true
			c.check(path, narrowed, cond, def.SelectionSet, checked)
		}
	}
}

// narrow keeps the runtime types a fragment conditioned on cond applies to.
func (c *collector) narrow(cond *schema.Type, runtimes []*schema.Type) []*schema.Type {
	out := make([]*schema.Type, 0, len(runtimes))
	for _, runtime := range runtimes {
		if c.matches(cond, runtime) {
			out = append(out, runtime)
		}
	}
	return out
}

func typeNames(types []*schema.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return strings.Join(names, ",")
}

// decide runs the directive chain of a selection once per request.
func (c *collector) decide(sel ast.Selection, path ast.Path) decision {
	if d, ok := c.decisions[sel]; ok {
		return d
	}
	d := c.evaluate(sel, path)
	c.decisions[sel] = d
	return d
}

func (c *collector) evaluate(sel ast.Selection, path ast.Path) decision {
	var list ast.DirectiveList
	switch sel := sel.(type) {
	case *ast.Field:
		list = sel.Directives
	case *ast.InlineFragment:
		list = sel.Directives
	case *ast.FragmentSpread:
		list = sel.Directives
	}
	applied, err := directive.Resolve(c.ctx, c.schema, directive.LocationOf(sel), list, c.vars)
	if err != nil {
		c.reportAll(directive.Errors(err, path))
		return decision{}
	}

	var d schema.Decision
	switch sel := sel.(type) {
	case *ast.Field:
		d, err = directive.CollectField(c.ctx, applied, sel)
	case *ast.InlineFragment:
		d, err = directive.CollectInlineFragment(c.ctx, applied, sel)
	case *ast.FragmentSpread:
		d, err = directive.CollectFragmentSpread(c.ctx, applied, sel)
	}
	if err != nil {
		locs := language.Locations(sel.GetPosition())
		for _, e := range gqlerrors.Flatten(err) {
			c.reportAll(gqlerror.List{gqlerrors.Wrap(gqlerrors.ResolverError, e, path, locs)})
		}
		return decision{}
	}
	return decision{include: d == schema.Include, applied: applied}
}

func (c *collector) checkArguments(scope *schema.Type, def *schema.Field, sel *ast.Field, path ast.Path) bool {
	ok := true
	seen := map[string]bool{}
	for _, arg := range sel.Arguments {
		if seen[arg.Name] {
			c.report(gqlerrors.DuplicateArgumentName, path, arg.Position,
				"There can be only one argument named %q.", arg.Name)
			ok = false
			continue
		}
		seen[arg.Name] = true
		if def.Argument(arg.Name) == nil {
			c.report(gqlerrors.UndefinedFieldArgument, path, arg.Position,
				"Unknown argument %q on field \"%s.%s\".", arg.Name, scope.Name, def.Name)
			ok = false
		}
	}
	return ok
}

func (c *collector) conditionType(name string, pos *ast.Position, path ast.Path) (*schema.Type, bool) {
	t, err := c.schema.FindType(name)
	if err != nil {
		c.reportErr(gqlerrors.UnknownTypeCondition, err, path, pos, "Unknown type %q.", name)
		return nil, false
	}
	if !t.IsComposite() {
		c.report(gqlerrors.UnknownTypeCondition, path, pos,
			"Fragment cannot condition on non composite type %q.", name)
		return nil, false
	}
	return t, true
}

// matches reports whether a fragment with condition cond applies to values
// of the runtime object type.
func (c *collector) matches(cond, runtime *schema.Type) bool {
	if cond.Name == runtime.Name {
		return true
	}
	return cond.IsAbstract() && c.schema.IsPossibleType(cond.Name, runtime.Name)
}

func (c *collector) report(kind gqlerrors.Kind, path ast.Path, pos *ast.Position, format string, args ...any) {
	c.reportAll(gqlerror.List{gqlerrors.Newf(kind, path, language.Locations(pos), format, args...)})
}

func (c *collector) reportErr(kind gqlerrors.Kind, cause error, path ast.Path, pos *ast.Position, format string, args ...any) {
	err := gqlerrors.Newf(kind, path, language.Locations(pos), format, args...)
	err.Err = cause
	c.reportAll(gqlerror.List{err})
}

// reportAll records errors, dropping the copies produced when the same
// selection is reached more than once.
func (c *collector) reportAll(errs gqlerror.List) {
	if c.sealed {
		return
	}
	for _, e := range errs {
		key := fmt.Sprintf("%s|%s|%s|%v", e.Rule, e.Message, e.Path.String(), e.Locations)
		if c.reported[key] {
			continue
		}
		c.reported[key] = true
		c.errs.Append(e)
	}
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}
