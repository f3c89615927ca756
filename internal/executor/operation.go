package executor

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlengine/internal/gqlerrors"
	"github.com/hanpama/gqlengine/internal/language"
)

// checkOperationNames reports duplicate operation names and anonymous
// operations that are not alone in the document.
func checkOperationNames(doc *ast.QueryDocument) gqlerror.List {
	var errs gqlerror.List
	first := map[string]*ast.OperationDefinition{}
	for _, op := range doc.Operations {
		if op.Name == "" {
			if len(doc.Operations) > 1 {
				errs = append(errs, gqlerrors.New(gqlerrors.NotLoneAnonymousOperation,
					"This anonymous operation must be the only defined operation.", nil,
					language.Locations(op.Position)...))
			}
			continue
		}
		if prev, ok := first[op.Name]; ok {
			errs = append(errs, gqlerrors.Newf(gqlerrors.NotUniqueOperationName, nil,
				language.Locations(prev.Position, op.Position),
				"There can be only one operation named %q.", op.Name))
			continue
		}
		first[op.Name] = op
	}
	return errs
}

// selectOperation picks the operation to execute.
func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, *gqlerror.Error) {
	if name == "" {
		switch len(doc.Operations) {
		case 0:
			return nil, gqlerrors.New(gqlerrors.UnknownOperation, "Must provide an operation.", nil)
		case 1:
			return doc.Operations[0], nil
		}
		return nil, gqlerrors.New(gqlerrors.UnknownOperation,
			"Must provide operation name if query contains multiple operations.", nil)
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op, nil
	}
	return nil, gqlerrors.Newf(gqlerrors.UnknownOperation, nil, nil, "Unknown operation named %q.", name)
}

// indexFragments maps fragment names to their definitions. The first of
// several definitions sharing a name wins.
func indexFragments(doc *ast.QueryDocument) (map[string]*ast.FragmentDefinition, gqlerror.List) {
	var errs gqlerror.List
	out := make(map[string]*ast.FragmentDefinition, len(doc.Fragments))
	for _, def := range doc.Fragments {
		if prev, ok := out[def.Name]; ok {
			errs = append(errs, gqlerrors.Newf(gqlerrors.NotUniqueFragmentName, nil,
				language.Locations(prev.Position, def.Position),
				"There can be only one fragment named %q.", def.Name))
			continue
		}
		out[def.Name] = def
	}
	return out, errs
}

// unusedFragments reports every fragment that no operation of the
// document spreads, directly or through other fragments. Directives are
// not evaluated.
func unusedFragments(doc *ast.QueryDocument, fragments map[string]*ast.FragmentDefinition) gqlerror.List {
	used := map[string]bool{}
	var walk func(set ast.SelectionSet)
	walk = func(set ast.SelectionSet) {
		for _, selection := range set {
			switch sel := selection.(type) {
			case *ast.Field:
				walk(sel.SelectionSet)
			case *ast.InlineFragment:
				walk(sel.SelectionSet)
			case *ast.FragmentSpread:
				if used[sel.Name] {
					continue
				}
				used[sel.Name] = true
				if def := fragments[sel.Name]; def != nil {
					walk(def.SelectionSet)
				}
			}
		}
	}
	for _, op := range doc.Operations {
		walk(op.SelectionSet)
	}

	var errs gqlerror.List
	reported := map[string]bool{}
	for _, def := range doc.Fragments {
		if used[def.Name] || reported[def.Name] {
			continue
		}
		reported[def.Name] = true
		errs = append(errs, gqlerrors.Newf(gqlerrors.UnusedFragment, nil,
			language.Locations(def.Position), "Fragment %q is never used.", def.Name))
	}
	return errs
}
