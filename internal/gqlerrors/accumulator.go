package gqlerrors

import (
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Accumulator collects the errors of one request. It is safe for concurrent
// use and only ever grows.
type Accumulator struct {
	mu   sync.Mutex
	errs gqlerror.List
}

// Add records err at path and locations. Aggregates are expanded so that
// every underlying error becomes its own entry.
func (a *Accumulator) Add(err error, path ast.Path, locations []gqlerror.Location) {
	a.AddKind("", err, path, locations)
}

// AddKind is Add with the kind used for errors that do not carry one.
func (a *Accumulator) AddKind(kind Kind, err error, path ast.Path, locations []gqlerror.Location) {
	if err == nil {
		return
	}
	leaves := Flatten(err)
	wrapped := make(gqlerror.List, 0, len(leaves))
	for _, leaf := range leaves {
		wrapped = append(wrapped, Wrap(kind, leaf, path, locations))
	}
	a.mu.Lock()
	a.errs = append(a.errs, wrapped...)
	a.mu.Unlock()
}

// Append records already located errors.
func (a *Accumulator) Append(errs ...*gqlerror.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range errs {
		if e != nil {
			a.errs = append(a.errs, e)
		}
	}
}

// Len reports how many errors were recorded.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.errs)
}

// List returns a copy of the recorded errors. It is never nil.
func (a *Accumulator) List() gqlerror.List {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(gqlerror.List, len(a.errs))
	copy(out, a.errs)
	return out
}
