package executor

import (
	"encoding/json"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ExecutionResult is the outcome of one operation. Data holds the response
// object (a *jsonmap.Ordered keeping the document order of keys) or nil when
// the request failed before execution or a null bubbled up to the root.
type ExecutionResult struct {
	Data   any
	Errors gqlerror.List

	introspection bool
}

// Introspection reports whether the operation queried __schema or __type.
func (r ExecutionResult) Introspection() bool { return r.introspection }

type errorEnvelope struct {
	Message    string              `json:"message"`
	Path       ast.Path            `json:"path"`
	Locations  []gqlerror.Location `json:"locations,omitempty"`
	Extensions map[string]any      `json:"extensions,omitempty"`
}

// MarshalJSON renders {"data": ..., "errors": [...]}. The errors key is
// always present and every error carries a path, null when the error is not
// tied to a response position.
func (r ExecutionResult) MarshalJSON() ([]byte, error) {
	errs := make([]errorEnvelope, 0, len(r.Errors))
	for _, e := range r.Errors {
		if e == nil {
			continue
		}
		errs = append(errs, errorEnvelope{
			Message:    e.Message,
			Path:       e.Path,
			Locations:  e.Locations,
			Extensions: e.Extensions,
		})
	}
	return json.Marshal(struct {
		Data   any             `json:"data"`
		Errors []errorEnvelope `json:"errors"`
	}{r.Data, errs})
}
