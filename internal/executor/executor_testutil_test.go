package executor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

func mustParseQuery(t *testing.T, src string) *ast.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(src)
	require.NoError(t, err)
	return doc
}

// bake builds a schema from types and resolvers bound by coordinate.
func bake(t *testing.T, types []*schema.Type, resolvers map[string]schema.ResolveFunc) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	for _, typ := range types {
		require.NoError(t, b.AddDefinition(typ))
	}
	for coordinate, fn := range resolvers {
		require.NoError(t, b.BindResolver(coordinate, fn))
	}
	s, err := b.Bake()
	require.NoError(t, err)
	return s
}

func object(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, f := range fields {
		t.AddField(f)
	}
	return t
}

func field(name string, typ *schema.TypeRef) *schema.Field { return schema.NewField(name, typ) }

func named(name string) *schema.TypeRef { return schema.NamedType(name) }

func constant(v any) schema.ResolveFunc {
	return func(context.Context, schema.ResolveParams) (any, error) { return v, nil }
}

// runQuery executes src and returns the JSON encoded result.
func runQuery(t *testing.T, e *Executor, src string, vars map[string]any) string {
	t.Helper()
	res := e.Execute(context.Background(), Params{Document: mustParseQuery(t, src), Variables: vars})
	b, err := json.Marshal(res)
	require.NoError(t, err)
	return string(b)
}

// recorder records the coordinates of the resolvers it wraps, in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) wrap(coordinate string, fn schema.ResolveFunc) schema.ResolveFunc {
	return func(ctx context.Context, p schema.ResolveParams) (any, error) {
		r.mu.Lock()
		r.calls = append(r.calls, coordinate)
		r.mu.Unlock()
		return fn(ctx, p)
	}
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
