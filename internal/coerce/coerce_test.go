package coerce

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlengine/internal/gqlerrors"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	defs := []*schema.Type{
		schema.NewType("Episode", schema.TypeKindEnum, "").
			AddEnumValue(schema.NewEnumValue("NEWHOPE", 4)).
			AddEnumValue(schema.NewEnumValue("EMPIRE", 5)).
			AddEnumValue(schema.NewEnumValue("JEDI", 6)),
		schema.NewType("ReviewInput", schema.TypeKindInputObject, "").
			AddInputField(schema.NewInputValue("stars", schema.NonNullType(schema.NamedType("Int")))).
			AddInputField(schema.NewInputValue("commentary", schema.NamedType("String"))).
			AddInputField(schema.NewInputValue("episode", schema.NamedType("Episode")).SetDefault(6)),
		schema.NewType("Pick", schema.TypeKindInputObject, "").
			SetOneOf(true).
			AddInputField(schema.NewInputValue("id", schema.NamedType("ID"))).
			AddInputField(schema.NewInputValue("name", schema.NamedType("String"))),
		schema.NewType("Query", schema.TypeKindObject, "").
			AddField(schema.NewField("f", schema.NamedType("String"))),
	}
	for _, d := range defs {
		require.NoError(t, b.AddDefinition(d))
	}
	s, err := b.Bake()
	require.NoError(t, err)
	return s
}

// firstFieldArgs parses query and returns the arguments of its first root field.
func firstFieldArgs(t *testing.T, query string) (*ast.OperationDefinition, ast.ArgumentList) {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	op := doc.Operations[0]
	return op, op.SelectionSet[0].(*ast.Field).Arguments
}

func TestArgumentValues(t *testing.T) {
	s := testSchema(t)
	ctx := context.Background()
	intArgs := []*schema.InputValue{
		schema.NewInputValue("a", schema.NamedType("Int")),
		schema.NewInputValue("b", schema.NamedType("Int")),
		schema.NewInputValue("c", schema.NamedType("Int")).SetDefault(3),
		schema.NewInputValue("d", schema.NamedType("Int")),
	}

	t.Run("omitted arguments are absent, explicit null is kept", func(t *testing.T) {
		_, args := firstFieldArgs(t, `{ f(a: 1, b: null) }`)
		got, err := ArgumentValues(ctx, s, intArgs, args, nil)
		require.NoError(t, err)
		want := map[string]any{"a": 1, "b": nil, "c": 3}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("arguments mismatch (-want +got):\n%s", diff)
		}
		_, ok := got["d"]
		require.False(t, ok)
	})

	t.Run("variables are substituted", func(t *testing.T) {
		_, args := firstFieldArgs(t, `query($v: Int, $w: Int) { f(a: $v, c: $w) }`)
		got, err := ArgumentValues(ctx, s, intArgs, args, map[string]any{"v": 5})
		require.NoError(t, err)
		// $w was not supplied, so c falls back to its default.
		require.Equal(t, map[string]any{"a": 5, "c": 3}, got)
	})

	t.Run("missing required argument", func(t *testing.T) {
		defs := []*schema.InputValue{schema.NewInputValue("id", schema.NonNullType(schema.NamedType("ID")))}
		_, args := firstFieldArgs(t, `{ f }`)
		_, err := ArgumentValues(ctx, s, defs, args, nil)
		require.Error(t, err)
		errs := gqlerrors.Flatten(err)
		require.Len(t, errs, 1)
		require.Equal(t, `Argument "id" of required type "ID!" was not provided.`, errs[0].(*gqlerror.Error).Message)
		require.Equal(t, gqlerrors.InvalidArgument, gqlerrors.KindOf(errs[0]))
	})

	t.Run("null for a non-null argument", func(t *testing.T) {
		defs := []*schema.InputValue{schema.NewInputValue("id", schema.NonNullType(schema.NamedType("ID")))}
		_, args := firstFieldArgs(t, `{ f(id: null) }`)
		_, err := ArgumentValues(ctx, s, defs, args, nil)
		require.Len(t, gqlerrors.Flatten(err), 1)
	})

	t.Run("input object failures are all collected", func(t *testing.T) {
		defs := []*schema.InputValue{schema.NewInputValue("review", schema.NamedType("ReviewInput"))}
		_, args := firstFieldArgs(t, `{ f(review: {commentary: 1, bogus: true}) }`)
		_, err := ArgumentValues(ctx, s, defs, args, nil)
		errs := gqlerrors.Flatten(err)
		require.Len(t, errs, 3)
		var messages []string
		for _, e := range errs {
			var gerr *gqlerror.Error
			require.True(t, errors.As(e, &gerr))
			require.NotEmpty(t, gerr.Locations)
			messages = append(messages, gerr.Message)
		}
		require.Contains(t, messages[0], `At "bogus": Field "bogus" is not defined by type "ReviewInput".`)
		require.Contains(t, messages[1], `At "stars": Field "ReviewInput.stars" of required type "Int!" was not provided.`)
		require.Contains(t, messages[2], `At "commentary": String cannot represent a non string value: 1`)
	})

	t.Run("input object defaults", func(t *testing.T) {
		defs := []*schema.InputValue{schema.NewInputValue("review", schema.NamedType("ReviewInput"))}
		_, args := firstFieldArgs(t, `{ f(review: {stars: 5}) }`)
		got, err := ArgumentValues(ctx, s, defs, args, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"review": map[string]any{"stars": 5, "episode": 6}}, got)
	})

	t.Run("list of input objects", func(t *testing.T) {
		defs := []*schema.InputValue{schema.NewInputValue("reviews", schema.ListType(schema.NonNullType(schema.NamedType("ReviewInput"))))}
		_, args := firstFieldArgs(t, `{ f(reviews: [{stars: 1, episode: EMPIRE}, {stars: 2}, {stars: "x"}]) }`)
		_, err := ArgumentValues(ctx, s, defs, args, nil)
		errs := gqlerrors.Flatten(err)
		require.Len(t, errs, 1)
		require.Contains(t, errs[0].Error(), `At "[2].stars": Int cannot represent non-integer value: "x"`)

		_, args = firstFieldArgs(t, `{ f(reviews: [{stars: 1, episode: EMPIRE}, {stars: 2}]) }`)
		got, err := ArgumentValues(ctx, s, defs, args, nil)
		require.NoError(t, err)
		want := map[string]any{"reviews": []any{
			map[string]any{"stars": 1, "episode": 5},
			map[string]any{"stars": 2, "episode": 6},
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("arguments mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("single value is promoted to a list", func(t *testing.T) {
		defs := []*schema.InputValue{schema.NewInputValue("tags", schema.ListType(schema.NamedType("String")))}
		_, args := firstFieldArgs(t, `{ f(tags: "a") }`)
		got, err := ArgumentValues(ctx, s, defs, args, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"tags": []any{"a"}}, got)
	})

	t.Run("one of", func(t *testing.T) {
		defs := []*schema.InputValue{schema.NewInputValue("pick", schema.NamedType("Pick"))}
		_, args := firstFieldArgs(t, `{ f(pick: {id: 1, name: "x"}) }`)
		_, err := ArgumentValues(ctx, s, defs, args, nil)
		require.ErrorContains(t, err, `OneOf Input Object "Pick" must specify exactly one key.`)

		_, args = firstFieldArgs(t, `{ f(pick: {name: "x"}) }`)
		got, err := ArgumentValues(ctx, s, defs, args, nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"pick": map[string]any{"name": "x"}}, got)
	})
}

func TestVariableValues(t *testing.T) {
	s := testSchema(t)

	t.Run("defaults and omission", func(t *testing.T) {
		op, _ := firstFieldArgs(t, `query($a: Int = 3, $b: Int, $c: Episode = EMPIRE) { f }`)
		got, errs := VariableValues(s, op, map[string]any{})
		require.Empty(t, errs)
		require.Equal(t, map[string]any{"a": 3, "c": 5}, got)
	})

	t.Run("json input", func(t *testing.T) {
		op, _ := firstFieldArgs(t, `query($r: ReviewInput!, $ids: [ID!]) { f }`)
		got, errs := VariableValues(s, op, map[string]any{
			"r":   map[string]any{"stars": 4.0, "episode": "NEWHOPE"},
			"ids": 7.0,
		})
		require.Empty(t, errs)
		want := map[string]any{
			"r":   map[string]any{"stars": 4, "episode": 4},
			"ids": []any{"7"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("variables mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failures", func(t *testing.T) {
		op, _ := firstFieldArgs(t, `query($a: Int!, $b: Int!, $c: ReviewInput, $d: Query) { f }`)
		got, errs := VariableValues(s, op, map[string]any{
			"b": nil,
			"c": map[string]any{"stars": "many"},
		})
		require.Nil(t, got)
		var messages []string
		for _, e := range errs {
			require.Equal(t, gqlerrors.InvalidVariable, e.Rule)
			require.Len(t, e.Locations, 1)
			messages = append(messages, e.Message)
		}
		want := []string{
			`Variable "$a" of required type "Int!" was not provided.`,
			`Variable "$b" of non-null type "Int!" must not be null.`,
			`Variable "$c" got invalid value; At "stars": Int cannot represent non-integer value: "many"`,
			`Variable "$d" expected value of type "Query" which cannot be used as an input type.`,
		}
		if diff := cmp.Diff(want, messages); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestValueFromAST(t *testing.T) {
	s := testSchema(t)
	_, args := firstFieldArgs(t, `{ f(x: [1, $v, 3]) }`)
	value := args[0].Value

	got, err := ValueFromAST(s, schema.ListType(schema.NamedType("Int")), value, map[string]any{"v": 2})
	require.NoError(t, err)
	require.Equal(t, []any{1, 2, 3}, got)

	// A missing variable inside a list is null.
	got, err = ValueFromAST(s, schema.ListType(schema.NamedType("Int")), value, nil)
	require.NoError(t, err)
	require.Equal(t, []any{1, nil, 3}, got)

	_, err = ValueFromAST(s, schema.ListType(schema.NonNullType(schema.NamedType("Int"))), value, nil)
	require.Error(t, err)
}
