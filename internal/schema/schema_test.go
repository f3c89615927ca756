package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

func buildTestSchema(t *testing.T) *Schema {
	t.Helper()
	b := NewBuilder()
	episode := NewType("Episode", TypeKindEnum, "").
		AddEnumValue(NewEnumValue("NEWHOPE", 4)).
		AddEnumValue(NewEnumValue("EMPIRE", 5)).
		AddEnumValue(NewEnumValue("JEDI", 6).Deprecate("Use EMPIRE"))
	character := NewType("Character", TypeKindInterface, "A character").
		AddField(NewField("id", NonNullType(NamedType("ID")))).
		AddField(NewField("name", NamedType("String")))
	human := NewType("Human", TypeKindObject, "").
		AddInterface("Character").
		AddField(NewField("id", NonNullType(NamedType("ID")))).
		AddField(NewField("name", NonNullType(NamedType("String")))).
		AddField(NewField("height", NamedType("Float")).
			AddArgument(NewInputValue("unit", NamedType("String")).SetDefault("METER")))
	droid := NewType("Droid", TypeKindObject, "").
		AddInterface("Character").
		AddField(NewField("id", NonNullType(NamedType("ID")))).
		AddField(NewField("name", NamedType("String")))
	search := NewType("SearchResult", TypeKindUnion, "").
		AddPossibleType("Human").
		AddPossibleType("Droid")
	review := NewType("ReviewInput", TypeKindInputObject, "").
		AddInputField(NewInputValue("stars", NonNullType(NamedType("Int")))).
		AddInputField(NewInputValue("episode", NamedType("Episode")).SetDefault(6))
	query := NewType("Query", TypeKindObject, "").
		AddField(NewField("hero", NamedType("Character")).
			AddArgument(NewInputValue("episode", NamedType("Episode")))).
		AddField(NewField("search", ListType(NamedType("SearchResult"))))
	mutation := NewType("Mutation", TypeKindObject, "").
		AddField(NewField("createReview", NamedType("Int")).
			AddArgument(NewInputValue("review", NonNullType(NamedType("ReviewInput")))))

	for _, typ := range []*Type{episode, character, human, droid, search, review, query, mutation} {
		require.NoError(t, b.AddDefinition(typ))
	}
	require.NoError(t, b.BindResolver("Query.hero", func(ctx context.Context, p ResolveParams) (any, error) {
		return nil, nil
	}))
	s, err := b.Bake()
	require.NoError(t, err)
	return s
}

func TestSchemaLookups(t *testing.T) {
	s := buildTestSchema(t)

	t.Run("FindType", func(t *testing.T) {
		typ, err := s.FindType("Human")
		require.NoError(t, err)
		require.Equal(t, TypeKindObject, typ.Kind)

		_, err = s.FindType("Wookiee")
		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("FindDirective", func(t *testing.T) {
		d, err := s.FindDirective("skip")
		require.NoError(t, err)
		require.True(t, d.AllowedAt(LocationField))
		require.False(t, d.AllowedAt(LocationFieldDefinition))

		_, err = s.FindDirective("cached")
		require.ErrorIs(t, err, ErrUnknownDirectiveDefinition)
	})

	t.Run("GetFieldByName", func(t *testing.T) {
		f, err := s.GetFieldByName("Query.hero")
		require.NoError(t, err)
		require.NotNil(t, f.Resolve)

		for _, coordinate := range []string{"Query.villain", "Nope.hero", "Query", ".hero"} {
			_, err := s.GetFieldByName(coordinate)
			require.ErrorIs(t, err, ErrUnknownSchemaFieldResolver, coordinate)
		}
	})

	t.Run("GetOperationType", func(t *testing.T) {
		name, err := s.GetOperationType(ast.Query)
		require.NoError(t, err)
		require.Equal(t, "Query", name)

		name, err = s.GetOperationType(ast.Mutation)
		require.NoError(t, err)
		require.Equal(t, "Mutation", name)

		_, err = s.GetOperationType(ast.Subscription)
		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("PossibleTypes", func(t *testing.T) {
		var names []string
		for _, pt := range s.PossibleTypes(s.Types["Character"]) {
			names = append(names, pt.Name)
		}
		require.Equal(t, []string{"Human", "Droid"}, names)
		require.True(t, s.IsPossibleType("SearchResult", "Droid"))
		require.True(t, s.IsPossibleType("Human", "Human"))
		require.False(t, s.IsPossibleType("Character", "Query"))
	})

	t.Run("Deprecation", func(t *testing.T) {
		v := s.Types["Episode"].EnumValue("JEDI")
		require.True(t, v.IsDeprecated)
		require.Equal(t, "Use EMPIRE", v.DeprecationReason)
	})
}

func TestPredicates(t *testing.T) {
	s := buildTestSchema(t)
	ref := NonNullType(ListType(NonNullType(NamedType("Human"))))

	require.Equal(t, "Human", ref.NamedType())
	require.Equal(t, "[Human!]!", ref.String())
	require.True(t, ref.IsNonNull())
	require.True(t, ref.IsList())
	require.True(t, s.IsCompositeType(ref))
	require.False(t, s.IsLeafType(ref))
	require.True(t, s.IsAbstractType(NamedType("SearchResult")))
	require.True(t, s.IsInputType(NamedType("ReviewInput")))
	require.False(t, s.IsOutputType(NamedType("ReviewInput")))
	require.True(t, s.IsOutputType(NamedType("Episode")))
	require.True(t, s.IsSubType(NonNullType(NamedType("Human")), NamedType("Character")))
	require.False(t, s.IsSubType(NamedType("Character"), NonNullType(NamedType("Character"))))
	require.True(t, IsIntrospection("__Type"))
}

func TestBuilderErrors(t *testing.T) {
	query := func() *Type {
		return NewType("Query", TypeKindObject, "").AddField(NewField("ok", NamedType("Boolean")))
	}

	t.Run("duplicate definitions", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddDefinition(query()))
		require.ErrorIs(t, b.AddDefinition(query()), ErrAlreadyDefined)
		require.ErrorIs(t, b.AddDefinition(NewType("String", TypeKindScalar, "")), ErrAlreadyDefined)
		require.ErrorIs(t, b.AddDirective(NewDirective("skip", LocationField)), ErrAlreadyDefined)
		require.NoError(t, b.BindResolver("Query.ok", nil))
		require.ErrorIs(t, b.BindResolver("Query.ok", nil), ErrAlreadyDefined)
	})

	t.Run("unknown references", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddDefinition(query().AddField(NewField("thing", NamedType("Thing")))))
		require.NoError(t, b.BindResolver("Query.missing", nil))
		require.NoError(t, b.BindDirective("cached", struct{}{}))
		_, err := b.Bake()
		require.ErrorIs(t, err, ErrUnknownType)
		require.ErrorIs(t, err, ErrUnknownSchemaFieldResolver)
		require.ErrorIs(t, err, ErrUnknownDirectiveDefinition)
	})

	t.Run("non-null of non-null", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddDefinition(query().AddField(NewField("bad", NonNullType(NonNullType(NamedType("Int")))))))
		_, err := b.Bake()
		require.ErrorIs(t, err, ErrInvalidSchema)
		require.Contains(t, err.Error(), "Query.bad wraps non-null in non-null")
	})

	t.Run("enum internal values are unique", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddDefinition(query()))
		require.NoError(t, b.AddDefinition(NewType("Color", TypeKindEnum, "").
			AddEnumValue(NewEnumValue("RED", 1)).
			AddEnumValue(NewEnumValue("CRIMSON", 1))))
		_, err := b.Bake()
		require.ErrorIs(t, err, ErrInvalidSchema)
		require.Contains(t, err.Error(), "share the internal value 1")
	})

	t.Run("interface conformance", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddDefinition(query()))
		require.NoError(t, b.AddDefinition(NewType("Node", TypeKindInterface, "").
			AddField(NewField("id", NonNullType(NamedType("ID"))))))
		require.NoError(t, b.AddDefinition(NewType("User", TypeKindObject, "").
			AddInterface("Node").
			AddField(NewField("id", NamedType("ID")))))
		_, err := b.Bake()
		require.ErrorIs(t, err, ErrInvalidSchema)
		require.Contains(t, err.Error(), "User.id must be of type ID! to implement Node")
	})

	t.Run("missing query root", func(t *testing.T) {
		_, err := NewBuilder().Bake()
		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("builder is single use", func(t *testing.T) {
		b := NewBuilder()
		require.NoError(t, b.AddDefinition(query()))
		_, err := b.Bake()
		require.NoError(t, err)
		_, err = b.Bake()
		require.True(t, errors.Is(err, ErrSchemaBaked))
		require.ErrorIs(t, b.AddDefinition(NewType("Other", TypeKindScalar, "")), ErrSchemaBaked)
	})
}

func TestBuiltinScalars(t *testing.T) {
	s := buildTestSchema(t)

	tests := []struct {
		name    string
		typ     string
		in      any
		want    any
		wantErr string
	}{
		{"int from int64", "Int", int64(7), 7, ""},
		{"int from integral float", "Int", 3.0, 3, ""},
		{"int from bool", "Int", true, 1, ""},
		{"int out of range", "Int", int64(1) << 40, nil, "Int cannot represent non 32-bit signed integer value: 1099511627776"},
		{"int from fraction", "Int", 1.5, nil, "Int cannot represent non-integer value: 1.5"},
		{"float from int", "Float", 2, 2.0, ""},
		{"float from string", "Float", "x", nil, `Float cannot represent non numeric value: "x"`},
		{"string from int", "String", 42, "42", ""},
		{"string from bool", "String", false, "false", ""},
		{"string from map", "String", map[string]any{}, nil, "String cannot represent value: {...}"},
		{"boolean from int", "Boolean", 0, false, ""},
		{"boolean from string", "Boolean", "true", nil, `Boolean cannot represent a non boolean value: "true"`},
		{"id from int", "ID", 12, "12", ""},
		{"id from string", "ID", "abc", "abc", ""},
		{"enum from internal value", "Episode", 5, "EMPIRE", ""},
		{"enum from name", "Episode", "JEDI", "JEDI", ""},
		{"enum mismatch", "Episode", 9, nil, `Enum "Episode" cannot represent value: 9`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := s.Types[tt.typ]
			got, err := typ.SerializeLeaf(tt.in)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			// Coercion never mutates the type: a second call agrees.
			again, err := typ.SerializeLeaf(tt.in)
			require.NoError(t, err)
			require.Equal(t, got, again)
		})
	}

	t.Run("literals", func(t *testing.T) {
		v, err := s.Types["Int"].ParseLiteral(&ast.Value{Kind: ast.IntValue, Raw: "12"})
		require.NoError(t, err)
		require.Equal(t, 12, v)

		_, err = s.Types["Int"].ParseLiteral(&ast.Value{Kind: ast.IntValue, Raw: "4294967296"})
		require.Error(t, err)

		v, err = s.Types["Float"].ParseLiteral(&ast.Value{Kind: ast.IntValue, Raw: "12"})
		require.NoError(t, err)
		require.Equal(t, 12.0, v)

		v, err = s.Types["ID"].ParseLiteral(&ast.Value{Kind: ast.IntValue, Raw: "12"})
		require.NoError(t, err)
		require.Equal(t, "12", v)

		_, err = s.Types["String"].ParseLiteral(&ast.Value{Kind: ast.IntValue, Raw: "12"})
		require.Error(t, err)
	})

	t.Run("json input values", func(t *testing.T) {
		_, err := s.Types["Int"].ParseValue("12")
		require.Error(t, err)
		v, err := s.Types["Int"].ParseValue(12.0)
		require.NoError(t, err)
		require.Equal(t, 12, v)
		_, err = s.Types["Boolean"].ParseValue(1.0)
		require.Error(t, err)
	})
}

func TestCoerceOutput(t *testing.T) {
	s := buildTestSchema(t)
	path := ast.Path{ast.PathName("hero"), ast.PathName("tags")}

	t.Run("null scalar", func(t *testing.T) {
		got, errs := s.CoerceOutput(NamedType("String"), nil, path)
		require.Nil(t, got)
		require.Empty(t, errs)
	})

	t.Run("non-null violation yields one error", func(t *testing.T) {
		got, errs := s.CoerceOutput(NonNullType(NamedType("String")), nil, path)
		require.Nil(t, got)
		require.Len(t, errs, 1)
		require.Equal(t, "Cannot return null for non-nullable type String!.", errs[0].Message)
		require.Equal(t, path, errs[0].Path)
	})

	t.Run("list keeps positions", func(t *testing.T) {
		got, errs := s.CoerceOutput(ListType(NamedType("Int")), []int64{1, 2, 3}, path)
		require.Empty(t, errs)
		if diff := cmp.Diff([]any{1, 2, 3}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("list element errors carry the index", func(t *testing.T) {
		got, errs := s.CoerceOutput(ListType(NamedType("Int")), []any{1, "x", 3}, path)
		require.Equal(t, []any{1, nil, 3}, got)
		require.Len(t, errs, 1)
		require.Equal(t, ast.Path{ast.PathName("hero"), ast.PathName("tags"), ast.PathIndex(1)}, errs[0].Path)
	})

	t.Run("non-null element nulls the list", func(t *testing.T) {
		got, errs := s.CoerceOutput(ListType(NonNullType(NamedType("Int"))), []any{1, nil}, path)
		require.Nil(t, got)
		require.Len(t, errs, 1)
	})

	t.Run("not a sequence", func(t *testing.T) {
		got, errs := s.CoerceOutput(ListType(NamedType("Int")), 5, path)
		require.Nil(t, got)
		require.Len(t, errs, 1)
	})

	t.Run("enum", func(t *testing.T) {
		got, errs := s.CoerceOutput(NamedType("Episode"), 4, path)
		require.Empty(t, errs)
		require.Equal(t, "NEWHOPE", got)
	})

	t.Run("coercing twice gives the same value and errors", func(t *testing.T) {
		tests := []struct {
			typ *TypeRef
			raw any
		}{
			{NamedType("Int"), int64(7)},
			{NamedType("Int"), 1.5},
			{NamedType("Episode"), 5},
			{NamedType("Episode"), 9},
			{ListType(NonNullType(NamedType("String"))), []any{"a", nil}},
			{ListType(NamedType("Episode")), []any{4, "JEDI", 9}},
		}
		for _, tt := range tests {
			first, firstErrs := s.CoerceOutput(tt.typ, tt.raw, path)
			second, secondErrs := s.CoerceOutput(tt.typ, tt.raw, path)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("%s %v: value mismatch (-first +second):\n%s", tt.typ, tt.raw, diff)
			}
			if diff := cmp.Diff(firstErrs.Error(), secondErrs.Error()); diff != "" {
				t.Errorf("%s %v: error mismatch (-first +second):\n%s", tt.typ, tt.raw, diff)
			}
			require.Equal(t, len(firstErrs), len(secondErrs))
		}
		require.Len(t, s.Types["Episode"].EnumValues, 3)
	})
}

func TestRender(t *testing.T) {
	s := buildTestSchema(t)
	want := `"""
A character
"""
interface Character {
  id: ID!
  name: String
}

type Droid implements Character {
  id: ID!
  name: String
}

enum Episode {
  NEWHOPE
  EMPIRE
  JEDI @deprecated(reason: "Use EMPIRE")
}

type Human implements Character {
  id: ID!
  name: String!
  height(unit: String = "METER"): Float
}

type Mutation {
  createReview(review: ReviewInput!): Int
}

type Query {
  hero(episode: Episode): Character
  search: [SearchResult]
}

input ReviewInput {
  stars: Int!
  episode: Episode = JEDI
}

union SearchResult = Human | Droid
`
	got := Render(s)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}
