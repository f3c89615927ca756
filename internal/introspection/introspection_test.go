package introspection

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

func buildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder().SetDescription("Test schema")
	hidden := &schema.AppliedDirective{Name: "nonIntrospectable"}
	episode := schema.NewType("Episode", schema.TypeKindEnum, "").
		AddEnumValue(schema.NewEnumValue("NEWHOPE", 4)).
		AddEnumValue(schema.NewEnumValue("JEDI", 6).Deprecate("Use EMPIRE")).
		AddEnumValue(schema.NewEnumValue("EMPIRE", 5))
	secret := schema.NewType("Secret", schema.TypeKindObject, "").
		AddDirective(hidden).
		AddField(schema.NewField("x", schema.NamedType("Int")))
	query := schema.NewType("Query", schema.TypeKindObject, "The query root").
		AddField(schema.NewField("name", schema.NamedType("String"))).
		AddField(schema.NewField("tags", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("String")))))).
		AddField(schema.NewField("hero", schema.NamedType("String")).
			AddArgument(schema.NewInputValue("episode", schema.NamedType("Episode")).SetDefault(6))).
		AddField(schema.NewField("old", schema.NamedType("String")).Deprecate("gone")).
		AddField(schema.NewField("hidden", schema.NamedType("Secret")).AddDirective(hidden))
	for _, typ := range []*schema.Type{episode, secret, query} {
		require.NoError(t, b.AddDefinition(typ))
	}
	s, err := b.Use(Use).Bake()
	require.NoError(t, err)
	return s
}

func run(t *testing.T, s *schema.Schema, src string) (string, *executor.ExecutionResult) {
	t.Helper()
	doc, err := language.ParseQuery(src)
	require.NoError(t, err)
	res := executor.Execute(context.Background(), s, executor.Params{Document: doc})
	b, err := json.Marshal(res)
	require.NoError(t, err)
	return string(b), res
}

// Pattern: Result comparison
func TestIntrospection(t *testing.T) {
	s := buildSchema(t)

	t.Run("schema root", func(t *testing.T) {
		got, res := run(t, s, `{ __schema { description queryType { name } mutationType { name } } }`)
		require.JSONEq(t, `{"data":{"__schema":{"description":"Test schema","queryType":{"name":"Query"},"mutationType":null}},"errors":[]}`, got)
		require.True(t, res.Introspection())
	})

	t.Run("fields hide deprecated, reserved and non-introspectable fields", func(t *testing.T) {
		got, _ := run(t, s, `{ __type(name: "Query") { kind description fields { name } } }`)
		require.JSONEq(t, `{"data":{"__type":{
			"kind":"OBJECT",
			"description":"The query root",
			"fields":[{"name":"name"},{"name":"tags"},{"name":"hero"}]
		}},"errors":[]}`, got)
	})

	t.Run("deprecated fields on request", func(t *testing.T) {
		got, _ := run(t, s, `{ __type(name: "Query") { fields(includeDeprecated: true) { name isDeprecated deprecationReason } } }`)
		require.JSONEq(t, `{"data":{"__type":{"fields":[
			{"name":"name","isDeprecated":false,"deprecationReason":null},
			{"name":"tags","isDeprecated":false,"deprecationReason":null},
			{"name":"hero","isDeprecated":false,"deprecationReason":null},
			{"name":"old","isDeprecated":true,"deprecationReason":"gone"}
		]}},"errors":[]}`, got)
	})

	t.Run("wrapping types", func(t *testing.T) {
		got, _ := run(t, s, `{ __type(name: "Query") { fields { name type { kind name ofType { kind name ofType { kind name ofType { kind name } } } } } } }`)
		require.Contains(t, got, `{"name":"tags","type":{"kind":"NON_NULL","name":null,"ofType":{"kind":"LIST","name":null,"ofType":{"kind":"NON_NULL","name":null,"ofType":{"kind":"SCALAR","name":"String"}}}}}`)
	})

	t.Run("arguments and enum values", func(t *testing.T) {
		got, _ := run(t, s, `{
			query: __type(name: "Query") { fields { name args { name defaultValue type { name } } } }
			episode: __type(name: "Episode") { enumValues { name } all: enumValues(includeDeprecated: true) { name } }
		}`)
		require.Contains(t, got, `{"name":"hero","args":[{"name":"episode","defaultValue":"JEDI","type":{"name":"Episode"}}]}`)
		require.Contains(t, got, `"episode":{"enumValues":[{"name":"NEWHOPE"},{"name":"EMPIRE"}],"all":[{"name":"NEWHOPE"},{"name":"JEDI"},{"name":"EMPIRE"}]}`)
	})

	t.Run("non-introspectable type", func(t *testing.T) {
		got, _ := run(t, s, `{ __type(name: "Secret") { name } missing: __type(name: "Missing") { name } }`)
		require.JSONEq(t, `{"data":{"__type":null,"missing":null},"errors":[]}`, got)
	})

	t.Run("types list", func(t *testing.T) {
		_, res := run(t, s, `{ __schema { types { name } directives { name locations } } }`)
		require.Empty(t, res.Errors)
		b, err := json.Marshal(res.Data)
		require.NoError(t, err)
		var data struct {
			Schema struct {
				Types []struct {
					Name string `json:"name"`
				} `json:"types"`
				Directives []struct {
					Name string `json:"name"`
				} `json:"directives"`
			} `json:"__schema"`
		}
		require.NoError(t, json.Unmarshal(b, &data))
		var types, directives []string
		for _, typ := range data.Schema.Types {
			types = append(types, typ.Name)
		}
		for _, d := range data.Schema.Directives {
			directives = append(directives, d.Name)
		}
		require.Contains(t, types, "__Type")
		require.Contains(t, types, "Episode")
		require.NotContains(t, types, "Secret")
		require.Equal(t, []string{"deprecated", "include", "nonIntrospectable", "skip"}, directives)
	})

	t.Run("plain queries are not introspection", func(t *testing.T) {
		_, res := run(t, s, `{ name __typename }`)
		require.False(t, res.Introspection())
	})
}

func TestUseRequiresQueryType(t *testing.T) {
	b := schema.NewBuilder().SetQueryType("Root")
	_, err := b.Use(Use).Bake()
	require.Error(t, err)
}
