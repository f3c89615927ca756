// Package introspection adds the __schema and __type root fields and the
// __Schema, __Type, __Field, __InputValue, __EnumValue and __Directive
// types to a schema being built.
//
//	b := schema.NewBuilder()
//	b.Use(introspection.Use)
package introspection

import (
	"fmt"

	"github.com/hanpama/gqlengine/internal/schema"
)

var (
	str        = schema.NamedType("String")
	boolean    = schema.NamedType("Boolean")
	nonNullStr = schema.NonNullType(str)
	nonNullBol = schema.NonNullType(boolean)
)

func listOf(name string) *schema.TypeRef {
	return schema.ListType(schema.NonNullType(schema.NamedType(name)))
}

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", boolean).SetDefault(false)
}

// Use registers the introspection types and root fields on b. It is meant
// to be passed to Builder.Use.
func Use(b *schema.Builder) error {
	query := b.Type(b.QueryTypeName())
	if query == nil {
		return fmt.Errorf("introspection: query type %q is not defined", b.QueryTypeName())
	}
	for _, t := range []*schema.Type{
		schemaType(), typeType(), fieldType(), inputValueType(), enumValueType(), directiveType(),
		typeKindEnum(), directiveLocationEnum(),
	} {
		if err := b.AddDefinition(t); err != nil {
			return err
		}
	}
	query.AddField(schema.NewField("__schema", schema.NonNullType(schema.NamedType("__Schema"))).
		SetDescription("Access the current type schema of this server.").
		SetResolver(resolveSchemaRoot))
	query.AddField(schema.NewField("__type", schema.NamedType("__Type")).
		SetDescription("Request the type information of a single type.").
		AddArgument(schema.NewInputValue("name", nonNullStr).SetDescription("The name of the type to look up.")).
		SetResolver(resolveTypeRoot))
	return nil
}

// object builds an introspection object type whose fields share resolve.
func object(name, description string, resolve schema.ResolveFunc, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, description)
	for _, f := range fields {
		t.AddField(f.SetResolver(resolve))
	}
	return t
}

func schemaType() *schema.Type {
	return object("__Schema", "A GraphQL Schema defines the capabilities of a GraphQL server.", resolveSchema,
		schema.NewField("description", str),
		schema.NewField("types", schema.NonNullType(listOf("__Type"))).
			SetDescription("A list of all types supported by this server."),
		schema.NewField("queryType", schema.NonNullType(schema.NamedType("__Type"))).
			SetDescription("The type that query operations will be rooted at."),
		schema.NewField("mutationType", schema.NamedType("__Type")).
			SetDescription("If this server supports mutation, the type that mutation operations will be rooted at."),
		schema.NewField("subscriptionType", schema.NamedType("__Type")).
			SetDescription("If this server support subscription, the type that subscription operations will be rooted at."),
		schema.NewField("directives", schema.NonNullType(listOf("__Directive"))).
			SetDescription("A list of all directives supported by this server."),
	)
}

func typeType() *schema.Type {
	return object("__Type", "The fundamental unit of any GraphQL Schema is the type.", resolveType,
		schema.NewField("kind", schema.NonNullType(schema.NamedType("__TypeKind"))),
		schema.NewField("name", str),
		schema.NewField("description", str),
		schema.NewField("specifiedByURL", str),
		schema.NewField("fields", listOf("__Field")).AddArgument(includeDeprecated()),
		schema.NewField("interfaces", listOf("__Type")),
		schema.NewField("possibleTypes", listOf("__Type")),
		schema.NewField("enumValues", listOf("__EnumValue")).AddArgument(includeDeprecated()),
		schema.NewField("inputFields", listOf("__InputValue")).AddArgument(includeDeprecated()),
		schema.NewField("ofType", schema.NamedType("__Type")),
		schema.NewField("isOneOf", boolean),
	)
}

func fieldType() *schema.Type {
	return object("__Field", "Object and Interface types are described by a list of Fields, each of which has a name, potentially a list of arguments, and a return type.", resolveField,
		schema.NewField("name", nonNullStr),
		schema.NewField("description", str),
		schema.NewField("args", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated()),
		schema.NewField("type", schema.NonNullType(schema.NamedType("__Type"))),
		schema.NewField("isDeprecated", nonNullBol),
		schema.NewField("deprecationReason", str),
	)
}

func inputValueType() *schema.Type {
	return object("__InputValue", "Arguments provided to Fields or Directives and the input fields of an InputObject are represented as Input Values which describe their type and optionally a default value.", resolveInputValue,
		schema.NewField("name", nonNullStr),
		schema.NewField("description", str),
		schema.NewField("type", schema.NonNullType(schema.NamedType("__Type"))),
		schema.NewField("defaultValue", str).
			SetDescription("A GraphQL-formatted string representing the default value for this input value."),
		schema.NewField("isDeprecated", nonNullBol),
		schema.NewField("deprecationReason", str),
	)
}

func enumValueType() *schema.Type {
	return object("__EnumValue", "One possible value for a given Enum.", resolveEnumValue,
		schema.NewField("name", nonNullStr),
		schema.NewField("description", str),
		schema.NewField("isDeprecated", nonNullBol),
		schema.NewField("deprecationReason", str),
	)
}

func directiveType() *schema.Type {
	return object("__Directive", "A Directive provides a way to describe alternate runtime execution and type validation behavior in a GraphQL document.", resolveDirective,
		schema.NewField("name", nonNullStr),
		schema.NewField("description", str),
		schema.NewField("isRepeatable", nonNullBol),
		schema.NewField("locations", schema.NonNullType(listOf("__DirectiveLocation"))),
		schema.NewField("args", schema.NonNullType(listOf("__InputValue"))).AddArgument(includeDeprecated()),
	)
}

func enum(name, description string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, description)
	for _, v := range values {
		t.AddEnumValue(schema.NewEnumValue(v, v))
	}
	return t
}

func typeKindEnum() *schema.Type {
	return enum("__TypeKind", "An enum describing what kind of type a given `__Type` is.",
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL")
}

func directiveLocationEnum() *schema.Type {
	return enum("__DirectiveLocation", "A Directive can be adjacent to many parts of the GraphQL language, a __DirectiveLocation describes one such possible adjacencies.",
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
		"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
		"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
		"INPUT_FIELD_DEFINITION")
}
