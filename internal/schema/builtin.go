package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
)

func newStringType() *Type {
	return &Type{
		Name:         "String",
		Kind:         TypeKindScalar,
		Description:  "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
		Serialize:    serializeString,
		ParseValue:   parseStringValue,
		ParseLiteral: parseStringLiteral,
	}
}

func newIntType() *Type {
	return &Type{
		Name:         "Int",
		Kind:         TypeKindScalar,
		Description:  "The `Int` scalar type represents non-fractional signed whole numeric values.",
		Serialize:    serializeInt,
		ParseValue:   parseIntValue,
		ParseLiteral: parseIntLiteral,
	}
}

func newFloatType() *Type {
	return &Type{
		Name:         "Float",
		Kind:         TypeKindScalar,
		Description:  "The `Float` scalar type represents signed double-precision fractional values.",
		Serialize:    serializeFloat,
		ParseValue:   parseFloatValue,
		ParseLiteral: parseFloatLiteral,
	}
}

func newBooleanType() *Type {
	return &Type{
		Name:         "Boolean",
		Kind:         TypeKindScalar,
		Description:  "The `Boolean` scalar type represents `true` or `false`.",
		Serialize:    serializeBoolean,
		ParseValue:   parseBooleanValue,
		ParseLiteral: parseBooleanLiteral,
	}
}

func newIDType() *Type {
	return &Type{
		Name:         "ID",
		Kind:         TypeKindScalar,
		Description:  "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
		Serialize:    serializeID,
		ParseValue:   parseIDValue,
		ParseLiteral: parseIDLiteral,
	}
}

// IsBuiltinScalar reports whether name is one of the five specified scalars.
func IsBuiltinScalar(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID":
		return true
	}
	return false
}

// ----- directives -----

func newIncludeDirective() *Directive {
	return NewDirective("include", LocationField, LocationFragmentSpread, LocationInlineFragment).
		SetDescription("Directs the executor to include this field or fragment only when the `if` argument is true.").
		AddArgument(NewInputValue("if", NonNullType(NamedType("Boolean"))).SetDescription("Included when true.")).
		SetImplementation(conditional{skipWhen: false})
}

func newSkipDirective() *Directive {
	return NewDirective("skip", LocationField, LocationFragmentSpread, LocationInlineFragment).
		SetDescription("Directs the executor to skip this field or fragment when the `if` argument is true.").
		AddArgument(NewInputValue("if", NonNullType(NamedType("Boolean"))).SetDescription("Skipped when true.")).
		SetImplementation(conditional{skipWhen: true})
}

func newDeprecatedDirective() *Directive {
	return NewDirective("deprecated", LocationFieldDefinition, LocationArgumentDefinition, LocationInputFieldDefinition, LocationEnumValue).
		SetDescription("Marks an element of a GraphQL schema as no longer supported.").
		AddArgument(NewInputValue("reason", NamedType("String")).
			SetDescription("Explains why this element was deprecated, usually also including a suggestion for how to access supported similar data.").
			SetDefault("No longer supported"))
}

func newNonIntrospectableDirective() *Directive {
	return NewDirective("nonIntrospectable",
		LocationObject, LocationInterface, LocationUnion, LocationEnum, LocationInputObject, LocationScalar,
		LocationFieldDefinition, LocationArgumentDefinition, LocationInputFieldDefinition, LocationEnumValue).
		SetDescription("Hides the element from introspection queries.").
		SetImplementation(nonIntrospectable{})
}

// conditional implements @skip and @include.
type conditional struct {
	skipWhen bool
}

func (c conditional) decide(ctx context.Context, args map[string]any, next CollectNext) (Decision, error) {
	d, err := next(ctx)
	if err != nil || d == Skip {
		return d, err
	}
	if cond, _ := args["if"].(bool); cond == c.skipWhen {
		return Skip, nil
	}
	return Include, nil
}

func (c conditional) OnFieldCollection(ctx context.Context, args map[string]any, next CollectNext, _ *ast.Field) (Decision, error) {
	return c.decide(ctx, args, next)
}

func (c conditional) OnFragmentSpreadCollection(ctx context.Context, args map[string]any, next CollectNext, _ *ast.FragmentSpread) (Decision, error) {
	return c.decide(ctx, args, next)
}

func (c conditional) OnInlineFragmentCollection(ctx context.Context, args map[string]any, next CollectNext, _ *ast.InlineFragment) (Decision, error) {
	return c.decide(ctx, args, next)
}

type nonIntrospectable struct{}

func (nonIntrospectable) OnIntrospection(ctx context.Context, _ map[string]any, next IntrospectionNext, _ Directed) (any, error) {
	if _, err := next(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

// ----- scalar coercion -----

func serializeString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10), nil
	}
	if f, ok := toFloat64(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return nil, fmt.Errorf("String cannot represent value: %s", inspect(v))
}

func parseStringValue(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, fmt.Errorf("String cannot represent a non string value: %s", inspect(v))
}

func parseStringLiteral(v *ast.Value) (any, error) {
	if v.Kind == ast.StringValue || v.Kind == ast.BlockValue {
		return v.Raw, nil
	}
	return nil, fmt.Errorf("String cannot represent a non string value: %s", v.String())
}

func serializeInt(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %s", inspect(v))
		}
		return int(n), nil
	}
	if i, ok := toInt64(v); ok {
		if i > math.MaxInt32 || i < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", inspect(v))
		}
		return int(i), nil
	}
	if f, ok := toFloat64(v); ok {
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %s", inspect(v))
		}
		if f > math.MaxInt32 || f < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", inspect(v))
		}
		return int(f), nil
	}
	return nil, fmt.Errorf("Int cannot represent non-integer value: %s", inspect(v))
}

func parseIntValue(v any) (any, error) {
	switch v.(type) {
	case bool, string:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %s", inspect(v))
	}
	return serializeInt(v)
}

func parseIntLiteral(v *ast.Value) (any, error) {
	if v.Kind != ast.IntValue {
		return nil, fmt.Errorf("Int cannot represent non-integer value: %s", v.String())
	}
	n, err := strconv.ParseInt(v.Raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", v.Raw)
	}
	return int(n), nil
}

func serializeFloat(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %s", inspect(v))
		}
		return f, nil
	}
	if f, ok := toFloat64(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %s", inspect(v))
		}
		return f, nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %s", inspect(v))
}

func parseFloatValue(v any) (any, error) {
	switch v.(type) {
	case bool, string:
		return nil, fmt.Errorf("Float cannot represent non numeric value: %s", inspect(v))
	}
	return serializeFloat(v)
}

func parseFloatLiteral(v *ast.Value) (any, error) {
	if v.Kind != ast.IntValue && v.Kind != ast.FloatValue {
		return nil, fmt.Errorf("Float cannot represent non numeric value: %s", v.String())
	}
	f, err := strconv.ParseFloat(v.Raw, 64)
	if err != nil {
		return nil, fmt.Errorf("Float cannot represent non numeric value: %s", v.Raw)
	}
	return f, nil
}

func serializeBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if _, ok := v.(string); !ok {
		if f, ok := toFloat64(v); ok {
			return f != 0, nil
		}
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %s", inspect(v))
}

func parseBooleanValue(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %s", inspect(v))
}

func parseBooleanLiteral(v *ast.Value) (any, error) {
	if v.Kind != ast.BooleanValue {
		return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %s", v.String())
	}
	return v.Raw == "true", nil
}

func serializeID(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10), nil
	}
	if f, ok := toFloat64(v); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 0, 64), nil
	}
	return nil, fmt.Errorf("ID cannot represent value: %s", inspect(v))
}

func parseIDValue(v any) (any, error) {
	if _, ok := v.(bool); ok {
		return nil, fmt.Errorf("ID cannot represent value: %s", inspect(v))
	}
	return serializeID(v)
}

func parseIDLiteral(v *ast.Value) (any, error) {
	if v.Kind != ast.StringValue && v.Kind != ast.IntValue && v.Kind != ast.BlockValue {
		return nil, fmt.Errorf("ID cannot represent a non-string and non-integer value: %s", v.String())
	}
	return v.Raw, nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), x <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func inspect(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return "{...}"
	case reflect.Slice, reflect.Array:
		return "[...]"
	}
	return fmt.Sprint(v)
}
