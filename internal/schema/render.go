package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema.
// Deterministic ordering: type/directive names sorted lexicographically.
// Built-in scalars and directives and introspection types are omitted.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	r := &renderer{s: s}
	b := &r.b

	renderSchemaDefinition(b, s)

	// Collect and sort type names, excluding built-in scalars
	typeNames := make([]string, 0, len(s.Types))

	for name := range s.Types {
		if IsBuiltinScalar(name) || IsIntrospection(name) {
			continue
		}
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, name := range typeNames {
		typ := s.Types[name]
		switch typ.Kind {
		case TypeKindScalar:
			r.renderScalar(typ)
		case TypeKindEnum:
			r.renderEnum(typ)
		case TypeKindInputObject:
			r.renderInputObject(typ)
		case TypeKindObject:
			r.renderObject(typ)
		case TypeKindInterface:
			r.renderInterface(typ)
		case TypeKindUnion:
			r.renderUnion(typ)
		}
	}

	// Render directives
	directiveNames := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		if builtinDirectives[name] {
			continue
		}
		directiveNames = append(directiveNames, name)
	}
	sort.Strings(directiveNames)
	for _, name := range directiveNames {
		r.renderDirective(s.Directives[name])
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	return out
}

// ----- render helpers -----

var builtinDirectives = map[string]bool{
	"include":           true,
	"skip":              true,
	"deprecated":        true,
	"nonIntrospectable": true,
}

type renderer struct {
	s *Schema
	b strings.Builder
}

func renderSchemaDefinition(b *strings.Builder, s *Schema) {
	if s.QueryType == "Query" &&
		(s.MutationType == "" || s.MutationType == "Mutation") &&
		(s.SubscriptionType == "" || s.SubscriptionType == "Subscription") {
		return
	}
	renderDescription(b, s.Description)
	b.WriteString("schema {\n")
	b.WriteString("  query: " + s.QueryType + "\n")
	if s.MutationType != "" {
		b.WriteString("  mutation: " + s.MutationType + "\n")
	}
	if s.SubscriptionType != "" {
		b.WriteString("  subscription: " + s.SubscriptionType + "\n")
	}
	b.WriteString("}\n\n")
}

func renderDescription(b *strings.Builder, desc string) {
	if desc == "" {
		return
	}
	b.WriteString("\"\"\"\n")
	// Escape quotes in description
	escaped := strings.ReplaceAll(desc, "\"", "\\\"")
	b.WriteString(escaped)
	b.WriteString("\n\"\"\"\n")
}

func (r *renderer) renderScalar(typ *Type) {
	b := &r.b
	renderDescription(b, typ.Description)
	b.WriteString("scalar ")
	b.WriteString(typ.Name)
	if typ.SpecifiedByURL != nil {
		b.WriteString(" @specifiedBy(url: \"")
		b.WriteString(*typ.SpecifiedByURL)
		b.WriteString("\")")
	}
	r.renderAppliedDirectives(typ.Directives)
	b.WriteString("\n\n")
}

func (r *renderer) renderEnum(typ *Type) {
	b := &r.b
	renderDescription(b, typ.Description)
	b.WriteString("enum ")
	b.WriteString(typ.Name)
	r.renderAppliedDirectives(typ.Directives)
	b.WriteString(" {\n")
	for _, val := range typ.EnumValues {
		renderDescription(b, val.Description)
		b.WriteString("  ")
		b.WriteString(val.Name)
		r.renderDeprecation(val.IsDeprecated, val.DeprecationReason)
		r.renderAppliedDirectives(val.Directives)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func (r *renderer) renderInputObject(typ *Type) {
	b := &r.b
	renderDescription(b, typ.Description)
	b.WriteString("input ")
	b.WriteString(typ.Name)
	if typ.OneOf {
		b.WriteString(" @oneOf")
	}
	r.renderAppliedDirectives(typ.Directives)
	b.WriteString(" {\n")
	for _, field := range typ.InputFields {
		renderDescription(b, field.Description)
		b.WriteString("  ")
		r.renderInputValue(field)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")
}

func (r *renderer) renderObject(typ *Type) {
	r.renderFielded("type", typ)
}

func (r *renderer) renderInterface(typ *Type) {
	r.renderFielded("interface", typ)
}

func (r *renderer) renderFielded(keyword string, typ *Type) {
	b := &r.b
	renderDescription(b, typ.Description)
	b.WriteString(keyword + " ")
	b.WriteString(typ.Name)
	if len(typ.Interfaces) > 0 {
		b.WriteString(" implements ")
		for i, iface := range typ.Interfaces {
			if i > 0 {
				b.WriteString(" & ")
			}
			b.WriteString(iface)
		}
	}
	r.renderAppliedDirectives(typ.Directives)
	b.WriteString(" {\n")
	for _, field := range typ.Fields {
		r.renderField(field)
	}
	b.WriteString("}\n\n")
}

func (r *renderer) renderUnion(typ *Type) {
	b := &r.b
	renderDescription(b, typ.Description)
	b.WriteString("union ")
	b.WriteString(typ.Name)
	r.renderAppliedDirectives(typ.Directives)
	b.WriteString(" = ")
	for i, possibleType := range typ.PossibleTypes {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(possibleType)
	}
	b.WriteString("\n\n")
}

func (r *renderer) renderField(field *Field) {
	b := &r.b
	renderDescription(b, field.Description)
	b.WriteString("  ")
	b.WriteString(field.Name)
	r.renderArguments(field.Arguments)
	b.WriteString(": ")
	b.WriteString(field.Type.String())
	r.renderDeprecation(field.IsDeprecated, field.DeprecationReason)
	r.renderAppliedDirectives(field.Directives)
	b.WriteString("\n")
}

func (r *renderer) renderArguments(args []*InputValue) {
	if len(args) == 0 {
		return
	}
	b := &r.b
	b.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		r.renderInputValue(arg)
	}
	b.WriteString(")")
}

func (r *renderer) renderInputValue(v *InputValue) {
	b := &r.b
	b.WriteString(v.Name)
	b.WriteString(": ")
	b.WriteString(v.Type.String())
	if v.HasDefault {
		b.WriteString(" = ")
		b.WriteString(r.renderValue(v.DefaultValue, v.Type))
	}
	r.renderDeprecation(v.IsDeprecated, v.DeprecationReason)
	r.renderAppliedDirectives(v.Directives)
}

func (r *renderer) renderDeprecation(deprecated bool, reason string) {
	if !deprecated {
		return
	}
	b := &r.b
	b.WriteString(" @deprecated")
	if reason != "" && reason != "No longer supported" {
		b.WriteString("(reason: ")
		b.WriteString(strconv.Quote(reason))
		b.WriteString(")")
	}
}

// renderAppliedDirectives prints directives other than @deprecated, which
// is rendered from the element's deprecation fields.
func (r *renderer) renderAppliedDirectives(directives []*AppliedDirective) {
	b := &r.b
	for _, d := range directives {
		if d.Name == "deprecated" {
			continue
		}
		b.WriteString(" @")
		b.WriteString(d.Name)
		if len(d.Args) == 0 {
			continue
		}
		def := r.s.Directives[d.Name]
		names := make([]string, 0, len(d.Args))
		for name := range d.Args {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("(")
		for i, name := range names {
			if i > 0 {
				b.WriteString(", ")
			}
			var typ *TypeRef
			if def != nil {
				if a := def.Argument(name); a != nil {
					typ = a.Type
				}
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(r.renderValue(d.Args[name], typ))
		}
		b.WriteString(")")
	}
}

func (r *renderer) renderDirective(directive *Directive) {
	b := &r.b
	renderDescription(b, directive.Description)
	b.WriteString("directive @")
	b.WriteString(directive.Name)
	r.renderArguments(directive.Arguments)
	if directive.IsRepeatable {
		b.WriteString(" repeatable")
	}
	b.WriteString(" on ")
	for i, location := range directive.Locations {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(string(location))
	}
	b.WriteString("\n\n")
}

// ValueLiteral renders value as a GraphQL literal of type typ.
func (s *Schema) ValueLiteral(value any, typ *TypeRef) string {
	r := &renderer{s: s}
	return r.renderValue(value, typ)
}

// renderValue renders a GraphQL value (for default values, directive
// arguments, etc.). typ may be nil when the declared type is unknown.
func (r *renderer) renderValue(value any, typ *TypeRef) string {
	if value == nil {
		return "null"
	}
	var named *Type
	if typ != nil {
		named = r.s.Types[typ.NamedType()]
	}

	if named.IsEnum() {
		if name, err := named.serializeEnum(value); err == nil {
			return name.(string)
		}
	}

	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		var elem *TypeRef
		if typ != nil && typ.IsList() {
			elem = typ.Nullable().OfType
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, r.renderValue(item, elem))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(v))
		for _, k := range keys {
			var fieldType *TypeRef
			if named.IsInputObject() {
				if f := named.InputField(k); f != nil {
					fieldType = f.Type
				}
			}
			parts = append(parts, k+": "+r.renderValue(v[k], fieldType))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		// For enum values and other unquoted strings
		return fmt.Sprint(v)
	}
}
