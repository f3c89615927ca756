package introspection

import (
	"context"
	"sort"

	"github.com/hanpama/gqlengine/internal/schema"
)

func resolveSchemaRoot(_ context.Context, p schema.ResolveParams) (any, error) {
	return p.Info.Schema, nil
}

func resolveTypeRoot(_ context.Context, p schema.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	if t := p.Info.Schema.Types[name]; t != nil {
		return t, nil
	}
	return nil, nil
}

func resolveSchema(_ context.Context, p schema.ResolveParams) (any, error) {
	s, ok := p.Source.(*schema.Schema)
	if !ok {
		return nil, nil
	}
	switch p.Info.FieldName {
	case "description":
		return optional(s.Description), nil
	case "types":
		out := make([]*schema.Type, 0, len(s.Types))
		for _, t := range s.Types {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	case "queryType":
		return s.GetQueryType(), nil
	case "mutationType":
		return s.GetMutationType(), nil
	case "subscriptionType":
		return s.GetSubscriptionType(), nil
	case "directives":
		out := make([]*schema.Directive, 0, len(s.Directives))
		for _, d := range s.Directives {
			out = append(out, d)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}
	return nil, nil
}

// typeOf unwraps the source of a __Type field. Wrapping references come
// back as ref; named references are looked up in the schema.
func typeOf(p schema.ResolveParams) (named *schema.Type, ref *schema.TypeRef) {
	switch src := p.Source.(type) {
	case *schema.Type:
		return src, nil
	case *schema.TypeRef:
		if src.Kind == schema.TypeRefKindNamed {
			return p.Info.Schema.Types[src.Named], nil
		}
		return nil, src
	}
	return nil, nil
}

func resolveType(_ context.Context, p schema.ResolveParams) (any, error) {
	t, ref := typeOf(p)
	if ref != nil {
		switch p.Info.FieldName {
		case "kind":
			return string(ref.Kind), nil
		case "ofType":
			return ref.OfType, nil
		}
		return nil, nil
	}
	if t == nil {
		return nil, nil
	}

	s := p.Info.Schema
	deprecated := boolArg(p.Args, "includeDeprecated")
	switch p.Info.FieldName {
	case "kind":
		return string(t.Kind), nil
	case "name":
		return t.Name, nil
	case "description":
		return optional(t.Description), nil
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, nil
		}
		return *t.SpecifiedByURL, nil
	case "fields":
		if !t.IsObject() && !t.IsInterface() {
			return nil, nil
		}
		out := []*schema.Field{}
		for _, f := range t.Fields {
			if schema.IsIntrospection(f.Name) {
				continue
			}
			if deprecated || !f.IsDeprecated {
				out = append(out, f)
			}
		}
		return out, nil
	case "interfaces":
		if !t.IsObject() && !t.IsInterface() {
			return nil, nil
		}
		out := []*schema.Type{}
		for _, name := range t.Interfaces {
			if it := s.Types[name]; it != nil {
				out = append(out, it)
			}
		}
		return out, nil
	case "possibleTypes":
		if !t.IsAbstract() {
			return nil, nil
		}
		out := s.PossibleTypes(t)
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	case "enumValues":
		if !t.IsEnum() {
			return nil, nil
		}
		out := []*schema.EnumValue{}
		for _, v := range t.EnumValues {
			if deprecated || !v.IsDeprecated {
				out = append(out, v)
			}
		}
		return out, nil
	case "inputFields":
		if !t.IsInputObject() {
			return nil, nil
		}
		return inputValues(t.InputFields, deprecated), nil
	case "isOneOf":
		if !t.IsInputObject() {
			return nil, nil
		}
		return t.OneOf, nil
	}
	return nil, nil
}

func resolveField(_ context.Context, p schema.ResolveParams) (any, error) {
	f, ok := p.Source.(*schema.Field)
	if !ok {
		return nil, nil
	}
	switch p.Info.FieldName {
	case "name":
		return f.Name, nil
	case "description":
		return optional(f.Description), nil
	case "args":
		return inputValues(f.Arguments, boolArg(p.Args, "includeDeprecated")), nil
	case "type":
		return f.Type, nil
	case "isDeprecated":
		return f.IsDeprecated, nil
	case "deprecationReason":
		return reason(f.IsDeprecated, f.DeprecationReason), nil
	}
	return nil, nil
}

func resolveInputValue(_ context.Context, p schema.ResolveParams) (any, error) {
	v, ok := p.Source.(*schema.InputValue)
	if !ok {
		return nil, nil
	}
	switch p.Info.FieldName {
	case "name":
		return v.Name, nil
	case "description":
		return optional(v.Description), nil
	case "type":
		return v.Type, nil
	case "defaultValue":
		if !v.HasDefault {
			return nil, nil
		}
		return p.Info.Schema.ValueLiteral(v.DefaultValue, v.Type), nil
	case "isDeprecated":
		return v.IsDeprecated, nil
	case "deprecationReason":
		return reason(v.IsDeprecated, v.DeprecationReason), nil
	}
	return nil, nil
}

func resolveEnumValue(_ context.Context, p schema.ResolveParams) (any, error) {
	v, ok := p.Source.(*schema.EnumValue)
	if !ok {
		return nil, nil
	}
	switch p.Info.FieldName {
	case "name":
		return v.Name, nil
	case "description":
		return optional(v.Description), nil
	case "isDeprecated":
		return v.IsDeprecated, nil
	case "deprecationReason":
		return reason(v.IsDeprecated, v.DeprecationReason), nil
	}
	return nil, nil
}

func resolveDirective(_ context.Context, p schema.ResolveParams) (any, error) {
	d, ok := p.Source.(*schema.Directive)
	if !ok {
		return nil, nil
	}
	switch p.Info.FieldName {
	case "name":
		return d.Name, nil
	case "description":
		return optional(d.Description), nil
	case "isRepeatable":
		return d.IsRepeatable, nil
	case "locations":
		out := make([]string, len(d.Locations))
		for i, l := range d.Locations {
			out[i] = string(l)
		}
		return out, nil
	case "args":
		return inputValues(d.Arguments, boolArg(p.Args, "includeDeprecated")), nil
	}
	return nil, nil
}

func inputValues(values []*schema.InputValue, deprecated bool) []*schema.InputValue {
	out := []*schema.InputValue{}
	for _, v := range values {
		if deprecated || !v.IsDeprecated {
			out = append(out, v)
		}
	}
	return out
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func reason(deprecated bool, why string) any {
	if !deprecated {
		return nil
	}
	return why
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}
