package schema

import (
	"errors"
	"fmt"
	"reflect"
)

// Builder collects type and directive definitions and resolver bindings
// and produces an immutable Schema. Built-in scalars and the skip, include,
// deprecated and nonIntrospectable directives are registered by NewBuilder.
type Builder struct {
	description      string
	queryType        string
	mutationType     string
	subscriptionType string

	types      map[string]*Type
	typeOrder  []string
	directives map[string]*Directive
	dirOrder   []string

	resolvers     map[string]ResolveFunc
	subscribers   map[string]SubscribeFunc
	typeResolvers map[string]TypeResolver
	bindingOrder  []string
	impls         map[string]any

	plugins []func(*Builder) error
	baked   bool
}

func NewBuilder() *Builder {
	b := &Builder{
		queryType:        "Query",
		mutationType:     "Mutation",
		subscriptionType: "Subscription",
		types:            map[string]*Type{},
		directives:       map[string]*Directive{},
		resolvers:        map[string]ResolveFunc{},
		subscribers:      map[string]SubscribeFunc{},
		typeResolvers:    map[string]TypeResolver{},
		impls:            map[string]any{},
	}
	for _, t := range []*Type{newStringType(), newIntType(), newFloatType(), newBooleanType(), newIDType()} {
		b.types[t.Name] = t
		b.typeOrder = append(b.typeOrder, t.Name)
	}
	for _, d := range []*Directive{newIncludeDirective(), newSkipDirective(), newDeprecatedDirective(), newNonIntrospectableDirective()} {
		b.directives[d.Name] = d
		b.dirOrder = append(b.dirOrder, d.Name)
	}
	return b
}

func (b *Builder) SetDescription(desc string) *Builder {
	b.description = desc
	return b
}

func (b *Builder) SetQueryType(name string) *Builder {
	b.queryType = name
	return b
}

func (b *Builder) SetMutationType(name string) *Builder {
	b.mutationType = name
	return b
}

func (b *Builder) SetSubscriptionType(name string) *Builder {
	b.subscriptionType = name
	return b
}

// Type returns the type registered under name, or nil.
func (b *Builder) Type(name string) *Type { return b.types[name] }

// QueryTypeName returns the name of the query root type.
func (b *Builder) QueryTypeName() string { return b.queryType }

// AddDefinition registers a named type.
func (b *Builder) AddDefinition(t *Type) error {
	if b.baked {
		return ErrSchemaBaked
	}
	if t == nil || t.Name == "" {
		return fmt.Errorf("%w: type without a name", ErrInvalidSchema)
	}
	if _, ok := b.types[t.Name]; ok {
		return fmt.Errorf("type %q: %w", t.Name, ErrAlreadyDefined)
	}
	b.types[t.Name] = t
	b.typeOrder = append(b.typeOrder, t.Name)
	return nil
}

// AddDirective registers a directive definition.
func (b *Builder) AddDirective(d *Directive) error {
	if b.baked {
		return ErrSchemaBaked
	}
	if d == nil || d.Name == "" {
		return fmt.Errorf("%w: directive without a name", ErrInvalidSchema)
	}
	if _, ok := b.directives[d.Name]; ok {
		return fmt.Errorf("directive @%s: %w", d.Name, ErrAlreadyDefined)
	}
	b.directives[d.Name] = d
	b.dirOrder = append(b.dirOrder, d.Name)
	return nil
}

// BindResolver attaches a resolver to the field at coordinate "Type.field".
// The type may be added after the binding; the field is looked up at bake.
func (b *Builder) BindResolver(coordinate string, fn ResolveFunc) error {
	if b.baked {
		return ErrSchemaBaked
	}
	if _, ok := b.resolvers[coordinate]; ok {
		return fmt.Errorf("resolver %s: %w", coordinate, ErrAlreadyDefined)
	}
	b.resolvers[coordinate] = fn
	b.bindingOrder = append(b.bindingOrder, coordinate)
	return nil
}

// BindSubscriber attaches a subscribe function to a subscription root field.
func (b *Builder) BindSubscriber(coordinate string, fn SubscribeFunc) error {
	if b.baked {
		return ErrSchemaBaked
	}
	if _, ok := b.subscribers[coordinate]; ok {
		return fmt.Errorf("subscriber %s: %w", coordinate, ErrAlreadyDefined)
	}
	b.subscribers[coordinate] = fn
	return nil
}

// BindDirective sets the implementation of a directive. A directive can be
// bound once.
func (b *Builder) BindDirective(name string, impl any) error {
	if b.baked {
		return ErrSchemaBaked
	}
	if _, ok := b.impls[name]; ok {
		return fmt.Errorf("directive implementation @%s: %w", name, ErrAlreadyDefined)
	}
	b.impls[name] = impl
	return nil
}

// BindTypeResolver sets the type resolver of an interface or union.
func (b *Builder) BindTypeResolver(typeName string, r TypeResolver) error {
	if b.baked {
		return ErrSchemaBaked
	}
	if _, ok := b.typeResolvers[typeName]; ok {
		return fmt.Errorf("type resolver %s: %w", typeName, ErrAlreadyDefined)
	}
	b.typeResolvers[typeName] = r
	return nil
}

// Use registers a function run at the start of Bake, after user
// definitions. Packages that contribute types to every schema (such as
// introspection) hook in through it.
func (b *Builder) Use(plugin func(*Builder) error) *Builder {
	b.plugins = append(b.plugins, plugin)
	return b
}

// Bake validates every reference and returns the immutable schema. The
// builder can not be used afterwards.
func (b *Builder) Bake() (*Schema, error) {
	if b.baked {
		return nil, ErrSchemaBaked
	}
	for _, plugin := range b.plugins {
		if err := plugin(b); err != nil {
			return nil, err
		}
	}
	b.baked = true

	s := &Schema{
		Description:    b.description,
		Types:          b.types,
		Directives:     b.directives,
		typeOrder:      b.typeOrder,
		directiveOrder: b.dirOrder,
		possible:       map[string]map[string]bool{},
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSchema}, args...)...))
	}

	// Root types.
	if b.types[b.queryType] == nil {
		errs = append(errs, fmt.Errorf("query root %q: %w", b.queryType, ErrUnknownType))
	} else if !b.types[b.queryType].IsObject() {
		fail("query root %q must be an object type", b.queryType)
	}
	s.QueryType = b.queryType
	for _, root := range []struct {
		name string
		dst  *string
		def  string
	}{
		{b.mutationType, &s.MutationType, "Mutation"},
		{b.subscriptionType, &s.SubscriptionType, "Subscription"},
	} {
		t := b.types[root.name]
		switch {
		case t == nil && root.name != root.def && root.name != "":
			errs = append(errs, fmt.Errorf("root %q: %w", root.name, ErrUnknownType))
		case t == nil:
		case !t.IsObject():
			fail("root %q must be an object type", root.name)
		default:
			*root.dst = root.name
		}
	}

	for _, name := range b.typeOrder {
		t := b.types[name]
		t.index()
		errs = append(errs, b.validateType(s, t)...)
	}
	for _, name := range b.dirOrder {
		d := b.directives[name]
		for _, a := range d.Arguments {
			errs = append(errs, b.validateInputRef(fmt.Sprintf("@%s(%s:)", d.Name, a.Name), a.Type)...)
		}
	}

	// Possible types: union members, then objects implementing interfaces.
	for _, name := range b.typeOrder {
		t := b.types[name]
		if t.IsUnion() {
			for _, member := range t.PossibleTypes {
				addPossible(s, t.Name, member)
			}
		}
	}
	for _, name := range b.typeOrder {
		t := b.types[name]
		if !t.IsObject() {
			continue
		}
		for _, iface := range t.Interfaces {
			it := b.types[iface]
			if it.IsInterface() && !s.possible[iface][t.Name] {
				it.PossibleTypes = append(it.PossibleTypes, t.Name)
				addPossible(s, iface, t.Name)
			}
		}
	}
	for _, name := range b.typeOrder {
		if t := b.types[name]; t.IsObject() {
			errs = append(errs, b.validateConformance(s, t)...)
		}
	}

	// Bindings.
	for _, coordinate := range b.bindingOrder {
		f, err := s.GetFieldByName(coordinate)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.Resolve = b.resolvers[coordinate]
	}
	for coordinate, fn := range b.subscribers {
		f, err := s.GetFieldByName(coordinate)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.Subscribe = fn
	}
	for name, impl := range b.impls {
		d := b.directives[name]
		if d == nil {
			errs = append(errs, fmt.Errorf("%w @%s", ErrUnknownDirectiveDefinition, name))
			continue
		}
		d.Implementation = impl
	}
	for name, r := range b.typeResolvers {
		t := b.types[name]
		switch {
		case t == nil:
			errs = append(errs, fmt.Errorf("type resolver %q: %w", name, ErrUnknownType))
		case !t.IsAbstract():
			fail("type resolver bound to %s, which is not an interface or union", name)
		default:
			t.ResolveType = r
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

func addPossible(s *Schema, abstract, object string) {
	set := s.possible[abstract]
	if set == nil {
		set = map[string]bool{}
		s.possible[abstract] = set
	}
	set[object] = true
}

func (b *Builder) validateType(s *Schema, t *Type) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSchema}, args...)...))
	}
	switch t.Kind {
	case TypeKindObject, TypeKindInterface:
		if len(t.Fields) == 0 {
			fail("%s must define one or more fields", t.Name)
		}
		seen := map[string]bool{}
		for _, f := range t.Fields {
			if seen[f.Name] {
				fail("%s.%s is defined more than once", t.Name, f.Name)
			}
			seen[f.Name] = true
			errs = append(errs, b.validateOutputRef(t.Name+"."+f.Name, f.Type)...)
			for _, a := range f.Arguments {
				errs = append(errs, b.validateInputRef(fmt.Sprintf("%s.%s(%s:)", t.Name, f.Name, a.Name), a.Type)...)
			}
			applyDeprecation(f.Directives, &f.IsDeprecated, &f.DeprecationReason)
			for _, a := range f.Arguments {
				applyDeprecation(a.Directives, &a.IsDeprecated, &a.DeprecationReason)
			}
		}
		for _, name := range t.Interfaces {
			it := b.types[name]
			if it == nil {
				errs = append(errs, fmt.Errorf("%s implements %q: %w", t.Name, name, ErrUnknownType))
			} else if !it.IsInterface() {
				fail("%s implements %s, which is not an interface", t.Name, name)
			}
		}
	case TypeKindUnion:
		if len(t.PossibleTypes) == 0 {
			fail("union %s must define one or more member types", t.Name)
		}
		for _, name := range t.PossibleTypes {
			mt := b.types[name]
			if mt == nil {
				errs = append(errs, fmt.Errorf("union %s member %q: %w", t.Name, name, ErrUnknownType))
			} else if !mt.IsObject() {
				fail("union %s member %s is not an object type", t.Name, name)
			}
		}
	case TypeKindEnum:
		if len(t.EnumValues) == 0 {
			fail("enum %s must define one or more values", t.Name)
		}
		names := map[string]bool{}
		values := map[any]string{}
		for _, v := range t.EnumValues {
			if names[v.Name] {
				fail("enum %s value %s is defined more than once", t.Name, v.Name)
			}
			names[v.Name] = true
			if v.Value == nil {
				v.Value = v.Name
			}
			if !reflect.TypeOf(v.Value).Comparable() {
				fail("enum %s value %s has a non comparable internal value", t.Name, v.Name)
				continue
			}
			if prev, ok := values[v.Value]; ok {
				fail("enum %s values %s and %s share the internal value %v", t.Name, prev, v.Name, v.Value)
			}
			values[v.Value] = v.Name
			applyDeprecation(v.Directives, &v.IsDeprecated, &v.DeprecationReason)
		}
	case TypeKindInputObject:
		if len(t.InputFields) == 0 {
			fail("input %s must define one or more fields", t.Name)
		}
		for _, f := range t.InputFields {
			errs = append(errs, b.validateInputRef(t.Name+"."+f.Name, f.Type)...)
			applyDeprecation(f.Directives, &f.IsDeprecated, &f.DeprecationReason)
		}
	case TypeKindScalar:
	default:
		fail("type %s has unknown kind %q", t.Name, t.Kind)
	}
	return errs
}

func (b *Builder) validateRef(where string, ref *TypeRef) (*Type, []error) {
	if ref == nil {
		return nil, []error{fmt.Errorf("%w: %s has no type", ErrInvalidSchema, where)}
	}
	for cur := ref; cur != nil; cur = cur.OfType {
		if cur.IsNonNull() && cur.OfType.IsNonNull() {
			return nil, []error{fmt.Errorf("%w: %s wraps non-null in non-null", ErrInvalidSchema, where)}
		}
		if cur.Kind != TypeRefKindNamed && cur.OfType == nil {
			return nil, []error{fmt.Errorf("%w: %s has an empty %s wrapper", ErrInvalidSchema, where, cur.Kind)}
		}
	}
	t := b.types[ref.NamedType()]
	if t == nil {
		return nil, []error{fmt.Errorf("%s: %w %q", where, ErrUnknownType, ref.NamedType())}
	}
	return t, nil
}

func (b *Builder) validateOutputRef(where string, ref *TypeRef) []error {
	t, errs := b.validateRef(where, ref)
	if t != nil && !t.IsOutputType() {
		errs = append(errs, fmt.Errorf("%w: %s must be an output type, got %s", ErrInvalidSchema, where, t.Name))
	}
	return errs
}

func (b *Builder) validateInputRef(where string, ref *TypeRef) []error {
	t, errs := b.validateRef(where, ref)
	if t != nil && !t.IsInputType() {
		errs = append(errs, fmt.Errorf("%w: %s must be an input type, got %s", ErrInvalidSchema, where, t.Name))
	}
	return errs
}

// validateConformance checks that an object provides every field of the
// interfaces it implements with a compatible type and arguments.
func (b *Builder) validateConformance(s *Schema, t *Type) []error {
	var errs []error
	for _, name := range t.Interfaces {
		it := b.types[name]
		if !it.IsInterface() {
			continue
		}
		for _, want := range it.Fields {
			got := t.Field(want.Name)
			if got == nil {
				errs = append(errs, fmt.Errorf("%w: %s.%s expected by interface %s is not provided",
					ErrInvalidSchema, t.Name, want.Name, it.Name))
				continue
			}
			if got.Type == nil || want.Type == nil || !s.IsSubType(got.Type, want.Type) {
				errs = append(errs, fmt.Errorf("%w: %s.%s must be of type %s to implement %s",
					ErrInvalidSchema, t.Name, want.Name, want.Type, it.Name))
			}
			for _, wantArg := range want.Arguments {
				gotArg := got.Argument(wantArg.Name)
				if gotArg == nil || !gotArg.Type.Equal(wantArg.Type) {
					errs = append(errs, fmt.Errorf("%w: %s.%s(%s:) must be of type %s to implement %s",
						ErrInvalidSchema, t.Name, want.Name, wantArg.Name, wantArg.Type, it.Name))
				}
			}
		}
	}
	return errs
}

func applyDeprecation(directives []*AppliedDirective, flag *bool, reason *string) {
	for _, d := range directives {
		if d.Name != "deprecated" {
			continue
		}
		*flag = true
		if r, ok := d.Args["reason"].(string); ok {
			*reason = r
		} else if *reason == "" {
			*reason = "No longer supported"
		}
	}
}
