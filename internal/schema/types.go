package schema

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For UNION members; filled for INTERFACE at bake
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool
	Directives     []*AppliedDirective

	// Scalar coercion. Nil functions pass values through unchanged.
	Serialize    func(value any) (any, error)
	ParseValue   func(value any) (any, error)
	ParseLiteral func(value *ast.Value) (any, error)

	// ResolveType picks the concrete object type of an INTERFACE or UNION
	// value. When nil, the executor falls back to Typer values, maps carrying
	// "__typename" and single-member abstract types.
	ResolveType TypeResolver

	fieldIndex map[string]*Field
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Resolve           ResolveFunc
	Subscribe         SubscribeFunc
	Directives        []*AppliedDirective
	IsDeprecated      bool
	DeprecationReason string
}

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

type EnumValue struct {
	Name              string
	Description       string
	Value             any // internal representation; defaults to Name
	Directives        []*AppliedDirective
	IsDeprecated      bool
	DeprecationReason string
}

// InputValue is an argument, input object field or directive argument.
type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	HasDefault        bool
	Directives        []*AppliedDirective
	IsDeprecated      bool
	DeprecationReason string
}

// DirectiveLocation names a place a directive may be applied.
type DirectiveLocation string

const (
	LocationQuery                DirectiveLocation = "QUERY"
	LocationMutation             DirectiveLocation = "MUTATION"
	LocationSubscription         DirectiveLocation = "SUBSCRIPTION"
	LocationField                DirectiveLocation = "FIELD"
	LocationFragmentDefinition   DirectiveLocation = "FRAGMENT_DEFINITION"
	LocationFragmentSpread       DirectiveLocation = "FRAGMENT_SPREAD"
	LocationInlineFragment       DirectiveLocation = "INLINE_FRAGMENT"
	LocationVariableDefinition   DirectiveLocation = "VARIABLE_DEFINITION"
	LocationSchema               DirectiveLocation = "SCHEMA"
	LocationScalar               DirectiveLocation = "SCALAR"
	LocationObject               DirectiveLocation = "OBJECT"
	LocationFieldDefinition      DirectiveLocation = "FIELD_DEFINITION"
	LocationArgumentDefinition   DirectiveLocation = "ARGUMENT_DEFINITION"
	LocationInterface            DirectiveLocation = "INTERFACE"
	LocationUnion                DirectiveLocation = "UNION"
	LocationEnum                 DirectiveLocation = "ENUM"
	LocationEnumValue            DirectiveLocation = "ENUM_VALUE"
	LocationInputObject          DirectiveLocation = "INPUT_OBJECT"
	LocationInputFieldDefinition DirectiveLocation = "INPUT_FIELD_DEFINITION"
)

// Directive is a directive definition. Implementation holds the value
// implementing the hook interfaces (FieldCollector, FieldExecutor, ...); it
// is bound once while building the schema.
type Directive struct {
	Name           string
	Description    string
	Locations      []DirectiveLocation
	Arguments      []*InputValue
	IsRepeatable   bool
	Implementation any
}

// AppliedDirective is a directive used on a schema element, with its
// arguments already parsed.
type AppliedDirective struct {
	Name string
	Args map[string]any
}

// Directed is implemented by schema elements that carry applied directives.
type Directed interface {
	AppliedDirectives() []*AppliedDirective
}

func (t *Type) AppliedDirectives() []*AppliedDirective       { return t.Directives }
func (f *Field) AppliedDirectives() []*AppliedDirective      { return f.Directives }
func (v *InputValue) AppliedDirectives() []*AppliedDirective { return v.Directives }
func (v *EnumValue) AppliedDirectives() []*AppliedDirective  { return v.Directives }

// ----- constructors -----

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type {
	t.Fields = append(t.Fields, f)
	t.fieldIndex = nil
	return t
}

func (t *Type) AddInterface(name string) *Type {
	t.Interfaces = append(t.Interfaces, name)
	return t
}

func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}

func (t *Type) AddEnumValue(v *EnumValue) *Type {
	t.EnumValues = append(t.EnumValues, v)
	return t
}

func (t *Type) AddInputField(v *InputValue) *Type {
	t.InputFields = append(t.InputFields, v)
	return t
}

func (t *Type) AddDirective(d *AppliedDirective) *Type {
	t.Directives = append(t.Directives, d)
	return t
}

func (t *Type) SetOneOf(oneOf bool) *Type {
	t.OneOf = oneOf
	return t
}

func (t *Type) SetTypeResolver(r TypeResolver) *Type {
	t.ResolveType = r
	return t
}

// Field returns the field named name, or nil.
func (t *Type) Field(name string) *Field {
	if t == nil {
		return nil
	}
	if t.fieldIndex != nil {
		return t.fieldIndex[name]
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InputField returns the input field named name, or nil.
func (t *Type) InputField(name string) *InputValue {
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EnumValue returns the enum value named name, or nil.
func (t *Type) EnumValue(name string) *EnumValue {
	for _, v := range t.EnumValues {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (t *Type) index() {
	if t.Kind != TypeKindObject && t.Kind != TypeKindInterface {
		return
	}
	idx := make(map[string]*Field, len(t.Fields))
	for _, f := range t.Fields {
		idx[f.Name] = f
	}
	t.fieldIndex = idx
}

func NewField(name string, typ *TypeRef) *Field {
	return &Field{Name: name, Type: typ}
}

func (f *Field) SetDescription(desc string) *Field {
	f.Description = desc
	return f
}

func (f *Field) AddArgument(a *InputValue) *Field {
	f.Arguments = append(f.Arguments, a)
	return f
}

func (f *Field) SetResolver(r ResolveFunc) *Field {
	f.Resolve = r
	return f
}

func (f *Field) SetSubscriber(s SubscribeFunc) *Field {
	f.Subscribe = s
	return f
}

func (f *Field) AddDirective(d *AppliedDirective) *Field {
	f.Directives = append(f.Directives, d)
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f.AddDirective(&AppliedDirective{Name: "deprecated", Args: map[string]any{"reason": reason}})
}

// Argument returns the argument definition named name, or nil.
func (f *Field) Argument(name string) *InputValue {
	return findInputValue(f.Arguments, name)
}

func NewInputValue(name string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Type: typ}
}

func (v *InputValue) SetDescription(desc string) *InputValue {
	v.Description = desc
	return v
}

// SetDefault declares a default value. The value must already be in its
// coerced (internal) form.
func (v *InputValue) SetDefault(value any) *InputValue {
	v.DefaultValue = value
	v.HasDefault = true
	return v
}

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	v.Directives = append(v.Directives, &AppliedDirective{Name: "deprecated", Args: map[string]any{"reason": reason}})
	return v
}

func NewEnumValue(name string, value any) *EnumValue {
	if value == nil {
		value = name
	}
	return &EnumValue{Name: name, Value: value}
}

func (e *EnumValue) SetDescription(desc string) *EnumValue {
	e.Description = desc
	return e
}

func (e *EnumValue) Deprecate(reason string) *EnumValue {
	e.IsDeprecated = true
	e.DeprecationReason = reason
	e.Directives = append(e.Directives, &AppliedDirective{Name: "deprecated", Args: map[string]any{"reason": reason}})
	return e
}

func (e *EnumValue) AddDirective(d *AppliedDirective) *EnumValue {
	e.Directives = append(e.Directives, d)
	return e
}

func NewDirective(name string, locations ...DirectiveLocation) *Directive {
	return &Directive{Name: name, Locations: locations}
}

func (d *Directive) SetDescription(desc string) *Directive {
	d.Description = desc
	return d
}

func (d *Directive) AddArgument(a *InputValue) *Directive {
	d.Arguments = append(d.Arguments, a)
	return d
}

func (d *Directive) SetRepeatable(repeatable bool) *Directive {
	d.IsRepeatable = repeatable
	return d
}

func (d *Directive) SetImplementation(impl any) *Directive {
	d.Implementation = impl
	return d
}

// Argument returns the argument definition named name, or nil.
func (d *Directive) Argument(name string) *InputValue {
	return findInputValue(d.Arguments, name)
}

// AllowedAt reports whether the directive may be used at loc.
func (d *Directive) AllowedAt(loc DirectiveLocation) bool {
	for _, l := range d.Locations {
		if l == loc {
			return true
		}
	}
	return false
}

func findInputValue(values []*InputValue, name string) *InputValue {
	for _, v := range values {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// TypeRefFromAST converts a type reference of the query document.
func TypeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(TypeRefFromAST(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(TypeRefFromAST(t.Elem))
	}
	return nil
}
