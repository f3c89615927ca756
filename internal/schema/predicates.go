package schema

import "strings"

// IsNonNull reports whether the reference is a Non-Null wrapper.
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

// IsList reports whether the reference is a list, possibly behind one
// Non-Null wrapper.
func (t *TypeRef) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

// Unwrap removes one Non-Null or List wrapper.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

// Nullable strips a Non-Null wrapper, if any.
func (t *TypeRef) Nullable() *TypeRef {
	if t.IsNonNull() {
		return t.OfType
	}
	return t
}

// NamedType strips every wrapper and returns the innermost type name.
func (t *TypeRef) NamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// ContainsNonNull reports whether any level of the reference is Non-Null.
func (t *TypeRef) ContainsNonNull() bool {
	for current := t; current != nil; current = current.OfType {
		if current.Kind == TypeRefKindNonNull {
			return true
		}
	}
	return false
}

// String renders the reference in SDL notation, e.g. "[String!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	}
	return t.Named
}

// Equal reports whether both references describe the same type.
func (t *TypeRef) Equal(o *TypeRef) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Named != o.Named {
		return false
	}
	return t.OfType.Equal(o.OfType)
}

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.NamedType() }

func (t *Type) IsScalar() bool      { return t != nil && t.Kind == TypeKindScalar }
func (t *Type) IsEnum() bool        { return t != nil && t.Kind == TypeKindEnum }
func (t *Type) IsObject() bool      { return t != nil && t.Kind == TypeKindObject }
func (t *Type) IsInterface() bool   { return t != nil && t.Kind == TypeKindInterface }
func (t *Type) IsUnion() bool       { return t != nil && t.Kind == TypeKindUnion }
func (t *Type) IsInputObject() bool { return t != nil && t.Kind == TypeKindInputObject }

// IsAbstract reports whether the type is an interface or a union.
func (t *Type) IsAbstract() bool { return t.IsInterface() || t.IsUnion() }

// IsComposite reports whether values of the type have selection sets.
func (t *Type) IsComposite() bool { return t.IsObject() || t.IsAbstract() }

// IsLeaf reports whether the type is a scalar or an enum.
func (t *Type) IsLeaf() bool { return t.IsScalar() || t.IsEnum() }

// IsInputType reports whether the type may be used for arguments and variables.
func (t *Type) IsInputType() bool { return t.IsLeaf() || t.IsInputObject() }

// IsOutputType reports whether the type may be returned by a field.
func (t *Type) IsOutputType() bool { return t.IsLeaf() || t.IsComposite() }

// IsIntrospection reports whether the name belongs to the introspection system.
func IsIntrospection(name string) bool { return strings.HasPrefix(name, "__") }

// IsInputType reports whether the reference names an input type of s.
func (s *Schema) IsInputType(t *TypeRef) bool {
	return s.Types[t.NamedType()].IsInputType()
}

// IsOutputType reports whether the reference names an output type of s.
func (s *Schema) IsOutputType(t *TypeRef) bool {
	return s.Types[t.NamedType()].IsOutputType()
}

// IsLeafType reports whether the reference names a scalar or enum of s.
func (s *Schema) IsLeafType(t *TypeRef) bool {
	return s.Types[t.NamedType()].IsLeaf()
}

// IsCompositeType reports whether the reference names an object, interface
// or union of s.
func (s *Schema) IsCompositeType(t *TypeRef) bool {
	return s.Types[t.NamedType()].IsComposite()
}

// IsAbstractType reports whether the reference names an interface or union of s.
func (s *Schema) IsAbstractType(t *TypeRef) bool {
	return s.Types[t.NamedType()].IsAbstract()
}
