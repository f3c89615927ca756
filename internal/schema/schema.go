package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

var (
	ErrUnknownType                = errors.New("unknown type")
	ErrUnknownDirectiveDefinition = errors.New("unknown directive definition")
	ErrUnknownSchemaFieldResolver = errors.New("unknown schema field")
	ErrAlreadyDefined             = errors.New("already defined")
	ErrInvalidSchema              = errors.New("invalid schema")
	ErrSchemaBaked                = errors.New("schema already baked")
)

// Schema represents the complete GraphQL schema. A Schema is produced by
// Builder.Bake and is read-only afterwards; it is shared by every request.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	typeOrder      []string
	directiveOrder []string
	possible       map[string]map[string]bool
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// FindType returns the named type.
func (s *Schema) FindType(name string) (*Type, error) {
	if t, ok := s.Types[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
}

// FindDirective returns the directive definition named name.
func (s *Schema) FindDirective(name string) (*Directive, error) {
	if d, ok := s.Directives[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w @%s", ErrUnknownDirectiveDefinition, name)
}

// GetFieldByName looks a field up by its schema coordinate, e.g. "Query.hero".
func (s *Schema) GetFieldByName(coordinate string) (*Field, error) {
	typeName, fieldName, ok := strings.Cut(coordinate, ".")
	if !ok || typeName == "" || fieldName == "" {
		return nil, fmt.Errorf("%w %q", ErrUnknownSchemaFieldResolver, coordinate)
	}
	t := s.Types[typeName]
	if t == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownSchemaFieldResolver, coordinate)
	}
	f := t.Field(fieldName)
	if f == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownSchemaFieldResolver, coordinate)
	}
	return f, nil
}

// GetOperationType returns the root type name serving the operation.
func (s *Schema) GetOperationType(op ast.Operation) (string, error) {
	var name string
	switch op {
	case ast.Query, "":
		name = s.QueryType
	case ast.Mutation:
		name = s.MutationType
	case ast.Subscription:
		name = s.SubscriptionType
	default:
		return "", fmt.Errorf("%w: unsupported operation %q", ErrUnknownType, op)
	}
	if name == "" || s.Types[name] == nil {
		return "", fmt.Errorf("%w: schema is not configured for %s operations", ErrUnknownType, op)
	}
	return name, nil
}

// TypeNames returns the names of all types in registration order.
func (s *Schema) TypeNames() []string {
	return append([]string(nil), s.typeOrder...)
}

// DirectiveNames returns the names of all directives in registration order.
func (s *Schema) DirectiveNames() []string {
	return append([]string(nil), s.directiveOrder...)
}

// PossibleTypes returns the object types a value of t may have at runtime.
// For an object type this is the type itself.
func (s *Schema) PossibleTypes(t *Type) []*Type {
	if t == nil {
		return nil
	}
	if t.IsObject() {
		return []*Type{t}
	}
	out := make([]*Type, 0, len(t.PossibleTypes))
	for _, name := range t.PossibleTypes {
		if pt := s.Types[name]; pt != nil {
			out = append(out, pt)
		}
	}
	return out
}

// IsPossibleType reports whether object may be the runtime type of a value
// of type abstract. A type is always a possible type of itself.
func (s *Schema) IsPossibleType(abstract, object string) bool {
	if abstract == object {
		return true
	}
	return s.possible[abstract][object]
}

// IsSubType reports whether a value of type sub can stand where super is
// expected, following the covariance rules of interface implementations.
func (s *Schema) IsSubType(sub, super *TypeRef) bool {
	if sub.Equal(super) {
		return true
	}
	if super.IsNonNull() {
		if sub.IsNonNull() {
			return s.IsSubType(sub.OfType, super.OfType)
		}
		return false
	}
	if sub.IsNonNull() {
		return s.IsSubType(sub.OfType, super)
	}
	if super.Kind == TypeRefKindList {
		return sub.Kind == TypeRefKindList && s.IsSubType(sub.OfType, super.OfType)
	}
	if sub.Kind == TypeRefKindList {
		return false
	}
	superType := s.Types[super.Named]
	if !superType.IsAbstract() {
		return false
	}
	if s.IsPossibleType(super.Named, sub.Named) {
		return true
	}
	if subType := s.Types[sub.Named]; subType.IsInterface() {
		for _, name := range subType.Interfaces {
			if name == super.Named {
				return true
			}
		}
	}
	return false
}
