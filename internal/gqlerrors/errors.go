// Package gqlerrors holds the error kinds reported while executing a
// request and the append-only accumulator every execution branch reports to.
//
// Errors are *gqlerror.Error values from gqlparser. The kind of an error is
// carried in its Rule field and the original cause in its Err field; neither
// is serialized.
package gqlerrors

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Kind classifies an error. Kinds are informational and never serialized.
type Kind = string

const (
	// Request-fatal kinds.
	ParseError                Kind = "ParseError"
	UnknownOperation          Kind = "UnknownOperation"
	NotUniqueOperationName    Kind = "NotUniqueOperationName"
	NotLoneAnonymousOperation Kind = "NotLoneAnonymousOperation"
	InvalidVariable           Kind = "InvalidVariable"
	MultipleRootNode          Kind = "MultipleRootNodeOnSubscriptionOperation"

	// Collection-time kinds.
	UnknownSchemaFieldResolver       Kind = "UnknownSchemaFieldResolver"
	UndefinedFragment                Kind = "UndefinedFragment"
	UnusedFragment                   Kind = "UnusedFragment"
	NotUniqueFragmentName            Kind = "NotUniqueFragmentName"
	UnknownTypeCondition             Kind = "UnknownTypeCondition"
	DuplicateArgumentName            Kind = "DuplicateArgumentName"
	UndefinedFieldArgument           Kind = "UndefinedFieldArgument"
	UnknownDirective                 Kind = "UnknownDirective"
	MisplacedDirective               Kind = "MisplacedDirective"
	UndefinedDirectiveArgument       Kind = "UndefinedDirectiveArgument"
	MissingRequiredDirectiveArgument Kind = "MissingRequiredDirectiveArgument"
	InvalidDirectiveArgument         Kind = "InvalidDirectiveArgument"

	// Resolution-time kinds.
	InvalidValue     Kind = "InvalidValue"
	InvalidArgument  Kind = "InvalidArgument"
	ResolverError    Kind = "ResolverError"
	InvalidType      Kind = "InvalidType"
	ResolverPanicked Kind = "ResolverPanicked"
)

// New returns a located error of the given kind.
func New(kind Kind, message string, path ast.Path, locations ...gqlerror.Location) *gqlerror.Error {
	return &gqlerror.Error{
		Message:   message,
		Path:      path,
		Locations: locations,
		Rule:      kind,
	}
}

// Newf is New with a formatted message.
func Newf(kind Kind, path ast.Path, locations []gqlerror.Location, format string, args ...any) *gqlerror.Error {
	return New(kind, fmt.Sprintf(format, args...), path, locations...)
}

// Wrap turns err into a located error. A *gqlerror.Error is reused as is,
// filling in the path and locations only when it does not carry its own.
// Any other error becomes an envelope whose Err keeps the cause.
func Wrap(kind Kind, err error, path ast.Path, locations []gqlerror.Location) *gqlerror.Error {
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) && gerr != nil {
		out := *gerr
		if out.Path == nil {
			out.Path = path
		}
		if len(out.Locations) == 0 {
			out.Locations = locations
		}
		if out.Rule == "" {
			out.Rule = kind
		}
		return &out
	}
	return &gqlerror.Error{
		Err:       err,
		Message:   err.Error(),
		Path:      path,
		Locations: locations,
		Rule:      kind,
	}
}

// KindOf returns the kind recorded on err, or "" when err is not a located
// error.
func KindOf(err error) Kind {
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) && gerr != nil {
		return gerr.Rule
	}
	return ""
}

// Flatten expands aggregate errors (errors.Join results, gqlerror.List and
// anything else implementing Unwrap() []error) into their leaves.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case gqlerror.List:
		out := make([]error, 0, len(e))
		for _, item := range e {
			if item != nil {
				out = append(out, item)
			}
		}
		return out
	case interface{ Unwrap() []error }:
		var out []error
		for _, inner := range e.Unwrap() {
			out = append(out, Flatten(inner)...)
		}
		return out
	}
	return []error{err}
}
