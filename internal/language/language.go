package language

import (
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document. Syntax errors are returned as
// *Error values carrying the location of the offending token.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query", Input: source})
	if err != nil {
		var gerr *gqlerror.Error
		if errors.As(err, &gerr) && gerr != nil {
			return nil, gerr
		}
		return nil, &Error{Message: err.Error(), Err: err}
	}
	return doc, nil
}
