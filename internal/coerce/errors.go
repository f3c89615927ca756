package coerce

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// Error is one input coercion failure. Path locates the offending value
// inside the input being coerced; it is empty for the top-level value.
type Error struct {
	Path     []any
	Message  string
	Position *ast.Position
}

func (e *Error) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("At %q: %s", formatPath(e.Path), e.Message)
}

func newError(path []any, pos *ast.Position, format string, args ...any) *Error {
	return &Error{Path: clonePath(path), Message: fmt.Sprintf(format, args...), Position: pos}
}

func clonePath(path []any) []any {
	if len(path) == 0 {
		return nil
	}
	return append([]any(nil), path...)
}

func extend(path []any, elem any) []any {
	out := make([]any, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func formatPath(path []any) string {
	var b strings.Builder
	for i, p := range path {
		switch v := p.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}
