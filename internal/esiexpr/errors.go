package esiexpr

import "fmt"

// ParenError reports mismatched parentheses, the one way an expression can
// fail to compile. Per spec, a when test that fails to parse is simply
// treated as false, so callers that don't care about diagnostics can
// ignore the error and rely on Evaluate's bool return.
type ParenError struct {
	Expr string
}

func (e *ParenError) Error() string {
	return fmt.Sprintf("esiexpr: mismatched parentheses in %q", e.Expr)
}

func (e *ParenError) Is(target error) bool {
	_, ok := target.(*ParenError)
	return ok
}
