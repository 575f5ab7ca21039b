package transpile

import "fmt"

// SyntaxError is returned when the input cannot be parsed as a valid
// expression (malformed tokens, unbalanced parens, chained comparisons).
type SyntaxError struct{ Msg string }

func (e *SyntaxError) Error() string { return "transpile: syntax error: " + e.Msg }

// ValueError is returned for syntactically valid input that uses an
// unsupported construct: unknown function, wrong arity, "not", a bare
// identifier/literal at top level, or empty input.
type ValueError struct{ Msg string }

func (e *ValueError) Error() string { return "transpile: " + e.Msg }

func syntaxErrorf(format string, args ...interface{}) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

func valueErrorf(format string, args ...interface{}) error {
	return &ValueError{Msg: fmt.Sprintf(format, args...)}
}
