// Package transpile implements the restricted expression-language
// parser (C2) that turns a user-facing filter string into a backend
// filter document. No participle/ANTLR-style grammar generator is
// usable in this environment (code generation can't be run here), so
// the lexer and recursive-descent parser below are hand-written.
package transpile

import "github.com/luocfprime/labtasker/internal/model"

// Expr is any node in the parsed expression tree.
type Expr interface{ exprNode() }

// FieldRef is a dotted-path reference into a document, e.g. "args.foo".
// Subscripts (a[2], a['k']) are lowered into the same dotted form by
// the parser.
type FieldRef struct{ Path string }

// Literal is a constant value: int, float, string, bool, null, list or
// map, already converted to the internal Value representation.
type Literal struct{ Value model.Value }

// Comparison is a single (non-chained) comparison between two operands.
// Op is one of "==", "<", "<=", ">", ">=", "in".
type Comparison struct {
	Op          string
	Left, Right Expr
}

// Logical combines two or more operands with "and" or "or".
type Logical struct {
	Op       string // "and" | "or"
	Operands []Expr
}

// Arith is an arithmetic combination of field references and literals,
// only meaningful inside a Comparison.
type Arith struct {
	Op          string // "+" "-" "*" "/" "%"
	Left, Right Expr
}

// Call is a function invocation: regex(field, pattern) or
// exists(field, present?).
type Call struct {
	Name string
	Args []Expr
}

func (FieldRef) exprNode()   {}
func (Literal) exprNode()    {}
func (Comparison) exprNode() {}
func (Logical) exprNode()    {}
func (Arith) exprNode()      {}
func (Call) exprNode()       {}
