package ast

import "github.com/atjhc/sif/internal/token"

// Call is a resolved invocation of a declared Signature — the AST node the
// signature-driven parser produces once a grammar-trie path completes.
type Call struct {
	Base
	Signature Signature
	Arguments []Expression
	// Ranges holds each argument's own source range, in call order, so the
	// compiler can populate the bytecode argument-range table.
	Ranges []token.Range
}

func (n *Call) expressionNode() {}
func (n *Call) Accept(v Visitor) { v.VisitCall(n) }

// BinaryOp identifies a Binary node's operator.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEqual
	OpNotEqual
	OpIs
	OpIsNot
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpExponent
)

// Binary is a two-operand operator expression.
type Binary struct {
	Base
	Op          BinaryOp
	Left, Right Expression
}

func (n *Binary) expressionNode() {}
func (n *Binary) Accept(v Visitor) { v.VisitBinary(n) }

// UnaryOp identifies a Unary node's operator.
type UnaryOp int

const (
	OpNegate UnaryOp = iota
	OpNot
)

type Unary struct {
	Base
	Op      UnaryOp
	Operand Expression
}

func (n *Unary) expressionNode() {}
func (n *Unary) Accept(v Visitor) { v.VisitUnary(n) }

// Grouping is a parenthesized sub-expression, kept as its own node so
// source ranges/pretty-printing reflect the parens.
type Grouping struct {
	Base
	Inner Expression
}

func (n *Grouping) expressionNode() {}
func (n *Grouping) Accept(v Visitor) { v.VisitGrouping(n) }

// Subscript is a postfix `target[index]` read.
type Subscript struct {
	Base
	Target Expression
	Index  Expression
}

func (n *Subscript) expressionNode() {}
func (n *Subscript) Accept(v Visitor) { v.VisitSubscript(n) }

// Variable is an identifier reference whose local/capture/global
// resolution is deferred to the compiler.
type Variable struct {
	Base
	Name  string
	Scope VariableScope
}

func (n *Variable) expressionNode() {}
func (n *Variable) Accept(v Visitor) { v.VisitVariable(n) }

// LiteralKind discriminates a Literal node's payload.
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralString
	LiteralEmpty
)

type Literal struct {
	Base
	Kind LiteralKind
	Int  int64
	Flt  float64
	Bool bool
	Str  string
}

func (n *Literal) expressionNode() {}
func (n *Literal) Accept(v Visitor) { v.VisitLiteral(n) }

// ListLiteral is `[a, b, c]` or a parsed comma-list `a, b, c`.
type ListLiteral struct {
	Base
	Elements []Expression
}

func (n *ListLiteral) expressionNode() {}
func (n *ListLiteral) Accept(v Visitor) { v.VisitListLiteral(n) }

// DictionaryLiteral is `{k1: v1, k2: v2}`.
type DictionaryLiteral struct {
	Base
	Keys   []Expression
	Values []Expression
}

func (n *DictionaryLiteral) expressionNode() {}
func (n *DictionaryLiteral) Accept(v Visitor) { v.VisitDictionaryLiteral(n) }

// RangeLiteral is `start ...end` (Closed) or `start..<end` (half-open).
type RangeLiteral struct {
	Base
	Start, End Expression
	Closed     bool
}

func (n *RangeLiteral) expressionNode() {}
func (n *RangeLiteral) Accept(v Visitor) { v.VisitRangeLiteral(n) }

// StringInterpolation is one `"...{expr}..."` segment chain, built
// left-to-right by the parser as OpenInterpolation/Interpolation/
// ClosedInterpolation tokens arrive. Left is the text
// before Expr; Right is either another *StringInterpolation (more
// segments follow) or a *Literal string (the final segment).
type StringInterpolation struct {
	Base
	Left  string
	Expr  Expression
	Right Expression // *StringInterpolation or *Literal(LiteralString)
}

func (n *StringInterpolation) expressionNode() {}
func (n *StringInterpolation) Accept(v Visitor) { v.VisitStringInterpolation(n) }
