// Package ast defines Sif's syntax tree: an immutable tree of
// statement/expression nodes with source ranges and a visitor contract.
package ast

import (
	"github.com/atjhc/sif/internal/signature"
	"github.com/atjhc/sif/internal/token"
)

// Node is implemented by every AST node.
type Node interface {
	Range() token.Range
	Accept(v Visitor)
}

// Statement is a Node used in statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node used in expression position.
type Expression interface {
	Node
	expressionNode()
}

// Target is the left-hand side of a `set` statement.
type Target interface {
	Node
	targetNode()
}

// Visitor is the single visitor contract used by the pretty-printer,
// compiler, and annotator.
type Visitor interface {
	VisitBlock(*Block)
	VisitFunctionDecl(*FunctionDecl)
	VisitIf(*If)
	VisitTry(*Try)
	VisitUse(*Use)
	VisitUsing(*Using)
	VisitAssignment(*Assignment)
	VisitExpressionStatement(*ExpressionStatement)
	VisitReturn(*Return)
	VisitRepeat(*Repeat)
	VisitRepeatCondition(*RepeatCondition)
	VisitRepeatFor(*RepeatFor)
	VisitExitRepeat(*ExitRepeat)
	VisitNextRepeat(*NextRepeat)

	VisitCall(*Call)
	VisitBinary(*Binary)
	VisitUnary(*Unary)
	VisitGrouping(*Grouping)
	VisitSubscript(*Subscript)
	VisitVariable(*Variable)
	VisitLiteral(*Literal)
	VisitListLiteral(*ListLiteral)
	VisitDictionaryLiteral(*DictionaryLiteral)
	VisitRangeLiteral(*RangeLiteral)
	VisitStringInterpolation(*StringInterpolation)
}

// VariableScope forces resolution of a `set`/`global`/`local` target, or is
// left Unspecified to let the compiler decide.
type VariableScope int

const (
	ScopeUnspecified VariableScope = iota
	ScopeLocal
	ScopeGlobal
)

// Base is embedded by every node to carry its source range.
type Base struct {
	Rng token.Range
}

func (b Base) Range() token.Range { return b.Rng }

// Signature re-exports the signature package's type so callers of this
// package rarely need to import it directly.
type Signature = signature.Signature
