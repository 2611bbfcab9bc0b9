// Package printer implements the `-p` pretty-printer: a second ast.Visitor
// alongside the compiler's, rendering a parsed program as an indented,
// parenthesized listing rather than re-deriving Sif source text.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atjhc/sif/internal/ast"
)

// Print renders block as a multi-line, indented tree.
func Print(block *ast.Block) string {
	p := &printer{}
	p.VisitBlock(block)
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(format string, args ...interface{}) {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) open(format string, args ...interface{}) {
	p.line(format, args...)
	p.indent++
}

func (p *printer) close() { p.indent-- }

func (p *printer) visit(n ast.Node) {
	if n == nil {
		p.line("nil")
		return
	}
	n.Accept(p)
}

func (p *printer) VisitBlock(n *ast.Block) {
	p.open("(block")
	for _, s := range n.Statements {
		p.visit(s)
	}
	p.close()
}

func (p *printer) VisitFunctionDecl(n *ast.FunctionDecl) {
	p.open("(function %s", n.Signature.Description())
	for _, param := range n.Params {
		p.line("(param %s)", targetDescription(param))
	}
	p.visit(n.Body)
	p.close()
}

func (p *printer) VisitIf(n *ast.If) {
	p.open("(if")
	p.visit(n.Condition)
	p.line("(then")
	p.indent++
	p.visit(n.Then)
	p.indent--
	p.line(")")
	if n.Else != nil {
		p.line("(else")
		p.indent++
		p.visit(n.Else)
		p.indent--
		p.line(")")
	}
	p.close()
}

func (p *printer) VisitTry(n *ast.Try) {
	p.open("(try")
	p.visit(n.Body)
	p.close()
}

func (p *printer) VisitUse(n *ast.Use) {
	p.line("(use %q)", n.ModuleName)
}

func (p *printer) VisitUsing(n *ast.Using) {
	p.open("(using %q", n.ModuleName)
	p.visit(n.Body)
	p.close()
}

func (p *printer) VisitAssignment(n *ast.Assignment) {
	p.open("(set")
	for _, t := range n.Targets {
		p.line("(target %s)", targetDescription(t))
	}
	p.visit(n.Value)
	p.close()
}

func (p *printer) VisitExpressionStatement(n *ast.ExpressionStatement) {
	p.open("(expr-stmt")
	p.visit(n.Expr)
	p.close()
}

func (p *printer) VisitReturn(n *ast.Return) {
	if n.Value == nil {
		p.line("(return)")
		return
	}
	p.open("(return")
	p.visit(n.Value)
	p.close()
}

func (p *printer) VisitRepeat(n *ast.Repeat) {
	if n.Loop == nil {
		p.open("(repeat forever")
	} else {
		p.open("(repeat")
		p.visit(n.Loop)
	}
	p.visit(n.Body)
	p.close()
}

func (p *printer) VisitRepeatCondition(n *ast.RepeatCondition) {
	kind := "while"
	if n.Until {
		kind = "until"
	}
	p.open("(%s", kind)
	p.visit(n.Condition)
	p.close()
}

func (p *printer) VisitRepeatFor(n *ast.RepeatFor) {
	p.open("(for-each")
	for _, v := range n.Variables {
		p.line("(var %s)", targetDescription(v))
	}
	p.line("(in")
	p.indent++
	p.visit(n.Iterable)
	p.indent--
	p.line(")")
	p.close()
}

func (p *printer) VisitExitRepeat(n *ast.ExitRepeat) { p.line("(exit-repeat)") }
func (p *printer) VisitNextRepeat(n *ast.NextRepeat) { p.line("(next-repeat)") }

func (p *printer) VisitCall(n *ast.Call) {
	if len(n.Arguments) == 0 {
		p.line("(call %s)", n.Signature.Name())
		return
	}
	p.open("(call %s", n.Signature.Name())
	for _, a := range n.Arguments {
		p.visit(a)
	}
	p.close()
}

func (p *printer) VisitBinary(n *ast.Binary) {
	p.open("(%s", binaryOpName(n.Op))
	p.visit(n.Left)
	p.visit(n.Right)
	p.close()
}

func (p *printer) VisitUnary(n *ast.Unary) {
	p.open("(%s", unaryOpName(n.Op))
	p.visit(n.Operand)
	p.close()
}

func (p *printer) VisitGrouping(n *ast.Grouping) {
	p.open("(group")
	p.visit(n.Inner)
	p.close()
}

func (p *printer) VisitSubscript(n *ast.Subscript) {
	p.open("(subscript")
	p.visit(n.Target)
	p.visit(n.Index)
	p.close()
}

func (p *printer) VisitVariable(n *ast.Variable) {
	p.line("(var %s)", n.Name)
}

func (p *printer) VisitLiteral(n *ast.Literal) {
	switch n.Kind {
	case ast.LiteralInt:
		p.line("(int %s)", strconv.FormatInt(n.Int, 10))
	case ast.LiteralFloat:
		p.line("(float %s)", strconv.FormatFloat(n.Flt, 'g', -1, 64))
	case ast.LiteralBool:
		p.line("(bool %t)", n.Bool)
	case ast.LiteralString:
		p.line("(string %q)", n.Str)
	default:
		p.line("(empty)")
	}
}

func (p *printer) VisitListLiteral(n *ast.ListLiteral) {
	if len(n.Elements) == 0 {
		p.line("(list)")
		return
	}
	p.open("(list")
	for _, e := range n.Elements {
		p.visit(e)
	}
	p.close()
}

func (p *printer) VisitDictionaryLiteral(n *ast.DictionaryLiteral) {
	if len(n.Keys) == 0 {
		p.line("(dictionary)")
		return
	}
	p.open("(dictionary")
	for i, k := range n.Keys {
		p.line("(entry")
		p.indent++
		p.visit(k)
		p.visit(n.Values[i])
		p.indent--
		p.line(")")
	}
	p.close()
}

func (p *printer) VisitRangeLiteral(n *ast.RangeLiteral) {
	op := "(range-closed"
	if !n.Closed {
		op = "(range-half-open"
	}
	p.open(op)
	p.visit(n.Start)
	p.visit(n.End)
	p.close()
}

func (p *printer) VisitStringInterpolation(n *ast.StringInterpolation) {
	p.open("(interpolation %q", n.Left)
	p.visit(n.Expr)
	p.visit(n.Right)
	p.close()
}

func targetDescription(t ast.Target) string {
	switch tt := t.(type) {
	case *ast.VariableTarget:
		var sb strings.Builder
		sb.WriteString(tt.Name)
		if tt.TypeName != "" {
			fmt.Fprintf(&sb, ": %s", tt.TypeName)
		}
		for range tt.Subscripts {
			sb.WriteString("[...]")
		}
		return sb.String()
	case *ast.StructuredTarget:
		parts := make([]string, len(tt.Targets))
		for i, sub := range tt.Targets {
			parts[i] = targetDescription(sub)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "?"
	}
}

func binaryOpName(op ast.BinaryOp) string {
	switch op {
	case ast.OpAnd:
		return "and"
	case ast.OpOr:
		return "or"
	case ast.OpEqual:
		return "eq"
	case ast.OpNotEqual:
		return "neq"
	case ast.OpIs:
		return "is"
	case ast.OpIsNot:
		return "is-not"
	case ast.OpLess:
		return "lt"
	case ast.OpLessEqual:
		return "le"
	case ast.OpGreater:
		return "gt"
	case ast.OpGreaterEqual:
		return "ge"
	case ast.OpAdd:
		return "add"
	case ast.OpSubtract:
		return "sub"
	case ast.OpMultiply:
		return "mul"
	case ast.OpDivide:
		return "div"
	case ast.OpModulo:
		return "mod"
	case ast.OpExponent:
		return "pow"
	default:
		return "op?"
	}
}

func unaryOpName(op ast.UnaryOp) string {
	switch op {
	case ast.OpNegate:
		return "negate"
	case ast.OpNot:
		return "not"
	default:
		return "op?"
	}
}
