package compiler

import (
	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/token"
)

// VisitCall resolves the callee by its signature's canonical name — through
// the same local/capture/global chain any other variable read uses — then
// pushes arguments and emits Call. A function
// declaration binds its value under exactly this name, so a recursive call
// finds itself as an ordinary local.
func (c *Compiler) VisitCall(n *ast.Call) {
	rng := n.Range()
	c.compileVariableRead(n.Signature.Name(), rng)
	for _, arg := range n.Arguments {
		arg.Accept(c)
	}
	offset := c.cur.emitOp(bytecode.Call, uint16(len(n.Arguments)), rng)
	if len(n.Ranges) > 0 {
		c.cur.code.SetArgumentRanges(offset, n.Ranges)
	}
}

// VisitBinary lowers every binary operator. `and`/`or` short-circuit via
// jump-over-right rather than a primitive opcode, leaving the
// short-circuited operand's own value as the result.
func (c *Compiler) VisitBinary(n *ast.Binary) {
	rng := n.Range()
	switch n.Op {
	case ast.OpAnd:
		n.Left.Accept(c)
		endJump := c.cur.emitJump(bytecode.JumpIfFalse, rng)
		c.cur.emit(bytecode.Pop, rng)
		n.Right.Accept(c)
		c.cur.patchJump(endJump)
		return
	case ast.OpOr:
		n.Left.Accept(c)
		endJump := c.cur.emitJump(bytecode.JumpIfTrue, rng)
		c.cur.emit(bytecode.Pop, rng)
		n.Right.Accept(c)
		c.cur.patchJump(endJump)
		return
	}

	n.Left.Accept(c)
	n.Right.Accept(c)
	switch n.Op {
	case ast.OpEqual, ast.OpIs:
		c.cur.emit(bytecode.Equal, rng)
	case ast.OpNotEqual, ast.OpIsNot:
		c.cur.emit(bytecode.NotEqual, rng)
	case ast.OpLess:
		c.cur.emit(bytecode.LessThan, rng)
	case ast.OpLessEqual:
		c.cur.emit(bytecode.LessThanOrEqual, rng)
	case ast.OpGreater:
		c.cur.emit(bytecode.GreaterThan, rng)
	case ast.OpGreaterEqual:
		c.cur.emit(bytecode.GreaterThanOrEqual, rng)
	case ast.OpAdd:
		c.cur.emit(bytecode.Add, rng)
	case ast.OpSubtract:
		c.cur.emit(bytecode.Subtract, rng)
	case ast.OpMultiply:
		c.cur.emit(bytecode.Multiply, rng)
	case ast.OpDivide:
		c.cur.emit(bytecode.Divide, rng)
	case ast.OpModulo:
		c.cur.emit(bytecode.Modulo, rng)
	case ast.OpExponent:
		c.cur.emit(bytecode.Exponent, rng)
	default:
		c.errorf(rng, "unknown binary operator")
	}
}

func (c *Compiler) VisitUnary(n *ast.Unary) {
	rng := n.Range()
	n.Operand.Accept(c)
	switch n.Op {
	case ast.OpNegate:
		c.cur.emit(bytecode.Negate, rng)
	case ast.OpNot:
		c.cur.emit(bytecode.Not, rng)
	}
}

func (c *Compiler) VisitGrouping(n *ast.Grouping) { n.Inner.Accept(c) }

func (c *Compiler) VisitSubscript(n *ast.Subscript) {
	n.Target.Accept(c)
	n.Index.Accept(c)
	c.cur.emit(bytecode.Subscript, n.Range())
}

func (c *Compiler) VisitVariable(n *ast.Variable) { c.compileVariableRead(n.Name, n.Range()) }

// compileVariableRead resolves name through the local, capture, global
// chain, special-casing `it` (a per-call-frame register, not a variable
// at all).
func (c *Compiler) compileVariableRead(name string, rng token.Range) {
	if name == "it" {
		c.cur.emit(bytecode.GetIt, rng)
		return
	}
	if slot, ok := c.cur.resolveLocal(name); ok {
		c.cur.emitOp(bytecode.GetLocal, uint16(slot), rng)
		return
	}
	if idx, ok := c.resolveCapture(c.cur, name); ok {
		c.cur.emitOp(bytecode.GetCapture, uint16(idx), rng)
		return
	}
	c.emitGetGlobal(name, rng)
}

func (c *Compiler) VisitLiteral(n *ast.Literal) {
	rng := n.Range()
	switch n.Kind {
	case ast.LiteralInt:
		if n.Int >= 0 && n.Int <= 0xFFFF {
			c.cur.emitOp(bytecode.Short, uint16(n.Int), rng)
		} else {
			c.cur.emitOp(bytecode.Constant, c.cur.code.AddConstant(object.Int(n.Int)), rng)
		}
	case ast.LiteralFloat:
		c.cur.emitOp(bytecode.Constant, c.cur.code.AddConstant(object.Float(n.Flt)), rng)
	case ast.LiteralBool:
		if n.Bool {
			c.cur.emit(bytecode.True, rng)
		} else {
			c.cur.emit(bytecode.False, rng)
		}
	case ast.LiteralString:
		c.cur.emitOp(bytecode.Constant, c.cur.code.AddConstant(object.Obj(object.NewString(n.Str))), rng)
	case ast.LiteralEmpty:
		c.cur.emit(bytecode.Empty, rng)
	}
}

func (c *Compiler) VisitListLiteral(n *ast.ListLiteral) {
	for _, e := range n.Elements {
		e.Accept(c)
	}
	c.cur.emitOp(bytecode.List, uint16(len(n.Elements)), n.Range())
}

func (c *Compiler) VisitDictionaryLiteral(n *ast.DictionaryLiteral) {
	for i := range n.Keys {
		n.Keys[i].Accept(c)
		n.Values[i].Accept(c)
	}
	c.cur.emitOp(bytecode.Dictionary, uint16(len(n.Keys)), n.Range())
}

func (c *Compiler) VisitRangeLiteral(n *ast.RangeLiteral) {
	rng := n.Range()
	n.Start.Accept(c)
	n.End.Accept(c)
	if n.Closed {
		c.cur.emit(bytecode.ClosedRange, rng)
	} else {
		c.cur.emit(bytecode.OpenRange, rng)
	}
}

// VisitStringInterpolation builds Left + toString(Expr) + Right via OP_ADD's
// string-concatenation overload; Right is either the final literal segment
// or another interpolation node, recursing the same way the parser chained
// them.
func (c *Compiler) VisitStringInterpolation(n *ast.StringInterpolation) {
	rng := n.Range()
	c.cur.emitOp(bytecode.Constant, c.cur.code.AddConstant(object.Obj(object.NewString(n.Left))), rng)
	n.Expr.Accept(c)
	c.cur.emit(bytecode.ToString, rng)
	c.cur.emit(bytecode.Add, rng)
	n.Right.Accept(c)
	c.cur.emit(bytecode.Add, rng)
}
