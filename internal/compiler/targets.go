package compiler

import (
	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/token"
)

// compileAssignTarget consumes exactly one value already sitting on top of
// the stack, binding it into t. For a plain new-local declaration the value
// becomes the local (no pop — the stack slot is the local), matching
// declareLocal's zero-cost "claim what's already pushed" contract; every
// other path (existing local, capture, global, subscript, structured
// destructure) fully discards its own temporaries, so callers never need to
// balance the stack themselves regardless of which case was taken.
func (c *Compiler) compileAssignTarget(t ast.Target, rng token.Range) {
	switch tg := t.(type) {
	case *ast.VariableTarget:
		if len(tg.Subscripts) > 0 {
			c.compileSubscriptAssign(tg, rng)
			return
		}
		c.bindName(tg.Name, tg.Scope, rng)
	case *ast.StructuredTarget:
		c.compileStructuredAssign(tg, rng)
	default:
		c.errorf(rng, "unknown assignment target")
	}
}

// predeclareFreshLocals reserves a slot (initialized to empty) for every
// name an upcoming distribution write would otherwise declare fresh.
// VisitAssignment runs this before evaluating the right-hand side for
// structured and multi-target sets, so that by the time values are
// distributed every sub-write uniformly consumes its operand — a fresh
// declare mid-distribution would claim a stack position that still holds a
// temporary, leaving slots and values misaligned. Single plain-variable
// targets skip this and claim the value in place instead.
func (c *Compiler) predeclareFreshLocals(t ast.Target, rng token.Range) {
	switch tg := t.(type) {
	case *ast.VariableTarget:
		if len(tg.Subscripts) > 0 || tg.Name == "it" {
			return
		}
		switch tg.Scope {
		case ast.ScopeGlobal:
			return
		case ast.ScopeLocal:
			if _, ok := c.cur.resolveLocalAtCurrentDepth(tg.Name); ok {
				return
			}
		default:
			if c.cur.scopeDepth == 0 && c.cur.enclosing == nil && c.topLevelGlobal {
				return
			}
			if _, ok := c.cur.resolveLocal(tg.Name); ok {
				return
			}
			if _, ok := c.resolveCapture(c.cur, tg.Name); ok {
				return
			}
		}
		c.cur.emit(bytecode.Empty, rng)
		c.cur.declareLocal(tg.Name)
	case *ast.StructuredTarget:
		for _, sub := range tg.Targets {
			c.predeclareFreshLocals(sub, rng)
		}
	}
}

// compileStructuredAssign destructures one List value (already on top of
// the stack) across tg.Targets. UnpackList pushes the list's elements in
// order, so the last target's value ends up on top; elements are claimed as
// anonymous locals, then consumed from the top down, releasing each claim
// just before its write so any temporaries the write itself allocates line
// up with the physical stack. Every sub-write consumes — fresh sub-locals
// were reserved by predeclareFreshLocals before the right-hand side ran.
func (c *Compiler) compileStructuredAssign(tg *ast.StructuredTarget, rng token.Range) {
	count := len(tg.Targets)
	c.cur.emitOp(bytecode.UnpackList, uint16(count), rng)
	for i := 0; i < count; i++ {
		c.cur.declareAnonymousLocal()
	}
	for i := count - 1; i >= 0; i-- {
		c.cur.releaseAnonymousLocal()
		c.compileAssignTarget(tg.Targets[i], rng)
	}
}

// bindName binds the value on top of the stack to name, honoring a forced
// scope or else the default rule: existing bindings (local at
// any depth, then capture) are updated in place; otherwise a fresh local is
// declared — except at the outermost frame's top level, where REPL/module
// compiles (topLevelGlobal) bind a global. `it` is a per-frame register,
// not a variable, so it's special-cased ahead of everything else.
func (c *Compiler) bindName(name string, scope ast.VariableScope, rng token.Range) {
	if name == "it" {
		c.cur.emit(bytecode.SetIt, rng)
		c.cur.emit(bytecode.Pop, rng)
		return
	}

	switch scope {
	case ast.ScopeGlobal:
		c.emitSetGlobal(name, rng)
		c.cur.emit(bytecode.Pop, rng)
	case ast.ScopeLocal:
		// Forced local: reuse only a local of the scope currently open, so
		// `set local x` inside a nested scope shadows an outer x rather
		// than mutating it.
		if slot, ok := c.cur.resolveLocalAtCurrentDepth(name); ok {
			c.cur.emitOp(bytecode.SetLocal, uint16(slot), rng)
			c.cur.emit(bytecode.Pop, rng)
			return
		}
		c.cur.declareLocal(name)
	default:
		if c.cur.scopeDepth == 0 && c.cur.enclosing == nil && c.topLevelGlobal {
			c.emitSetGlobal(name, rng)
			c.cur.emit(bytecode.Pop, rng)
			return
		}
		if slot, ok := c.cur.resolveLocal(name); ok {
			c.cur.emitOp(bytecode.SetLocal, uint16(slot), rng)
			c.cur.emit(bytecode.Pop, rng)
			return
		}
		if idx, ok := c.resolveCapture(c.cur, name); ok {
			c.cur.emitOp(bytecode.SetCapture, uint16(idx), rng)
			c.cur.emit(bytecode.Pop, rng)
			return
		}
		c.cur.declareLocal(name)
	}
}

// compileSubscriptAssign lowers `set target[i]...[j] to v` (the value v is
// already on top of the stack). The target container is read via the
// ordinary variable-read chain (it may itself be local/captured/global);
// every subscript but the last narrows to the innermost container via
// Subscript, and the last is the key SetSubscript stores under. The RHS is
// stashed in an anonymous local so container/key can be pushed above it in
// the order SetSubscript expects (container, key, value, value on top).
func (c *Compiler) compileSubscriptAssign(tg *ast.VariableTarget, rng token.Range) {
	valSlot := c.cur.declareAnonymousLocal()

	c.compileVariableRead(tg.Name, rng)
	n := len(tg.Subscripts)
	for i := 0; i < n-1; i++ {
		tg.Subscripts[i].Accept(c)
		c.cur.emit(bytecode.Subscript, rng)
	}
	tg.Subscripts[n-1].Accept(c)
	c.cur.emitOp(bytecode.GetLocal, uint16(valSlot), rng)
	c.cur.emit(bytecode.SetSubscript, rng)
	c.cur.emit(bytecode.Pop, rng)

	c.cur.releaseAnonymousLocal()
	c.cur.emit(bytecode.Pop, rng)
}
