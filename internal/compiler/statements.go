package compiler

import (
	"sort"

	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/token"
	"github.com/atjhc/sif/internal/vm"
)

// VisitBlock compiles a nested block as its own lexical scope. The
// program's own top-level statements go through Compile directly instead,
// so this is only reached for if/try/using bodies that are themselves a
// *ast.Block (the single-statement forms call Accept on their Statement
// directly, which may or may not be a Block).
func (c *Compiler) VisitBlock(n *ast.Block) { c.compileScopedBlock(n) }

// VisitFunctionDecl lowers a function header + body into a child Frame,
// producing a *vm.Function constant bound into the enclosing scope under
// its signature's canonical name.
func (c *Compiler) VisitFunctionDecl(n *ast.FunctionDecl) {
	rng := n.Range()
	name := n.Signature.Name()
	parent := c.cur

	fr := newFrame(parent)
	fr.code.NoDebugInfo = c.noDebugInfo
	c.cur = fr

	// Slot 0: the function itself, bound under its own name so a
	// recursive call resolves through the ordinary local-variable path.
	fr.declareLocal(name)
	c.claimParams(n.Params, rng)

	for _, s := range n.Body.Statements {
		s.Accept(c)
	}
	if !blockEndsWithReturn(n.Body) {
		fr.emit(bytecode.GetIt, rng)
		fr.emit(bytecode.Return, rng)
	}

	c.cur = parent
	fn := &vm.Function{
		Name:               name,
		Signature:          n.Signature,
		Arity:              len(n.Params),
		Bytecode:           fr.code,
		CaptureDescriptors: fr.captures,
	}
	idx := parent.code.AddConstant(object.Obj(fn))
	parent.emitOp(bytecode.Constant, idx, rng)
	c.bindName(name, ast.ScopeUnspecified, rng)
}

// claimParams binds declared parameters to the argument values
// pushCallFrame placed at slots 1..arity. Plain names claim their slot
// directly; a tuple-destructured parameter keeps its slot as an anonymous
// holder for the argument list, then — once every argument slot is claimed
// and the physical stack again consists of exactly the declared locals —
// re-reads it, unpacks, and claims the pushed elements in order. The
// unpacking is deferred (FIFO, nested tuples re-queued) because emitting it
// mid-claim would push values above argument slots not yet accounted for.
func (c *Compiler) claimParams(params []ast.Target, rng token.Range) {
	type pendingUnpack struct {
		target *ast.StructuredTarget
		slot   int
	}
	var pending []pendingUnpack
	for _, param := range params {
		switch p := param.(type) {
		case *ast.VariableTarget:
			c.cur.declareLocal(p.Name)
		case *ast.StructuredTarget:
			pending = append(pending, pendingUnpack{target: p, slot: c.cur.declareAnonymousLocal()})
		default:
			c.errorf(rng, "unknown parameter target")
		}
	}
	for len(pending) > 0 {
		u := pending[0]
		pending = pending[1:]
		c.cur.emitOp(bytecode.GetLocal, uint16(u.slot), rng)
		c.cur.emitOp(bytecode.UnpackList, uint16(len(u.target.Targets)), rng)
		for _, sub := range u.target.Targets {
			switch s := sub.(type) {
			case *ast.VariableTarget:
				c.cur.declareLocal(s.Name)
			case *ast.StructuredTarget:
				pending = append(pending, pendingUnpack{target: s, slot: c.cur.declareAnonymousLocal()})
			}
		}
	}
}

func blockEndsWithReturn(b *ast.Block) bool {
	if len(b.Statements) == 0 {
		return false
	}
	_, ok := b.Statements[len(b.Statements)-1].(*ast.Return)
	return ok
}

// VisitIf lowers `if cond then ... [else ...]` to the standard
// condition/jump/pop shape: both branches fall through to
// the same point having popped the condition exactly once. Each branch is
// its own lexical scope even in the single-statement form, so a local
// declared inside a branch is popped with it — a conditionally-executed
// declaration must not survive into the surrounding slot accounting.
func (c *Compiler) VisitIf(n *ast.If) {
	rng := n.Range()
	n.Condition.Accept(c)
	falseJump := c.cur.emitJump(bytecode.JumpIfFalse, rng)
	c.cur.emit(bytecode.Pop, rng)
	if n.Then != nil {
		c.beginScope()
		n.Then.Accept(c)
		c.endScope(rng)
	}
	endJump := c.cur.emitJump(bytecode.Jump, rng)
	c.cur.patchJump(falseJump)
	c.cur.emit(bytecode.Pop, rng)
	if n.Else != nil {
		c.beginScope()
		n.Else.Accept(c)
		c.endScope(rng)
	}
	c.cur.patchJump(endJump)
}

// VisitTry lowers `try ... end [try]` to PushJump/PopJump bracketing the
// body; an error raised inside unwinds to the PopJump's position without
// running the rest of the body. The body gets its own
// scope so its locals are popped inside the protected region — after the
// try, the stack is identical whether the body completed or was unwound.
func (c *Compiler) VisitTry(n *ast.Try) {
	rng := n.Range()
	offset := c.cur.emitJump(bytecode.PushJump, rng)
	if n.Body != nil {
		c.beginScope()
		n.Body.Accept(c)
		c.endScope(rng)
	}
	c.cur.emit(bytecode.PopJump, rng)
	c.cur.patchJump(offset)
}

// VisitUse imports a module's exports permanently into the enclosing
// scope.
func (c *Compiler) VisitUse(n *ast.Use) {
	c.compileModuleImport(n.ModuleName, ast.ScopeUnspecified, n.Range())
}

// VisitUsing imports a module's exports scoped to Body only. Exports bind
// as forced-local shadows so a same-named outer variable is masked for
// the block rather than overwritten, and endScope pops them afterward.
func (c *Compiler) VisitUsing(n *ast.Using) {
	rng := n.Range()
	c.beginScope()
	c.compileModuleImport(n.ModuleName, ast.ScopeLocal, rng)
	if n.Body != nil {
		n.Body.Accept(c)
	}
	c.endScope(rng)
}

// compileModuleImport loads name via the configured ModuleLoader and binds
// each exported value as a local/global in the current scope. Export names
// are sorted before binding so two compiles of the same `use` produce
// byte-identical bytecode regardless of Go's randomized map iteration.
func (c *Compiler) compileModuleImport(name string, scope ast.VariableScope, rng token.Range) {
	if c.loader == nil {
		c.errorf(rng, "no module loader configured to resolve %q", name)
		return
	}
	exports, err := c.loader.Load(name)
	if err != nil {
		c.errorf(rng, "cannot load module %q: %v", name, err)
		return
	}
	names := make([]string, 0, len(exports))
	for k := range exports {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, varName := range names {
		idx := c.cur.code.AddConstant(exports[varName])
		c.cur.emitOp(bytecode.Constant, idx, rng)
		c.bindName(varName, scope, rng)
	}
}

// VisitAssignment lowers `set target[, target...] to expr`. A single plain
// target consumes the evaluated value directly (claiming it in place for a
// first-time declare); structured and multi-target sets first reserve a
// slot for every name they would declare fresh (predeclareFreshLocals), so
// the distribution writes all uniformly consume. Multiple targets each
// receive their own copy of the value via a stashed anonymous local.
func (c *Compiler) VisitAssignment(n *ast.Assignment) {
	rng := n.Range()

	if len(n.Targets) > 1 {
		for _, t := range n.Targets {
			c.predeclareFreshLocals(t, rng)
		}
	} else if st, ok := n.Targets[0].(*ast.StructuredTarget); ok {
		c.predeclareFreshLocals(st, rng)
	}

	n.Value.Accept(c)

	if len(n.Targets) == 1 {
		c.compileAssignTarget(n.Targets[0], rng)
		return
	}

	slot := c.cur.declareAnonymousLocal()
	for _, t := range n.Targets {
		c.cur.emitOp(bytecode.GetLocal, uint16(slot), rng)
		c.compileAssignTarget(t, rng)
	}
	c.cur.emit(bytecode.Pop, rng)
	c.cur.releaseAnonymousLocal()
}

// VisitExpressionStatement evaluates Expr, records it as `it`, and
// discards it — a bare expression updates the implicit pronoun but leaves
// no value behind for the next statement.
func (c *Compiler) VisitExpressionStatement(n *ast.ExpressionStatement) {
	rng := n.Range()
	n.Expr.Accept(c)
	c.cur.emit(bytecode.SetIt, rng)
	c.cur.emit(bytecode.Pop, rng)
}

// VisitReturn compiles `return [expr]`; a bare `return` returns the
// current `it`.
func (c *Compiler) VisitReturn(n *ast.Return) {
	rng := n.Range()
	if n.Value != nil {
		n.Value.Accept(c)
	} else {
		c.cur.emit(bytecode.GetIt, rng)
	}
	c.cur.emit(bytecode.Return, rng)
}

// VisitRepeat dispatches to the three loop shapes: forever
// (nil Loop), condition (while/until), and for-each.
func (c *Compiler) VisitRepeat(n *ast.Repeat) {
	rng := n.Range()
	switch loop := n.Loop.(type) {
	case nil:
		c.compileForever(n, rng)
	case *ast.RepeatCondition:
		c.compileRepeatCondition(n, loop, rng)
	case *ast.RepeatFor:
		c.compileRepeatFor(n, loop, rng)
	default:
		c.errorf(rng, "unknown repeat form")
	}
}

// VisitRepeatCondition/VisitRepeatFor exist only to satisfy ast.Visitor —
// these nodes are consumed directly by VisitRepeat's type switch on
// n.Loop, the same "Accept is reached via the parent, not the visitor
// dispatch table" pattern ast.Target uses, since a RepeatLoop never
// appears anywhere but embedded in a *Repeat.
func (c *Compiler) VisitRepeatCondition(n *ast.RepeatCondition) {}
func (c *Compiler) VisitRepeatFor(n *ast.RepeatFor)             {}

func (c *Compiler) compileForever(n *ast.Repeat, rng token.Range) {
	startIP := len(c.cur.code.Code)
	c.cur.loopStack = append(c.cur.loopStack, loopContext{startIP: startIP, localBase: c.cur.nextSlot})
	c.compileScopedBlock(n.Body)
	c.cur.emitRepeatTo(startIP, rng)
	c.patchExits(rng)
}

func (c *Compiler) compileRepeatCondition(n *ast.Repeat, loop *ast.RepeatCondition, rng token.Range) {
	startIP := len(c.cur.code.Code)
	loop.Condition.Accept(c)
	jumpOp := bytecode.JumpIfFalse
	if loop.Until {
		jumpOp = bytecode.JumpIfTrue
	}
	endJump := c.cur.emitJump(jumpOp, rng)
	c.cur.emit(bytecode.Pop, rng)

	c.cur.loopStack = append(c.cur.loopStack, loopContext{startIP: startIP, localBase: c.cur.nextSlot})
	c.compileScopedBlock(n.Body)
	c.cur.emitRepeatTo(startIP, rng)

	// The normal exit arrives here with the (peeked, still-pushed)
	// condition on top; `exit repeat` arrives with it long since popped, so
	// its jumps are patched past the condition's Pop.
	c.cur.patchJump(endJump)
	c.cur.emit(bytecode.Pop, rng)
	c.patchExits(rng)
}

func (c *Compiler) compileRepeatFor(n *ast.Repeat, loop *ast.RepeatFor, rng token.Range) {
	loop.Iterable.Accept(c)
	c.cur.emit(bytecode.GetEnumerator, rng)
	// The enumerator stays on the stack for the loop's whole lifetime;
	// claiming a slot for it keeps the body's locals aligned, and exit/next
	// unwind only to just above it.
	c.cur.declareAnonymousLocal()
	localBase := c.cur.nextSlot

	startIP := len(c.cur.code.Code)
	endJump := c.cur.emitJump(bytecode.JumpIfAtEnd, rng)
	c.cur.emit(bytecode.Enumerate, rng)

	c.cur.loopStack = append(c.cur.loopStack, loopContext{startIP: startIP, localBase: localBase})
	c.beginScope()
	c.bindLoopVariables(loop, rng)
	for _, s := range n.Body.Statements {
		s.Accept(c)
	}
	c.endScope(rng)
	c.cur.emitRepeatTo(startIP, rng)

	c.cur.patchJump(endJump)
	c.patchExits(rng)
	c.cur.emit(bytecode.Pop, rng) // discard the enumerator
	c.cur.releaseAnonymousLocal()
}

// bindLoopVariables claims the value Enumerate just pushed as the loop
// variable, or — with several variables — unpacks it across them. The
// grammar only admits plain names here; anything else is a compile error.
func (c *Compiler) bindLoopVariables(loop *ast.RepeatFor, rng token.Range) {
	for _, v := range loop.Variables {
		vt, ok := v.(*ast.VariableTarget)
		if !ok || len(vt.Subscripts) > 0 || vt.Scope != ast.ScopeUnspecified {
			c.errorf(v.Range(), "a repeat loop variable must be a plain name")
			return
		}
	}
	if len(loop.Variables) > 1 {
		c.cur.emitOp(bytecode.UnpackList, uint16(len(loop.Variables)), rng)
	}
	for _, v := range loop.Variables {
		c.cur.declareLocal(v.(*ast.VariableTarget).Name)
	}
}

// patchExits pops the innermost loopContext and patches every `exit
// repeat` jump it collected to the current code position. Each loop shape
// calls this at the point where the stack the exit path left behind
// matches what follows (see loopContext).
func (c *Compiler) patchExits(rng token.Range) {
	top := c.cur.loopStack[len(c.cur.loopStack)-1]
	c.cur.loopStack = c.cur.loopStack[:len(c.cur.loopStack)-1]
	for _, off := range top.exitJumps {
		c.cur.patchJump(off)
	}
}

// emitPopsTo unwinds the runtime stack down to base by emitting one Pop per
// local declared since — needed before exit/next repeat's raw jump, which
// would otherwise skip the block-scope Pops normal control flow relies on.
func (c *Compiler) emitPopsTo(base int, rng token.Range) {
	for i := c.cur.nextSlot; i > base; i-- {
		c.cur.emit(bytecode.Pop, rng)
	}
}

func (c *Compiler) VisitExitRepeat(n *ast.ExitRepeat) {
	rng := n.Range()
	if len(c.cur.loopStack) == 0 {
		c.errorf(rng, "'exit repeat' used outside of a loop")
		return
	}
	top := c.cur.loopStack[len(c.cur.loopStack)-1]
	c.emitPopsTo(top.localBase, rng)
	off := c.cur.emitJump(bytecode.Jump, rng)
	idx := len(c.cur.loopStack) - 1
	c.cur.loopStack[idx].exitJumps = append(c.cur.loopStack[idx].exitJumps, off)
}

func (c *Compiler) VisitNextRepeat(n *ast.NextRepeat) {
	rng := n.Range()
	if len(c.cur.loopStack) == 0 {
		c.errorf(rng, "'next repeat' used outside of a loop")
		return
	}
	top := c.cur.loopStack[len(c.cur.loopStack)-1]
	c.emitPopsTo(top.localBase, rng)
	c.cur.emitRepeatTo(top.startIP, rng)
}
