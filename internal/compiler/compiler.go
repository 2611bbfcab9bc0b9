// Package compiler lowers Sif's AST into bytecode.Bytecode: a single-pass
// tree-walking visitor with local/capture scope tracking, emit/patchJump
// helpers, and the capture-by-descriptor call model internal/vm
// implements.
package compiler

import (
	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/token"
	"github.com/atjhc/sif/internal/vm"
)

// ModuleLoader is the surface the compiler needs to lower `use`/`using`.
// It is an interface, not a direct dependency on internal/modules, because
// the module loader must itself compile a module's body — depending on the
// concrete type here would create an import cycle (the same reasoning as
// parser.ModuleSignatures).
type ModuleLoader interface {
	Load(name string) (map[string]object.Value, error)
}

// local is one compile-time local variable: a name bound to a stack slot
// within the current Frame, live for as long as scopeDepth stays above the
// depth it was declared at.
type local struct {
	name  string
	depth int
	slot  int
}

// loopContext tracks the bookkeeping `exit repeat`/`next repeat` need for
// the innermost active loop: where to jump back to (startIP), how many
// locals were live when the loop began (localBase — exit/next must pop back
// down to this before jumping, since a raw Jump skips the block-scope Pops
// that would otherwise unwind them), and the placeholder jump offsets
// `exit repeat` has emitted so far. Each loop shape patches those exits to
// the point where the runtime stack matches what the exit path left behind:
// past the condition's Pop for while/until, before the enumerator's Pop for
// for-each (see compileRepeatCondition/compileRepeatFor).
type loopContext struct {
	startIP   int
	localBase int
	exitJumps []int
}

// Frame is one compiled unit's state: the program itself, or one
// FunctionDecl's body. Locals live directly on the runtime value stack —
// slot N is frame.base+N at runtime — so declaring a local is just
// "leave this pushed value where it is and remember its name".
type Frame struct {
	code       *bytecode.Bytecode
	locals     []local
	scopeDepth int
	nextSlot   int
	captures   []vm.CaptureDescriptor
	loopStack  []loopContext
	enclosing  *Frame

	globalConsts map[string]uint16
}

func newFrame(enclosing *Frame) *Frame {
	return &Frame{code: bytecode.New(), enclosing: enclosing, globalConsts: map[string]uint16{}}
}

func (fr *Frame) emit(op bytecode.Opcode, rng token.Range) int { return fr.code.Emit(op, rng) }

func (fr *Frame) emitOp(op bytecode.Opcode, operand uint16, rng token.Range) int {
	return fr.code.EmitOp(op, operand, rng)
}

// emitJump emits op with a placeholder operand, returning the offset
// bytecode.PatchJump needs once the jump target is known.
func (fr *Frame) emitJump(op bytecode.Opcode, rng token.Range) int {
	return fr.code.EmitOp(op, 0, rng)
}

func (fr *Frame) patchJump(offset int) { fr.code.PatchJump(offset) }

// emitRepeatTo emits a backward Repeat jump to startIP (`next repeat`, and
// the loop-back edge every repeat form ends with).
func (fr *Frame) emitRepeatTo(startIP int, rng token.Range) {
	offset := fr.code.Emit(bytecode.Repeat, rng)
	delta := uint16(offset + 3 - startIP)
	fr.code.EmitOperand(delta)
}

func (fr *Frame) resolveLocal(name string) (int, bool) {
	for i := len(fr.locals) - 1; i >= 0; i-- {
		if fr.locals[i].name == name {
			return fr.locals[i].slot, true
		}
	}
	return 0, false
}

// resolveLocalAtCurrentDepth only matches a local declared at the exact
// scope currently open. Assignment uses this (rather than resolveLocal) to
// decide reuse-vs-shadow: `set x to 1` inside a nested scope must declare a
// fresh shadowing local when x only exists in an outer scope — reusing
// the outer slot would silently mutate it instead. Locals are appended
// in non-decreasing depth order (a scope can't be entered a second time
// without first unwinding
// back through it), so scanning from the tail and stopping at the first
// shallower entry is sufficient.
func (fr *Frame) resolveLocalAtCurrentDepth(name string) (int, bool) {
	for i := len(fr.locals) - 1; i >= 0; i-- {
		if fr.locals[i].depth != fr.scopeDepth {
			break
		}
		if fr.locals[i].name == name {
			return fr.locals[i].slot, true
		}
	}
	return 0, false
}

// declareAnonymousLocal reserves the next sequential slot for a value that
// is already (or about to be) sitting at the matching stack position,
// without registering a name — used for compiler-internal temporaries (a
// stashed assignment RHS shared across multiple targets, an unpacked
// tuple's elements) that must occupy real slots so nested declareLocal
// calls keep lining up with the physical stack, but that nothing in source
// can refer to by name.
func (fr *Frame) declareAnonymousLocal() int {
	slot := fr.nextSlot
	fr.nextSlot++
	return slot
}

// releaseAnonymousLocal undoes declareAnonymousLocal's bookkeeping once the
// caller has emitted the matching runtime Pop.
func (fr *Frame) releaseAnonymousLocal() { fr.nextSlot-- }

// declareLocal registers name as owning the value currently sitting on top
// of the runtime stack — no opcode is emitted; whatever just pushed that
// value (a literal, an argument slot, a loop's Enumerate) is the local.
func (fr *Frame) declareLocal(name string) int {
	slot := fr.nextSlot
	fr.locals = append(fr.locals, local{name: name, depth: fr.scopeDepth, slot: slot})
	fr.nextSlot++
	return slot
}

// addCapture interns a capture descriptor, deduplicating by (isLocal,
// index) so repeated reads of the same enclosing variable share one
// capture slot.
func (fr *Frame) addCapture(d vm.CaptureDescriptor) int {
	for i, existing := range fr.captures {
		if existing == d {
			return i
		}
	}
	fr.captures = append(fr.captures, d)
	return len(fr.captures) - 1
}

// Compiler walks one program's (or module's) AST, producing a Bytecode per
// function along the way. A fresh Compiler is used per top-level
// compilation; FunctionDecl bodies share the same Compiler but push a
// nested Frame.
type Compiler struct {
	reporter *reporter.Reporter
	loader   ModuleLoader
	cur      *Frame

	// topLevelGlobal makes unscoped top-level assignments bind globals:
	// true for the REPL and for a module body (so `use` callers see its
	// top-level bindings as exports), false for a plain script run as the
	// program's entry point.
	topLevelGlobal bool

	noDebugInfo bool
}

// New creates a Compiler reporting diagnostics to rep.
func New(rep *reporter.Reporter) *Compiler {
	return &Compiler{reporter: rep}
}

// SetModuleLoader wires the loader `use`/`using` resolve against.
func (c *Compiler) SetModuleLoader(l ModuleLoader) { c.loader = l }

// SetTopLevelGlobal controls whether unscoped top-level `set` statements
// bind globals (REPL, module bodies) or locals (a plain script run).
func (c *Compiler) SetTopLevelGlobal(v bool) { c.topLevelGlobal = v }

// SetNoDebugInfo matches the CLI's `-n` flag, propagated to every Bytecode
// this Compiler produces.
func (c *Compiler) SetNoDebugInfo(v bool) { c.noDebugInfo = v }

func (c *Compiler) errorf(rng token.Range, format string, args ...interface{}) {
	c.reporter.Report(rng, format, args...)
}

// Compile lowers program's statements into one top-level Bytecode. Callers
// check Failed() on the Reporter passed to New afterward, the same pattern parser.Parse
// uses — Compile keeps emitting best-effort after an error so a single
// pass can surface every diagnostic rather than stopping at the first.
func (c *Compiler) Compile(program *ast.Block) *bytecode.Bytecode {
	c.cur = newFrame(nil)
	c.cur.code.NoDebugInfo = c.noDebugInfo
	for _, s := range program.Statements {
		s.Accept(c)
	}
	return c.cur.code
}

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

// endScope pops every local declared at or below the scope just exited,
// emitting one Pop per local. Captures are resolved by value at call time
// (see vm.CaptureDescriptor), so a plain Pop always suffices here — no
// open/closed upvalue cells to close over.
func (c *Compiler) endScope(rng token.Range) {
	c.cur.scopeDepth--
	for len(c.cur.locals) > 0 && c.cur.locals[len(c.cur.locals)-1].depth > c.cur.scopeDepth {
		c.cur.locals = c.cur.locals[:len(c.cur.locals)-1]
		c.cur.nextSlot--
		c.cur.emit(bytecode.Pop, rng)
	}
}

// compileScopedBlock compiles blk as its own lexical scope — used for
// every nested block (if/try/repeat/using/function bodies). The program's
// own top-level statements are compiled directly by Compile instead, so
// scopeDepth there stays 0 and the top-level assignment rule applies only
// to them.
func (c *Compiler) compileScopedBlock(blk *ast.Block) {
	c.beginScope()
	for _, s := range blk.Statements {
		s.Accept(c)
	}
	c.endScope(blk.Range())
}

// resolveCapture walks the enclosing-frame chain for name, adding a
// capture descriptor in every intermediate frame along the way so chained
// captures resolve frame by frame at call time.
func (c *Compiler) resolveCapture(fr *Frame, name string) (int, bool) {
	if fr.enclosing == nil {
		return 0, false
	}
	if slot, ok := fr.enclosing.resolveLocal(name); ok {
		return fr.addCapture(vm.CaptureDescriptor{IsLocal: true, Index: slot}), true
	}
	if idx, ok := c.resolveCapture(fr.enclosing, name); ok {
		return fr.addCapture(vm.CaptureDescriptor{IsLocal: false, Index: idx}), true
	}
	return 0, false
}

func (c *Compiler) globalConst(name string, rng token.Range) uint16 {
	if idx, ok := c.cur.globalConsts[name]; ok {
		return idx
	}
	idx := c.cur.code.AddConstant(object.Obj(object.NewString(name)))
	c.cur.globalConsts[name] = idx
	return idx
}

func (c *Compiler) emitGetGlobal(name string, rng token.Range) {
	c.cur.emitOp(bytecode.GetGlobal, c.globalConst(name, rng), rng)
}

func (c *Compiler) emitSetGlobal(name string, rng token.Range) {
	c.cur.emitOp(bytecode.SetGlobal, c.globalConst(name, rng), rng)
}
