// Package vm implements Sif's stack-based bytecode interpreter: the value
// stack, call frames, global/export tables, the mark-and-sweep cycle
// collector, and the runtime object kinds (Function/Native) that
// depend on the bytecode package — kept out of internal/object to avoid an
// import cycle, since object is a dependency of bytecode's constant pool.
package vm

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/signature"
	"github.com/atjhc/sif/internal/token"
)

// CaptureDescriptor is one entry in a Function's compile-time capture
// list. IsLocal means Index is a slot on the calling
// frame itself; otherwise Index is a slot in the calling frame's own
// resolved captures, chaining through an intermediate enclosing function.
type CaptureDescriptor struct {
	IsLocal bool
	Index   int
}

// Function is a compiled, callable Sif function: either top-level (no
// captures) or one that reaches into its enclosing call's locals.
// CaptureDescriptors is fixed at compile time and shared by every call;
// the actual captured values are resolved fresh each call (see
// pushCallFrame) by walking the descriptors through whichever frame is
// active when the call happens — Sif functions are always invoked while
// their defining frame is still on the stack (direct or recursive calls),
// so this avoids boxing every possibly-captured local behind a pointer
// into the value stack purely to support escaping closures Sif doesn't
// have. On return, popFrame writes the captured values back through the
// same descriptors, so an assignment to a captured variable is visible to
// the enclosing frame once the call completes.
type Function struct {
	Name               string
	Signature          signature.Signature
	Arity              int
	Bytecode           *bytecode.Bytecode
	CaptureDescriptors []CaptureDescriptor
}

func (f *Function) TypeName() string    { return "function" }
func (f *Function) Description() string { return fmt.Sprintf("<function %s>", f.Signature.Description()) }
func (f *Function) Equal(other object.Object) bool {
	o, ok := other.(*Function)
	return ok && o == f
}
func (f *Function) Hash() uint64 { return object.PtrHash(unsafe.Pointer(f)) }

// Copy returns f unchanged: functions are immutable values once compiled,
// so OP_CONST need not actually duplicate them. Implementing Copyable as a
// no-op (rather than omitting it) documents that decision at the type
// instead of leaving it to be rediscovered at the call site.
func (f *Function) Copy() object.Object { return f }

// NativeFunc is a host-implemented callable: core library natives and
// anything a host-level extension registers.
type NativeFunc func(ctx *NativeCallContext, args []object.Value) (object.Value, error)

// Native wraps a Go function as a callable Sif value.
type Native struct {
	Name      string
	Signature signature.Signature
	Arity     int
	Fn        NativeFunc
}

func (n *Native) TypeName() string    { return "native function" }
func (n *Native) Description() string { return fmt.Sprintf("<native %s>", n.Signature.Description()) }
func (n *Native) Equal(other object.Object) bool {
	o, ok := other.(*Native)
	return ok && o == n
}
func (n *Native) Hash() uint64        { return object.PtrHash(unsafe.Pointer(n)) }
func (n *Native) Copy() object.Object { return n }

// NativeCallContext is the capability surface a Native receives: enough of
// the VM to raise an error at the right source range, read the call site's
// per-argument source ranges, read/write the `it` register, and re-enter
// the interpreter for a callback argument, without exposing the whole
// VirtualMachine.
type NativeCallContext struct {
	vm *VirtualMachine

	// argRanges holds the source range of each argument expression at this
	// call site, in call order. Empty when per-argument debug info was
	// disabled (-n) or the call did not come from compiled code (callback
	// re-entry).
	argRanges []token.Range
}

// Raise builds a RuntimeError positioned at the current instruction (the
// whole call, for a native).
func (c *NativeCallContext) Raise(format string, args ...interface{}) error {
	return c.vm.newRuntimeError(format, args...)
}

// ArgumentRange returns the source range of argument i (0-based), if the
// call site recorded one.
func (c *NativeCallContext) ArgumentRange(i int) (token.Range, bool) {
	if i < 0 || i >= len(c.argRanges) {
		return token.Range{}, false
	}
	return c.argRanges[i], true
}

// RaiseArgument builds a RuntimeError blaming argument i (0-based),
// anchored at that argument's own source range when the call site recorded
// one and at the whole call otherwise.
func (c *NativeCallContext) RaiseArgument(i int, format string, args ...interface{}) error {
	msg := fmt.Sprintf("argument %d: %s", i+1, fmt.Sprintf(format, args...))
	if r, ok := c.ArgumentRange(i); ok {
		return &RuntimeError{Message: msg, Range: r}
	}
	return c.vm.newRuntimeError("%s", msg)
}

// It reads the current frame's `it` register.
func (c *NativeCallContext) It() object.Value { return c.vm.frame().it }

// SetIt writes the current frame's `it` register.
func (c *NativeCallContext) SetIt(v object.Value) { c.vm.frame().it = v }

// Error reads the current frame's captured error slot, set by the nearest
// enclosing `try` that caught a raised error.
func (c *NativeCallContext) Error() object.Value { return c.vm.frame().error }

// Stdout is the VM's configured output sink, used by `print` and friends.
// Falls back to os.Stdout when the VM was not given one explicitly.
func (c *NativeCallContext) Stdout() io.Writer {
	if c.vm.Stdout != nil {
		return c.vm.Stdout
	}
	return os.Stdout
}

// Halt requests the VM stop after this native returns, surfacing code via
// HaltError.
func (c *NativeCallContext) Halt(code int) { c.vm.Halt(code) }

// Track registers a freshly built container (List/Dictionary) with the VM's
// cycle collector, the same bookkeeping the List/Dictionary opcodes give to
// the containers they build — natives that construct one of their own
// (e.g. `split`, `the keys of`) must call this or it is invisible to the
// mark pass.
func (c *NativeCallContext) Track(o object.Container) { c.vm.track(o) }

// Call re-enters the interpreter to invoke a Sif value (a Function or
// another Native) as a callback, used by natives like sort/map that take
// a comparator/transform argument.
func (c *NativeCallContext) Call(callee object.Value, args []object.Value) (object.Value, error) {
	return c.vm.callValue(callee, args)
}
