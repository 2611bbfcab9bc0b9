package vm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/token"
)

const maxFrames = 512
const maxStack = 1 << 16

// RuntimeError is a raised, uncaught (or about-to-be-caught) error,
// carrying the source range of the instruction that raised it so the
// reporter can point at the exact call/argument.
type RuntimeError struct {
	Message string
	Range   token.Range
}

func (e *RuntimeError) Error() string { return e.Message }

// HaltError is surfaced when a native (`quit`/`quit with`) requests the VM
// stop; the VM unwinds fully and hands the code to its caller.
type HaltError struct{ Code int }

func (e *HaltError) Error() string { return "program halted" }

// callFrame is one active call's bookkeeping. Locals live directly on the
// value stack starting at base, so a frame is just a window into it.
// it/error are per-frame registers: each call gets its own implicit
// pronoun and its own captured-error slot for `try`.
type callFrame struct {
	fn       *Function
	code     *bytecode.Bytecode
	ip       int
	opIP     int // start offset of the instruction currently executing
	base     int
	it       object.Value
	error    object.Value
	captures []object.Value
}

type tryHandler struct {
	stackDepth int
	frameDepth int
	targetIP   int
}

// VirtualMachine executes one compiled program or module body. Each
// program and each loaded module gets a fresh VM, except the REPL, which
// reuses one across statements so globals persist.
type VirtualMachine struct {
	stack  []object.Value
	frames []callFrame

	globals map[string]object.Value

	tryStack []tryHandler

	tracked   []object.Container
	gcPending bool

	halted   bool
	haltCode int

	id string

	Stdout interface{ Write([]byte) (int, error) }
}

// New creates a VM ready to run a top-level program.
func New() *VirtualMachine {
	return &VirtualMachine{
		globals: map[string]object.Value{},
		id:      uuid.NewString(),
	}
}

// ID is a per-VM-instance identifier, surfaced in `-b`/debug dumps so a
// developer comparing two runs' disassembly can tell which VM produced
// which trace.
func (vm *VirtualMachine) ID() string { return vm.id }

// Global reads a global by name (used by the REPL to print a bare
// expression's resulting binding, and by the module loader to collect
// exports).
func (vm *VirtualMachine) Global(name string) (object.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// SetGlobal seeds a global before running (used to make another module's
// exports or Core's natives available as call targets).
func (vm *VirtualMachine) SetGlobal(name string, v object.Value) { vm.globals[name] = v }

// Exports returns every value this run exported — in Sif, every global a
// module's top level declares by the time its body finishes running.
func (vm *VirtualMachine) Exports() map[string]object.Value { return vm.globals }

func (vm *VirtualMachine) push(v object.Value) {
	if len(vm.stack) >= maxStack {
		panic(vm.newRuntimeError("stack overflow"))
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VirtualMachine) pop() object.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VirtualMachine) peek(distance int) object.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VirtualMachine) frame() *callFrame { return &vm.frames[len(vm.frames)-1] }

// track registers a freshly allocated container with the cycle collector.
// Called by every opcode handler and native that allocates a
// List/Dictionary. It never collects on the spot: at this moment the new
// container is typically not yet reachable from any root (its opcode has
// not pushed it, or the native has not returned it), and a sweep here
// would clear it before the program ever sees it. Collection is scheduled
// instead and runs at the dispatch loop's next instruction boundary,
// where everything live is rooted on the stack, frames, or globals.
func (vm *VirtualMachine) track(c object.Container) {
	vm.tracked = append(vm.tracked, c)
	if len(vm.tracked)%1024 == 0 {
		vm.gcPending = true
	}
}

// Run executes code as the program's top-level frame and returns the last
// expression statement's value — held in the frame's `it` register, where
// every bare expression statement leaves it — or an error.
func (vm *VirtualMachine) Run(code *bytecode.Bytecode) (object.Value, error) {
	frameIdx := len(vm.frames)
	vm.frames = append(vm.frames, callFrame{code: code, base: len(vm.stack)})
	_, err := vm.run()
	if err != nil {
		return object.Empty, err
	}
	if frameIdx >= len(vm.frames) {
		return object.Empty, nil
	}
	return vm.frames[frameIdx].it, nil
}

// Halt requests the running program stop at the next safe point, used by
// Core's `quit`/`quit with` natives.
func (vm *VirtualMachine) Halt(code int) {
	vm.halted = true
	vm.haltCode = code
}

func (vm *VirtualMachine) HaltCode() int { return vm.haltCode }

func (vm *VirtualMachine) newRuntimeError(format string, args ...interface{}) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	rng := token.Range{}
	if len(vm.frames) > 0 {
		fr := vm.frame()
		if r, ok := fr.code.LocationAt(fr.opIP); ok {
			rng = r
		}
	}
	return &RuntimeError{Message: msg, Range: rng}
}
