package vm

import (
	"github.com/atjhc/sif/internal/object"
	"github.com/atjhc/sif/internal/token"
)

// callValue invokes a callee from Go code re-entering the interpreter: used
// by NativeCallContext.Call for callback arguments (e.g. sort's comparator).
// The Call opcode itself does not go through here for Function callees — it
// pushes a frame directly and lets the main run loop continue, so a
// function call from Sif code costs one frame push, not a nested Go call.
func (vm *VirtualMachine) callValue(callee object.Value, args []object.Value) (object.Value, error) {
	if !callee.IsObject() {
		return object.Empty, vm.newRuntimeError("cannot call a %s", callee.TypeName())
	}
	switch fn := callee.Object().(type) {
	case *Function:
		return vm.invokeFunction(fn, args)
	case *Native:
		// Callback re-entry originates in Go code, so there is no compiled
		// call site and no per-argument ranges to hand over.
		return vm.callNative(fn, args, nil)
	default:
		return object.Empty, vm.newRuntimeError("cannot call a %s", callee.TypeName())
	}
}

// invokeFunction pushes a new frame for fn and drives the interpreter loop
// until that frame (and anything it calls) returns, then reports the
// result. Used for callback re-entry from native code, where there is no
// enclosing run() loop already iterating.
func (vm *VirtualMachine) invokeFunction(fn *Function, args []object.Value) (object.Value, error) {
	if err := vm.pushCallFrame(fn, args); err != nil {
		return object.Empty, err
	}
	return vm.run()
}

// pushCallFrame validates arity and installs a new call frame. Slot 0 holds
// the function value itself (so a recursive call resolves the function name
// as an ordinary local); slots 1..arity hold args. Captures are resolved
// now, by walking fn's compile-time descriptors through whichever frame
// is currently active (the caller) —
// not the frame that was active when fn was declared, since Sif has no
// opcode that snapshots an environment at declaration time and every call
// happens while the defining frame (direct or through recursion) is still
// live on the stack.
func (vm *VirtualMachine) pushCallFrame(fn *Function, args []object.Value) error {
	if len(vm.frames) >= maxFrames {
		return vm.newRuntimeError("call stack too deep")
	}
	if len(args) != fn.Arity {
		return vm.newRuntimeError("%s expects %d argument(s), found %d", fn.Name, fn.Arity, len(args))
	}

	var captures []object.Value
	if len(fn.CaptureDescriptors) > 0 {
		caller := vm.frame()
		captures = make([]object.Value, len(fn.CaptureDescriptors))
		for i, d := range fn.CaptureDescriptors {
			if d.IsLocal {
				captures[i] = vm.stack[caller.base+d.Index]
			} else {
				captures[i] = caller.captures[d.Index]
			}
		}
	}

	base := len(vm.stack)
	vm.push(object.Obj(fn))
	for _, a := range args {
		vm.push(a)
	}
	vm.frames = append(vm.frames, callFrame{fn: fn, code: fn.Bytecode, base: base, captures: captures})
	return nil
}

// callNative invokes a host function. argRanges is the call site's
// per-argument source-range table (nil when -n disabled it or the call is
// a callback re-entry); it travels on the context so the native can anchor
// an error at the argument that was actually wrong.
func (vm *VirtualMachine) callNative(fn *Native, args []object.Value, argRanges []token.Range) (object.Value, error) {
	if fn.Arity >= 0 && len(args) != fn.Arity {
		return object.Empty, vm.newRuntimeError("%s expects %d argument(s), found %d", fn.Name, fn.Arity, len(args))
	}
	ctx := &NativeCallContext{vm: vm, argRanges: argRanges}
	return fn.Fn(ctx, args)
}
