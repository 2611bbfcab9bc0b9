package vm

import (
	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/object"
)

func (vm *VirtualMachine) readByte() byte {
	fr := vm.frame()
	b := fr.code.Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VirtualMachine) readU16() uint16 {
	fr := vm.frame()
	v := fr.code.ReadU16(fr.ip)
	fr.ip += 2
	return v
}

func (vm *VirtualMachine) constant(idx uint16) object.Value {
	return vm.frame().code.Constants[idx]
}

func (vm *VirtualMachine) globalName(idx uint16) string {
	return vm.constant(idx).Object().(*object.String).String()
}

// run is the bytecode dispatch loop. It runs until the outermost frame
// returns, a RuntimeError propagates past every open try handler, or Halt
// is requested.
func (vm *VirtualMachine) run() (result object.Value, rerr error) {
	baseFrameDepth := len(vm.frames) - 1
	for {
		if vm.halted {
			return object.Empty, &HaltError{Code: vm.haltCode}
		}
		if vm.gcPending {
			// Instruction boundaries are the collector's safe points: every
			// live container is reachable from the stack, frames, or globals
			// here, unlike inside track() at the moment of allocation.
			vm.gcPending = false
			vm.collectGarbage()
		}
		fr := vm.frame()
		if fr.ip >= len(fr.code.Code) {
			if len(vm.frames)-1 == baseFrameDepth {
				return object.Empty, nil
			}
			vm.popFrame(object.Empty)
			continue
		}

		fr.opIP = fr.ip
		op := bytecode.Opcode(vm.readByte())
		err := vm.step(op)
		if err != nil {
			if handled := vm.unwindToHandler(err, baseFrameDepth); handled {
				continue
			}
			return object.Empty, err
		}
		if vm.halted {
			return object.Empty, &HaltError{Code: vm.haltCode}
		}
		if len(vm.frames)-1 < baseFrameDepth {
			// The base frame itself returned; its result must come off the
			// stack here — for a nested run (a native's callback) the outer
			// dispatch loop pushes the native's result itself.
			if len(vm.stack) > 0 {
				return vm.pop(), nil
			}
			return object.Empty, nil
		}
	}
}

// unwindToHandler pops frames back to the nearest open try handler,
// restores the stack to the depth recorded when the handler was pushed,
// stores the error in the error register, and resumes at the handler's
// target. Returns false if no handler catches it — or if the nearest
// handler belongs to a frame below this run invocation's base (the error
// must first propagate out through the native whose callback re-entered
// the interpreter) — in which case the caller propagates err.
func (vm *VirtualMachine) unwindToHandler(err error, baseFrameDepth int) bool {
	if len(vm.tryStack) == 0 {
		return false
	}
	h := vm.tryStack[len(vm.tryStack)-1]
	if h.frameDepth < baseFrameDepth {
		return false
	}
	vm.tryStack = vm.tryStack[:len(vm.tryStack)-1]

	for len(vm.frames)-1 > h.frameDepth {
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	if len(vm.stack) > h.stackDepth {
		vm.stack = vm.stack[:h.stackDepth]
	}
	vm.frame().error = object.Obj(object.NewString(err.Error()))
	vm.frame().ip = h.targetIP
	return true
}

func (vm *VirtualMachine) popFrame(returnValue object.Value) {
	fr := vm.frame()
	// A `return` inside a try region leaves its PushJump handler behind;
	// drop every handler the dying frame owns so a later error can't unwind
	// into a frame that no longer exists.
	for len(vm.tryStack) > 0 && vm.tryStack[len(vm.tryStack)-1].frameDepth >= len(vm.frames)-1 {
		vm.tryStack = vm.tryStack[:len(vm.tryStack)-1]
	}
	// Write captured values back through the descriptors they were resolved
	// from, so a function that assigned to an enclosing local leaves the
	// caller seeing the latest value once the call returns — the reverse of
	// pushCallFrame's resolution step.
	if fr.fn != nil && len(fr.captures) > 0 && len(vm.frames) > 1 {
		caller := &vm.frames[len(vm.frames)-2]
		for i, d := range fr.fn.CaptureDescriptors {
			if d.IsLocal {
				vm.stack[caller.base+d.Index] = fr.captures[i]
			} else {
				caller.captures[d.Index] = fr.captures[i]
			}
		}
	}
	vm.stack = vm.stack[:fr.base]
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.push(returnValue)
}

// step executes a single instruction. Operand bytes (if any) are consumed
// via readByte/readU16 by the case itself.
func (vm *VirtualMachine) step(op bytecode.Opcode) error {
	switch op {
	case bytecode.Constant:
		v := vm.constant(vm.readU16())
		if v.IsObject() {
			if c, ok := v.Object().(object.Copyable); ok {
				v = object.Obj(c.Copy())
			}
		}
		vm.push(v)

	case bytecode.Short:
		vm.push(object.Int(int64(vm.readU16())))

	case bytecode.True:
		vm.push(object.Bool(true))
	case bytecode.False:
		vm.push(object.Bool(false))
	case bytecode.Empty:
		vm.push(object.Empty)

	case bytecode.GetIt:
		vm.push(vm.frame().it)
	case bytecode.SetIt:
		vm.frame().it = vm.peek(0)

	case bytecode.Pop:
		vm.pop()

	case bytecode.Jump:
		off := vm.readU16()
		vm.frame().ip += int(off)
	case bytecode.JumpIfFalse:
		off := vm.readU16()
		if !vm.peek(0).Truthy() {
			vm.frame().ip += int(off)
		}
	case bytecode.JumpIfTrue:
		off := vm.readU16()
		if vm.peek(0).Truthy() {
			vm.frame().ip += int(off)
		}
	case bytecode.JumpIfAtEnd:
		off := vm.readU16()
		en := vm.peek(0).Object().(object.Enumerator)
		if en.IsAtEnd() {
			vm.frame().ip += int(off)
		}
	case bytecode.Repeat:
		off := vm.readU16()
		vm.frame().ip -= int(off)

	case bytecode.PushJump:
		off := vm.readU16()
		vm.tryStack = append(vm.tryStack, tryHandler{
			stackDepth: len(vm.stack),
			frameDepth: len(vm.frames) - 1,
			targetIP:   vm.frame().ip + int(off),
		})
	case bytecode.PopJump:
		if len(vm.tryStack) > 0 {
			vm.tryStack = vm.tryStack[:len(vm.tryStack)-1]
		}

	case bytecode.Negate:
		v := vm.pop()
		if v.Kind() == object.KindInt {
			vm.push(object.Int(-v.Int()))
		} else if v.Kind() == object.KindFloat {
			vm.push(object.Float(-v.Float()))
		} else {
			return vm.newRuntimeError("cannot negate a %s", v.TypeName())
		}
	case bytecode.Not:
		v := vm.pop()
		vm.push(object.Bool(!v.Truthy()))
	case bytecode.Increment:
		v := vm.pop()
		if v.Kind() != object.KindInt {
			return vm.newRuntimeError("cannot increment a %s", v.TypeName())
		}
		vm.push(object.Int(v.Int() + 1))

	case bytecode.Add, bytecode.Subtract, bytecode.Multiply, bytecode.Divide, bytecode.Modulo, bytecode.Exponent:
		return vm.arith(op)

	case bytecode.Equal:
		b, a := vm.pop(), vm.pop()
		vm.push(object.Bool(a.Equal(b)))
	case bytecode.NotEqual:
		b, a := vm.pop(), vm.pop()
		vm.push(object.Bool(!a.Equal(b)))
	case bytecode.LessThan, bytecode.LessThanOrEqual, bytecode.GreaterThan, bytecode.GreaterThanOrEqual:
		return vm.compare(op)

	case bytecode.OpenRange, bytecode.ClosedRange:
		return vm.rangeOp(op)

	case bytecode.List:
		count := int(vm.readU16())
		elems := append([]object.Value(nil), vm.stack[len(vm.stack)-count:]...)
		vm.stack = vm.stack[:len(vm.stack)-count]
		l := object.NewList(elems)
		vm.track(l)
		vm.push(object.Obj(l))

	case bytecode.Dictionary:
		count := int(vm.readU16())
		d := object.NewDictionary()
		pairs := vm.stack[len(vm.stack)-count*2:]
		for i := 0; i < count; i++ {
			k, v := pairs[i*2], pairs[i*2+1]
			if err := d.Set(k, v); err != nil {
				return vm.newRuntimeError("%v", err)
			}
		}
		vm.stack = vm.stack[:len(vm.stack)-count*2]
		vm.track(d)
		vm.push(object.Obj(d))

	case bytecode.UnpackList:
		count := int(vm.readU16())
		v := vm.pop()
		l, ok := v.Object().(*object.List)
		if !ok {
			return vm.newRuntimeError("cannot unpack a %s as a list", v.TypeName())
		}
		if l.Len() != count {
			return vm.newRuntimeError("expected %d values, found %d", count, l.Len())
		}
		for _, e := range l.Elements {
			vm.push(e)
		}

	case bytecode.Subscript:
		key, target := vm.pop(), vm.pop()
		sub, ok := target.Object().(object.Subscriptable)
		if !ok {
			return vm.newRuntimeError("cannot subscript a %s", target.TypeName())
		}
		v, err := sub.Get(key)
		if err != nil {
			return vm.newRuntimeError("%v", err)
		}
		vm.push(v)
	case bytecode.SetSubscript:
		value, key, target := vm.pop(), vm.pop(), vm.pop()
		sub, ok := target.Object().(object.Subscriptable)
		if !ok {
			return vm.newRuntimeError("cannot subscript a %s", target.TypeName())
		}
		if err := sub.Set(key, value); err != nil {
			return vm.newRuntimeError("%v", err)
		}
		vm.push(value)

	case bytecode.GetEnumerator:
		v := vm.pop()
		en, ok := v.Object().(object.Enumerable)
		if !ok {
			return vm.newRuntimeError("cannot iterate a %s", v.TypeName())
		}
		vm.push(object.Obj(enumeratorHandle{en.Enumerator()}))
	case bytecode.Enumerate:
		v := vm.peek(0)
		h := v.Object().(enumeratorHandle)
		vm.push(h.Enumerator.Enumerate())

	case bytecode.GetGlobal:
		name := vm.globalName(vm.readU16())
		v, ok := vm.globals[name]
		if !ok {
			return vm.newRuntimeError("%q is not defined", name)
		}
		vm.push(v)
	case bytecode.SetGlobal:
		name := vm.globalName(vm.readU16())
		vm.globals[name] = vm.peek(0)

	case bytecode.GetLocal:
		slot := int(vm.readU16())
		vm.push(vm.stack[vm.frame().base+slot])
	case bytecode.SetLocal:
		slot := int(vm.readU16())
		vm.stack[vm.frame().base+slot] = vm.peek(0)

	case bytecode.GetCapture:
		slot := int(vm.readU16())
		vm.push(vm.frame().captures[slot])
	case bytecode.SetCapture:
		slot := int(vm.readU16())
		vm.frame().captures[slot] = vm.peek(0)

	case bytecode.Call:
		argCount := int(vm.readU16())
		calleeIdx := len(vm.stack) - argCount - 1
		callee := vm.stack[calleeIdx]
		args := append([]object.Value(nil), vm.stack[calleeIdx+1:]...)
		vm.stack = vm.stack[:calleeIdx]

		if !callee.IsObject() {
			return vm.newRuntimeError("cannot call a %s", callee.TypeName())
		}
		switch fn := callee.Object().(type) {
		case *Function:
			// Push the callee's frame directly and let the outer run loop
			// keep iterating; its Return opcode pops it and pushes the
			// result, so a Sif-level call costs one frame, not a nested Go
			// call (see callValue's doc comment).
			if err := vm.pushCallFrame(fn, args); err != nil {
				return err
			}
		case *Native:
			fr := vm.frame()
			v, err := vm.callNative(fn, args, fr.code.ArgumentRanges[fr.opIP])
			if err != nil {
				return err
			}
			vm.push(v)
		default:
			return vm.newRuntimeError("cannot call a %s", callee.TypeName())
		}

	case bytecode.Return:
		v := vm.pop()
		vm.popFrame(v)

	case bytecode.ToString:
		v := vm.pop()
		vm.push(object.Obj(object.NewString(v.Description())))
	case bytecode.Show:
		v := vm.peek(0)
		if vm.Stdout != nil {
			vm.Stdout.Write([]byte(v.Description() + "\n"))
		}

	default:
		return vm.newRuntimeError("unknown opcode %v", op)
	}
	return nil
}

// enumeratorHandle lets a stateful object.Enumerator travel on the value
// stack as an ordinary object.Value between GET_ENUMERATOR and each
// ENUMERATE/JUMP_IF_AT_END pair.
type enumeratorHandle struct{ object.Enumerator }

// Trace forwards to the wrapped enumerator so the collector can reach a
// container whose only remaining reference is the loop iterating it.
func (h enumeratorHandle) Trace(mark func(object.Value)) {
	if t, ok := h.Enumerator.(interface{ Trace(func(object.Value)) }); ok {
		t.Trace(mark)
	}
}

func (enumeratorHandle) TypeName() string    { return "enumerator" }
func (enumeratorHandle) Description() string { return "<enumerator>" }
func (h enumeratorHandle) Equal(other object.Object) bool {
	o, ok := other.(enumeratorHandle)
	return ok && o.Enumerator == h.Enumerator
}
func (h enumeratorHandle) Hash() uint64 { return h.Enumerator.(object.Object).Hash() }
