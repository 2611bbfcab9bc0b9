package vm

import (
	"math"

	"github.com/atjhc/sif/internal/bytecode"
	"github.com/atjhc/sif/internal/object"
)

// arith implements the numeric/string overloads of Add through Exponent.
func (vm *VirtualMachine) arith(op bytecode.Opcode) error {
	b, a := vm.pop(), vm.pop()

	if op == bytecode.Add && a.IsObject() && b.IsObject() {
		sa, aok := a.Object().(*object.String)
		sb, bok := b.Object().(*object.String)
		if aok && bok {
			vm.push(object.Obj(sa.Concat(sb)))
			return nil
		}
	}

	if !a.IsNumber() || !b.IsNumber() {
		return vm.newRuntimeError("cannot apply %s to a %s and a %s", opName(op), a.TypeName(), b.TypeName())
	}

	if a.IsInt() && b.IsInt() && op != bytecode.Divide {
		ai, bi := a.Int(), b.Int()
		switch op {
		case bytecode.Add:
			vm.push(object.Int(ai + bi))
		case bytecode.Subtract:
			vm.push(object.Int(ai - bi))
		case bytecode.Multiply:
			vm.push(object.Int(ai * bi))
		case bytecode.Modulo:
			if bi == 0 {
				return vm.newRuntimeError("modulo by zero")
			}
			vm.push(object.Int(ai % bi))
		case bytecode.Exponent:
			vm.push(object.Int(intPow(ai, bi)))
		}
		return nil
	}

	af, bf := a.AsFloat(), b.AsFloat()
	switch op {
	case bytecode.Add:
		vm.push(object.Float(af + bf))
	case bytecode.Subtract:
		vm.push(object.Float(af - bf))
	case bytecode.Multiply:
		vm.push(object.Float(af * bf))
	case bytecode.Divide:
		if bf == 0 {
			return vm.newRuntimeError("division by zero")
		}
		vm.push(object.Float(af / bf))
	case bytecode.Modulo:
		vm.push(object.Float(math.Mod(af, bf)))
	case bytecode.Exponent:
		vm.push(object.Float(math.Pow(af, bf)))
	}
	return nil
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

// compare implements the ordering operators, numeric only.
func (vm *VirtualMachine) compare(op bytecode.Opcode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.newRuntimeError("cannot compare a %s and a %s", a.TypeName(), b.TypeName())
	}
	af, bf := a.AsFloat(), b.AsFloat()
	var result bool
	switch op {
	case bytecode.LessThan:
		result = af < bf
	case bytecode.LessThanOrEqual:
		result = af <= bf
	case bytecode.GreaterThan:
		result = af > bf
	case bytecode.GreaterThanOrEqual:
		result = af >= bf
	}
	vm.push(object.Bool(result))
	return nil
}

// rangeOp implements OP_OPEN_RANGE/OP_CLOSED_RANGE.
func (vm *VirtualMachine) rangeOp(op bytecode.Opcode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsInt() || !b.IsInt() {
		return vm.newRuntimeError("a range's bounds must be integers")
	}
	r, err := object.NewRange(a.Int(), b.Int(), op == bytecode.ClosedRange)
	if err != nil {
		return vm.newRuntimeError("%v", err)
	}
	vm.push(object.Obj(r))
	return nil
}

func opName(op bytecode.Opcode) string {
	switch op {
	case bytecode.Add:
		return "add"
	case bytecode.Subtract:
		return "subtract"
	case bytecode.Multiply:
		return "multiply"
	case bytecode.Divide:
		return "divide"
	case bytecode.Modulo:
		return "modulo"
	case bytecode.Exponent:
		return "exponent"
	default:
		return "operate on"
	}
}
