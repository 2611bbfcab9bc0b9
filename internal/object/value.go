// Package object implements Sif's runtime data model: the tagged Value union
// and the heap Object hierarchy it can hold a handle to.
package object

import (
	"fmt"
	"math"
)

// Kind discriminates the Value union.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindInt
	KindFloat
	KindBool
	KindObject
)

// Value is Sif's tagged sum: integer, float, bool, empty, or a shared
// handle to a heap Object. The "empty" variant is its own thing, distinct
// from zero, false, and "".
type Value struct {
	kind Kind
	bits uint64
	obj  Object
}

// Empty is Sif's singular absent value.
var Empty = Value{kind: KindEmpty}

func Int(v int64) Value   { return Value{kind: KindInt, bits: uint64(v)} }
func Float(v float64) Value { return Value{kind: KindFloat, bits: math.Float64bits(v)} }
func Bool(v bool) Value {
	var b uint64
	if v {
		b = 1
	}
	return Value{kind: KindBool, bits: b}
}
func Obj(o Object) Value { return Value{kind: KindObject, obj: o} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }
func (v Value) IsInt() bool   { return v.kind == KindInt }
func (v Value) IsFloat() bool { return v.kind == KindFloat }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsObject() bool { return v.kind == KindObject }

func (v Value) Int() int64     { return int64(v.bits) }
func (v Value) Float() float64 { return math.Float64frombits(v.bits) }
func (v Value) Bool() bool     { return v.bits == 1 }
func (v Value) Object() Object { return v.obj }

// IsNumber reports whether v is an int or float.
func (v Value) IsNumber() bool { return v.kind == KindInt || v.kind == KindFloat }

// AsFloat returns v's numeric value widened to float64 (only valid when
// IsNumber() is true).
func (v Value) AsFloat() float64 {
	if v.kind == KindInt {
		return float64(v.Int())
	}
	return v.Float()
}

// Truthy implements Sif's notion of conditional truth: only `false` is
// false; everything else, including empty and zero, is true in practice the
// language only ever tests actual booleans, but VM opcodes that peek a
// condition rely on this for defensive coercion.
func (v Value) Truthy() bool {
	return !(v.kind == KindBool && !v.Bool())
}

// TypeName returns the user-facing type name, used by type-test/cast
// natives and error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindEmpty:
		return "empty"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindObject:
		return v.obj.TypeName()
	default:
		return "unknown"
	}
}

// Description renders the value the way `print`/string-interpolation does.
func (v Value) Description() string {
	switch v.kind {
	case KindEmpty:
		return "empty"
	case KindInt:
		return fmt.Sprintf("%d", v.Int())
	case KindFloat:
		return formatFloat(v.Float())
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindObject:
		return v.obj.Description()
	default:
		return "?"
	}
}

// DebugDescription renders a more explicit form (e.g. strings quoted),
// used by -p/-b dumps and `the error` style diagnostics.
func (v Value) DebugDescription() string {
	if v.kind == KindObject {
		if d, ok := v.obj.(DebugDescriber); ok {
			return d.DebugDescription()
		}
	}
	return v.Description()
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// Equal implements value equality: same variant and same content; objects
// defer to their own Equal implementation.
func (v Value) Equal(other Value) bool {
	switch {
	case v.kind == KindInt && other.kind == KindFloat:
		return float64(v.Int()) == other.Float()
	case v.kind == KindFloat && other.kind == KindInt:
		return v.Float() == float64(other.Int())
	case v.kind != other.kind:
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindInt:
		return v.Int() == other.Int()
	case KindFloat:
		return v.Float() == other.Float()
	case KindBool:
		return v.Bool() == other.Bool()
	case KindObject:
		return v.obj.Equal(other.obj)
	default:
		return false
	}
}

// Hash is stable across all variants, used as Dictionary keys.
func (v Value) Hash() uint64 {
	switch v.kind {
	case KindEmpty:
		return 0x656d707479 // "empty"
	case KindInt:
		return hashUint64(v.bits)
	case KindFloat:
		// Integral floats hash identically to the equal integer so that
		// 2 and 2.0 collide in a Dictionary the way Equal says they should.
		if f := v.Float(); f == math.Trunc(f) && !math.IsInf(f, 0) {
			return hashUint64(uint64(int64(f)))
		}
		return hashUint64(v.bits)
	case KindBool:
		return hashUint64(v.bits + 2)
	case KindObject:
		return v.obj.Hash()
	default:
		return 0
	}
}

func hashUint64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

// DebugDescriber is implemented by objects with a distinct debug rendering
// (e.g. String quotes its contents).
type DebugDescriber interface {
	DebugDescription() string
}
