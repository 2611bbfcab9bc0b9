package object

import "unsafe"

// PtrHash hashes an object by its address. Used by the stateful Enumerator
// variants and by the vm package's Function/Native, neither of which has a
// meaningful structural identity.
func PtrHash(p unsafe.Pointer) uint64 { return hashUint64(uint64(uintptr(p))) }

// Object is any heap-allocated runtime entity.
type Object interface {
	TypeName() string
	Description() string
	Equal(other Object) bool
	Hash() uint64
}

// Copyable objects can produce an independent copy of themselves, used by
// the Constant opcode when pushing a value that must not alias the
// constant pool.
type Copyable interface {
	Copy() Object
}

// Enumerable objects can produce a fresh, stateful Enumerator over
// themselves.
type Enumerable interface {
	Enumerator() Enumerator
}

// Subscriptable objects support `[]` get/set. Get returns an error value
// (as an `error`, not a Value) on an invalid key so the VM can turn it into
// a RuntimeError at the current instruction's source location.
type Subscriptable interface {
	Get(key Value) (Value, error)
	Set(key Value, value Value) error
}

// NumberCastable objects can be coerced to integer/float (e.g. String
// parsing its contents).
type NumberCastable interface {
	CastInteger() (int64, error)
	CastFloat() (float64, error)
}

// Enumerator is a stateful, one-shot iterator used by `repeat for each` and
// by Core's lazy-sequence natives.
type Enumerator interface {
	// Enumerate returns the next value. Only valid when IsAtEnd() is false.
	Enumerate() Value
	// IsAtEnd reports exhaustion.
	IsAtEnd() bool
}

// Container marks the object variants (List, Dictionary) that participate
// in the VM's cycle-breaking garbage collector. Trace must call mark on every
// Value it directly holds that might itself be a tracked container.
type Container interface {
	Object
	// Trace calls mark for every Value this container directly references.
	Trace(mark func(Value))
	// Clear drops all outgoing references, breaking any cycle once the
	// collector has determined this container is unreachable.
	Clear()
	// marked/SetMarked implement the collector's visited bit; containers
	// embed markBit to get these for free.
	Marked() bool
	SetMarked(bool)
}

// markBit is embedded by List and Dictionary to implement Container's
// mark-bit bookkeeping without repeating it in each type.
type markBit struct{ marked bool }

func (m *markBit) Marked() bool     { return m.marked }
func (m *markBit) SetMarked(v bool) { m.marked = v }
