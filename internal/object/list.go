package object

import (
	"fmt"
	"strings"
	"unsafe"
)

// List is a mutable ordered sequence of Values. It is one of
// the two Container variants tracked by the VM's cycle-breaking collector.
type List struct {
	markBit
	Elements []Value
}

func NewList(elements []Value) *List { return &List{Elements: elements} }

func (l *List) TypeName() string { return "list" }

func (l *List) Description() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.DebugDescription()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) Equal(other Object) bool {
	o, ok := other.(*List)
	if !ok || len(l.Elements) != len(o.Elements) {
		return false
	}
	return listEqual(l, o, map[[2]uintptr]bool{})
}

// listEqual guards against cyclic lists (a[1]=b; b[1]=a) with a visited set
// keyed by the pair of pointer identities being compared.
func listEqual(a, b *List, visited map[[2]uintptr]bool) bool {
	key := [2]uintptr{uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(b))}
	if visited[key] {
		return true
	}
	visited[key] = true
	for i := range a.Elements {
		if !valueEqualGuarded(a.Elements[i], b.Elements[i], visited) {
			return false
		}
	}
	return true
}

func valueEqualGuarded(a, b Value, visited map[[2]uintptr]bool) bool {
	if a.IsObject() && b.IsObject() {
		if la, ok := a.Object().(*List); ok {
			if lb, ok := b.Object().(*List); ok {
				if len(la.Elements) != len(lb.Elements) {
					return false
				}
				return listEqual(la, lb, visited)
			}
		}
		if da, ok := a.Object().(*Dictionary); ok {
			if db, ok := b.Object().(*Dictionary); ok {
				return dictEqual(da, db, visited)
			}
		}
	}
	return a.Equal(b)
}

func (l *List) Hash() uint64 {
	h := uint64(1469598103934665603)
	for _, e := range l.Elements {
		h = (h ^ e.Hash()) * 1099511628211
	}
	return h
}

func (l *List) Copy() Object {
	return &List{Elements: append([]Value(nil), l.Elements...)}
}

func (l *List) Trace(mark func(Value)) {
	for _, e := range l.Elements {
		mark(e)
	}
}

func (l *List) Clear() { l.Elements = nil }

func (l *List) Len() int { return len(l.Elements) }

func (l *List) Enumerator() Enumerator { return &listEnumerator{list: l} }

func (l *List) Get(key Value) (Value, error) {
	if key.IsInt() {
		idx, err := resolveIndex(key.Int(), len(l.Elements))
		if err != nil {
			return Value{}, err
		}
		return l.Elements[idx], nil
	}
	if key.IsObject() {
		if r, ok := key.Object().(*Range); ok {
			lo, hi, err := r.Bounds(len(l.Elements))
			if err != nil {
				return Value{}, err
			}
			return Obj(NewList(append([]Value(nil), l.Elements[lo:hi]...))), nil
		}
	}
	return Value{}, fmt.Errorf("cannot subscript a list with a %s", key.TypeName())
}

func (l *List) Set(key Value, value Value) error {
	if key.IsInt() {
		idx, err := resolveIndex(key.Int(), len(l.Elements))
		if err != nil {
			return err
		}
		l.Elements[idx] = value
		return nil
	}
	if r, ok := key.Object().(*Range); ok {
		lo, hi, err := r.Bounds(len(l.Elements))
		if err != nil {
			return err
		}
		repl, ok := value.Object().(*List)
		if !value.IsObject() || !ok {
			return fmt.Errorf("cannot assign a %s into a list range", value.TypeName())
		}
		out := append(append([]Value{}, l.Elements[:lo]...), repl.Elements...)
		out = append(out, l.Elements[hi:]...)
		l.Elements = out
		return nil
	}
	return fmt.Errorf("cannot subscript a list with a %s", key.TypeName())
}

func (l *List) Append(v Value) { l.Elements = append(l.Elements, v) }

func (l *List) Insert(index int, v Value) error {
	idx, err := insertIndex(index, len(l.Elements))
	if err != nil {
		return err
	}
	l.Elements = append(l.Elements, Value{})
	copy(l.Elements[idx+1:], l.Elements[idx:])
	l.Elements[idx] = v
	return nil
}

func insertIndex(i int, n int) (int, error) {
	if i < 0 {
		i += n + 1
	}
	if i < 0 || i > n {
		return 0, fmt.Errorf("index %d out of bounds (size %d)", i, n)
	}
	return i, nil
}

func (l *List) RemoveAt(index int) (Value, error) {
	idx, err := resolveIndex(int64(index), len(l.Elements))
	if err != nil {
		return Value{}, err
	}
	v := l.Elements[idx]
	l.Elements = append(l.Elements[:idx], l.Elements[idx+1:]...)
	return v, nil
}

// StartsWith reports whether prefix's elements lead the list.
func (l *List) StartsWith(prefix *List) bool {
	if len(prefix.Elements) > len(l.Elements) {
		return false
	}
	for i, e := range prefix.Elements {
		if !l.Elements[i].Equal(e) {
			return false
		}
	}
	return true
}

func (l *List) EndsWith(suffix *List) bool {
	if len(suffix.Elements) > len(l.Elements) {
		return false
	}
	offset := len(l.Elements) - len(suffix.Elements)
	for i, e := range suffix.Elements {
		if !l.Elements[offset+i].Equal(e) {
			return false
		}
	}
	return true
}

func (l *List) FindFirst(needle Value) (int, bool) {
	for i, e := range l.Elements {
		if e.Equal(needle) {
			return i, true
		}
	}
	return 0, false
}

func (l *List) FindLast(needle Value) (int, bool) {
	for i := len(l.Elements) - 1; i >= 0; i-- {
		if l.Elements[i].Equal(needle) {
			return i, true
		}
	}
	return 0, false
}

func (l *List) ReplaceAll(find, with Value) int {
	n := 0
	for i, e := range l.Elements {
		if e.Equal(find) {
			l.Elements[i] = with
			n++
		}
	}
	return n
}

func (l *List) ReplaceFirst(find, with Value) bool {
	if i, ok := l.FindFirst(find); ok {
		l.Elements[i] = with
		return true
	}
	return false
}

func (l *List) ReplaceLast(find, with Value) bool {
	if i, ok := l.FindLast(find); ok {
		l.Elements[i] = with
		return true
	}
	return false
}

type listEnumerator struct {
	list *List
	pos  int
}

func (e *listEnumerator) IsAtEnd() bool { return e.pos >= len(e.list.Elements) }
func (e *listEnumerator) Enumerate() Value {
	v := e.list.Elements[e.pos]
	e.pos++
	return v
}
// Trace keeps the backing list alive while only the enumerator references
// it (e.g. an in-flight `repeat for each` over a list literal).
func (e *listEnumerator) Trace(mark func(Value)) { mark(Obj(e.list)) }

func (e *listEnumerator) TypeName() string    { return "list-enumerator" }
func (e *listEnumerator) Description() string { return "<list enumerator>" }
func (e *listEnumerator) Equal(o Object) bool { return e == o }
func (e *listEnumerator) Hash() uint64        { return PtrHash(unsafe.Pointer(e)) }
