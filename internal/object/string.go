package object

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode/utf8"
	"unsafe"
)

// String is a mutable UTF-8 byte string. It is enumerable by
// code point and subscriptable by integer (negative indices count from the
// end) or by Range.
type String struct {
	Bytes []byte
}

func NewString(s string) *String { return &String{Bytes: []byte(s)} }

func (s *String) String() string  { return string(s.Bytes) }
func (s *String) TypeName() string { return "string" }
func (s *String) Description() string { return s.String() }
func (s *String) DebugDescription() string {
	return strconv.Quote(s.String())
}

func (s *String) Equal(other Object) bool {
	o, ok := other.(*String)
	return ok && string(s.Bytes) == string(o.Bytes)
}

func (s *String) Hash() uint64 {
	h := fnv.New64a()
	h.Write(s.Bytes)
	return h.Sum64()
}

func (s *String) Copy() Object { return &String{Bytes: append([]byte(nil), s.Bytes...)} }

func (s *String) runes() []rune { return []rune(s.String()) }

func (s *String) Enumerator() Enumerator {
	return &stringEnumerator{runes: s.runes()}
}

// resolveIndex converts a possibly-negative logical index to an offset in
// [0,n), returning an error for out-of-bounds.
func resolveIndex(i int64, n int) (int, error) {
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, fmt.Errorf("index %d out of bounds (size %d)", i, n)
	}
	return int(i), nil
}

func (s *String) Get(key Value) (Value, error) {
	runes := s.runes()
	if key.IsInt() {
		idx, err := resolveIndex(key.Int(), len(runes))
		if err != nil {
			return Value{}, err
		}
		return Obj(NewString(string(runes[idx]))), nil
	}
	if key.IsObject() {
		if r, ok := key.Object().(*Range); ok {
			lo, hi, err := r.Bounds(len(runes))
			if err != nil {
				return Value{}, err
			}
			return Obj(NewString(string(runes[lo:hi]))), nil
		}
	}
	return Value{}, fmt.Errorf("cannot subscript a string with a %s", key.TypeName())
}

func (s *String) Set(key Value, value Value) error {
	runes := s.runes()
	repl, ok := value.Object().(*String)
	if !value.IsObject() || !ok {
		return fmt.Errorf("cannot assign a %s into a string", value.TypeName())
	}
	if key.IsInt() {
		idx, err := resolveIndex(key.Int(), len(runes))
		if err != nil {
			return err
		}
		replRunes := repl.runes()
		if len(replRunes) != 1 {
			return fmt.Errorf("expected a single character")
		}
		runes[idx] = replRunes[0]
		s.Bytes = []byte(string(runes))
		return nil
	}
	if r, ok := key.Object().(*Range); ok {
		lo, hi, err := r.Bounds(len(runes))
		if err != nil {
			return err
		}
		out := append(append([]rune{}, runes[:lo]...), repl.runes()...)
		out = append(out, runes[hi:]...)
		s.Bytes = []byte(string(out))
		return nil
	}
	return fmt.Errorf("cannot subscript a string with a %s", key.TypeName())
}

func (s *String) CastInteger() (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s.String()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s.String())
	}
	return v, nil
}

func (s *String) CastFloat() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s.String())
	}
	return v, nil
}

// Concat implements OP_ADD's string-concatenation overload.
func (s *String) Concat(other *String) *String {
	return NewString(s.String() + other.String())
}

func (s *String) Len() int { return utf8.RuneCountInString(s.String()) }

type stringEnumerator struct {
	runes []rune
	pos   int
}

func (e *stringEnumerator) IsAtEnd() bool { return e.pos >= len(e.runes) }
func (e *stringEnumerator) Enumerate() Value {
	v := Obj(NewString(string(e.runes[e.pos])))
	e.pos++
	return v
}

func (e *stringEnumerator) TypeName() string    { return "string-enumerator" }
func (e *stringEnumerator) Description() string { return "<string enumerator>" }
func (e *stringEnumerator) Equal(o Object) bool { return e == o }
func (e *stringEnumerator) Hash() uint64        { return PtrHash(unsafe.Pointer(e)) }
