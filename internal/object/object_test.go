package object

import "testing"

func str(s string) Value { return Obj(NewString(s)) }

func TestValueEquality(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Int(1), Int(1), true},
		{Int(1), Int(2), false},
		{Int(2), Float(2.0), true},
		{Float(2.0), Int(2), true},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{Empty, Empty, true},
		{Empty, Int(0), false},
		{Empty, Bool(false), false},
		{Empty, str(""), false},
		{str("a"), str("a"), true},
		{str("a"), str("b"), false},
		{Int(1), str("1"), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s == %s: got %v, want %v", tt.a.DebugDescription(), tt.b.DebugDescription(), got, tt.want)
		}
	}
}

func TestValueHashAgreesWithEquality(t *testing.T) {
	if Int(2).Hash() != Float(2.0).Hash() {
		t.Fatal("2 and 2.0 are equal but hash differently")
	}
	if str("key").Hash() != str("key").Hash() {
		t.Fatal("equal strings hash differently")
	}
}

func TestValueDescriptions(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(42), "42"},
		{Float(2.5), "2.5"},
		{Bool(true), "true"},
		{Empty, "empty"},
		{str("hi"), "hi"},
	}
	for _, tt := range tests {
		if got := tt.v.Description(); got != tt.want {
			t.Errorf("Description() = %q, want %q", got, tt.want)
		}
	}
	if got := str("hi").DebugDescription(); got != `"hi"` {
		t.Errorf("DebugDescription() = %q", got)
	}
}

func TestStringSubscript(t *testing.T) {
	s := NewString("héllo")

	v, err := s.Get(Int(1))
	if err != nil || v.Object().(*String).String() != "é" {
		t.Fatalf("s[1] = %v, %v", v, err)
	}
	v, err = s.Get(Int(-1))
	if err != nil || v.Object().(*String).String() != "o" {
		t.Fatalf("s[-1] = %v, %v", v, err)
	}
	if _, err := s.Get(Int(10)); err == nil {
		t.Fatal("out-of-bounds read must fail")
	}

	r, _ := NewRange(1, 3, false)
	v, err = s.Get(Obj(r))
	if err != nil || v.Object().(*String).String() != "él" {
		t.Fatalf("s[1..<3] = %v, %v", v, err)
	}
}

func TestStringCasts(t *testing.T) {
	if n, err := NewString(" 42 ").CastInteger(); err != nil || n != 42 {
		t.Fatalf("CastInteger = %d, %v", n, err)
	}
	if f, err := NewString("2.5").CastFloat(); err != nil || f != 2.5 {
		t.Fatalf("CastFloat = %g, %v", f, err)
	}
	if _, err := NewString("nope").CastInteger(); err == nil {
		t.Fatal("casting a non-number must fail")
	}
}

func TestListOperations(t *testing.T) {
	l := NewList([]Value{Int(1), Int(2), Int(3), Int(2)})

	if !l.StartsWith(NewList([]Value{Int(1), Int(2)})) {
		t.Fatal("StartsWith failed")
	}
	if !l.EndsWith(NewList([]Value{Int(3), Int(2)})) {
		t.Fatal("EndsWith failed")
	}
	if i, ok := l.FindFirst(Int(2)); !ok || i != 1 {
		t.Fatalf("FindFirst = %d, %v", i, ok)
	}
	if i, ok := l.FindLast(Int(2)); !ok || i != 3 {
		t.Fatalf("FindLast = %d, %v", i, ok)
	}
	if n := l.ReplaceAll(Int(2), Int(9)); n != 2 {
		t.Fatalf("ReplaceAll = %d", n)
	}
	if !l.Elements[1].Equal(Int(9)) || !l.Elements[3].Equal(Int(9)) {
		t.Fatalf("after ReplaceAll: %s", l.Description())
	}

	l = NewList([]Value{Int(1), Int(2), Int(1)})
	if !l.ReplaceFirst(Int(1), Int(7)) || !l.Elements[0].Equal(Int(7)) {
		t.Fatal("ReplaceFirst failed")
	}
	if !l.ReplaceLast(Int(1), Int(8)) || !l.Elements[2].Equal(Int(8)) {
		t.Fatal("ReplaceLast failed")
	}
}

func TestListInsertRemove(t *testing.T) {
	l := NewList([]Value{Int(1), Int(3)})
	if err := l.Insert(1, Int(2)); err != nil {
		t.Fatal(err)
	}
	if l.Description() != "[1, 2, 3]" {
		t.Fatalf("after insert: %s", l.Description())
	}
	v, err := l.RemoveAt(0)
	if err != nil || !v.Equal(Int(1)) {
		t.Fatalf("RemoveAt = %v, %v", v, err)
	}
	if err := l.Insert(-1, Int(9)); err != nil {
		t.Fatal(err)
	}
	if l.Description() != "[2, 3, 9]" {
		t.Fatalf("after tail insert: %s", l.Description())
	}
}

func TestListRangeSubscript(t *testing.T) {
	l := NewList([]Value{Int(1), Int(2), Int(3), Int(4)})
	r, _ := NewRange(1, 2, true)
	v, err := l.Get(Obj(r))
	if err != nil {
		t.Fatal(err)
	}
	if v.Object().(*List).Description() != "[2, 3]" {
		t.Fatalf("l[1...2] = %s", v.Description())
	}

	if err := l.Set(Obj(r), Obj(NewList([]Value{Int(9)}))); err != nil {
		t.Fatal(err)
	}
	if l.Description() != "[1, 9, 4]" {
		t.Fatalf("after range set: %s", l.Description())
	}
}

func TestCyclicListEquality(t *testing.T) {
	a := NewList(nil)
	a.Append(Obj(a))
	b := NewList(nil)
	b.Append(Obj(b))
	if !a.Equal(b) {
		t.Fatal("structurally identical cyclic lists must be equal")
	}

	c := NewList(nil)
	c.Append(Int(1))
	if a.Equal(c) {
		t.Fatal("cyclic list equal to a plain list")
	}
}

func TestDictionaryBasics(t *testing.T) {
	d := NewDictionary()
	if err := d.Set(str("a"), Int(1)); err != nil {
		t.Fatal(err)
	}
	if err := d.Set(Int(2), str("two")); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 2 {
		t.Fatalf("Len = %d", d.Len())
	}

	v, err := d.Get(str("a"))
	if err != nil || !v.Equal(Int(1)) {
		t.Fatalf("d[a] = %v, %v", v, err)
	}
	if _, err := d.Get(str("missing")); err == nil {
		t.Fatal("missing key must error")
	}

	// Overwrite keeps size stable.
	d.Set(str("a"), Int(7))
	if d.Len() != 2 {
		t.Fatalf("Len after overwrite = %d", d.Len())
	}

	if !d.Delete(str("a")) || d.Has(str("a")) {
		t.Fatal("Delete failed")
	}
	if d.Delete(str("a")) {
		t.Fatal("double delete reported success")
	}
}

func TestDictionaryIntFloatKeysCollide(t *testing.T) {
	d := NewDictionary()
	d.Set(Int(2), str("int"))
	d.Set(Float(2.0), str("float"))
	if d.Len() != 1 {
		t.Fatalf("2 and 2.0 must be the same key; Len = %d", d.Len())
	}
	v, _ := d.Get(Int(2))
	if v.Object().(*String).String() != "float" {
		t.Fatalf("d[2] = %s", v.Description())
	}
}

func TestDictionaryEnumeratorYieldsPairs(t *testing.T) {
	d := NewDictionary()
	d.Set(str("a"), Int(1))
	d.Set(str("b"), Int(2))

	seen := map[string]int64{}
	for e := d.Enumerator(); !e.IsAtEnd(); {
		pair := e.Enumerate().Object().(*List)
		if pair.Len() != 2 {
			t.Fatalf("pair length = %d", pair.Len())
		}
		seen[pair.Elements[0].Object().(*String).String()] = pair.Elements[1].Int()
	}
	if len(seen) != 2 || seen["a"] != 1 || seen["b"] != 2 {
		t.Fatalf("pairs = %v", seen)
	}
}

func TestRangeSemantics(t *testing.T) {
	if _, err := NewRange(5, 1, true); err == nil {
		t.Fatal("end < start must be invalid")
	}

	closed, _ := NewRange(1, 5, true)
	if closed.Size() != 5 {
		t.Fatalf("1...5 size = %d", closed.Size())
	}
	open, _ := NewRange(1, 5, false)
	if open.Size() != 4 {
		t.Fatalf("1..<5 size = %d", open.Size())
	}

	if !closed.Contains(5) || open.Contains(5) || !open.Contains(4) {
		t.Fatal("Contains disagrees with closedness")
	}

	other, _ := NewRange(5, 9, true)
	if !closed.Overlaps(other) {
		t.Fatal("1...5 overlaps 5...9")
	}
	disjoint, _ := NewRange(6, 9, true)
	if closed.Overlaps(disjoint) {
		t.Fatal("1...5 does not overlap 6...9")
	}

	v, err := closed.Get(Int(2))
	if err != nil || !v.Equal(Int(3)) {
		t.Fatalf("(1...5)[2] = %v, %v", v, err)
	}
	if err := closed.Set(Int(0), Int(9)); err == nil {
		t.Fatal("ranges are immutable")
	}
}

func TestRangeEnumeration(t *testing.T) {
	r, _ := NewRange(1, 3, true)
	var got []int64
	for e := r.Enumerator(); !e.IsAtEnd(); {
		got = append(got, e.Enumerate().Int())
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("1...3 enumerated to %v", got)
	}
}

func TestCopySemantics(t *testing.T) {
	l := NewList([]Value{Int(1)})
	cp := l.Copy().(*List)
	cp.Append(Int(2))
	if l.Len() != 1 {
		t.Fatal("list copy aliases the original")
	}

	s := NewString("ab")
	sc := s.Copy().(*String)
	sc.Bytes = append(sc.Bytes, 'c')
	if s.String() != "ab" {
		t.Fatal("string copy aliases the original")
	}

	d := NewDictionary()
	d.Set(Int(1), Int(1))
	dc := d.Copy().(*Dictionary)
	dc.Set(Int(2), Int(2))
	if d.Len() != 1 {
		t.Fatal("dictionary copy aliases the original")
	}
}

func TestStringEnumeratesByCodePoint(t *testing.T) {
	s := NewString("héllo")
	var got []string
	for e := s.Enumerator(); !e.IsAtEnd(); {
		got = append(got, e.Enumerate().Object().(*String).String())
	}
	if len(got) != 5 || got[1] != "é" {
		t.Fatalf("enumerated %v", got)
	}
	if s.Len() != 5 {
		t.Fatalf("Len = %d, want code points", s.Len())
	}
}
