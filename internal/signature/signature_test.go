package signature

import "testing"

func TestNameCanonicalization(t *testing.T) {
	a := Signature{Terms: []Term{
		Word{Text: "Turn"},
		Choice{Alternatives: []string{"left", "right"}},
		Argument{Names: []string{"degrees"}, TypeName: "number"},
	}}
	b := Signature{Terms: []Term{
		Word{Text: "turn"},
		Choice{Alternatives: []string{"right", "LEFT"}},
		Argument{Names: []string{"amount"}},
	}}

	if a.Name() != b.Name() {
		t.Fatalf("choice order and casing must not affect the name: %q vs %q", a.Name(), b.Name())
	}
	if want := "turn (left/right) (:)"; a.Name() != want {
		t.Fatalf("Name() = %q, want %q", a.Name(), want)
	}
	if !a.Equal(b) {
		t.Fatal("signatures with equal names must be Equal")
	}
}

func TestOptionKeepsDeclaredOrder(t *testing.T) {
	a := Signature{Terms: []Term{Word{Text: "wait"}, Option{Alternatives: []string{"for", "on"}}}}
	b := Signature{Terms: []Term{Word{Text: "wait"}, Option{Alternatives: []string{"on", "for"}}}}
	if a.Name() == b.Name() {
		t.Fatal("option alternatives are not sorted; differently-ordered options are distinct")
	}
	if want := "wait (for/on)"; a.Name() != want {
		t.Fatalf("Name() = %q, want %q", a.Name(), want)
	}
}

func TestArity(t *testing.T) {
	s := Signature{Terms: []Term{
		Word{Text: "insert"},
		Argument{Names: []string{"item"}},
		Word{Text: "at"},
		Option{Alternatives: []string{"the"}},
		Word{Text: "end"},
		Word{Text: "of"},
		Argument{Names: []string{"list"}},
	}}
	if s.Arity() != 2 {
		t.Fatalf("Arity() = %d, want 2", s.Arity())
	}
}

func TestDescription(t *testing.T) {
	s := Signature{Terms: []Term{
		Word{Text: "find"},
		Argument{Names: []string{"needle"}, TypeName: "string"},
		Word{Text: "in"},
		Argument{Names: []string{"haystack"}},
	}}
	if want := "find {needle: string} in {haystack}"; s.Description() != want {
		t.Fatalf("Description() = %q, want %q", s.Description(), want)
	}
}
