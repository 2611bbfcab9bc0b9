// Package signature implements Sif's function signatures: ordered
// templates of words, choices, options, and argument slots, each naming
// one callable form.
package signature

import (
	"sort"
	"strings"
)

// Term is one element of a Signature.
type Term interface {
	isTerm()
	// canon renders the term's contribution to the signature's canonical
	// name.
	canon() string
}

// Word is a literal, case-insensitive token, e.g. "the", "size", "of".
type Word struct {
	Text string
}

func (Word) isTerm()        {}
func (w Word) canon() string { return strings.ToLower(w.Text) }

// Choice requires exactly one of several alternative words.
type Choice struct {
	Alternatives []string
}

func (Choice) isTerm() {}
func (c Choice) canon() string {
	alts := append([]string(nil), c.Alternatives...)
	for i := range alts {
		alts[i] = strings.ToLower(alts[i])
	}
	sort.Strings(alts)
	return "(" + strings.Join(alts, "/") + ")"
}

// Option allows zero or one of several alternative words.
type Option struct {
	Alternatives []string
}

func (Option) isTerm() {}
func (o Option) canon() string {
	// Options keep their declared order (unlike Choice), per the original
	// implementation's Name(Option) which does not sort.
	alts := make([]string, len(o.Alternatives))
	for i, a := range o.Alternatives {
		alts[i] = strings.ToLower(a)
	}
	return "(" + strings.Join(alts, "/") + ")"
}

// Argument is one argument slot. Names may hold more than one identifier
// when the call site destructures a tuple (e.g. `{key, value}`). TypeName is
// informational only — it is never consulted for dispatch.
type Argument struct {
	Names    []string
	TypeName string
}

func (Argument) isTerm()        {}
func (Argument) canon() string { return "(:)" }

// Signature is an ordered sequence of terms naming one callable form.
type Signature struct {
	Terms []Term
}

// Name is the deterministic canonicalization used for equality and as the
// grammar trie's dispatch key.
func (s Signature) Name() string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.canon()
	}
	return strings.Join(parts, " ")
}

// Equal reports whether two signatures canonicalize to the same name.
func (s Signature) Equal(other Signature) bool { return s.Name() == other.Name() }

// Arity is the number of Argument terms.
func (s Signature) Arity() int {
	n := 0
	for _, t := range s.Terms {
		if _, ok := t.(Argument); ok {
			n++
		}
	}
	return n
}

// Description renders a human-readable form for diagnostics and
// documentation, including argument type names where present.
func (s Signature) Description() string {
	var sb strings.Builder
	for i, t := range s.Terms {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch term := t.(type) {
		case Word:
			sb.WriteString(term.Text)
		case Choice:
			sb.WriteString("(" + strings.Join(term.Alternatives, "/") + ")")
		case Option:
			sb.WriteString("(" + strings.Join(term.Alternatives, "/") + ")")
		case Argument:
			sb.WriteString("{")
			sb.WriteString(strings.Join(term.Names, ", "))
			if term.TypeName != "" {
				sb.WriteString(": " + term.TypeName)
			}
			sb.WriteString("}")
		}
	}
	return sb.String()
}
