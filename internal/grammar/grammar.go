// Package grammar implements the signature-driven grammar trie the parser
// consults to resolve arbitrary multi-word function calls.
package grammar

import "github.com/atjhc/sif/internal/signature"

// Grammar is one node of the trie. Terms indexes word continuations by their
// lower-cased spelling; Argument is the "an argument fits here" branch.
// A non-nil Signature marks "a complete signature ends here".
type Grammar struct {
	Terms     map[string]*Grammar
	Argument  *Grammar
	Signature *signature.Signature
}

// New creates an empty trie root.
func New() *Grammar {
	return &Grammar{Terms: map[string]*Grammar{}}
}

func (g *Grammar) child(word string) *Grammar {
	if g.Terms == nil {
		g.Terms = map[string]*Grammar{}
	}
	if c, ok := g.Terms[word]; ok {
		return c
	}
	c := &Grammar{Terms: map[string]*Grammar{}}
	g.Terms[word] = c
	return c
}

func (g *Grammar) argChild() *Grammar {
	if g.Argument == nil {
		g.Argument = &Grammar{Terms: map[string]*Grammar{}}
	}
	return g.Argument
}

// Insert walks sig's terms into the trie, creating branches as needed, and
// stores sig at the terminal node. Choice terms fan out one branch per
// alternative; Option terms are inserted via both the "skip" (continue
// inserting the remaining terms at the current node) and "include" paths,
// so a call either supplying or omitting the optional word resolves to the
// same signature.
func (g *Grammar) Insert(sig signature.Signature) {
	insertTerms(g, sig.Terms, sig)
}

func insertTerms(node *Grammar, terms []signature.Term, sig signature.Signature) {
	if len(terms) == 0 {
		s := sig
		node.Signature = &s
		return
	}
	switch t := terms[0].(type) {
	case signature.Word:
		insertTerms(node.child(lower(t.Text)), terms[1:], sig)
	case signature.Choice:
		for _, alt := range t.Alternatives {
			insertTerms(node.child(lower(alt)), terms[1:], sig)
		}
	case signature.Option:
		// skip branch: the option contributes nothing at this position.
		insertTerms(node, terms[1:], sig)
		// include branch: one of the alternative words is present.
		for _, alt := range t.Alternatives {
			insertTerms(node.child(lower(alt)), terms[1:], sig)
		}
	case signature.Argument:
		insertTerms(node.argChild(), terms[1:], sig)
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// WordChild returns the trie node reached by matching the literal, lower-
// cased word, if any.
func (g *Grammar) WordChild(word string) (*Grammar, bool) {
	if g == nil || g.Terms == nil {
		return nil, false
	}
	c, ok := g.Terms[lower(word)]
	return c, ok
}

// ArgChild returns the "an argument fits here" branch, if any.
func (g *Grammar) ArgChild() (*Grammar, bool) {
	if g == nil || g.Argument == nil {
		return nil, false
	}
	return g.Argument, true
}

// HasWordContinuation reports whether any literal-word branch exists from
// this node — used by the parser to prefer known variables over identifier
// matches only when no such continuation exists.
func (g *Grammar) HasWordContinuation() bool {
	return g != nil && len(g.Terms) > 0
}

// Complete reports whether this node terminates a declared signature.
func (g *Grammar) Complete() (signature.Signature, bool) {
	if g == nil || g.Signature == nil {
		return signature.Signature{}, false
	}
	return *g.Signature, true
}

// Completions does a small bounded DFS from node to collect example next
// words, for "did you mean" style UnknownExpression diagnostics.
func (g *Grammar) Completions(max int) []string {
	var out []string
	var walk func(n *Grammar, prefix string)
	walk = func(n *Grammar, prefix string) {
		if len(out) >= max || n == nil {
			return
		}
		if n.Signature != nil {
			out = append(out, prefix)
			return
		}
		for word, c := range n.Terms {
			if len(out) >= max {
				return
			}
			next := prefix
			if next != "" {
				next += " "
			}
			next += word
			walk(c, next)
		}
		if n.Argument != nil && len(out) < max {
			next := prefix
			if next != "" {
				next += " "
			}
			next += "{...}"
			walk(n.Argument, next)
		}
	}
	walk(g, "")
	return out
}

// Rebuild constructs a fresh trie from a flat set of signatures — simpler
// than incremental removal when a parser scope ends, and scopes are
// shallow enough that rebuilding is cheap.
func Rebuild(sigs []signature.Signature) *Grammar {
	g := New()
	for _, s := range sigs {
		g.Insert(s)
	}
	return g
}
