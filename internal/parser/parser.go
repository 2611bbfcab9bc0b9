// Package parser turns a token stream into Sif's AST. It is a recursive-
// descent parser whose call grammar is signature-driven: wherever an
// expression may start, the parser first tries to match the longest path
// through the current scope's grammar trie before falling back to the
// fixed operator/literal precedence chain.
package parser

import (
	"fmt"

	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/grammar"
	"github.com/atjhc/sif/internal/reader"
	"github.com/atjhc/sif/internal/reporter"
	"github.com/atjhc/sif/internal/scanner"
	"github.com/atjhc/sif/internal/signature"
	"github.com/atjhc/sif/internal/token"
)

// ModuleSignatures is the small surface the parser needs from a module
// loader — just enough to extend the grammar with an imported module's
// exported call forms. It is an interface (rather than a direct dependency
// on internal/modules) because the module loader itself must import the
// parser to compile module bodies; depending on the concrete type here
// would create an import cycle.
type ModuleSignatures interface {
	ExportedSignatures(name string) ([]signature.Signature, error)
}

// Parser parses one reader's worth of source. A fresh Parser is created per
// top-level program or per module body; its grammar starts from a builtin
// base and grows as `function` declarations are parsed. Declarations made
// inside a function body or `using` block retract when it ends, by
// rebuilding the trie from the surviving signature list.
type Parser struct {
	sc       *scanner.Scanner
	src      reader.Reader
	reporter *reporter.Reporter
	loader   ModuleSignatures

	tokens []token.Token
	pos    int

	grammar    *grammar.Grammar
	signatures []signature.Signature

	// argPos is the token index where the innermost in-progress call
	// argument began, or -1. parseCall consults it to avoid re-attempting an
	// argument-leading signature match at the exact position an enclosing
	// argument parse already started — without it, a signature like
	// `{x} is odd` would recurse forever without consuming a token.
	argPos int

	noDebugInfo bool
}

// New creates a parser over src, reporting diagnostics to rep. base seeds
// the grammar with signatures already known going in (the core library's,
// and — for a REPL — every signature declared in prior statements).
func New(src reader.Reader, rep *reporter.Reporter, base []signature.Signature) *Parser {
	p := &Parser{
		sc:         scanner.New(src),
		src:        src,
		reporter:   rep,
		grammar:    grammar.New(),
		signatures: append([]signature.Signature(nil), base...),
		argPos:     -1,
	}
	for _, s := range p.signatures {
		p.grammar.Insert(s)
	}
	return p
}

// beginSignatureScope marks the current extent of declared signatures;
// endSignatureScope retracts everything declared since and rebuilds the
// trie from what remains — rebuilding is simpler than incremental removal
// and these scopes are shallow. Used around function bodies and `using`
// blocks, whose declarations are not visible outside.
func (p *Parser) beginSignatureScope() int { return len(p.signatures) }

func (p *Parser) endSignatureScope(mark int) {
	if len(p.signatures) == mark {
		return
	}
	p.signatures = p.signatures[:mark]
	p.grammar = grammar.Rebuild(p.signatures)
}

// SetModuleSignatures wires a module loader so `use`/`using` can extend the
// grammar with an imported module's exported call forms.
func (p *Parser) SetModuleSignatures(l ModuleSignatures) { p.loader = l }

// SetNoDebugInfo matches the CLI's `-n` flag: when set, the compiler that
// consumes this parser's output should skip recording per-argument source
// ranges. The parser itself always records them; the flag is threaded
// through so callers can decide at the bytecode layer.
func (p *Parser) SetNoDebugInfo(v bool) { p.noDebugInfo = v }

// Signatures returns every signature known to the parser once parsing
// finishes — a REPL driver uses this to seed the next statement's Parser.
func (p *Parser) Signatures() []signature.Signature { return p.signatures }

// Parse parses the whole source as a top-level block of statements.
func (p *Parser) Parse() *ast.Block {
	b := p.parseBlockUntil()
	if !p.check(token.EOF) {
		p.errorf(p.peek().Range, "unexpected %s", describeToken(p.peek()))
	}
	return b
}

// checkpoint is an opaque rewind point: a token index plus the number of
// diagnostics reported so far, so a backtracked speculative parse (a failed
// grammar-trie branch) also retracts any errors it reported along the way.
type checkpoint struct {
	pos         int
	diagnostics int
}

func (p *Parser) mark() checkpoint {
	return checkpoint{pos: p.pos, diagnostics: p.reporter.Count()}
}

func (p *Parser) rewind(c checkpoint) {
	p.pos = c.pos
	p.reporter.Truncate(c.diagnostics)
}

// commit is a no-op; it exists so call sites read symmetrically with mark/
// rewind at the point where backtracking is abandoned in favor of the
// parse just completed.
func (p *Parser) commit(checkpoint) {}

func (p *Parser) fill(n int) {
	for len(p.tokens) <= n {
		p.tokens = append(p.tokens, p.sc.NextToken())
	}
}

func (p *Parser) peekAt(offset int) token.Token {
	p.fill(p.pos + offset)
	return p.tokens[p.pos+offset]
}

func (p *Parser) peek() token.Token { return p.peekAt(0) }

func (p *Parser) advance() token.Token {
	t := p.peek()
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt token.Type) bool { return p.peek().Type == tt }

func (p *Parser) match(tt token.Type) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

// matchWord reports whether the current token is a bare WORD whose lexeme
// equals word, case-insensitively (used for soft keywords like "each" that
// are not reserved but are significant in a few statement headers).
func (p *Parser) matchWord(word string) bool {
	if p.check(token.WORD) && equalFold(p.peek().Lexeme, word) {
		p.advance()
		return true
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func (p *Parser) expect(tt token.Type, what string) (token.Token, bool) {
	if p.check(tt) {
		return p.advance(), true
	}
	p.errorf(p.peek().Range, "expected %s, found %s", what, describeToken(p.peek()))
	return token.Token{}, false
}

func describeToken(t token.Token) string {
	if t.Type == token.EOF {
		return "end of input"
	}
	if t.Type == token.NEWLINE {
		return "end of line"
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

func (p *Parser) errorf(rng token.Range, format string, args ...interface{}) {
	p.reporter.Report(rng, format, args...)
}

// skipNewlines consumes any run of NEWLINE tokens, used between statements
// and around block delimiters where blank lines are insignificant.
func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) {
		p.advance()
	}
}

// endOfStatement requires a NEWLINE or EOF, reporting an error and
// synchronizing otherwise. ELSE is tolerated without being consumed so the
// single-line `if c then stmt else stmt` form can terminate its then-branch.
func (p *Parser) endOfStatement() {
	if p.check(token.NEWLINE) || p.check(token.EOF) || p.check(token.ELSE) {
		p.skipNewlines()
		return
	}
	p.errorf(p.peek().Range, "expected end of line, found %s", describeToken(p.peek()))
	p.synchronize()
}

// synchronize discards tokens through the next NEWLINE (or EOF), the
// standard recovery point between statements.
func (p *Parser) synchronize() {
	for !p.check(token.NEWLINE) && !p.check(token.EOF) {
		p.advance()
	}
	p.skipNewlines()
}

func isBlockTerminator(t token.Token) bool {
	switch t.Type {
	case token.END, token.ELSE, token.EOF:
		return true
	default:
		return false
	}
}
