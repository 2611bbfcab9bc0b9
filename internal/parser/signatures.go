package parser

import (
	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/signature"
	"github.com/atjhc/sif/internal/token"
)

// parseSignatureHeader parses the term sequence following `function`:
//
//	function the size of {list}
//	function put {value} into (the/a) bucket [quietly]
//
// Bare words (and soft keywords) become signature.Word terms; `(a/b)`
// becomes a required signature.Choice; `[a/b]` becomes an optional
// signature.Option; `{name}`, `{name: Type}`, or `{a, b}` becomes a
// signature.Argument, producing one ast.Target per declared parameter in
// call order.
func (p *Parser) parseSignatureHeader() (signature.Signature, []ast.Target, bool) {
	var terms []signature.Term
	var params []ast.Target

	for !p.check(token.NEWLINE) && !p.check(token.EOF) {
		switch {
		case p.check(token.LPAREN):
			p.advance()
			alts, ok := p.parseWordAlternatives(token.RPAREN)
			if !ok {
				return signature.Signature{}, nil, false
			}
			terms = append(terms, signature.Choice{Alternatives: alts})

		case p.check(token.LBRACKET):
			p.advance()
			alts, ok := p.parseWordAlternatives(token.RBRACKET)
			if !ok {
				return signature.Signature{}, nil, false
			}
			terms = append(terms, signature.Option{Alternatives: alts})

		case p.check(token.LBRACE):
			start := p.advance()
			nameTok, ok := p.expect(token.WORD, "a parameter name")
			if !ok {
				return signature.Signature{}, nil, false
			}
			names := []string{nameTok.Lexeme}
			rng := start.Range.Union(nameTok.Range)
			for p.match(token.COMMA) {
				t, ok := p.expect(token.WORD, "a parameter name")
				if !ok {
					return signature.Signature{}, nil, false
				}
				names = append(names, t.Lexeme)
				rng = rng.Union(t.Range)
			}
			typeName := ""
			if p.match(token.COLON) {
				if t, ok := p.expect(token.WORD, "a type name"); ok {
					typeName = t.Lexeme
					rng = rng.Union(t.Range)
				}
			}
			end, ok := p.expect(token.RBRACE, "'}'")
			if !ok {
				return signature.Signature{}, nil, false
			}
			rng = rng.Union(end.Range)
			terms = append(terms, signature.Argument{Names: names, TypeName: typeName})
			params = append(params, newArgumentTarget(rng, names, typeName))

		case p.peek().IsWordLike():
			t := p.advance()
			terms = append(terms, signature.Word{Text: t.Lexeme})

		default:
			p.errorf(p.peek().Range, "expected a signature word, choice, option, or argument, found %s", describeToken(p.peek()))
			return signature.Signature{}, nil, false
		}
	}

	if len(terms) == 0 {
		p.errorf(p.peek().Range, "function declaration requires at least one signature word")
		return signature.Signature{}, nil, false
	}
	return signature.Signature{Terms: terms}, params, true
}

// newArgumentTarget builds the parameter Target for one Argument term: a
// plain VariableTarget for a single name, or a StructuredTarget destructuring
// the call-site argument across several names (e.g. `{key, value}`).
func newArgumentTarget(rng token.Range, names []string, typeName string) ast.Target {
	if len(names) == 1 {
		return &ast.VariableTarget{Base: ast.Base{Rng: rng}, Name: names[0], TypeName: typeName}
	}
	targets := make([]ast.Target, len(names))
	for i, n := range names {
		targets[i] = &ast.VariableTarget{Base: ast.Base{Rng: rng}, Name: n}
	}
	return &ast.StructuredTarget{Base: ast.Base{Rng: rng}, Targets: targets}
}

func (p *Parser) parseWordAlternatives(closing token.Type) ([]string, bool) {
	first, ok := p.expect(token.WORD, "a word")
	if !ok {
		return nil, false
	}
	alts := []string{first.Lexeme}
	for p.match(token.SLASH) {
		t, ok := p.expect(token.WORD, "a word")
		if !ok {
			return nil, false
		}
		alts = append(alts, t.Lexeme)
	}
	if _, ok := p.expect(closing, closingName(closing)); !ok {
		return nil, false
	}
	return alts, true
}

func closingName(tt token.Type) string {
	switch tt {
	case token.RPAREN:
		return "')'"
	case token.RBRACKET:
		return "']'"
	case token.RBRACE:
		return "'}'"
	default:
		return tt.String()
	}
}
