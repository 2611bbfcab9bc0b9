package parser

import (
	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/grammar"
	"github.com/atjhc/sif/internal/token"
)

// matchCallAt walks node depth-first, preferring to extend the match
// (another word, or another argument) before accepting a complete
// signature at the current depth — the grammar's longest-match rule.
// args/ranges accumulate the arguments
// parsed so far at this path; each branch receives its own copy so a
// failed, backtracked branch can't leave stale entries for a sibling
// branch to see. allowArg is false only for the root node of a match
// attempted at the exact position an enclosing argument parse began —
// the guard that keeps argument-leading signatures from recursing
// without consuming a token (see Parser.argPos).
func (p *Parser) matchCallAt(node *grammar.Grammar, args []ast.Expression, ranges []token.Range, allowArg bool) (*ast.Call, bool) {
	if tok := p.peek(); tok.IsWordLike() {
		if child, ok := node.WordChild(tok.Lexeme); ok {
			mark := p.mark()
			p.advance()
			if call, ok := p.matchCallAt(child, args, ranges, true); ok {
				return call, true
			}
			p.rewind(mark)
		}
	}

	if child, ok := node.ArgChild(); ok && allowArg {
		mark := p.mark()
		if arg, rng, ok := p.parseArgument(); ok {
			nextArgs := append(append([]ast.Expression(nil), args...), arg)
			nextRanges := append(append([]token.Range(nil), ranges...), rng)
			if call, ok := p.matchCallAt(child, nextArgs, nextRanges, true); ok {
				return call, true
			}
		}
		p.rewind(mark)
	}

	if sig, ok := node.Complete(); ok {
		rng := p.peek().Range
		if p.pos > 0 {
			rng = p.tokens[p.pos-1].Range
		}
		if n := len(ranges); n > 0 {
			rng = ranges[0].Union(ranges[n-1])
		}
		return &ast.Call{
			Base:      ast.Base{Rng: rng},
			Arguments: append([]ast.Expression(nil), args...),
			Ranges:    append([]token.Range(nil), ranges...),
			Signature: sig,
		}, true
	}
	return nil, false
}

// parseArgument parses one call argument. Arguments sit at comparison
// precedence: they may themselves be arithmetic expressions, nested calls,
// or comparisons, but not a bare `and`/`or` clause, which always belongs to
// the enclosing statement (an `if`/`repeat while` condition, say) rather
// than to the argument slot.
func (p *Parser) parseArgument() (ast.Expression, token.Range, bool) {
	prev := p.argPos
	p.argPos = p.pos
	defer func() { p.argPos = prev }()

	start := p.peek().Range
	expr := p.parseComparison()
	if expr == nil {
		return nil, start, false
	}
	return expr, expr.Range(), true
}
