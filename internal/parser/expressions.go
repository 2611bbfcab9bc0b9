package parser

import (
	"strconv"

	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/token"
)

// parseExpression is the entry point into the precedence chain:
//
//	clause (and/or) > equality (==, !=, is [not]) > comparison (<, <=, >, >=)
//	> range (...,..<) > additive (+, -) > multiplicative (*, /, %)
//	> power (^, right-assoc) > call (signature-driven) > unary (not, -)
//	> subscript ([...]) > primary
//
// A signature-driven call is attempted at the "call" level; it falls back
// to the fixed chain below it when no grammar path completes, so a call
// argument may itself be a plain literal, variable, or nested call.
func (p *Parser) parseExpression() ast.Expression { return p.parseOr() }

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.check(token.OR) {
		op := p.advance()
		right := p.parseAnd()
		left = p.binary(left, ast.OpOr, right, op)
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseEquality()
	for p.check(token.AND) {
		op := p.advance()
		right := p.parseEquality()
		left = p.binary(left, ast.OpAnd, right, op)
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseComparison()
	for {
		switch {
		case p.check(token.EQUAL), p.check(token.ASSIGN):
			// Sif has no assignment operator, so a bare `=` in expression
			// position is equality, same as `==`.
			p.advance()
			left = p.binary(left, ast.OpEqual, p.parseComparison(), token.Token{})
		case p.check(token.NOT_EQUAL):
			p.advance()
			left = p.binary(left, ast.OpNotEqual, p.parseComparison(), token.Token{})
		case p.check(token.IS):
			p.advance()
			not := p.match(token.NOT)
			right := p.parseComparison()
			if not {
				left = p.binary(left, ast.OpIsNot, right, token.Token{})
			} else {
				left = p.binary(left, ast.OpIs, right, token.Token{})
			}
		default:
			return left
		}
	}
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseRange()
	for {
		var op ast.BinaryOp
		switch p.peek().Type {
		case token.LESS:
			op = ast.OpLess
		case token.LESS_EQUAL:
			op = ast.OpLessEqual
		case token.GREATER:
			op = ast.OpGreater
		case token.GREATER_EQUAL:
			op = ast.OpGreaterEqual
		default:
			return left
		}
		p.advance()
		left = p.binary(left, op, p.parseRange(), token.Token{})
	}
}

func (p *Parser) parseRange() ast.Expression {
	start := p.parseAdditive()
	if p.check(token.RANGE_OPEN) || p.check(token.RANGE_HALF) {
		closed := p.check(token.RANGE_OPEN)
		p.advance()
		end := p.parseAdditive()
		rng := start.Range()
		if end != nil {
			rng = rng.Union(end.Range())
		}
		return &ast.RangeLiteral{Base: ast.Base{Rng: rng}, Start: start, End: end, Closed: closed}
	}
	return start
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := ast.OpAdd
		if p.peek().Type == token.MINUS {
			op = ast.OpSubtract
		}
		p.advance()
		left = p.binary(left, op, p.parseMultiplicative(), token.Token{})
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parsePower()
	for {
		var op ast.BinaryOp
		switch p.peek().Type {
		case token.STAR:
			op = ast.OpMultiply
		case token.SLASH:
			op = ast.OpDivide
		case token.PERCENT:
			op = ast.OpModulo
		default:
			return left
		}
		p.advance()
		left = p.binary(left, op, p.parsePower(), token.Token{})
	}
}

// parsePower is right-associative: 2^3^2 is 2^(3^2).
func (p *Parser) parsePower() ast.Expression {
	left := p.parseCall()
	if p.check(token.CARET) {
		p.advance()
		right := p.parsePower()
		return p.binary(left, ast.OpExponent, right, token.Token{})
	}
	return left
}

func (p *Parser) binary(left ast.Expression, op ast.BinaryOp, right ast.Expression, _ token.Token) ast.Expression {
	if left == nil || right == nil {
		return left
	}
	return &ast.Binary{Base: ast.Base{Rng: left.Range().Union(right.Range())}, Op: op, Left: left, Right: right}
}

// parseCall tries the signature-driven grammar before falling through to
// unary/primary parsing, so a bare literal or variable at this level
// parses exactly as it would with no declared signatures at all. A match
// is attempted for word-led (postfix) calls and, when not already sitting
// at an enclosing argument's start position, for argument-led (prefix)
// calls such as `{x} is odd`.
func (p *Parser) parseCall() ast.Expression {
	allowPrefix := p.argPos != p.pos
	_, hasArg := p.grammar.ArgChild()
	if p.peek().IsWordLike() || (allowPrefix && hasArg) {
		start := p.peek().Range
		if call, ok := p.matchCallAt(p.grammar, nil, nil, allowPrefix); ok {
			call.Rng = start.Union(call.Rng)
			return call
		}
	}
	return p.parseUnary()
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.peek().Type {
	case token.NOT:
		op := p.advance()
		operand := p.parseUnary()
		rng := op.Range
		if operand != nil {
			rng = rng.Union(operand.Range())
		}
		return &ast.Unary{Base: ast.Base{Rng: rng}, Op: ast.OpNot, Operand: operand}
	case token.MINUS:
		op := p.advance()
		operand := p.parseUnary()
		rng := op.Range
		if operand != nil {
			rng = rng.Union(operand.Range())
		}
		return &ast.Unary{Base: ast.Base{Rng: rng}, Op: ast.OpNegate, Operand: operand}
	default:
		return p.parseSubscript()
	}
}

func (p *Parser) parseSubscript() ast.Expression {
	expr := p.parsePrimary()
	for p.check(token.LBRACKET) {
		p.advance()
		index := p.parseExpression()
		end, _ := p.expect(token.RBRACKET, "']'")
		if expr == nil {
			return nil
		}
		expr = &ast.Subscript{Base: ast.Base{Rng: expr.Range().Union(end.Range)}, Target: expr, Index: index}
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expression {
	t := p.peek()
	switch t.Type {
	case token.INT:
		p.advance()
		n, _ := strconv.ParseInt(t.Lexeme, 10, 64)
		return &ast.Literal{Base: ast.Base{Rng: t.Range}, Kind: ast.LiteralInt, Int: n}
	case token.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(t.Lexeme, 64)
		return &ast.Literal{Base: ast.Base{Rng: t.Range}, Kind: ast.LiteralFloat, Flt: f}
	case token.BOOL:
		p.advance()
		return &ast.Literal{Base: ast.Base{Rng: t.Range}, Kind: ast.LiteralBool, Bool: equalFold(t.Lexeme, "true")}
	case token.EMPTY:
		p.advance()
		return &ast.Literal{Base: ast.Base{Rng: t.Range}, Kind: ast.LiteralEmpty}
	case token.STRING:
		p.advance()
		return &ast.Literal{Base: ast.Base{Rng: t.Range}, Kind: ast.LiteralString, Str: t.Literal}
	case token.OPEN_INTERPOLATION:
		return p.parseStringInterpolation()
	case token.WORD:
		p.advance()
		return &ast.Variable{Base: ast.Base{Rng: t.Range}, Name: t.Lexeme}
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		end, _ := p.expect(token.RPAREN, "')'")
		rng := t.Range
		if inner != nil {
			rng = rng.Union(inner.Range())
		}
		rng = rng.Union(end.Range)
		return &ast.Grouping{Base: ast.Base{Rng: rng}, Inner: inner}
	case token.LBRACKET:
		return p.parseListLiteral()
	case token.LBRACE:
		return p.parseDictionaryLiteral()
	case token.ERROR:
		p.errorf(t.Range, "%s", t.Lexeme)
		p.advance()
		return nil
	default:
		p.errorf(t.Range, "unexpected %s; expected an expression", describeToken(t))
		if msgs := p.grammar.Completions(5); len(msgs) > 0 {
			p.errorf(t.Range, "did you mean one of: %v", msgs)
		}
		p.advance()
		return nil
	}
}

func (p *Parser) parseListLiteral() ast.Expression {
	start := p.advance() // '['
	var elems []ast.Expression
	for !p.check(token.RBRACKET) && !p.check(token.EOF) {
		if e := p.parseExpression(); e != nil {
			elems = append(elems, e)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	end, _ := p.expect(token.RBRACKET, "']'")
	return &ast.ListLiteral{Base: ast.Base{Rng: start.Range.Union(end.Range)}, Elements: elems}
}

func (p *Parser) parseDictionaryLiteral() ast.Expression {
	start := p.advance() // '{'
	var keys, values []ast.Expression
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		k := p.parseExpression()
		if _, ok := p.expect(token.COLON, "':'"); !ok {
			break
		}
		v := p.parseExpression()
		keys = append(keys, k)
		values = append(values, v)
		if !p.match(token.COMMA) {
			break
		}
	}
	end, _ := p.expect(token.RBRACE, "'}'")
	return &ast.DictionaryLiteral{Base: ast.Base{Rng: start.Range.Union(end.Range)}, Keys: keys, Values: values}
}

// parseStringInterpolation consumes an already-peeked OPEN_INTERPOLATION
// token and assembles the left-to-right *StringInterpolation chain,
// handing control back to the scanner's string-body scanning after each
// embedded expression.
func (p *Parser) parseStringInterpolation() ast.Expression {
	open := p.advance()
	return p.parseInterpolationTail(open.Range, open.Literal)
}

func (p *Parser) parseInterpolationTail(start token.Range, left string) ast.Expression {
	expr := p.parseExpression()
	if _, ok := p.expect(token.RBRACE, "'}'"); !ok {
		p.synchronize()
	}
	if p.pos >= len(p.tokens) {
		// Only switch the scanner back to string-body mode when the next
		// token has not been scanned yet: during a backtracked replay the
		// INTERPOLATION/CLOSED_INTERPOLATION token is already buffered and
		// the scanner has long since popped this string's terminal.
		p.sc.ResumeInterpolation()
	}
	next := p.advance() // INTERPOLATION or CLOSED_INTERPOLATION
	var right ast.Expression
	rng := start.Union(next.Range)
	switch next.Type {
	case token.CLOSED_INTERPOLATION:
		right = &ast.Literal{Base: ast.Base{Rng: next.Range}, Kind: ast.LiteralString, Str: next.Literal}
	case token.INTERPOLATION:
		right = p.parseInterpolationTail(next.Range, next.Literal)
		rng = start.Union(right.Range())
	default:
		p.errorf(next.Range, "malformed string interpolation")
	}
	return &ast.StringInterpolation{Base: ast.Base{Rng: rng}, Left: left, Expr: expr, Right: right}
}
