package parser

import (
	"github.com/atjhc/sif/internal/ast"
	"github.com/atjhc/sif/internal/token"
)

// parseBlockUntil parses statements until a block terminator (END, ELSE, or
// EOF) is seen, consuming the blank lines before the terminator but not the
// terminator itself.
func (p *Parser) parseBlockUntil() *ast.Block {
	start := p.peek().Range
	var stmts []ast.Statement
	p.skipNewlines()
	for !isBlockTerminator(p.peek()) {
		if s := p.parseStatement(); s != nil {
			stmts = append(stmts, s)
		}
		p.skipNewlines()
	}
	rng := start
	if n := len(stmts); n > 0 {
		rng = stmts[0].Range().Union(stmts[n-1].Range())
	}
	return ast.NewBlock(rng, stmts)
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.peek().Type {
	case token.FUNCTION:
		return p.parseFunctionDecl()
	case token.IF:
		return p.parseIf()
	case token.TRY:
		return p.parseTry()
	case token.USE:
		return p.parseUse()
	case token.USING:
		return p.parseUsing()
	case token.SET:
		return p.parseAssignment()
	case token.RETURN:
		return p.parseReturn()
	case token.REPEAT:
		return p.parseRepeat()
	case token.EXIT:
		return p.parseExitRepeat()
	case token.NEXT:
		return p.parseNextRepeat()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseAssignment() ast.Statement {
	start := p.advance().Range // SET

	targets := []ast.Target{p.parseTarget()}
	for p.match(token.COMMA) {
		targets = append(targets, p.parseTarget())
	}

	if _, ok := p.expect(token.TO, "'to'"); !ok {
		p.synchronize()
		return nil
	}
	value := p.parseExpression()
	rng := start
	if value != nil {
		rng = start.Union(value.Range())
	}
	p.endOfStatement()
	return &ast.Assignment{Base: ast.Base{Rng: rng}, Targets: targets, Value: value}
}

func (p *Parser) parseTarget() ast.Target {
	if p.check(token.LPAREN) {
		start := p.advance().Range
		targets := []ast.Target{p.parseTarget()}
		for p.match(token.COMMA) {
			targets = append(targets, p.parseTarget())
		}
		end, _ := p.expect(token.RPAREN, "')'")
		return &ast.StructuredTarget{Base: ast.Base{Rng: start.Union(end.Range)}, Targets: targets}
	}

	start := p.peek().Range
	scope := ast.ScopeUnspecified
	if p.match(token.GLOBAL) {
		scope = ast.ScopeGlobal
	} else if p.match(token.LOCAL) {
		scope = ast.ScopeLocal
	}

	nameTok, _ := p.expect(token.WORD, "a variable name")
	typeName := ""
	if p.match(token.COLON) {
		if t, ok := p.expect(token.WORD, "a type name"); ok {
			typeName = t.Lexeme
		}
	}
	var subs []ast.Expression
	rng := start.Union(nameTok.Range)
	for p.check(token.LBRACKET) {
		p.advance()
		idx := p.parseExpression()
		end, _ := p.expect(token.RBRACKET, "']'")
		rng = rng.Union(end.Range)
		subs = append(subs, idx)
	}
	return &ast.VariableTarget{
		Base: ast.Base{Rng: rng}, Name: nameTok.Lexeme, Scope: scope,
		TypeName: typeName, Subscripts: subs,
	}
}

func (p *Parser) parseReturn() ast.Statement {
	start := p.advance().Range // RETURN
	rng := start
	var value ast.Expression
	if !p.check(token.NEWLINE) && !p.check(token.EOF) {
		value = p.parseExpression()
		if value != nil {
			rng = rng.Union(value.Range())
		}
	}
	p.endOfStatement()
	return &ast.Return{Base: ast.Base{Rng: rng}, Value: value}
}

func (p *Parser) parseExitRepeat() ast.Statement {
	start := p.advance().Range // EXIT
	end, _ := p.expect(token.REPEAT, "'repeat'")
	p.endOfStatement()
	return &ast.ExitRepeat{Base: ast.Base{Rng: start.Union(end.Range)}}
}

func (p *Parser) parseNextRepeat() ast.Statement {
	start := p.advance().Range // NEXT
	end, _ := p.expect(token.REPEAT, "'repeat'")
	p.endOfStatement()
	return &ast.NextRepeat{Base: ast.Base{Rng: start.Union(end.Range)}}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	start := p.peek().Range
	expr := p.parseExpression()
	if expr == nil {
		p.synchronize()
		return nil
	}
	rng := start.Union(expr.Range())
	p.endOfStatement()
	return &ast.ExpressionStatement{Base: ast.Base{Rng: rng}, Expr: expr}
}

func (p *Parser) parseUse() ast.Statement {
	start := p.advance().Range // USE
	name, rng := p.parseModuleName(start)
	p.extendGrammarFromModule(name)
	p.endOfStatement()
	return &ast.Use{Base: ast.Base{Rng: rng}, ModuleName: name}
}

func (p *Parser) parseUsing() ast.Statement {
	start := p.advance().Range // USING
	name, rng := p.parseModuleName(start)
	// The module's call forms are visible only for the statement or block
	// that follows; the grammar is rebuilt without them afterward.
	sigScope := p.beginSignatureScope()
	p.extendGrammarFromModule(name)

	if !p.check(token.NEWLINE) {
		body := p.parseStatement()
		p.endSignatureScope(sigScope)
		end := rng
		if body != nil {
			end = body.Range()
		}
		return &ast.Using{Base: ast.Base{Rng: rng.Union(end)}, ModuleName: name, Body: body}
	}

	p.skipNewlines()
	body := p.parseBlockUntil()
	p.endSignatureScope(sigScope)
	end, _ := p.expect(token.END, "'end'")
	p.match(token.USING)
	p.endOfStatement()
	return &ast.Using{Base: ast.Base{Rng: rng.Union(end.Range)}, ModuleName: name, Body: body}
}

func (p *Parser) parseModuleName(start token.Range) (string, token.Range) {
	if p.check(token.STRING) {
		t := p.advance()
		return t.Literal, start.Union(t.Range)
	}
	t, _ := p.expect(token.WORD, "a module name")
	return t.Lexeme, start.Union(t.Range)
}

// extendGrammarFromModule asks the wired module loader for name's exported
// call forms and folds them into this parser's grammar so subsequent
// statements can call into the module without further qualification.
func (p *Parser) extendGrammarFromModule(name string) {
	if p.loader == nil {
		return
	}
	sigs, err := p.loader.ExportedSignatures(name)
	if err != nil {
		p.errorf(p.peek().Range, "cannot load module %q: %v", name, err)
		return
	}
	for _, s := range sigs {
		p.grammar.Insert(s)
		p.signatures = append(p.signatures, s)
	}
}
