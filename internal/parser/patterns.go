package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

func (p *Parser) atPatStart() bool {
	switch p.current() {
	case token.Underscore, token.DotDot, token.Amp, token.AndAnd, token.LParen, token.Minus,
		token.KwTrue, token.KwFalse, token.KwRef, token.KwMut:
		return true
	}
	return p.current().IsLiteral() || p.atPathStart()
}

// patternTop допускает альтернативы верхнего уровня: a | b.
func (p *Parser) patternTop() {
	p.eat(token.Pipe)
	p.pattern()
	for p.eat(token.Pipe) {
		p.pattern()
	}
}

func (p *Parser) pattern() {
	switch cur := p.current(); {
	case cur == token.Underscore:
		m := p.start()
		p.bump()
		m.complete(p, syntax.WildcardPat)
	case cur == token.DotDot:
		m := p.start()
		p.bump()
		m.complete(p, syntax.RestPat)
	case cur == token.Amp || cur == token.AndAnd:
		p.refPat()
	case cur == token.LParen:
		m := p.start()
		p.patList(token.RParen)
		m.complete(p, syntax.TuplePat)
	case cur.IsLiteral() || cur == token.KwTrue || cur == token.KwFalse || cur == token.Minus:
		m := p.start()
		lm := p.start()
		p.eat(token.Minus)
		if p.current().IsLiteral() || p.atAny(token.KwTrue, token.KwFalse) {
			p.bump()
		} else {
			p.error("expected literal")
		}
		lm.complete(p, syntax.Literal)
		m.complete(p, syntax.LiteralPat)
	case cur == token.KwRef || cur == token.KwMut:
		p.identPat()
	case cur == token.Ident && p.nth(1) != token.ColonColon && p.nth(1) != token.LParen &&
		p.nth(1) != token.Bang:
		p.identPat()
	case p.atMacroCall():
		m := p.start()
		p.macroCall()
		m.complete(p, syntax.MacroPat)
	case p.atPathStart():
		m := p.start()
		p.path(pathExpr)
		if p.at(token.LParen) {
			p.patList(token.RParen)
			m.complete(p, syntax.TupleStructPat)
		} else {
			m.complete(p, syntax.PathPat)
		}
	default:
		p.errRecover("expected pattern", token.Comma, token.Eq, token.Colon, token.RParen, token.KwIn, token.Pipe)
	}
}

func (p *Parser) identPat() {
	m := p.start()
	p.eat(token.KwRef)
	p.eat(token.KwMut)
	p.name()
	if p.eat(token.At) {
		p.pattern()
	}
	m.complete(p, syntax.IdentPat)
}

func (p *Parser) refPat() {
	m := p.start()
	if p.at(token.AndAnd) {
		p.bumpPart(token.Amp, 1)
		p.refPat()
		m.complete(p, syntax.RefPat)
		return
	}
	p.bump()
	p.eat(token.KwMut)
	p.pattern()
	m.complete(p, syntax.RefPat)
}

func (p *Parser) patList(closeKind token.Kind) {
	p.bump() // (
	for !p.atEOF() && !p.at(closeKind) {
		p.patternTop()
		if !p.at(closeKind) && !p.expect(token.Comma) {
			break
		}
	}
	p.expect(closeKind)
}
