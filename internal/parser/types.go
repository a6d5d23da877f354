package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

func (p *Parser) atTypeStart() bool {
	switch p.current() {
	case token.Amp, token.AndAnd, token.LParen, token.LBracket, token.Bang, token.Underscore:
		return true
	}
	return p.atPathStart()
}

func (p *Parser) typ() {
	switch p.current() {
	case token.Amp, token.AndAnd:
		p.refType()
	case token.LParen:
		m := p.start()
		p.bump()
		for !p.atEOF() && !p.at(token.RParen) {
			p.typ()
			if !p.at(token.RParen) && !p.expect(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
		m.complete(p, syntax.TupleType)
	case token.LBracket:
		m := p.start()
		p.bump()
		p.typ()
		kind := syntax.SliceType
		if p.eat(token.Semi) {
			p.expr()
			kind = syntax.ArrayType
		}
		p.expect(token.RBracket)
		m.complete(p, kind)
	case token.Bang:
		m := p.start()
		p.bump()
		m.complete(p, syntax.NeverType)
	case token.Underscore:
		m := p.start()
		p.bump()
		m.complete(p, syntax.InferType)
	default:
		switch {
		case p.atMacroCall():
			m := p.start()
			p.macroCall()
			m.complete(p, syntax.MacroType)
		case p.atPathStart():
			m := p.start()
			p.path(pathType)
			m.complete(p, syntax.PathType)
		default:
			p.errRecover("expected type", token.Comma, token.Semi, token.RParen, token.RBracket, token.Eq, token.Gt)
		}
	}
}

// refType: &'a mut T; '&&' даёт два вложенных RefType.
func (p *Parser) refType() {
	m := p.start()
	if p.at(token.AndAnd) {
		p.bumpPart(token.Amp, 1)
		p.refType()
		m.complete(p, syntax.RefType)
		return
	}
	p.bump()
	p.eat(token.Lifetime)
	p.eat(token.KwMut)
	p.typ()
	m.complete(p, syntax.RefType)
}
