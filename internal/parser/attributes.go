package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

func (p *Parser) atOuterAttr() bool {
	return p.at(token.Pound) && p.nth(1) == token.LBracket
}

func (p *Parser) atInnerAttr() bool {
	return p.at(token.Pound) && p.nth(1) == token.Bang && p.nth(2) == token.LBracket
}

func (p *Parser) outerAttrs() {
	for p.atOuterAttr() {
		p.attr(false)
	}
}

func (p *Parser) innerAttrs() {
	for p.atInnerAttr() {
		p.attr(true)
	}
}

// attr разбирает #[meta] или #![meta].
func (p *Parser) attr(inner bool) {
	m := p.start()
	p.bump() // #
	if inner {
		p.bump() // !
	}
	if p.expect(token.LBracket) {
		p.meta()
		if !p.eat(token.RBracket) {
			p.error("expected `]`")
			for !p.atEOF() && !p.at(token.RBracket) && !p.at(token.RBrace) {
				p.bump()
			}
			p.eat(token.RBracket)
		}
	}
	m.complete(p, syntax.Attr)
}

// meta: path, path(tt), path[tt], path{tt} или path = expr.
func (p *Parser) meta() {
	m := p.start()
	if p.atPathStart() {
		p.path(pathMod)
	} else {
		p.error("expected attribute path")
	}
	switch {
	case p.current().IsOpenDelim():
		p.tokenTree()
	case p.at(token.Eq):
		p.bump()
		p.expr()
	}
	m.complete(p, syntax.Meta)
}

// tokenTree разбирает сбалансированную группу как плоскую последовательность
// токенов. Чужая закрывающая скобка не съедается.
func (p *Parser) tokenTree() {
	m := p.start()
	open := p.current()
	closeKind := closerOf(open)
	p.bump()
	for !p.atEOF() {
		cur := p.current()
		if cur.IsCloseDelim() {
			break
		}
		if cur.IsOpenDelim() {
			p.tokenTree()
			continue
		}
		p.bump()
	}
	if !p.eat(closeKind) {
		p.error("unclosed delimiter, expected " + describe(closeKind))
	}
	m.complete(p, syntax.TokenTree)
}

func closerOf(open token.Kind) token.Kind {
	switch open {
	case token.LParen:
		return token.RParen
	case token.LBracket:
		return token.RBracket
	default:
		return token.RBrace
	}
}
