package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

type pathMode uint8

const (
	pathMod  pathMode = iota // без generic-аргументов (use, атрибуты, макросы)
	pathType                 // Foo<T>
	pathExpr                 // Foo::<T>
)

func isPathSegmentStart(k token.Kind) bool {
	return k == token.Ident || token.IsPathSegmentKeyword(k)
}

func (p *Parser) atPathStart() bool {
	cur := p.current()
	if cur == token.ColonColon {
		return isPathSegmentStart(p.nth(1))
	}
	return isPathSegmentStart(cur)
}

// pathLen возвращает число токенов простого пути (::a::b) начиная с n-го,
// или 0, если там нет пути.
func (p *Parser) pathLen(n int) int {
	i := n
	if p.nth(i) == token.ColonColon {
		i++
	}
	if !isPathSegmentStart(p.nth(i)) {
		return 0
	}
	i++
	for p.nth(i) == token.ColonColon && isPathSegmentStart(p.nth(i+1)) {
		i += 2
	}
	return i - n
}

// atMacroCall reports whether the input continues with `path ! (` (or [ {).
func (p *Parser) atMacroCall() bool {
	n := p.pathLen(0)
	if n == 0 {
		return false
	}
	return p.nth(n) == token.Bang && p.nth(n+1).IsOpenDelim()
}

// macroCallDelim returns the opening delimiter of the macro call at the
// current position. Only valid after atMacroCall.
func (p *Parser) macroCallDelim() token.Kind {
	return p.nth(p.pathLen(0) + 1)
}

func (p *Parser) path(mode pathMode) {
	m := p.start()
	p.eat(token.ColonColon)
	p.pathSegment(mode)
	for p.at(token.ColonColon) && isPathSegmentStart(p.nth(1)) {
		p.bump()
		p.pathSegment(mode)
	}
	m.complete(p, syntax.Path)
}

func (p *Parser) pathSegment(mode pathMode) {
	m := p.start()
	if isPathSegmentStart(p.current()) {
		n := p.start()
		p.bump()
		n.complete(p, syntax.NameRef)
	} else {
		p.error("expected path segment")
	}
	switch mode {
	case pathType:
		if p.at(token.Lt) {
			p.genericArgs()
		} else if p.at(token.ColonColon) && p.nth(1) == token.Lt {
			p.bump()
			p.genericArgs()
		}
	case pathExpr:
		if p.at(token.ColonColon) && p.nth(1) == token.Lt {
			p.bump()
			p.genericArgs()
		}
	}
	m.complete(p, syntax.PathSegment)
}

// genericArgs: <T, 'a, U>
func (p *Parser) genericArgs() {
	m := p.start()
	p.bump() // <
	for !p.atEOF() && !p.atGt() {
		if p.at(token.Lifetime) {
			p.bump()
		} else if p.atTypeStart() {
			p.typ()
		} else {
			p.errRecover("expected generic argument", token.Comma)
			if !p.at(token.Comma) {
				break
			}
		}
		if !p.atGt() && !p.expect(token.Comma) {
			break
		}
	}
	p.expectGt()
	m.complete(p, syntax.GenericArgList)
}

// genericParams: <'a, T: Bound + 'a>
func (p *Parser) genericParams() {
	m := p.start()
	p.bump() // <
	for !p.atEOF() && !p.atGt() {
		switch {
		case p.at(token.Lifetime):
			pm := p.start()
			p.bump()
			if p.eat(token.Colon) {
				p.typeBounds()
			}
			pm.complete(p, syntax.LifetimeParam)
		case p.at(token.Ident):
			pm := p.start()
			p.name()
			if p.eat(token.Colon) {
				p.typeBounds()
			}
			if p.eat(token.Eq) {
				p.typ()
			}
			pm.complete(p, syntax.TypeParam)
		default:
			p.errRecover("expected generic parameter", token.Comma)
			if !p.at(token.Comma) {
				break
			}
		}
		if !p.atGt() && !p.expect(token.Comma) {
			break
		}
	}
	p.expectGt()
	m.complete(p, syntax.GenericParamList)
}

func (p *Parser) typeBounds() {
	m := p.start()
	for {
		switch {
		case p.at(token.Lifetime):
			p.bump()
		case p.atPathStart():
			p.path(pathType)
		default:
			m.complete(p, syntax.TypeBoundList)
			return
		}
		if !p.eat(token.Plus) {
			break
		}
	}
	m.complete(p, syntax.TypeBoundList)
}

func (p *Parser) name() {
	m := p.start()
	if p.at(token.Ident) {
		p.bump()
	} else {
		p.error("expected name")
	}
	m.complete(p, syntax.Name)
}

func (p *Parser) nameRef() {
	m := p.start()
	p.bump()
	m.complete(p, syntax.NameRef)
}
