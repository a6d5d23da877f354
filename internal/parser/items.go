package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

// itemList — основной цикл уровня модуля: пока не stop — item.
func (p *Parser) itemList(stop token.Kind) {
	for !p.atEOF() && !p.at(stop) {
		if !p.item() {
			p.errAndBump("expected item")
		}
	}
}

// item разбирает атрибуты и следующий за ними item. Возвращает false, если
// на текущей позиции нет ни атрибутов, ни item.
func (p *Parser) item() bool {
	m := p.start()
	p.outerAttrs()
	if p.itemAfterAttrs(m) {
		return true
	}
	if len(p.events) > m.pos+1 {
		p.error("expected item after attributes")
		m.complete(p, syntax.Error)
		return true
	}
	m.abandon(p)
	return false
}

// itemAfterAttrs выбирает по первому токену нужный распознаватель item.
// m уже содержит внешние атрибуты.
func (p *Parser) itemAfterAttrs(m Marker) bool {
	hasVis := false
	if p.at(token.KwPub) {
		p.visibility()
		hasVis = true
	}
	switch p.current() {
	case token.KwFn:
		p.fnItem()
		m.complete(p, syntax.Fn)
	case token.KwStruct:
		p.structItem()
		m.complete(p, syntax.Struct)
	case token.KwMod:
		p.moduleItem()
		m.complete(p, syntax.Module)
	case token.KwConst:
		p.constItem()
		m.complete(p, syntax.Const)
	case token.KwStatic:
		p.staticItem()
		m.complete(p, syntax.Static)
	case token.KwImpl:
		p.implItem()
		m.complete(p, syntax.Impl)
	case token.KwUse:
		p.bump()
		p.useTree()
		p.expect(token.Semi)
		m.complete(p, syntax.Use)
	default:
		switch {
		case p.atContextual(0, "macro_rules") && p.nth(1) == token.Bang && p.nth(2) == token.Ident:
			p.macroRules()
			m.complete(p, syntax.MacroRules)
		case p.atMacroCall():
			delim := p.macroCallDelim()
			p.path(pathMod)
			p.bump() // !
			p.tokenTree()
			if delim != token.LBrace {
				p.expect(token.Semi)
			}
			m.complete(p, syntax.MacroCall)
		case hasVis:
			p.error("expected item after visibility")
			m.complete(p, syntax.Error)
		default:
			return false
		}
	}
	return true
}

// macroCall разбирает path!(...) вне позиции item.
func (p *Parser) macroCall() CompletedMarker {
	m := p.start()
	p.path(pathMod)
	p.expect(token.Bang)
	if p.current().IsOpenDelim() {
		p.tokenTree()
	} else {
		p.error("expected delimited macro arguments")
	}
	return m.complete(p, syntax.MacroCall)
}

func (p *Parser) macroRules() {
	p.bump() // macro_rules
	p.bump() // !
	p.name()
	if !p.current().IsOpenDelim() {
		p.error("expected macro body")
		return
	}
	delim := p.current()
	p.tokenTree()
	if delim != token.LBrace {
		p.expect(token.Semi)
	}
}

// visibility: pub, pub(crate), pub(self), pub(super), pub(in path).
func (p *Parser) visibility() {
	if !p.at(token.KwPub) {
		return
	}
	m := p.start()
	p.bump()
	if p.at(token.LParen) {
		switch p.nth(1) {
		case token.KwCrate, token.KwSelf, token.KwSuper:
			if p.nth(2) == token.RParen {
				p.bump()
				p.bump()
				p.bump()
			}
		case token.KwIn:
			p.bump()
			p.bump()
			p.path(pathMod)
			p.expect(token.RParen)
		}
	}
	m.complete(p, syntax.Visibility)
}

func (p *Parser) fnItem() {
	p.bump() // fn
	p.name()
	if p.at(token.Lt) {
		p.genericParams()
	}
	p.paramList()
	if p.at(token.Arrow) {
		m := p.start()
		p.bump()
		p.typ()
		m.complete(p, syntax.RetType)
	}
	if p.at(token.LBrace) {
		p.blockExpr()
	} else {
		p.expect(token.Semi)
	}
}

func (p *Parser) atSelfParam() bool {
	i := 0
	if p.nth(i) == token.Amp {
		i++
		if p.nth(i) == token.Lifetime {
			i++
		}
	}
	if p.nth(i) == token.KwMut {
		i++
	}
	return p.nth(i) == token.KwSelf && p.nth(i+1) != token.ColonColon
}

func (p *Parser) paramList() {
	m := p.start()
	if !p.expect(token.LParen) {
		m.complete(p, syntax.ParamList)
		return
	}
	if p.atSelfParam() {
		sm := p.start()
		if p.eat(token.Amp) {
			p.eat(token.Lifetime)
		}
		p.eat(token.KwMut)
		n := p.start()
		p.bump() // self
		n.complete(p, syntax.Name)
		if p.eat(token.Colon) {
			p.typ()
		}
		sm.complete(p, syntax.SelfParam)
		if !p.at(token.RParen) {
			p.expect(token.Comma)
		}
	}
	for !p.atEOF() && !p.at(token.RParen) {
		if !p.atPatStart() {
			p.errRecover("expected parameter", token.Comma)
			if !p.eat(token.Comma) {
				break
			}
			continue
		}
		pm := p.start()
		p.outerAttrs()
		p.patternTop()
		p.expect(token.Colon)
		p.typ()
		pm.complete(p, syntax.Param)
		if !p.at(token.RParen) && !p.expect(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	m.complete(p, syntax.ParamList)
}

func (p *Parser) structItem() {
	p.bump() // struct
	p.name()
	if p.at(token.Lt) {
		p.genericParams()
	}
	switch p.current() {
	case token.LBrace:
		p.recordFieldList()
	case token.LParen:
		p.tupleFieldList()
		p.expect(token.Semi)
	default:
		p.expect(token.Semi)
	}
}

func (p *Parser) recordFieldList() {
	m := p.start()
	p.bump() // {
	for !p.atEOF() && !p.at(token.RBrace) {
		f := p.start()
		p.outerAttrs()
		p.visibility()
		if !p.at(token.Ident) {
			f.abandon(p)
			p.errRecover("expected field", token.Comma)
			if p.eat(token.Comma) {
				continue
			}
			break
		}
		p.name()
		p.expect(token.Colon)
		p.typ()
		f.complete(p, syntax.RecordField)
		if !p.at(token.RBrace) && !p.expect(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	m.complete(p, syntax.RecordFieldList)
}

func (p *Parser) tupleFieldList() {
	m := p.start()
	p.bump() // (
	for !p.atEOF() && !p.at(token.RParen) {
		f := p.start()
		p.outerAttrs()
		p.visibility()
		p.typ()
		f.complete(p, syntax.TupleField)
		if !p.at(token.RParen) && !p.expect(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	m.complete(p, syntax.TupleFieldList)
}

func (p *Parser) moduleItem() {
	p.bump() // mod
	p.name()
	if !p.at(token.LBrace) {
		p.expect(token.Semi)
		return
	}
	m := p.start()
	p.bump()
	p.innerAttrs()
	p.itemList(token.RBrace)
	p.expect(token.RBrace)
	m.complete(p, syntax.ItemList)
}

func (p *Parser) constItem() {
	p.bump() // const
	if p.at(token.Underscore) {
		p.bump()
	} else {
		p.name()
	}
	p.expect(token.Colon)
	p.typ()
	if p.eat(token.Eq) {
		p.expr()
	}
	p.expect(token.Semi)
}

func (p *Parser) staticItem() {
	p.bump() // static
	p.eat(token.KwMut)
	p.name()
	p.expect(token.Colon)
	p.typ()
	if p.eat(token.Eq) {
		p.expr()
	}
	p.expect(token.Semi)
}

func (p *Parser) implItem() {
	p.bump() // impl
	if p.at(token.Lt) {
		p.genericParams()
	}
	p.typ()
	if p.eat(token.KwFor) {
		p.typ()
	}
	m := p.start()
	if !p.expect(token.LBrace) {
		m.complete(p, syntax.AssocItemList)
		return
	}
	p.innerAttrs()
	p.itemList(token.RBrace)
	p.expect(token.RBrace)
	m.complete(p, syntax.AssocItemList)
}

func (p *Parser) useTree() {
	m := p.start()
	switch {
	case p.at(token.Star):
		p.bump()
	case p.at(token.LBrace):
		p.useTreeList()
	case p.at(token.ColonColon) && (p.nth(1) == token.Star || p.nth(1) == token.LBrace):
		p.bump()
		if p.at(token.Star) {
			p.bump()
		} else {
			p.useTreeList()
		}
	case p.atPathStart():
		p.path(pathMod)
		switch {
		case p.at(token.ColonColon):
			p.bump()
			switch {
			case p.at(token.Star):
				p.bump()
			case p.at(token.LBrace):
				p.useTreeList()
			default:
				p.error("expected `*` or `{`")
			}
		case p.at(token.KwAs):
			p.bump()
			if !p.eat(token.Underscore) {
				p.name()
			}
		}
	default:
		p.errRecover("expected use tree", token.Semi, token.Comma)
	}
	m.complete(p, syntax.UseTree)
}

func (p *Parser) useTreeList() {
	m := p.start()
	p.bump() // {
	for !p.atEOF() && !p.at(token.RBrace) {
		p.useTree()
		if !p.at(token.RBrace) && !p.expect(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	m.complete(p, syntax.UseTreeList)
}
