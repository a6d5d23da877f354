package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

// stmtList разбирает операторы до stop (`}` или EOF). Последнее выражение
// без `;` остаётся хвостовым выражением списка.
func (p *Parser) stmtList(stop token.Kind) {
	for !p.atEOF() && !p.at(stop) {
		before := p.pos
		p.stmt(stop, true)
		if p.pos == before && p.partOff == 0 && !p.atEOF() && !p.at(stop) {
			p.errAndBump("expected statement")
		}
	}
}

func (p *Parser) atItemStart() bool {
	switch p.current() {
	case token.KwFn, token.KwStruct, token.KwMod, token.KwStatic, token.KwImpl, token.KwUse, token.KwPub:
		return true
	case token.KwConst:
		return p.nth(1) != token.LBrace
	}
	return p.atContextual(0, "macro_rules") && p.nth(1) == token.Bang && p.nth(2) == token.Ident
}

func isBlockLike(k syntax.NodeKind) bool {
	switch k {
	case syntax.BlockExpr, syntax.IfExpr, syntax.WhileExpr, syntax.LoopExpr, syntax.ForExpr:
		return true
	}
	return false
}

// stmt разбирает один оператор. tailOK разрешает оставить выражение без
// `;` перед stop.
func (p *Parser) stmt(stop token.Kind, tailOK bool) {
	if p.at(token.Semi) {
		p.bump()
		return
	}
	if p.atOuterAttr() {
		// атрибуты относятся к следующему item или let
		m := p.start()
		p.outerAttrs()
		switch {
		case p.at(token.KwLet):
			p.letStmt(m, true)
		case p.itemAfterAttrs(m):
		default:
			p.expr()
			p.eat(token.Semi)
			m.complete(p, syntax.ExprStmt)
		}
		return
	}
	switch {
	case p.at(token.KwLet):
		p.letStmt(p.start(), true)
		return
	case p.atItemStart():
		p.item()
		return
	case p.atMacroCall() && p.macroCallDelim() == token.LBrace:
		m := p.start()
		me := p.start()
		p.macroCall()
		me.complete(p, syntax.MacroExpr)
		p.eat(token.Semi)
		m.complete(p, syntax.ExprStmt)
		return
	}

	m := p.start()
	var (
		e  CompletedMarker
		ok bool
	)
	switch p.current() {
	case token.LBrace, token.KwIf, token.KwWhile, token.KwLoop, token.KwFor:
		e, ok = p.primary(restrictions{})
	default:
		e, ok = p.expr()
	}
	if !ok {
		m.abandon(p)
		return
	}
	switch {
	case p.eat(token.Semi):
		m.complete(p, syntax.ExprStmt)
	case tailOK && (p.at(stop) || p.atEOF()):
		m.abandon(p)
	case isBlockLike(e.kind):
		m.complete(p, syntax.ExprStmt)
	default:
		p.error("expected `;`")
		m.complete(p, syntax.ExprStmt)
	}
}

// stmtFragment — оператор без обязательной `;` (фрагмент $s:stmt).
func (p *Parser) stmtFragment() {
	switch {
	case p.at(token.KwLet):
		p.letStmt(p.start(), false)
	case p.atItemStart() || p.atOuterAttr():
		p.item()
	default:
		p.expr()
	}
}

func (p *Parser) letStmt(m Marker, requireSemi bool) {
	p.bump() // let
	p.patternTop()
	if p.eat(token.Colon) {
		p.typ()
	}
	if p.eat(token.Eq) {
		if _, ok := p.expr(); !ok {
			p.error("expected initializer")
		}
		if p.at(token.KwElse) {
			p.bump()
			p.blockExpr()
		}
	}
	if requireSemi {
		p.expect(token.Semi)
	}
	m.complete(p, syntax.LetStmt)
}
