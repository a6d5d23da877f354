package parser

import (
	"strings"

	"rill/internal/syntax"
	"rill/internal/token"
)

// Таблица приоритетов бинарных операторов.
// Чем больше число, тем выше приоритет.
const (
	precAssignment     = 1  // = += -= ...
	precRange          = 2  // .. ..=
	precLogicalOr      = 3  // ||
	precLogicalAnd     = 4  // &&
	precComparison     = 5  // == != < > <= >=
	precBitwiseOr      = 6  // |
	precBitwiseXor     = 7  // ^
	precBitwiseAnd     = 8  // &
	precShift          = 9  // << >>
	precAdditive       = 10 // + -
	precMultiplicative = 11 // * / %
	precCast           = 12 // as
)

// restrictions ограничивают грамматику в отдельных позициях.
type restrictions struct {
	// noStruct запрещает `Path { .. }` (условия if/while/for).
	noStruct bool
}

// binaryPrec возвращает приоритет и правоассоциативность оператора.
func binaryPrec(kind token.Kind) (int, bool) {
	switch kind {
	case token.Eq, token.PlusEq, token.MinusEq, token.StarEq, token.SlashEq, token.PercentEq,
		token.CaretEq, token.AmpEq, token.PipeEq, token.ShlEq, token.ShrEq:
		return precAssignment, true
	case token.DotDot, token.DotDotEq:
		return precRange, false
	case token.OrOr:
		return precLogicalOr, false
	case token.AndAnd:
		return precLogicalAnd, false
	case token.EqEq, token.Ne, token.Lt, token.Gt, token.Le, token.Ge:
		return precComparison, false
	case token.Pipe:
		return precBitwiseOr, false
	case token.Caret:
		return precBitwiseXor, false
	case token.Amp:
		return precBitwiseAnd, false
	case token.Shl, token.Shr:
		return precShift, false
	case token.Plus, token.Minus:
		return precAdditive, false
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative, false
	case token.KwAs:
		return precCast, false
	default:
		return -1, false
	}
}

func (p *Parser) atExprStart() bool {
	switch cur := p.current(); cur {
	case token.LParen, token.LBracket, token.LBrace, token.Minus, token.Bang, token.Star, token.Amp,
		token.AndAnd, token.DotDot, token.DotDotEq, token.KwIf, token.KwWhile, token.KwLoop, token.KwFor,
		token.KwReturn, token.KwBreak, token.KwContinue, token.KwTrue, token.KwFalse:
		return true
	default:
		return cur.IsLiteral() || p.atPathStart()
	}
}

func (p *Parser) expr() (CompletedMarker, bool) {
	return p.exprBP(1, restrictions{})
}

func (p *Parser) exprNoStruct() (CompletedMarker, bool) {
	return p.exprBP(1, restrictions{noStruct: true})
}

// exprBP — Pratt parsing для бинарных операторов.
func (p *Parser) exprBP(minPrec int, r restrictions) (CompletedMarker, bool) {
	lhs, ok := p.unary(r)
	if !ok {
		return CompletedMarker{}, false
	}
	for {
		op := p.current()
		prec, rightAssoc := binaryPrec(op)
		if prec < minPrec || prec < 0 {
			break
		}
		m := lhs.precede(p)
		p.bump()
		switch {
		case op == token.KwAs:
			p.typ()
			lhs = m.complete(p, syntax.CastExpr)
			continue
		case prec == precRange:
			if p.atExprStart() && !(r.noStruct && p.at(token.LBrace)) {
				p.exprBP(prec+1, r)
			}
			lhs = m.complete(p, syntax.RangeExpr)
			continue
		}
		next := prec + 1
		if rightAssoc {
			next = prec
		}
		if _, ok := p.exprBP(next, r); !ok {
			p.error("expected expression after binary operator")
		}
		lhs = m.complete(p, syntax.BinExpr)
	}
	return lhs, true
}

// unary обрабатывает префиксные операторы.
func (p *Parser) unary(r restrictions) (CompletedMarker, bool) {
	switch p.current() {
	case token.Minus, token.Bang, token.Star:
		m := p.start()
		p.bump()
		if _, ok := p.unary(r); !ok {
			p.error("expected expression")
		}
		return m.complete(p, syntax.PrefixExpr), true
	case token.Amp, token.AndAnd:
		return p.refExpr(r), true
	case token.DotDot, token.DotDotEq:
		m := p.start()
		p.bump()
		if p.atExprStart() && !(r.noStruct && p.at(token.LBrace)) {
			p.exprBP(precRange+1, r)
		}
		return m.complete(p, syntax.RangeExpr), true
	}
	lhs, ok := p.primary(r)
	if !ok {
		return lhs, false
	}
	return p.postfix(lhs), true
}

// refExpr: &expr, &mut expr; '&&' даёт два вложенных RefExpr.
func (p *Parser) refExpr(r restrictions) CompletedMarker {
	m := p.start()
	if p.at(token.AndAnd) {
		p.bumpPart(token.Amp, 1)
		p.refExpr(r)
		return m.complete(p, syntax.RefExpr)
	}
	p.bump()
	p.eat(token.KwMut)
	if _, ok := p.unary(r); !ok {
		p.error("expected expression")
	}
	return m.complete(p, syntax.RefExpr)
}

func (p *Parser) postfix(lhs CompletedMarker) CompletedMarker {
	for {
		switch p.current() {
		case token.LParen:
			m := lhs.precede(p)
			p.argList()
			lhs = m.complete(p, syntax.CallExpr)
		case token.LBracket:
			m := lhs.precede(p)
			p.bump()
			p.expr()
			p.expect(token.RBracket)
			lhs = m.complete(p, syntax.IndexExpr)
		case token.Question:
			m := lhs.precede(p)
			p.bump()
			lhs = m.complete(p, syntax.TryExpr)
		case token.Dot:
			var ok bool
			lhs, ok = p.dotExpr(lhs)
			if !ok {
				return lhs
			}
		default:
			return lhs
		}
	}
}

// dotExpr: поле, индекс кортежа или вызов метода.
func (p *Parser) dotExpr(lhs CompletedMarker) (CompletedMarker, bool) {
	switch next := p.nth(1); {
	case next == token.Ident && (p.nth(2) == token.LParen || (p.nth(2) == token.ColonColon && p.nth(3) == token.Lt)):
		m := lhs.precede(p)
		p.bump() // .
		p.nameRef()
		if p.at(token.ColonColon) {
			p.bump()
			p.genericArgs()
		}
		p.argList()
		return m.complete(p, syntax.MethodCallExpr), true
	case next == token.Ident || next == token.IntLit:
		m := lhs.precede(p)
		p.bump()
		p.nameRef()
		return m.complete(p, syntax.FieldExpr), true
	case next == token.FloatLit:
		p.bump() // .
		return p.floatField(lhs), true
	default:
		m := lhs.precede(p)
		p.bump()
		p.error("expected field name or method call")
		return m.complete(p, syntax.FieldExpr), false
	}
}

// floatField расщепляет литерал "1.2" в позиции поля на 1 . 2, чтобы x.1.2
// разбиралось как доступ к вложенному полю кортежа. Точка перед литералом
// уже съедена и принадлежит внешнему FieldExpr.
func (p *Parser) floatField(lhs CompletedMarker) CompletedMarker {
	text := p.nthText(0)
	dot := strings.IndexByte(text, '.')
	if dot <= 0 || !allDigits(text[:dot]) || !allDigits(text[dot+1:]) {
		m := lhs.precede(p)
		p.errAndBump("invalid tuple index")
		return m.complete(p, syntax.FieldExpr)
	}
	m := lhs.precede(p)
	nm := p.start()
	p.bumpPart(token.IntLit, dot)
	nm.complete(p, syntax.NameRef)
	lhs = m.complete(p, syntax.FieldExpr)

	m = lhs.precede(p)
	rest := len(text) - dot - 1
	if rest == 0 {
		// "1." — поле после точки идёт отдельным токеном
		p.bumpPart(token.Dot, 1)
		if p.atAny(token.Ident, token.IntLit) {
			p.nameRef()
		} else {
			p.error("expected field name")
		}
		return m.complete(p, syntax.FieldExpr)
	}
	p.bumpPart(token.Dot, 1)
	nm = p.start()
	p.bumpPart(token.IntLit, rest)
	nm.complete(p, syntax.NameRef)
	return m.complete(p, syntax.FieldExpr)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (p *Parser) argList() {
	m := p.start()
	p.bump() // (
	for !p.atEOF() && !p.at(token.RParen) {
		if _, ok := p.expr(); !ok {
			break
		}
		if !p.at(token.RParen) && !p.expect(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	m.complete(p, syntax.ArgList)
}

func (p *Parser) literal() CompletedMarker {
	m := p.start()
	p.bump()
	return m.complete(p, syntax.Literal)
}

func (p *Parser) primary(r restrictions) (CompletedMarker, bool) {
	cur := p.current()
	switch {
	case cur.IsLiteral() || cur == token.KwTrue || cur == token.KwFalse:
		return p.literal(), true
	case p.atMacroCall():
		m := p.start()
		p.macroCall()
		return m.complete(p, syntax.MacroExpr), true
	case p.atPathStart():
		m := p.start()
		p.path(pathExpr)
		pe := m.complete(p, syntax.PathExpr)
		if p.at(token.LBrace) && !r.noStruct {
			rm := pe.precede(p)
			p.recordExprFields()
			return rm.complete(p, syntax.RecordExpr), true
		}
		return pe, true
	}
	switch cur {
	case token.LParen:
		m := p.start()
		p.bump()
		if p.eat(token.RParen) {
			return m.complete(p, syntax.TupleExpr), true
		}
		p.expr()
		kind := syntax.ParenExpr
		for p.eat(token.Comma) {
			kind = syntax.TupleExpr
			if p.at(token.RParen) {
				break
			}
			if _, ok := p.expr(); !ok {
				break
			}
		}
		p.expect(token.RParen)
		return m.complete(p, kind), true
	case token.LBracket:
		m := p.start()
		p.bump()
		if !p.at(token.RBracket) {
			p.expr()
			if p.eat(token.Semi) {
				p.expr()
			} else {
				for p.eat(token.Comma) {
					if p.at(token.RBracket) {
						break
					}
					if _, ok := p.expr(); !ok {
						break
					}
				}
			}
		}
		p.expect(token.RBracket)
		return m.complete(p, syntax.ArrayExpr), true
	case token.LBrace:
		return p.blockExpr(), true
	case token.KwIf:
		return p.ifExpr(), true
	case token.KwWhile:
		m := p.start()
		p.bump()
		p.exprNoStruct()
		p.blockExpr()
		return m.complete(p, syntax.WhileExpr), true
	case token.KwLoop:
		m := p.start()
		p.bump()
		p.blockExpr()
		return m.complete(p, syntax.LoopExpr), true
	case token.KwFor:
		m := p.start()
		p.bump()
		p.patternTop()
		p.expect(token.KwIn)
		p.exprNoStruct()
		p.blockExpr()
		return m.complete(p, syntax.ForExpr), true
	case token.KwReturn:
		m := p.start()
		p.bump()
		if p.atExprStart() {
			p.exprBP(1, r)
		}
		return m.complete(p, syntax.ReturnExpr), true
	case token.KwBreak:
		m := p.start()
		p.bump()
		p.eat(token.Lifetime)
		if p.atExprStart() && !(r.noStruct && p.at(token.LBrace)) {
			p.exprBP(1, r)
		}
		return m.complete(p, syntax.BreakExpr), true
	case token.KwContinue:
		m := p.start()
		p.bump()
		p.eat(token.Lifetime)
		return m.complete(p, syntax.ContinueExpr), true
	}
	p.errRecover("expected expression", token.Semi, token.Comma, token.RParen, token.RBracket)
	return CompletedMarker{}, false
}

func (p *Parser) ifExpr() CompletedMarker {
	m := p.start()
	p.bump() // if
	p.exprNoStruct()
	p.blockExpr()
	if p.eat(token.KwElse) {
		if p.at(token.KwIf) {
			p.ifExpr()
		} else {
			p.blockExpr()
		}
	}
	return m.complete(p, syntax.IfExpr)
}

func (p *Parser) recordExprFields() {
	m := p.start()
	p.bump() // {
fields:
	for !p.atEOF() && !p.at(token.RBrace) {
		f := p.start()
		p.outerAttrs()
		switch {
		case p.at(token.DotDot):
			f.abandon(p)
			p.bump()
			p.expr()
			continue
		case p.atAny(token.Ident, token.IntLit) && p.nth(1) == token.Colon:
			p.nameRef()
			p.bump() // :
			p.expr()
		case p.at(token.Ident):
			p.nameRef()
		default:
			f.abandon(p)
			p.errRecover("expected field", token.Comma)
			if p.eat(token.Comma) {
				continue
			}
			break fields
		}
		f.complete(p, syntax.RecordExprField)
		if !p.at(token.RBrace) && !p.expect(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	m.complete(p, syntax.RecordExprFieldList)
}

// blockExpr: { stmts }
func (p *Parser) blockExpr() CompletedMarker {
	m := p.start()
	if !p.at(token.LBrace) {
		p.error("expected `{`")
		return m.complete(p, syntax.BlockExpr)
	}
	sl := p.start()
	p.bump()
	p.innerAttrs()
	p.stmtList(token.RBrace)
	p.expect(token.RBrace)
	sl.complete(p, syntax.StmtList)
	return m.complete(p, syntax.BlockExpr)
}
