// Package parser implements the grammar of the surface language as an
// event-producing recursive descent parser.
//
// The parser only sees token kinds (and, for contextual words and float
// splitting, token texts). Trees are built by replaying the events into a
// TreeSink: BuildTree does it for lexed files, the syntax bridge does it for
// token trees coming out of macro expansion.
package parser

import (
	"strings"

	"rill/internal/lexer"
	"rill/internal/syntax"
	"rill/internal/token"
)

// Parser — состояние парсера над одним Input.
type Parser struct {
	inp     *Input
	pos     int
	partOff int // сколько байт текущего токена уже съедено частичным bump
	events  []Event
}

func newParser(inp *Input) *Parser {
	return &Parser{inp: inp, events: make([]Event, 0, inp.Len()*2+4)}
}

// Marker is an open node whose kind is decided on completion.
type Marker struct {
	pos int
}

// CompletedMarker is a finished node that can still be wrapped by a parent
// started later (left-recursive constructs).
type CompletedMarker struct {
	pos  int
	kind syntax.NodeKind
}

func (p *Parser) start() Marker {
	pos := len(p.events)
	p.events = append(p.events, Event{Kind: EvTombstone})
	return Marker{pos: pos}
}

func (m Marker) complete(p *Parser, kind syntax.NodeKind) CompletedMarker {
	ev := &p.events[m.pos]
	ev.Kind = EvOpen
	ev.Node = kind
	p.events = append(p.events, Event{Kind: EvClose})
	return CompletedMarker{pos: m.pos, kind: kind}
}

func (m Marker) abandon(p *Parser) {
	if m.pos == len(p.events)-1 {
		p.events = p.events[:m.pos]
	}
}

// precede starts a node that will become the parent of cm.
func (cm CompletedMarker) precede(p *Parser) Marker {
	m := p.start()
	p.events[cm.pos].ForwardParent = m.pos - cm.pos
	return m
}

// nth возвращает вид n-го токена от текущего; у частично съеденного
// текущего токена вид определяется по оставшемуся тексту.
func (p *Parser) nth(n int) token.Kind {
	if n == 0 && p.partOff > 0 {
		return p.remainderKind()
	}
	return p.inp.Kind(p.pos + n)
}

func (p *Parser) current() token.Kind { return p.nth(0) }

func (p *Parser) remainderKind() token.Kind {
	rest := p.inp.Text(p.pos)[p.partOff:]
	if k, ok := lexer.LookupOp(rest); ok {
		return k
	}
	return token.Invalid
}

func (p *Parser) nthText(n int) string {
	if n == 0 && p.partOff > 0 {
		return p.inp.Text(p.pos)[p.partOff:]
	}
	return p.inp.Text(p.pos + n)
}

func (p *Parser) at(k token.Kind) bool { return p.current() == k }

func (p *Parser) atAny(kinds ...token.Kind) bool {
	cur := p.current()
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

func (p *Parser) atEOF() bool { return p.current() == token.EOF }

// atContextual проверяет идентификатор с заданным текстом (macro_rules).
func (p *Parser) atContextual(n int, text string) bool {
	return p.nth(n) == token.Ident && p.nthText(n) == text
}

func (p *Parser) bump() {
	if p.atEOF() {
		return
	}
	p.events = append(p.events, Event{Kind: EvToken, Tok: p.current()})
	p.pos++
	p.partOff = 0
}

func (p *Parser) bumpRemap(k token.Kind) {
	if p.atEOF() {
		return
	}
	p.events = append(p.events, Event{Kind: EvToken, Tok: k})
	p.pos++
	p.partOff = 0
}

// bumpPart съедает первые n байт текущего токена как токен вида k.
func (p *Parser) bumpPart(k token.Kind, n int) {
	p.events = append(p.events, Event{Kind: EvToken, Tok: k, Len: n})
	p.partOff += n
	if p.partOff >= len(p.inp.Text(p.pos)) {
		p.pos++
		p.partOff = 0
	}
}

func (p *Parser) eat(k token.Kind) bool {
	if !p.at(k) {
		return false
	}
	p.bump()
	return true
}

func (p *Parser) error(msg string) {
	p.events = append(p.events, Event{Kind: EvError, Msg: msg})
}

func (p *Parser) expect(k token.Kind) bool {
	if p.eat(k) {
		return true
	}
	p.error("expected " + describe(k))
	return false
}

// errAndBump заворачивает текущий токен в Error-узел.
func (p *Parser) errAndBump(msg string) {
	m := p.start()
	p.error(msg)
	p.bump()
	m.complete(p, syntax.Error)
}

// errRecover сообщает об ошибке и съедает текущий токен, если он не
// относится к recovery-набору и не является скобкой.
func (p *Parser) errRecover(msg string, recovery ...token.Kind) {
	switch p.current() {
	case token.LBrace, token.RBrace, token.EOF:
		p.error(msg)
		return
	}
	if p.atAny(recovery...) {
		p.error(msg)
		return
	}
	p.errAndBump(msg)
}

func describe(k token.Kind) string {
	switch {
	case k == token.Ident:
		return "identifier"
	case k.IsLiteral():
		return "literal"
	case k.Text() != "":
		return "`" + k.Text() + "`"
	}
	return strings.ToLower(k.String())
}

// atGt reports whether the current token starts with '>'.
func (p *Parser) atGt() bool {
	switch p.current() {
	case token.Gt, token.Shr, token.Ge, token.ShrEq:
		return true
	}
	return false
}

// expectGt съедает один '>' даже если он склеен с соседним символом.
func (p *Parser) expectGt() bool {
	switch p.current() {
	case token.Gt:
		p.bump()
		return true
	case token.Shr, token.Ge, token.ShrEq:
		p.bumpPart(token.Gt, 1)
		return true
	}
	p.error("expected `>`")
	return false
}

// eatAmp съедает один '&', расщепляя '&&'.
func (p *Parser) eatAmp() bool {
	switch p.current() {
	case token.Amp:
		p.bump()
		return true
	case token.AndAnd:
		p.bumpPart(token.Amp, 1)
		return true
	}
	return false
}
