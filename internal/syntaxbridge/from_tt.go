package syntaxbridge

import (
	"strings"

	"rill/internal/lexer"
	"rill/internal/parser"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/token"
	"rill/internal/tt"
)

// part — кусок входного токена, пришедший из одного листа дерева токенов.
type part struct {
	n  int
	sp span.Span
}

// inputToken is one parser token built from one or more leaves: glued
// puncts (`->`), lifetimes (`'` + ident) or a single leaf.
type inputToken struct {
	kind  token.Kind
	text  string
	parts []part
	// tree is the index of the last top-level tree the token came from;
	// endsTree is set on the token that completes that tree.
	tree     int
	endsTree bool
	joint    bool // the last punct of the token was Joint
}

type flatFrame struct {
	trees []tt.TokenTree
	i     int
	close *inputToken
	top   int // индекс дерева верхнего уровня; -1 на самом верхнем уровне
}

// flatten turns trees into parser tokens. Joint puncts are glued while they
// spell an operator; an invisible group with more than one tree is wrapped
// in synthetic parentheses so that its precedence survives reparsing.
func flatten(trees []tt.TokenTree) []inputToken {
	var out []inputToken
	stack := []flatFrame{{trees: trees, top: -1}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.i >= len(f.trees) {
			if f.close != nil {
				out = append(out, *f.close)
			}
			stack = stack[:len(stack)-1]
			continue
		}
		topIdx := f.top
		if topIdx < 0 {
			topIdx = f.i
		}
		t := f.trees[f.i]
		f.i++
		switch t := t.(type) {
		case *tt.Subtree:
			var open, closeTok *inputToken
			switch {
			case t.IsInvisible() && len(t.Children) <= 1:
			case t.IsInvisible():
				open = &inputToken{kind: token.LParen, text: "(", parts: []part{{1, t.Delim.Open}}}
				closeTok = &inputToken{kind: token.RParen, text: ")", parts: []part{{1, t.Delim.Close}}}
			default:
				open = delimToken(t.Delim.Kind.Open(), t.Delim.Open)
				closeTok = delimToken(t.Delim.Kind.Close(), t.Delim.Close)
			}
			if open != nil {
				open.tree = topIdx
				out = append(out, *open)
			}
			if closeTok != nil {
				closeTok.tree = topIdx
			}
			stack = append(stack, flatFrame{trees: t.Children, close: closeTok, top: topIdx})
		case tt.Ident:
			out = append(out, inputToken{kind: token.ClassifyIdent(t.Text), text: t.Text, parts: []part{{len(t.Text), t.Sp}}, tree: topIdx})
		case tt.Literal:
			out = append(out, inputToken{kind: literalKind(t.Text), text: t.Text, parts: []part{{len(t.Text), t.Sp}}, tree: topIdx})
		case tt.Punct:
			tok, used := gluePuncts(t, f.trees[f.i:])
			f.i += used
			tok.tree = topIdx
			if f.top < 0 {
				tok.tree = f.i - 1
			}
			out = append(out, tok)
		}
	}
	for i := range out {
		out[i].endsTree = i == len(out)-1 || out[i+1].tree != out[i].tree
	}
	return out
}

func delimToken(ch byte, sp span.Span) *inputToken {
	k, _ := lexer.LookupOp(string(ch))
	return &inputToken{kind: k, text: string(ch), parts: []part{{1, sp}}}
}

// gluePuncts склеивает first с последующими Joint-пунктуациями; rest — то,
// что идёт после first. Возвращает, сколько элементов rest поглощено.
func gluePuncts(first tt.Punct, rest []tt.TokenTree) (inputToken, int) {
	if first.Char == '\'' && first.Spacing == tt.Joint && len(rest) > 0 {
		if id, ok := rest[0].(tt.Ident); ok {
			return inputToken{
				kind:  token.Lifetime,
				text:  "'" + id.Text,
				parts: []part{{1, first.Sp}, {len(id.Text), id.Sp}},
			}, 1
		}
	}
	puncts := []tt.Punct{first}
	for len(puncts) < len(rest)+1 && puncts[len(puncts)-1].Spacing == tt.Joint {
		next, ok := rest[len(puncts)-1].(tt.Punct)
		if !ok {
			break
		}
		puncts = append(puncts, next)
	}
	for n := min(len(puncts), lexer.MaxOpLen); n > 0; n-- {
		var b strings.Builder
		for _, p := range puncts[:n] {
			b.WriteByte(p.Char)
		}
		k, ok := lexer.LookupOp(b.String())
		if !ok && n > 1 {
			continue
		}
		if !ok {
			k = token.Invalid
		}
		tok := inputToken{kind: k, text: b.String(), joint: puncts[n-1].Spacing == tt.Joint}
		for _, p := range puncts[:n] {
			tok.parts = append(tok.parts, part{1, p.Sp})
		}
		return tok, n - 1
	}
	return inputToken{kind: token.Invalid, text: string(first.Char), parts: []part{{1, first.Sp}}}, 0
}

// literalKind relexes a literal's text to find its kind.
func literalKind(text string) token.Kind {
	toks := lexer.TokenizeText(text, lexer.Options{})
	if len(toks) == 2 && toks[0].Kind.IsLiteral() && toks[0].Text == text {
		return toks[0].Kind
	}
	if len(toks) > 0 && toks[0].Kind.IsLiteral() {
		return toks[0].Kind
	}
	return token.Invalid
}

// TokenTreeToSyntax parses st with the given entry point. The returned map
// records, for every token of the new tree, the span of the leaf (or the
// byte of a leaf) that produced it. Whitespace is inserted only where two
// tokens would otherwise lex together.
func TokenTreeToSyntax(st *tt.Subtree, entry parser.TopEntry) (*syntax.Node, *span.SpanMap, []parser.SyntaxError) {
	var toks []inputToken
	if st.IsInvisible() {
		toks = flatten(st.Children)
	} else {
		toks = flatten([]tt.TokenTree{st})
	}
	inp := parser.NewInput(len(toks))
	for _, t := range toks {
		inp.Push(t.kind, t.text)
	}
	events := parser.ParseTop(inp, entry)
	s := &ttSink{toks: toks, b: syntax.NewBuilder(), m: span.NewSpanMap()}
	parser.Process(events, s)
	return s.b.Finish(), s.m, s.errs
}

// ParsePrefixTrees parses one fragment of the given kind from the start of
// trees and reports how many whole trees it used. ok is false when the parse
// failed or stopped inside a tree.
func ParsePrefixTrees(trees []tt.TokenTree, entry parser.PrefixEntry) (n int, ok bool) {
	toks := flatten(trees)
	inp := parser.NewInput(len(toks))
	for _, t := range toks {
		inp.Push(t.kind, t.text)
	}
	events := parser.ParsePrefix(inp, entry)
	if parser.HasErrors(events) {
		return 0, false
	}
	consumed, partial := inp.Consumed(events)
	if partial != 0 {
		return 0, false
	}
	if consumed == 0 {
		// пустым может быть только vis
		return 0, entry == parser.VisPrefix
	}
	last := toks[consumed-1]
	if !last.endsTree {
		return 0, false
	}
	return last.tree + 1, true
}

// ttSink строит дерево из токенов, полученных из дерева токенов, расставляя
// пробелы и заполняя карту спанов.
type ttSink struct {
	toks    []inputToken
	pos     int
	partOff int
	depth   int
	b       *syntax.Builder
	m       *span.SpanMap
	errs    []parser.SyntaxError

	spaced   bool // пробел перед текущим токеном уже вставлен
	hasPrev  bool
	prevKind token.Kind
	prevText string
	prevJoin bool
}

func (s *ttSink) cur() *inputToken {
	if s.pos < len(s.toks) {
		return &s.toks[s.pos]
	}
	return nil
}

func isWord(k token.Kind) bool {
	return k.IsIdentLike() || k.IsLiteral() || k == token.Lifetime
}

func (s *ttSink) needSpace(k token.Kind, text string) bool {
	if !s.hasPrev || s.partOff > 0 || text == "" {
		return false
	}
	switch {
	case isWord(s.prevKind) && isWord(k):
		return true
	case isGluePunct(s.prevKind) && isGluePunct(k) && !s.prevJoin && s.prevKind != token.Semi:
		return true
	case (s.prevKind == token.IntLit || s.prevKind == token.FloatLit) && text[0] == '.':
		return true
	case strings.HasSuffix(s.prevText, "/") && (text[0] == '/' || text[0] == '*'):
		return true
	}
	return false
}

func (s *ttSink) space(k token.Kind, text string) {
	if s.spaced {
		return
	}
	s.spaced = true
	if s.needSpace(k, text) {
		s.b.Token(token.Whitespace, " ")
	}
}

func (s *ttSink) StartNode(k syntax.NodeKind) {
	if s.depth > 0 {
		if t := s.cur(); t != nil {
			s.space(t.kind, t.text[s.partOff:])
		}
	}
	s.b.StartNode(k)
	s.depth++
}

func (s *ttSink) FinishNode() {
	s.depth--
	if s.depth == 0 {
		for s.pos < len(s.toks) {
			s.Token(s.toks[s.pos].kind, 0)
		}
	}
	s.b.FinishNode()
}

func (s *ttSink) Token(k token.Kind, n int) {
	t := s.cur()
	if t == nil {
		return
	}
	text := t.text[s.partOff:]
	if n > 0 && n < len(text) {
		text = text[:n]
	}
	s.space(k, text)
	start := s.b.Offset()
	s.b.Token(k, text)
	s.mapParts(t, s.partOff, len(text), start)

	s.hasPrev = true
	s.prevKind = k
	s.prevText = text
	s.prevJoin = s.partOff+len(text) < len(t.text) || t.joint
	s.spaced = false
	s.partOff += len(text)
	if s.partOff >= len(t.text) {
		s.pos++
		s.partOff = 0
	}
}

// mapParts пишет в карту спанов части токена t, попавшие в [off, off+n).
func (s *ttSink) mapParts(t *inputToken, off, n int, outStart uint32) {
	po := 0
	for _, p := range t.parts {
		from, to := max(off, po), min(off+n, po+p.n)
		if from < to {
			r := source.TextRange{
				Start: outStart + uint32(from-off), //nolint:gosec // token-local offsets
				End:   outStart + uint32(to-off),   //nolint:gosec // token-local offsets
			}
			s.m.Push(r, narrow(p.sp, from-po, to-po, p.n))
		}
		po += p.n
	}
}

// narrow сужает спан листа до байтов [from, to), если длина спана совпадает
// с длиной текста листа.
func narrow(sp span.Span, from, to, n int) span.Span {
	if from == 0 && to == n {
		return sp
	}
	if int(sp.Range.Len()) != n {
		return sp
	}
	sp.Range = source.TextRange{
		Start: sp.Range.Start + uint32(from), //nolint:gosec // within the leaf
		End:   sp.Range.Start + uint32(to),   //nolint:gosec // within the leaf
	}
	return sp
}

func (s *ttSink) Error(msg string) {
	off := s.b.Offset()
	s.errs = append(s.errs, parser.SyntaxError{Range: source.TextRange{Start: off, End: off}, Msg: msg})
}
