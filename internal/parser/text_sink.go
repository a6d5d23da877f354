package parser

import (
	"strings"

	"rill/internal/source"
	"rill/internal/syntax"
	"rill/internal/token"
)

// SyntaxError is a parse error positioned in the parsed text.
type SyntaxError struct {
	Range source.TextRange
	Msg   string
}

// textSink строит CST из лексем исходного файла, возвращая trivia на место.
type textSink struct {
	toks        []token.Token
	pos         int
	partOff     int
	leadingDone bool
	depth       int
	b           *syntax.Builder
	errs        []SyntaxError
}

// BuildTree replays events over the lexed tokens of a file. toks must end
// with EOF; its leading trivia become the trailing trivia of the root.
func BuildTree(toks []token.Token, events []Event) (*syntax.Node, []SyntaxError) {
	s := &textSink{toks: toks, b: syntax.NewBuilder()}
	Process(events, s)
	return s.b.Finish(), s.errs
}

func (s *textSink) cur() *token.Token {
	if s.pos < len(s.toks) {
		return &s.toks[s.pos]
	}
	return nil
}

func (s *textSink) pendingTrivia() []token.Trivia {
	t := s.cur()
	if t == nil || s.leadingDone || s.partOff > 0 {
		return nil
	}
	return t.Leading
}

func (s *textSink) emitTrivia(ts []token.Trivia) {
	for _, tr := range ts {
		s.b.Token(tr.Kind.TokenKind(), tr.Text)
	}
}

func (s *textSink) StartNode(k syntax.NodeKind) {
	if s.depth == 0 {
		s.b.StartNode(k)
		s.depth++
		return
	}
	lead := s.pendingTrivia()
	n := attachedTrivia(k, lead)
	s.emitTrivia(lead[:len(lead)-n])
	s.b.StartNode(k)
	s.depth++
	s.emitTrivia(lead[len(lead)-n:])
	if lead != nil {
		s.leadingDone = true
	}
}

func (s *textSink) FinishNode() {
	s.depth--
	if s.depth == 0 {
		s.flushRest()
	}
	s.b.FinishNode()
}

// flushRest дописывает в корень всё, что не съел парсер, включая trivia EOF.
func (s *textSink) flushRest() {
	for s.pos < len(s.toks) {
		t := s.toks[s.pos]
		s.emitTrivia(s.pendingTrivia())
		if t.Kind != token.EOF {
			text := t.Text[s.partOff:]
			s.b.Token(t.Kind, text)
		}
		s.pos++
		s.partOff = 0
		s.leadingDone = false
	}
}

func (s *textSink) Token(k token.Kind, n int) {
	t := s.cur()
	if t == nil || t.Kind == token.EOF {
		return
	}
	s.emitTrivia(s.pendingTrivia())
	s.leadingDone = true
	text := t.Text[s.partOff:]
	if n > 0 && n < len(text) {
		text = text[:n]
	}
	s.b.Token(k, text)
	s.partOff += len(text)
	if s.partOff >= len(t.Text) {
		s.pos++
		s.partOff = 0
		s.leadingDone = false
	}
}

func (s *textSink) Error(msg string) {
	r := source.TextRange{Start: s.b.Offset(), End: s.b.Offset()}
	if t := s.cur(); t != nil && t.Kind != token.EOF {
		r = t.Range
		if s.partOff > 0 {
			r.Start += uint32(s.partOff) //nolint:gosec // partOff < len(text)
		}
	}
	s.errs = append(s.errs, SyntaxError{Range: r, Msg: msg})
}

// attachedTrivia возвращает, сколько trivia с конца lead принадлежат узлу
// вида k: комментарии, идущие прямо перед item, без пустой строки между.
func attachedTrivia(k syntax.NodeKind, lead []token.Trivia) int {
	if !k.AttachesTrivia() {
		return 0
	}
	res := 0
	newlines := 0
	for i := len(lead) - 1; i >= 0; i-- {
		tr := lead[i]
		switch tr.Kind {
		case token.TriviaSpace, token.TriviaNewline:
			newlines += strings.Count(tr.Text, "\n")
			if newlines >= 2 {
				return res
			}
		case token.TriviaDocInner:
			return res
		default:
			res = len(lead) - i
			newlines = 0
		}
	}
	return res
}
