package lexer

import (
	"rill/internal/diag"
	"rill/internal/token"
)

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
// - ' ', '\t', '\r' коалесцируются в один TriviaSpace
// - последовательные '\n' коалесцируются в один TriviaNewline
// - //... до \n -> TriviaLineComment
// - /// ... и //! ... -> TriviaDocOuter / TriviaDocInner
// - /* ... */ -> TriviaBlockComment (поддерживает вложенность; если не закрыта — репорт и обрезаем на EOF)
// - /** ... */ и /*! ... */ -> TriviaDocOuter / TriviaDocInner
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		if b == ' ' || b == '\t' || b == '\r' {
			for {
				b2 := lx.cursor.Peek()
				if b2 != ' ' && b2 != '\t' && b2 != '\r' {
					break
				}
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaSpace, start)
			continue
		}

		if b == '\n' {
			for lx.cursor.Peek() == '\n' {
				lx.cursor.Bump()
			}
			lx.pushTrivia(token.TriviaNewline, start)
			continue
		}

		if b == '/' && lx.scanCommentIntoHold() {
			continue
		}

		break
	}
}

func (lx *Lexer) pushTrivia(kind token.TriviaKind, start Mark) {
	r := lx.cursor.RangeFrom(start)
	lx.hold = append(lx.hold, token.Trivia{
		Kind:  kind,
		Range: r,
		Text:  string(lx.file.Content[r.Start:r.End]),
	})
}

// //... , /*...*/ и их doc-варианты
func (lx *Lexer) scanCommentIntoHold() bool {
	start := lx.cursor.Mark()
	switch lx.cursor.PeekAt(1) {
	case '/':
		kind := token.TriviaLineComment
		switch b2, b3 := lx.cursor.PeekAt(2), lx.cursor.PeekAt(3); {
		case b2 == '/' && b3 != '/':
			kind = token.TriviaDocOuter
		case b2 == '!':
			kind = token.TriviaDocInner
		}
		for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
		lx.pushTrivia(kind, start)
		return true

	case '*':
		kind := token.TriviaBlockComment
		switch b2, b3 := lx.cursor.PeekAt(2), lx.cursor.PeekAt(3); {
		case b2 == '*' && b3 != '*' && b3 != '/':
			kind = token.TriviaDocOuter
		case b2 == '!':
			kind = token.TriviaDocInner
		}
		lx.cursor.Bump()
		lx.cursor.Bump()
		depth := 1
		for !lx.cursor.EOF() && depth > 0 {
			if b0, b1, ok := lx.cursor.Peek2(); ok {
				if b0 == '/' && b1 == '*' {
					lx.cursor.Off += 2
					depth++
					continue
				}
				if b0 == '*' && b1 == '/' {
					lx.cursor.Off += 2
					depth--
					continue
				}
			}
			lx.cursor.Bump()
		}
		if depth > 0 {
			lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.RangeFrom(start), "unterminated block comment")
		}
		lx.pushTrivia(kind, start)
		return true

	default:
		return false
	}
}
