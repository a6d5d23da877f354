package lexer

import (
	"rill/internal/token"
)

const utf8RuneSelf = 0x80

// scanIdentOrKeyword сканирует [Ident] и проверяет через ClassifyIdent.
// Token.Text — ровно исходный срез.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 {
		return lx.emit(start, token.Invalid)
	}
	if r < utf8RuneSelf {
		if !isIdentStartByte(byte(r)) {
			return lx.scanOperatorOrPunct()
		}
		lx.cursor.Bump()
	} else {
		if !isIdentStartRune(r) {
			return lx.scanOperatorOrPunct()
		}
		lx.bumpRune()
	}
	lx.bumpIdentContinue()

	tok := lx.emit(start, token.Ident)
	tok.Kind = token.ClassifyIdent(tok.Text)
	return tok
}

// r#ident
func (lx *Lexer) scanRawIdent() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // r
	lx.cursor.Bump() // #
	lx.cursor.Bump() // первый символ уже проверен
	lx.bumpIdentContinue()
	return lx.emit(start, token.Ident)
}

func (lx *Lexer) bumpIdentContinue() {
	for {
		r, sz := lx.peekRune()
		if sz == 0 {
			return
		}
		if r < utf8RuneSelf {
			if !isIdentContinueByte(byte(r)) {
				return
			}
			lx.cursor.Bump()
			continue
		}
		if !isIdentContinueRune(r) {
			return
		}
		lx.bumpRune()
	}
}
