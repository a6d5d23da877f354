package lexer

import (
	"rill/internal/diag"
	"rill/internal/token"
)

// "..." и b"...": escape-последовательности не валидируем, только пропускаем.
// Переводы строк внутри строки допустимы.
func (lx *Lexer) scanString(kind token.Kind, prefix int) token.Token {
	start := lx.cursor.Mark()
	for range prefix {
		lx.cursor.Bump()
	}
	lx.cursor.Bump() // opening '"'
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		if b == '"' {
			return lx.emit(start, kind)
		}
		if b == '\\' {
			lx.cursor.Bump()
		}
	}
	lx.errLex(diag.LexUnterminatedString, lx.cursor.RangeFrom(start), "unterminated string literal")
	return lx.emit(start, token.Invalid)
}

// isRawStringStart проверяет r#..#" начиная с позиции '#'.
func (lx *Lexer) isRawStringStart(at uint32) bool {
	i := at
	for lx.cursor.PeekAt(i) == '#' {
		i++
	}
	return i > at && lx.cursor.PeekAt(i) == '"'
}

// r"...", r#"..."#, br"..."
func (lx *Lexer) scanRawString(kind token.Kind, prefix int) token.Token {
	start := lx.cursor.Mark()
	for range prefix {
		lx.cursor.Bump()
	}
	hashes := 0
	for lx.cursor.Eat('#') {
		hashes++
	}
	lx.cursor.Bump() // '"'
	for !lx.cursor.EOF() {
		if lx.cursor.Bump() != '"' {
			continue
		}
		n := 0
		for n < hashes && lx.cursor.Peek() == '#' {
			lx.cursor.Bump()
			n++
		}
		if n == hashes {
			return lx.emit(start, kind)
		}
	}
	lx.errLex(diag.LexUnterminatedString, lx.cursor.RangeFrom(start), "unterminated raw string literal")
	return lx.emit(start, token.Invalid)
}

// 'x', '\n', '\u{1F600}' или lifetime 'a
func (lx *Lexer) scanCharOrLifetime() token.Token {
	start := lx.cursor.Mark()
	if lx.cursor.PeekAt(1) == '\\' {
		return lx.scanChar(token.CharLit, 0)
	}
	lx.cursor.Bump() // '
	r, sz := lx.peekRune()
	if sz == 0 {
		lx.errLex(diag.LexUnterminatedChar, lx.cursor.RangeFrom(start), "unterminated character literal")
		return lx.emit(start, token.Invalid)
	}
	lx.bumpRune()
	if lx.cursor.Peek() == '\'' {
		lx.cursor.Bump()
		return lx.emit(start, token.CharLit)
	}
	if r < utf8RuneSelf && isIdentStartByte(byte(r)) || r >= utf8RuneSelf && isIdentStartRune(r) {
		lx.bumpIdentContinue()
		return lx.emit(start, token.Lifetime)
	}
	lx.errLex(diag.LexUnterminatedChar, lx.cursor.RangeFrom(start), "unterminated character literal")
	return lx.emit(start, token.Invalid)
}

func (lx *Lexer) scanChar(kind token.Kind, prefix int) token.Token {
	start := lx.cursor.Mark()
	for range prefix {
		lx.cursor.Bump()
	}
	lx.cursor.Bump() // '
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == '\n' {
			break
		}
		lx.cursor.Bump()
		if b == '\'' {
			return lx.emit(start, kind)
		}
		if b == '\\' {
			lx.cursor.Bump()
		}
	}
	lx.errLex(diag.LexUnterminatedChar, lx.cursor.RangeFrom(start), "unterminated character literal")
	return lx.emit(start, token.Invalid)
}
