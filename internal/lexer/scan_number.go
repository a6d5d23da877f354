package lexer

import (
	"strings"

	"rill/internal/diag"
	"rill/internal/token"
)

// Поддержка: 0, 123, 0b..., 0o..., 0x..., 1.0, 1., 1e-3, 1.0e+10 и суффиксы
// (1u8, 2.5f32, 0xffu32). Суффикс остаётся в Token.Text.
// "1.foo" и "1..2" — точка не часть числа.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit
	base := 10

	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) {
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		case 'x', 'X':
			base = 16
		}
	}

	if base != 10 {
		lx.cursor.Bump()
		lx.cursor.Bump()
		digits := 0
		for {
			b := lx.cursor.Peek()
			if b == '_' {
				lx.cursor.Bump()
				continue
			}
			if !isDigitOfBase(b, base) {
				break
			}
			lx.cursor.Bump()
			digits++
		}
		if digits == 0 {
			lx.errLex(diag.LexBadNumber, lx.cursor.RangeFrom(start), "expected digits after base prefix")
		}
		lx.scanNumberSuffix()
		return lx.emit(start, kind)
	}

	lx.bumpDecDigits()

	// дробная часть
	if lx.cursor.Peek() == '.' {
		next := lx.cursor.PeekAt(1)
		if next != '.' && !isIdentStartByte(next) && next < utf8RuneSelf {
			lx.cursor.Bump() // '.'
			kind = token.FloatLit
			if isDec(lx.cursor.Peek()) {
				lx.bumpDecDigits()
			}
		}
	}

	// экспонента
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		b1 := lx.cursor.PeekAt(1)
		b2 := lx.cursor.PeekAt(2)
		if isDec(b1) || ((b1 == '+' || b1 == '-') && isDec(b2)) {
			kind = token.FloatLit
			lx.cursor.Bump()
			if b1 == '+' || b1 == '-' {
				lx.cursor.Bump()
			}
			lx.bumpDecDigits()
		} else if b1 == '+' || b1 == '-' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			r := lx.cursor.RangeFrom(start)
			lx.errLex(diag.LexBadNumber, r, "expected digit after exponent")
			return lx.emit(start, token.Invalid)
		}
	}

	suffixStart := lx.cursor.Off
	lx.scanNumberSuffix()
	if suffix := string(lx.file.Content[suffixStart:lx.cursor.Off]); strings.HasPrefix(suffix, "f") {
		kind = token.FloatLit
	}
	return lx.emit(start, kind)
}

func (lx *Lexer) bumpDecDigits() {
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) scanNumberSuffix() {
	if isIdentStartByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}
}

func isDigitOfBase(b byte, base int) bool {
	switch base {
	case 2:
		return b == '0' || b == '1'
	case 8:
		return b >= '0' && b <= '7'
	case 16:
		return isHex(b)
	default:
		return isDec(b)
	}
}
