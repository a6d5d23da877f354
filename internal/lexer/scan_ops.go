package lexer

import (
	"rill/internal/diag"
	"rill/internal/token"
)

var (
	ops3 = map[string]token.Kind{
		"..=": token.DotDotEq,
		"...": token.DotDotDot,
		"<<=": token.ShlEq,
		">>=": token.ShrEq,
	}
	ops2 = map[string]token.Kind{
		"..": token.DotDot,
		"::": token.ColonColon,
		"->": token.Arrow,
		"=>": token.FatArrow,
		"&&": token.AndAnd,
		"||": token.OrOr,
		"==": token.EqEq,
		"!=": token.Ne,
		"<=": token.Le,
		">=": token.Ge,
		"<<": token.Shl,
		">>": token.Shr,
		"+=": token.PlusEq,
		"-=": token.MinusEq,
		"*=": token.StarEq,
		"/=": token.SlashEq,
		"%=": token.PercentEq,
		"^=": token.CaretEq,
		"&=": token.AmpEq,
		"|=": token.PipeEq,
	}
	ops1 = map[byte]token.Kind{
		'+': token.Plus,
		'-': token.Minus,
		'*': token.Star,
		'/': token.Slash,
		'%': token.Percent,
		'^': token.Caret,
		'!': token.Bang,
		'&': token.Amp,
		'|': token.Pipe,
		'=': token.Eq,
		'>': token.Gt,
		'<': token.Lt,
		'@': token.At,
		'.': token.Dot,
		',': token.Comma,
		';': token.Semi,
		':': token.Colon,
		'#': token.Pound,
		'$': token.Dollar,
		'?': token.Question,
		'~': token.Tilde,
		'(': token.LParen,
		')': token.RParen,
		'{': token.LBrace,
		'}': token.RBrace,
		'[': token.LBracket,
		']': token.RBracket,
	}
)

// MaxOpLen is the length of the longest operator.
const MaxOpLen = 3

// LookupOp returns the kind of an operator spelling of 1 to 3 characters.
func LookupOp(s string) (token.Kind, bool) {
	var k token.Kind
	var ok bool
	switch len(s) {
	case 1:
		k, ok = ops1[s[0]]
	case 2:
		k, ok = ops2[s]
	case 3:
		k, ok = ops3[s]
	}
	return k, ok
}

// IsPunctChar reports whether b is a single-character operator that may be
// glued to its neighbours. Delimiters are not puncts.
func IsPunctChar(b byte) bool {
	switch b {
	case '(', ')', '{', '}', '[', ']':
		return false
	}
	_, ok := ops1[b]
	return ok
}

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()

	if b0, b1, b2, ok := lx.cursor.Peek3(); ok {
		if k, ok := ops3[string([]byte{b0, b1, b2})]; ok {
			lx.cursor.Off += 3
			return lx.emit(start, k)
		}
	}
	if b0, b1, ok := lx.cursor.Peek2(); ok {
		if k, ok := ops2[string([]byte{b0, b1})]; ok {
			lx.cursor.Off += 2
			return lx.emit(start, k)
		}
	}
	if k, ok := ops1[lx.cursor.Peek()]; ok {
		lx.cursor.Bump()
		return lx.emit(start, k)
	}

	// неизвестный символ: съедаем целую руну
	if _, sz := lx.peekRune(); sz > 0 {
		lx.bumpRune()
	} else {
		lx.cursor.Bump()
	}
	lx.errLex(diag.LexUnknownChar, lx.cursor.RangeFrom(start), "unknown character")
	return lx.emit(start, token.Invalid)
}
