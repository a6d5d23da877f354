package lexer

import (
	"rill/internal/source"
	"rill/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // 1 элементный буфер для токена
	hold   []token.Trivia // накопленные leading trivia
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next возвращает следующий **значимый** токен с уже собранным Leading.
// Trivia в конце файла приклеиваются к EOF, чтобы дерево оставалось
// lossless. После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	var tok token.Token
	if lx.cursor.EOF() {
		tok = token.Token{Kind: token.EOF, Range: lx.emptyRange()}
	} else {
		tok = lx.scanToken()
	}

	tok.Leading = lx.hold
	lx.hold = nil
	return tok
}

func (lx *Lexer) scanToken() token.Token {
	ch := lx.cursor.Peek()
	b1 := lx.cursor.PeekAt(1)

	switch {
	case ch == 'r' && (b1 == '"' || (b1 == '#' && lx.isRawStringStart(1))):
		return lx.scanRawString(token.StringLit, 1)
	case ch == 'r' && b1 == '#' && isIdentStartByte(lx.cursor.PeekAt(2)):
		return lx.scanRawIdent()
	case ch == 'b' && b1 == '\'':
		return lx.scanChar(token.ByteLit, 1)
	case ch == 'b' && b1 == '"':
		return lx.scanString(token.ByteStringLit, 1)
	case ch == 'b' && b1 == 'r' && (lx.cursor.PeekAt(2) == '"' || lx.isRawStringStart(2)):
		return lx.scanRawString(token.ByteStringLit, 2)
	case ch == '_' && !isIdentContinueByte(b1) && b1 < utf8RuneSelf:
		// одиночный "_" → токен Underscore
		lx.cursor.Bump()
		return lx.emit(lx.cursor.Mark()-1, token.Underscore)
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString(token.StringLit, 0)
	case ch == '\'':
		return lx.scanCharOrLifetime()
	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// Tokenize lexes the whole file. The last token is always EOF and carries
// the trailing trivia of the file.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	out := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

// TokenizeText lexes a detached piece of text. Ranges are relative to the
// start of text.
func TokenizeText(text string, opts Options) []token.Token {
	return Tokenize(&source.File{Path: "<text>", Content: []byte(text), Flags: source.FileVirtual}, opts)
}

func (lx *Lexer) emit(start Mark, k token.Kind) token.Token {
	r := lx.cursor.RangeFrom(start)
	return token.Token{Kind: k, Range: r, Text: string(lx.file.Content[r.Start:r.End])}
}

func (lx *Lexer) emptyRange() source.TextRange {
	return source.TextRange{Start: lx.cursor.Off, End: lx.cursor.Off}
}
