package token

import "rill/internal/source"

type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaLineComment
	TriviaBlockComment
	TriviaDocOuter // /// и /** */
	TriviaDocInner // //! и /*! */
)

type Trivia struct {
	Kind  TriviaKind
	Range source.TextRange
	Text  string
}

// TokenKind returns the syntax tree token kind the trivia is stored as.
func (k TriviaKind) TokenKind() Kind {
	switch k {
	case TriviaSpace, TriviaNewline:
		return Whitespace
	case TriviaDocOuter, TriviaDocInner:
		return DocComment
	default:
		return Comment
	}
}

// IsDoc reports whether the trivia is a doc comment.
func (k TriviaKind) IsDoc() bool {
	return k == TriviaDocOuter || k == TriviaDocInner
}
