package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Trivia kinds only appear as tokens of the concrete syntax tree.
	Whitespace
	Comment
	DocComment

	// Ident represents an identifier token (raw identifiers included).
	Ident
	// Lifetime represents a lifetime or label such as 'a.
	Lifetime

	KwAs       // as
	KwBreak    // break
	KwConst    // const
	KwContinue // continue
	KwCrate    // crate
	KwElse     // else
	KwFalse    // false
	KwFn       // fn
	KwFor      // for
	KwIf       // if
	KwImpl     // impl
	KwIn       // in
	KwLet      // let
	KwLoop     // loop
	KwMod      // mod
	KwMut      // mut
	KwPub      // pub
	KwRef      // ref
	KwReturn   // return
	KwSelf     // self
	KwSelfType // Self
	KwStatic   // static
	KwStruct   // struct
	KwSuper    // super
	KwTrue     // true
	KwUse      // use
	KwWhile    // while

	// IntLit represents an integer literal, suffix included.
	IntLit
	// FloatLit represents a float literal, suffix included.
	FloatLit
	// StringLit represents a string literal, raw strings included.
	StringLit
	// ByteStringLit represents a b"..." literal.
	ByteStringLit
	// CharLit represents a character literal.
	CharLit
	// ByteLit represents a b'x' literal.
	ByteLit

	Plus       // +
	Minus      // -
	Star       // *
	Slash      // /
	Percent    // %
	Caret      // ^
	Bang       // !
	Amp        // &
	Pipe       // |
	AndAnd     // &&
	OrOr       // ||
	Shl        // <<
	Shr        // >>
	PlusEq     // +=
	MinusEq    // -=
	StarEq     // *=
	SlashEq    // /=
	PercentEq  // %=
	CaretEq    // ^=
	AmpEq      // &=
	PipeEq     // |=
	ShlEq      // <<=
	ShrEq      // >>=
	Eq         // =
	EqEq       // ==
	Ne         // !=
	Gt         // >
	Lt         // <
	Ge         // >=
	Le         // <=
	At         // @
	Underscore // _
	Dot        // .
	DotDot     // ..
	DotDotDot  // ...
	DotDotEq   // ..=
	Comma      // ,
	Semi       // ;
	Colon      // :
	ColonColon // ::
	Arrow      // ->
	FatArrow   // =>
	Pound      // #
	Dollar     // $
	Question   // ?
	Tilde      // ~
	LParen     // (
	RParen     // )
	LBrace     // {
	RBrace     // }
	LBracket   // [
	RBracket   // ]

	kindCount
)

var kindNames = [...]string{
	Invalid:       "Invalid",
	EOF:           "EOF",
	Whitespace:    "Whitespace",
	Comment:       "Comment",
	DocComment:    "DocComment",
	Ident:         "Ident",
	Lifetime:      "Lifetime",
	KwAs:          "as",
	KwBreak:       "break",
	KwConst:       "const",
	KwContinue:    "continue",
	KwCrate:       "crate",
	KwElse:        "else",
	KwFalse:       "false",
	KwFn:          "fn",
	KwFor:         "for",
	KwIf:          "if",
	KwImpl:        "impl",
	KwIn:          "in",
	KwLet:         "let",
	KwLoop:        "loop",
	KwMod:         "mod",
	KwMut:         "mut",
	KwPub:         "pub",
	KwRef:         "ref",
	KwReturn:      "return",
	KwSelf:        "self",
	KwSelfType:    "Self",
	KwStatic:      "static",
	KwStruct:      "struct",
	KwSuper:       "super",
	KwTrue:        "true",
	KwUse:         "use",
	KwWhile:       "while",
	IntLit:        "IntLit",
	FloatLit:      "FloatLit",
	StringLit:     "StringLit",
	ByteStringLit: "ByteStringLit",
	CharLit:       "CharLit",
	ByteLit:       "ByteLit",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Caret:         "^",
	Bang:          "!",
	Amp:           "&",
	Pipe:          "|",
	AndAnd:        "&&",
	OrOr:          "||",
	Shl:           "<<",
	Shr:           ">>",
	PlusEq:        "+=",
	MinusEq:       "-=",
	StarEq:        "*=",
	SlashEq:       "/=",
	PercentEq:     "%=",
	CaretEq:       "^=",
	AmpEq:         "&=",
	PipeEq:        "|=",
	ShlEq:         "<<=",
	ShrEq:         ">>=",
	Eq:            "=",
	EqEq:          "==",
	Ne:            "!=",
	Gt:            ">",
	Lt:            "<",
	Ge:            ">=",
	Le:            "<=",
	At:            "@",
	Underscore:    "_",
	Dot:           ".",
	DotDot:        "..",
	DotDotDot:     "...",
	DotDotEq:      "..=",
	Comma:         ",",
	Semi:          ";",
	Colon:         ":",
	ColonColon:    "::",
	Arrow:         "->",
	FatArrow:      "=>",
	Pound:         "#",
	Dollar:        "$",
	Question:      "?",
	Tilde:         "~",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsTrivia reports whether the kind is whitespace or a comment.
func (k Kind) IsTrivia() bool {
	return k == Whitespace || k == Comment || k == DocComment
}

// IsKeyword reports whether the kind is a reserved keyword.
func (k Kind) IsKeyword() bool {
	return k >= KwAs && k <= KwWhile
}

// IsLiteral reports whether the kind is a literal (true/false excluded).
func (k Kind) IsLiteral() bool {
	return k >= IntLit && k <= ByteLit
}

// IsPunct reports whether the kind is an operator or punctuation, brackets
// included.
func (k Kind) IsPunct() bool {
	return k >= Plus && k <= RBracket
}

// IsOpenDelim reports whether the kind opens a delimited group.
func (k Kind) IsOpenDelim() bool {
	return k == LParen || k == LBrace || k == LBracket
}

// IsCloseDelim reports whether the kind closes a delimited group.
func (k Kind) IsCloseDelim() bool {
	return k == RParen || k == RBrace || k == RBracket
}

// IsIdentLike reports whether a token of this kind is an identifier in a
// token tree: identifiers, keywords, true/false and _.
func (k Kind) IsIdentLike() bool {
	return k == Ident || k.IsKeyword() || k == Underscore
}

// Text returns the fixed spelling of punctuation and keyword kinds, or ""
// for kinds whose text varies.
func (k Kind) Text() string {
	if k.IsPunct() || k.IsKeyword() {
		return kindNames[k]
	}
	return ""
}
