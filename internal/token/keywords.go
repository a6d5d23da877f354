package token

import "strings"

var keywords = map[string]Kind{
	"as":       KwAs,
	"break":    KwBreak,
	"const":    KwConst,
	"continue": KwContinue,
	"crate":    KwCrate,
	"else":     KwElse,
	"false":    KwFalse,
	"fn":       KwFn,
	"for":      KwFor,
	"if":       KwIf,
	"impl":     KwImpl,
	"in":       KwIn,
	"let":      KwLet,
	"loop":     KwLoop,
	"mod":      KwMod,
	"mut":      KwMut,
	"pub":      KwPub,
	"ref":      KwRef,
	"return":   KwReturn,
	"self":     KwSelf,
	"Self":     KwSelfType,
	"static":   KwStatic,
	"struct":   KwStruct,
	"super":    KwSuper,
	"true":     KwTrue,
	"use":      KwUse,
	"while":    KwWhile,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}

// ClassifyIdent returns the kind an identifier-like word lexes as: a
// keyword, Underscore, or Ident. Raw identifiers (r#...) are always Ident.
func ClassifyIdent(text string) Kind {
	if text == "_" {
		return Underscore
	}
	if strings.HasPrefix(text, "r#") {
		return Ident
	}
	if k, ok := keywords[text]; ok {
		return k
	}
	return Ident
}

// IsPathSegmentKeyword reports whether the keyword may start or appear in a
// path (crate::x, self::x, super::x, Self::x).
func IsPathSegmentKeyword(k Kind) bool {
	return k == KwCrate || k == KwSelf || k == KwSuper || k == KwSelfType
}
