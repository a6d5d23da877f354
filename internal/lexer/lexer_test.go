package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"rill/internal/diag"
	"rill/internal/lexer"
	"rill/internal/source"
	"rill/internal/token"
)

// makeTestLexer создаёт лексер для тестовой строки
func makeTestLexer(input string) (*lexer.Lexer, *diag.Bag) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rs", []byte(input))
	bag := diag.NewBag(100)
	return lexer.New(fs.Get(fileID), lexer.Options{Reporter: diag.BagReporter{Bag: bag}}), bag
}

// collectAllTokens собирает все токены до EOF
func collectAllTokens(lx *lexer.Lexer) []token.Token {
	var tokens []token.Token
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens
		}
	}
}

// expectTokens проверяет последовательность токенов
func expectTokens(t *testing.T, input string, expected []token.Kind) {
	t.Helper()
	lx, bag := makeTestLexer(input)
	tokens := collectAllTokens(lx)
	tokens = tokens[:len(tokens)-1] // без EOF

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d\nInput: %q\nTokens: %v\nDiagnostics: %d",
			len(expected), len(tokens), input, tokensToString(tokens), bag.Len())
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d: expected %v, got %v (text: %q)", i, expected[i], tok.Kind, tok.Text)
		}
	}
}

// expectSingleToken проверяет, что вход создаёт ровно один токен
func expectSingleToken(t *testing.T, input string, expectedKind token.Kind, expectedText string) {
	t.Helper()
	lx, _ := makeTestLexer(input)
	tok := lx.Next()
	if tok.Kind != expectedKind {
		t.Errorf("Expected kind %v, got %v", expectedKind, tok.Kind)
	}
	if tok.Text != expectedText {
		t.Errorf("Expected text %q, got %q", expectedText, tok.Text)
	}
	if next := lx.Next(); next.Kind != token.EOF {
		t.Errorf("Expected EOF after %q, got %v(%q)", input, next.Kind, next.Text)
	}
}

func tokensToString(tokens []token.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = fmt.Sprintf("%v(%q)", tok.Kind, tok.Text)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func TestIdentifiersAndKeywords(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"foo", token.Ident},
		{"_bar", token.Ident},
		{"_", token.Underscore},
		{"fn", token.KwFn},
		{"Self", token.KwSelfType},
		{"macro_rules", token.Ident},
		{"r#fn", token.Ident},
		{"привет", token.Ident},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectSingleToken(t, tt.input, tt.kind, tt.input)
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"123", token.IntLit},
		{"1_000", token.IntLit},
		{"0b1010", token.IntLit},
		{"0o17", token.IntLit},
		{"0xFF_u32", token.IntLit},
		{"1u8", token.IntLit},
		{"1.5", token.FloatLit},
		{"1.", token.FloatLit},
		{"1e10", token.FloatLit},
		{"2.5E-3", token.FloatLit},
		{"3f32", token.FloatLit},
		{"0.1", token.FloatLit},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectSingleToken(t, tt.input, tt.kind, tt.input)
		})
	}
}

func TestNumbers_DotNotPartOfNumber(t *testing.T) {
	expectTokens(t, "1..2", []token.Kind{token.IntLit, token.DotDot, token.IntLit})
	expectTokens(t, "1.foo()", []token.Kind{token.IntLit, token.Dot, token.Ident, token.LParen, token.RParen})
	// x.0.1 лексится как x . 0.1 — расщепляет парсер
	expectTokens(t, "x.0.1", []token.Kind{token.Ident, token.Dot, token.FloatLit})
}

func TestStringsAndChars(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{`"hello"`, token.StringLit},
		{`"a\"b"`, token.StringLit},
		{"\"multi\nline\"", token.StringLit},
		{`r"raw\"`, token.StringLit},
		{`r#"has "quotes""#`, token.StringLit},
		{`b"bytes"`, token.ByteStringLit},
		{`br"raw"`, token.ByteStringLit},
		{`'x'`, token.CharLit},
		{`'\n'`, token.CharLit},
		{`'\''`, token.CharLit},
		{`b'a'`, token.ByteLit},
		{`'a`, token.Lifetime},
		{`'static`, token.Lifetime},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectSingleToken(t, tt.input, tt.kind, tt.input)
		})
	}
}

func TestString_Unterminated(t *testing.T) {
	lx, bag := makeTestLexer(`"abc`)
	tok := lx.Next()
	if tok.Kind != token.Invalid {
		t.Errorf("Expected Invalid, got %v", tok.Kind)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Errorf("Expected one LexUnterminatedString diagnostic, got %d", bag.Len())
	}
}

func TestOperators_Greedy(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"->", token.Arrow},
		{"=>", token.FatArrow},
		{"::", token.ColonColon},
		{"..=", token.DotDotEq},
		{"...", token.DotDotDot},
		{"<<=", token.ShlEq},
		{"!=", token.Ne},
		{"&&", token.AndAnd},
		{"#", token.Pound},
		{"$", token.Dollar},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectSingleToken(t, tt.input, tt.kind, tt.input)
		})
	}
	expectTokens(t, "..+..", []token.Kind{token.DotDot, token.Plus, token.DotDot})
	expectTokens(t, "$x:expr", []token.Kind{token.Dollar, token.Ident, token.Colon, token.Ident})
}

func TestLookupOp(t *testing.T) {
	if k, ok := lexer.LookupOp("->"); !ok || k != token.Arrow {
		t.Errorf("LookupOp(->) = %v,%v", k, ok)
	}
	if _, ok := lexer.LookupOp("-+"); ok {
		t.Error("-+ is not an operator")
	}
	if lexer.IsPunctChar('(') {
		t.Error("delimiters are not glueable puncts")
	}
	if lexer.IsPunctChar('\'') {
		t.Error("quote is not a glueable punct")
	}
}

func TestTrivia(t *testing.T) {
	tests := []struct {
		input string
		kinds []token.TriviaKind
	}{
		{"  \t  foo", []token.TriviaKind{token.TriviaSpace}},
		{"\n\n\nfoo", []token.TriviaKind{token.TriviaNewline}},
		{"// c\nfoo", []token.TriviaKind{token.TriviaLineComment, token.TriviaNewline}},
		{"/// doc\nfoo", []token.TriviaKind{token.TriviaDocOuter, token.TriviaNewline}},
		{"//! inner\nfoo", []token.TriviaKind{token.TriviaDocInner, token.TriviaNewline}},
		{"//// not doc\nfoo", []token.TriviaKind{token.TriviaLineComment, token.TriviaNewline}},
		{"/* a /* nested */ b */foo", []token.TriviaKind{token.TriviaBlockComment}},
		{"/** doc */foo", []token.TriviaKind{token.TriviaDocOuter}},
		{"/**/foo", []token.TriviaKind{token.TriviaBlockComment}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lx, _ := makeTestLexer(tt.input)
			tok := lx.Next()
			if tok.Kind != token.Ident {
				t.Fatalf("Expected Ident, got %v", tok.Kind)
			}
			if len(tok.Leading) != len(tt.kinds) {
				t.Fatalf("Expected %d trivia, got %d", len(tt.kinds), len(tok.Leading))
			}
			for i, k := range tt.kinds {
				if tok.Leading[i].Kind != k {
					t.Errorf("trivia %d: expected %v, got %v", i, k, tok.Leading[i].Kind)
				}
			}
		})
	}
}

func TestTrivia_UnterminatedBlockComment(t *testing.T) {
	lx, bag := makeTestLexer("/* never closed")
	tok := lx.Next()
	if tok.Kind != token.EOF {
		t.Fatalf("Expected EOF, got %v", tok.Kind)
	}
	if len(tok.Leading) != 1 {
		t.Errorf("EOF must carry the trailing comment")
	}
	if bag.Len() != 1 {
		t.Errorf("Expected one diagnostic, got %d", bag.Len())
	}
}

func TestTokenizeIsLossless(t *testing.T) {
	src := "#[derive(Clone)]\n/// doc\nfn main() -> i32 { let x = 'a'; x.0.1 + 1.5e3 } // tail\n"
	toks := lexer.TokenizeText(src, lexer.Options{})
	var b strings.Builder
	for _, tok := range toks {
		for _, tv := range tok.Leading {
			b.WriteString(tv.Text)
		}
		b.WriteString(tok.Text)
	}
	if b.String() != src {
		t.Fatalf("lossless reconstruction failed:\nwant %q\ngot  %q", src, b.String())
	}
	for _, tok := range toks {
		if src[tok.Range.Start:tok.Range.End] != tok.Text {
			t.Errorf("token %v range %s does not match its text %q", tok.Kind, tok.Range, tok.Text)
		}
	}
}

func TestLexer_PeekBehavior(t *testing.T) {
	lx, _ := makeTestLexer("a b")
	p := lx.Peek()
	n := lx.Next()
	if p.Text != n.Text || p.Text != "a" {
		t.Errorf("Peek/Next mismatch: %q vs %q", p.Text, n.Text)
	}
	if lx.Next().Text != "b" {
		t.Error("expected b after a")
	}
	for range 3 {
		if lx.Next().Kind != token.EOF {
			t.Fatal("EOF must be sticky")
		}
	}
}

func TestLexer_UnknownCharacter(t *testing.T) {
	lx, bag := makeTestLexer("a € b")
	toks := collectAllTokens(lx)
	if len(toks) != 4 || toks[1].Kind != token.Invalid || toks[1].Text != "€" {
		t.Fatalf("unexpected tokens %s", tokensToString(toks))
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnknownChar {
		t.Errorf("expected one LexUnknownChar diagnostic")
	}
}
