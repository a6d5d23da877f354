package fuzztests

import (
	"strings"
	"testing"

	"rill/internal/diag"
	"rill/internal/lexer"
	"rill/internal/parser"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/syntaxbridge"
	"rill/internal/token"
)

func FuzzLexerLossless(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.rl", input))

		toks := lexer.Tokenize(file, lexer.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(64)}})
		var b strings.Builder
		for _, tok := range toks {
			for _, tv := range tok.Leading {
				b.WriteString(tv.Text)
			}
			b.WriteString(tok.Text)
		}
		if b.String() != string(file.Content) {
			t.Fatalf("lexer lost text:\nwant %q\ngot  %q", file.Content, b.String())
		}
	})
}

func FuzzParserLossless(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.rl", input))

		res := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: diag.NewBag(128)}, MaxErrors: 128})
		if res.Root == nil {
			t.Fatal("nil root")
		}
		if got := res.Root.Text(); got != string(file.Content) {
			t.Fatalf("tree lost text:\nwant %q\ngot  %q", file.Content, got)
		}
	})
}

// FuzzTokenTreeRoundTrip converts clean parses to token trees and back.
// Trivia is dropped on the way, so texts are compared without it.
func FuzzTokenTreeRoundTrip(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.rl", input))

		bag := diag.NewBag(16)
		res := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		if bag.Len() != 0 || len(res.Errors) != 0 || hasDocComment(res.Root) {
			return
		}
		spanFor := func(r source.TextRange) span.Span {
			return span.Span{Anchor: span.SpanAnchor{File: file.ID}, Range: r}
		}
		st := syntaxbridge.SyntaxToTokenTree(res.Root, spanFor, nil)
		back, _, errs := syntaxbridge.TokenTreeToSyntax(st, parser.SourceFileEntry)
		if len(errs) != 0 {
			t.Fatalf("reparse errors %v for %q", errs, input)
		}
		if want, got := syntax.NonTriviaText(res.Root), syntax.NonTriviaText(back); want != got {
			t.Fatalf("round trip:\nwant %q\ngot  %q", want, got)
		}
	})
}

// FuzzArrowPunct checks that `->` stays one token through the bridge
// whatever surrounds it.
func FuzzArrowPunct(f *testing.F) {
	f.Add("x", "y")
	f.Add("", "")
	f.Add("fn f()", "u8 {}")
	f.Add("a -", "> b")
	f.Fuzz(func(t *testing.T, before, after string) {
		if len(before)+len(after) > maxFuzzInput {
			return
		}
		src := before + " -> " + after
		want := countArrows(parser.ParseText(src, parser.MacroItemsEntry).Root)
		st := syntaxbridge.TextToTokenTree(src, syntaxbridge.FixedSpan(span.Span{}))
		back, _, _ := syntaxbridge.TokenTreeToSyntax(st, parser.MacroItemsEntry)
		if got := countArrows(back); got != want {
			t.Fatalf("%q: %d arrows after the bridge, want %d", src, got, want)
		}
	})
}

func hasDocComment(root *syntax.Node) bool {
	found := false
	syntax.Tokens(root, func(tok *syntax.Token) bool {
		if tok.Kind() == token.DocComment {
			found = true
			return false
		}
		return true
	})
	return found
}

func countArrows(root *syntax.Node) int {
	n := 0
	syntax.Tokens(root, func(tok *syntax.Token) bool {
		if tok.Kind() == token.Arrow {
			n++
		}
		return true
	})
	return n
}
