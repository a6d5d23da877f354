package tt_test

import (
	"strings"
	"testing"

	"rill/internal/span"
	"rill/internal/tt"
)

func sp(start, end uint32) span.Span {
	return span.Span{Range: sourceRange(start, end)}
}

func sample() *tt.Subtree {
	// (a -> b[1])
	inner := tt.NewSubtree(tt.Bracket, sp(8, 9), sp(10, 11))
	inner.Push(tt.Literal{Text: "1", Sp: sp(9, 10)})
	st := tt.NewSubtree(tt.Parenthesis, sp(0, 1), sp(11, 12))
	st.Push(
		tt.Ident{Text: "a", Sp: sp(1, 2)},
		tt.Punct{Char: '-', Spacing: tt.Joint, Sp: sp(3, 4)},
		tt.Punct{Char: '>', Spacing: tt.Alone, Sp: sp(4, 5)},
		tt.Ident{Text: "b", Sp: sp(6, 7)},
		inner,
	)
	return st
}

func TestPretty(t *testing.T) {
	st := sample()
	if got := st.String(); got != "(a -> b [1])" {
		t.Errorf("String() = %q", got)
	}
	inv := tt.InvisibleAround(sp(0, 0), tt.Ident{Text: "x"}, tt.Punct{Char: '+'}, tt.Literal{Text: "1"})
	if got := tt.Pretty([]tt.TokenTree{inv}); got != "x + 1" {
		t.Errorf("invisible = %q", got)
	}
}

func TestPrettyGluesGroups(t *testing.T) {
	group := func(k tt.DelimiterKind, leaves ...tt.TokenTree) *tt.Subtree {
		st := tt.NewSubtree(k, sp(0, 0), sp(0, 0))
		st.Push(leaves...)
		return st
	}
	x := tt.Ident{Text: "x"}
	tests := []struct {
		trees []tt.TokenTree
		want  string
	}{
		{[]tt.TokenTree{tt.Ident{Text: "f"}, group(tt.Parenthesis, x)}, "f(x)"},
		{[]tt.TokenTree{tt.Punct{Char: '#'}, group(tt.Bracket, x)}, "#[x]"},
		{[]tt.TokenTree{tt.Ident{Text: "m"}, tt.Punct{Char: '!'}, group(tt.Brace)}, "m !{}"},
		{[]tt.TokenTree{tt.Ident{Text: "if"}, group(tt.Parenthesis, x)}, "if (x)"},
		{[]tt.TokenTree{tt.Ident{Text: "fn"}, group(tt.Parenthesis)}, "fn()"},
		{[]tt.TokenTree{tt.Ident{Text: "a"}, group(tt.Bracket, x)}, "a [x]"},
		{[]tt.TokenTree{tt.Ident{Text: "a"}, tt.InvisibleAround(sp(0, 0), x)}, "a x"},
	}
	for _, tc := range tests {
		if got := tt.Pretty(tc.trees); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func TestCountAndWalk(t *testing.T) {
	st := sample()
	if st.CountLeaves() != 5 {
		t.Errorf("CountLeaves = %d", st.CountLeaves())
	}
	var subtrees, leaves int
	st.Walk(func(*tt.Subtree) { subtrees++ }, func(tt.Leaf) { leaves++ })
	if subtrees != 2 || leaves != 5 {
		t.Errorf("walk: %d subtrees, %d leaves", subtrees, leaves)
	}
}

func TestMapSpansDeep(t *testing.T) {
	st := sample()
	shifted := st.MapSpans(func(s span.Span) span.Span { return s.WithCtx(7) })
	shifted.Walk(func(s *tt.Subtree) {
		if s.Delim.Open.Ctx != 7 || s.Delim.Close.Ctx != 7 {
			t.Error("delimiter span not rewritten")
		}
	}, func(l tt.Leaf) {
		if l.Span().Ctx != 7 {
			t.Errorf("leaf %s not rewritten", tt.LeafText(l))
		}
	})
	if st.Children[0].(tt.Ident).Sp.Ctx != 0 {
		t.Error("original modified")
	}
}

func TestIterGluedPunct(t *testing.T) {
	st := sample()
	it := tt.NewIter(st)
	if _, err := it.ExpectIdent(); err != nil {
		t.Fatal(err)
	}
	ps, err := it.ExpectGluedPunct()
	if err != nil || len(ps) != 2 {
		t.Fatalf("glued = %v, %v", ps, err)
	}
	if _, err := it.ExpectPunct('>'); err == nil {
		t.Error("'>' must already be consumed")
	}
	if !tt.IsIdent(it.Next(), "b") {
		t.Error("expected b")
	}
	if _, err := it.ExpectSubtree(); err != nil {
		t.Error(err)
	}
	if !it.Done() {
		t.Error("iterator not done")
	}
}

func TestGluedPunctStopsAtUnknownOp(t *testing.T) {
	st := tt.NewSubtree(tt.Invisible, span.Span{}, span.Span{})
	// `=` joint `-` is not an operator
	st.Push(tt.Punct{Char: '=', Spacing: tt.Joint}, tt.Punct{Char: '-', Spacing: tt.Alone})
	ps, _ := tt.NewIter(st).ExpectGluedPunct()
	if len(ps) != 1 {
		t.Errorf("glued %d puncts, want 1", len(ps))
	}
}

func TestDebugDump(t *testing.T) {
	dump := tt.DebugDump(sample())
	for _, want := range []string{"SUBTREE ()", "IDENT   a", "PUNCT   - [joint]", "PUNCT   > [alone]", "  SUBTREE []", "LITERAL 1"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump lacks %q:\n%s", want, dump)
		}
	}
}
