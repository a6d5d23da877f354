package syntax_test

import (
	"strings"
	"testing"

	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/token"
)

// fn f() {}  mod m { struct S; }
func buildSample() *syntax.Node {
	b := syntax.NewBuilder()
	b.StartNode(syntax.SourceFile)
	b.StartNode(syntax.Fn)
	b.Token(token.KwFn, "fn")
	b.Token(token.Whitespace, " ")
	b.StartNode(syntax.Name)
	b.Token(token.Ident, "f")
	b.FinishNode()
	b.StartNode(syntax.ParamList)
	b.Token(token.LParen, "(")
	b.Token(token.RParen, ")")
	b.FinishNode()
	b.Token(token.Whitespace, " ")
	b.StartNode(syntax.BlockExpr)
	b.StartNode(syntax.StmtList)
	b.Token(token.LBrace, "{")
	b.Token(token.RBrace, "}")
	b.FinishNode()
	b.FinishNode()
	b.FinishNode()
	b.Token(token.Whitespace, "  ")
	b.StartNode(syntax.Module)
	b.Token(token.KwMod, "mod")
	b.Token(token.Whitespace, " ")
	b.StartNode(syntax.Name)
	b.Token(token.Ident, "m")
	b.FinishNode()
	b.Token(token.Whitespace, " ")
	b.StartNode(syntax.ItemList)
	b.Token(token.LBrace, "{")
	b.Token(token.Whitespace, " ")
	b.StartNode(syntax.Struct)
	b.Token(token.KwStruct, "struct")
	b.Token(token.Whitespace, " ")
	b.StartNode(syntax.Name)
	b.Token(token.Ident, "S")
	b.FinishNode()
	b.Token(token.Semi, ";")
	b.FinishNode()
	b.Token(token.Whitespace, " ")
	b.Token(token.RBrace, "}")
	b.FinishNode()
	b.FinishNode()
	return b.Finish()
}

func TestBuilderRanges(t *testing.T) {
	root := buildSample()
	const want = "fn f() {}  mod m { struct S; }"
	if got := root.Text(); got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
	if root.Range() != (source.TextRange{Start: 0, End: uint32(len(want))}) {
		t.Errorf("root range = %v", root.Range())
	}
	st := syntax.Descendants(root, syntax.Struct)[0]
	if got := st.Range(); got != (source.TextRange{Start: 19, End: 28}) {
		t.Errorf("struct range = %v", got)
	}
	if got := syntax.NameText(st); got != "S" {
		t.Errorf("NameText = %q", got)
	}
	if st.Parent().Kind() != syntax.ItemList {
		t.Errorf("struct parent = %v", st.Parent().Kind())
	}
}

func TestWalkerSkipAndOrder(t *testing.T) {
	root := buildSample()
	var kinds []string
	syntax.Preorder(root, func(n *syntax.Node) bool {
		kinds = append(kinds, n.Kind().String())
		return n.Kind() != syntax.Fn
	})
	got := strings.Join(kinds, " ")
	want := "SourceFile Fn Module Name ItemList Struct Name"
	if got != want {
		t.Errorf("preorder = %q, want %q", got, want)
	}

	var toks []string
	syntax.Tokens(root, func(tk *syntax.Token) bool {
		if tk.IsTrivia() {
			return true
		}
		toks = append(toks, tk.Text())
		return tk.Text() != "mod"
	})
	if strings.Join(toks, " ") != "fn f ( ) { } mod" {
		t.Errorf("tokens = %v", toks)
	}
}

func TestDeepTreeWalk(t *testing.T) {
	const depth = 100000
	b := syntax.NewBuilder()
	for range depth {
		b.StartNode(syntax.ParenExpr)
	}
	b.Token(token.IntLit, "1")
	root := b.Finish()
	n := 0
	syntax.Preorder(root, func(*syntax.Node) bool { n++; return true })
	if n != depth {
		t.Errorf("visited %d nodes, want %d", n, depth)
	}
}

func TestAstIDMapAnchors(t *testing.T) {
	root := buildSample()
	m := syntax.NewAstIDMap(root)
	if m.Len() != 4 {
		t.Fatalf("Len = %d, want 4 (root, fn, mod, struct)", m.Len())
	}
	if m.Get(span.RootAstID) != root {
		t.Error("id 0 must be the root")
	}
	anchors := m.Anchors()
	wantParents := []int{-1, 0, 0, 2}
	for i, a := range anchors {
		if a.Parent != wantParents[i] {
			t.Errorf("anchor %d parent = %d, want %d", i, a.Parent, wantParents[i])
		}
	}
	st := syntax.Descendants(root, syntax.Struct)[0]
	id, ok := m.IDOf(st)
	if !ok || id != 3 {
		t.Errorf("IDOf(struct) = %d,%v", id, ok)
	}
	name := st.ChildOfKind(syntax.Name)
	if got, _ := m.AnchorOf(name); got != 3 {
		t.Errorf("AnchorOf(name) = %d", got)
	}

	rm := span.NewRealSpanMap(source.FileID(1), span.RootContext(span.EditionLatest), anchors)
	sp := rm.SpanFor(name.Range())
	if sp.Anchor.Ast != 3 || sp.Range != (source.TextRange{Start: 7, End: 8}) {
		t.Errorf("SpanFor(name) = %v", sp)
	}
}

func TestNextTokenAndCovering(t *testing.T) {
	root := buildSample()
	first := root.FirstToken()
	if first.Text() != "fn" {
		t.Fatalf("FirstToken = %q", first.Text())
	}
	var seen []string
	for tk := first; tk != nil; tk = tk.NextToken() {
		if !tk.IsTrivia() {
			seen = append(seen, tk.Text())
		}
	}
	if got := strings.Join(seen, ""); got != "fnf(){}modm{structS;}" {
		t.Errorf("NextToken chain = %q", got)
	}
	cov := root.CoveringNode(source.TextRange{Start: 26, End: 27})
	if cov.Kind() != syntax.Name {
		t.Errorf("CoveringNode = %v", cov.Kind())
	}
}

func TestDump(t *testing.T) {
	b := syntax.NewBuilder()
	b.StartNode(syntax.ExprRoot)
	b.StartNode(syntax.Literal)
	b.Token(token.IntLit, "42")
	b.FinishNode()
	root := b.Finish()
	want := "ExprRoot@0..2\n  Literal@0..2\n    IntLit@0..2 \"42\"\n"
	if got := syntax.Dump(root, false); got != want {
		t.Errorf("Dump =\n%s\nwant\n%s", got, want)
	}
}
