package syntaxbridge

import (
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/token"
	"rill/internal/tt"
)

// FixupIdent is the placeholder identifier inserted for missing syntax.
const FixupIdent = "__rill_fixup"

// UndoInfo remembers what Fixup removed so that Reverse can put it back.
type UndoInfo struct {
	Original []*tt.Subtree
}

// Fixup computes grafts that turn incomplete syntax under node into
// something an expander can digest: error nodes are replaced by a
// placeholder, missing blocks become `{}`, a trailing `.` gets a field
// name, a `let` gets its initializer and `;`. Every synthesized token
// carries a fixup span (see span.FixupSpan) so Reverse can find it.
func Fixup(node *syntax.Node, spanFor SpanFunc, fixup span.Span, g *Grafts) *UndoInfo {
	undo := &UndoInfo{}
	ident := func() tt.TokenTree { return tt.Ident{Text: FixupIdent, Sp: fixup} }
	block := func() tt.TokenTree { return tt.NewSubtree(tt.Brace, fixup, fixup) }
	appendTo := func(n *syntax.Node, trees ...tt.TokenTree) {
		g.Append[n] = append(g.Append[n], trees...)
	}
	syntax.Preorder(node, func(n *syntax.Node) bool {
		if _, replaced := g.Replace[n]; replaced {
			return false
		}
		switch n.Kind() {
		case syntax.Error:
			if n.FirstToken() == nil {
				return false
			}
			marker := fixup
			marker.Range.Start = uint32(len(undo.Original)) + 1 //nolint:gosec // small count
			marker.Range.End = marker.Range.Start
			undo.Original = append(undo.Original, SyntaxToTokenTree(n, spanFor, nil))
			g.Replace[n] = []tt.TokenTree{tt.Ident{Text: FixupIdent, Sp: marker}}
			return false
		case syntax.FieldExpr:
			if n.ChildOfKind(syntax.NameRef) == nil && n.TokenOfKind(token.IntLit) == nil {
				appendTo(n, ident())
			}
		case syntax.MethodCallExpr:
			if n.ChildOfKind(syntax.ArgList) == nil {
				appendTo(n, tt.NewSubtree(tt.Parenthesis, fixup, fixup))
			}
		case syntax.IfExpr, syntax.WhileExpr:
			// парсер вставляет пустые узлы на месте пропущенного
			exprs := 0
			for _, c := range n.ChildNodes() {
				if c.Kind().IsExpr() && written(c) {
					exprs++
				}
			}
			if exprs == 0 {
				appendTo(n, ident())
			}
			if exprs < 2 {
				appendTo(n, block())
			}
		case syntax.ForExpr, syntax.LoopExpr:
			if !written(n.ChildOfKind(syntax.BlockExpr)) {
				appendTo(n, block())
			}
		case syntax.LetStmt:
			if n.TokenOfKind(token.Eq) != nil && !written(n.ChildMatching(syntax.NodeKind.IsExpr)) {
				appendTo(n, ident())
			}
			if n.TokenOfKind(token.Semi) == nil {
				appendTo(n, tt.Punct{Char: ';', Spacing: tt.Alone, Sp: fixup})
			}
		}
		return true
	})
	return undo
}

// written reports whether n exists and covers at least one token.
func written(n *syntax.Node) bool {
	return n != nil && n.FirstToken() != nil
}

// Reverse removes fixup tokens from st and restores the syntax Fixup
// replaced. It returns a new tree; st is not modified.
func Reverse(st *tt.Subtree, undo *UndoInfo) *tt.Subtree {
	type frame struct {
		src *tt.Subtree
		dst *tt.Subtree
		i   int
	}
	root := tt.NewSubtree(st.Delim.Kind, st.Delim.Open, st.Delim.Close)
	stack := []frame{{src: st, dst: root}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.i >= len(f.src.Children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := f.src.Children[f.i]
		f.i++
		switch c := child.(type) {
		case *tt.Subtree:
			if c.Delim.Open.IsFixup() {
				continue
			}
			dst := tt.NewSubtree(c.Delim.Kind, c.Delim.Open, c.Delim.Close)
			f.dst.Push(dst)
			stack = append(stack, frame{src: c, dst: dst})
		case tt.Leaf:
			sp := c.Span()
			if !sp.IsFixup() {
				f.dst.Push(c)
				continue
			}
			idx := int(sp.Range.Start) - 1
			if undo != nil && idx >= 0 && idx < len(undo.Original) {
				f.dst.Push(undo.Original[idx].Clone().Children...)
			}
		}
	}
	return root
}
