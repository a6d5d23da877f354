package syntaxbridge

import (
	"rill/internal/lexer"
	"rill/internal/source"
	"rill/internal/syntax"
	"rill/internal/token"
	"rill/internal/tt"
)

// Grafts edit a syntax tree while it is converted. Append adds leaves after
// a node's own tokens; Replace skips a node and emits its replacement (an
// empty slice removes the node).
type Grafts struct {
	Append  map[*syntax.Node][]tt.TokenTree
	Replace map[*syntax.Node][]tt.TokenTree
}

// NewGrafts returns empty grafts.
func NewGrafts() *Grafts {
	return &Grafts{
		Append:  make(map[*syntax.Node][]tt.TokenTree),
		Replace: make(map[*syntax.Node][]tt.TokenTree),
	}
}

// SyntaxToTokenTree converts node into a token tree rooted at an invisible
// subtree. spanFor gives the span of every token's range; g may be nil.
// The walk uses an explicit stack and never fails: unbalanced delimiters are
// force-closed or kept as puncts.
func SyntaxToTokenTree(node *syntax.Node, spanFor SpanFunc, g *Grafts) *tt.Subtree {
	rng := node.Range()
	c := newConverter(spanFor(source.TextRange{Start: rng.Start, End: rng.Start}))
	w := syntax.NewWalker(node)
	for {
		ev, ok := w.Next()
		if !ok {
			break
		}
		switch el := ev.Element.(type) {
		case *syntax.Node:
			if g == nil {
				continue
			}
			if ev.Leave {
				c.push(g.Append[el]...)
				continue
			}
			if repl, ok := g.Replace[el]; ok {
				c.push(repl...)
				w.SkipSubtree()
			}
		case *syntax.Token:
			c.token(el.Kind(), el.Text(), el.Range(), spanFor, jointWithNext(el, rng))
		}
	}
	return c.finish(spanFor(source.TextRange{Start: rng.End, End: rng.End}))
}

// jointWithNext: последний символ пунктуации Joint, если вплотную за ним идёт
// ещё пунктуация (не скобка) или лайфтайм.
func jointWithNext(t *syntax.Token, bound source.TextRange) bool {
	if !isGluePunct(t.Kind()) {
		return false
	}
	next := t.NextToken()
	if next == nil || next.Range().Start != t.Range().End || next.Range().End > bound.End {
		return false
	}
	return isGluePunct(next.Kind()) || next.Kind() == token.Lifetime
}

// TextToTokenTree lexes text and converts it. Ranges passed to spanFor are
// relative to the start of text.
func TextToTokenTree(text string, spanFor SpanFunc) *tt.Subtree {
	return TokensToTokenTree(lexer.TokenizeText(text, lexer.Options{}), spanFor)
}

// TokensToTokenTree converts lexer output (EOF-terminated).
func TokensToTokenTree(toks []token.Token, spanFor SpanFunc) *tt.Subtree {
	start := uint32(0)
	if len(toks) > 0 {
		start = toks[0].Range.Start
		if len(toks[0].Leading) > 0 {
			start = toks[0].Leading[0].Range.Start
		}
	}
	c := newConverter(spanFor(source.TextRange{Start: start, End: start}))
	end := start
	for i, t := range toks {
		for _, tr := range t.Leading {
			if tr.Kind.IsDoc() {
				c.token(token.DocComment, tr.Text, tr.Range, spanFor, false)
			}
		}
		if t.Kind == token.EOF {
			end = t.Range.End
			break
		}
		joint := false
		if i+1 < len(toks) && isGluePunct(t.Kind) {
			next := toks[i+1]
			joint = len(next.Leading) == 0 && next.Range.Start == t.Range.End &&
				(isGluePunct(next.Kind) || next.Kind == token.Lifetime)
		}
		c.token(t.Kind, t.Text, t.Range, spanFor, joint)
		end = t.Range.End
	}
	return c.finish(spanFor(source.TextRange{Start: end, End: end}))
}

// Unwrap returns the single delimited subtree of an invisible root, or the
// root itself.
func Unwrap(st *tt.Subtree) *tt.Subtree {
	if st.IsInvisible() && len(st.Children) == 1 {
		if inner, ok := st.Children[0].(*tt.Subtree); ok {
			return inner
		}
	}
	return st
}
