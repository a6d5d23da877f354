// Package syntax implements the lossless concrete syntax tree shared by real
// files and macro expansions.
//
// Every byte of the input is owned by exactly one Token, trivia included, so
// printing a tree reproduces its source. Trees are immutable once built and
// may be shared between goroutines.
package syntax

import (
	"strings"

	"rill/internal/source"
	"rill/internal/token"
)

// Element is either a *Node or a *Token.
type Element interface {
	Range() source.TextRange
	Parent() *Node
	isElement()
}

// Node is an inner node of the tree.
type Node struct {
	kind     NodeKind
	rng      source.TextRange
	parent   *Node
	index    int
	children []Element
}

// Token is a leaf of the tree.
type Token struct {
	kind   token.Kind
	text   string
	rng    source.TextRange
	parent *Node
	index  int
}

func (*Node) isElement()  {}
func (*Token) isElement() {}

func (n *Node) Kind() NodeKind            { return n.kind }
func (n *Node) Range() source.TextRange   { return n.rng }
func (n *Node) Parent() *Node             { return n.parent }
func (n *Node) Children() []Element       { return n.children }
func (t *Token) Kind() token.Kind         { return t.kind }
func (t *Token) Text() string             { return t.text }
func (t *Token) Range() source.TextRange  { return t.rng }
func (t *Token) Parent() *Node            { return t.parent }
func (t *Token) IsTrivia() bool           { return t.kind.IsTrivia() }
func (n *Node) Text() string              { return n.appendText(nil).String() }
func (n *Node) String() string            { return n.Text() }
func (n *Node) appendText(b *strings.Builder) *strings.Builder {
	if b == nil {
		b = &strings.Builder{}
		b.Grow(int(n.rng.Len()))
	}
	for _, c := range n.children {
		switch c := c.(type) {
		case *Token:
			b.WriteString(c.text)
		case *Node:
			c.appendText(b)
		}
	}
	return b
}

// ChildNodes returns the node children in order.
func (n *Node) ChildNodes() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		if cn, ok := c.(*Node); ok {
			out = append(out, cn)
		}
	}
	return out
}

// ChildOfKind returns the first child node of kind k.
func (n *Node) ChildOfKind(k NodeKind) *Node {
	for _, c := range n.children {
		if cn, ok := c.(*Node); ok && cn.kind == k {
			return cn
		}
	}
	return nil
}

// ChildrenOfKind returns all child nodes of kind k.
func (n *Node) ChildrenOfKind(k NodeKind) []*Node {
	var out []*Node
	for _, c := range n.children {
		if cn, ok := c.(*Node); ok && cn.kind == k {
			out = append(out, cn)
		}
	}
	return out
}

// ChildMatching returns the first child node satisfying pred.
func (n *Node) ChildMatching(pred func(NodeKind) bool) *Node {
	for _, c := range n.children {
		if cn, ok := c.(*Node); ok && pred(cn.kind) {
			return cn
		}
	}
	return nil
}

// TokenOfKind returns the first direct token child of kind k.
func (n *Node) TokenOfKind(k token.Kind) *Token {
	for _, c := range n.children {
		if t, ok := c.(*Token); ok && t.kind == k {
			return t
		}
	}
	return nil
}

// FirstToken returns the first token of the subtree (trivia included).
func (n *Node) FirstToken() *Token {
	for _, c := range n.children {
		switch c := c.(type) {
		case *Token:
			return c
		case *Node:
			if t := c.FirstToken(); t != nil {
				return t
			}
		}
	}
	return nil
}

// LastToken returns the last token of the subtree (trivia included).
func (n *Node) LastToken() *Token {
	for i := len(n.children) - 1; i >= 0; i-- {
		switch c := n.children[i].(type) {
		case *Token:
			return c
		case *Node:
			if t := c.LastToken(); t != nil {
				return t
			}
		}
	}
	return nil
}

// TrimmedRange is the range of the node without leading and trailing
// trivia.
func (n *Node) TrimmedRange() source.TextRange {
	var first, last *Token
	Tokens(n, func(t *Token) bool {
		if !t.IsTrivia() {
			if first == nil {
				first = t
			}
			last = t
		}
		return true
	})
	if first == nil {
		return source.TextRange{Start: n.rng.Start, End: n.rng.Start}
	}
	return source.TextRange{Start: first.rng.Start, End: last.rng.End}
}

// NextSibling returns the element following n in its parent.
func (n *Node) NextSibling() Element { return sibling(n.parent, n.index+1) }

// PrevSibling returns the element preceding n in its parent.
func (n *Node) PrevSibling() Element { return sibling(n.parent, n.index-1) }

// NextSibling returns the element following t in its parent.
func (t *Token) NextSibling() Element { return sibling(t.parent, t.index+1) }

// PrevSibling returns the element preceding t in its parent.
func (t *Token) PrevSibling() Element { return sibling(t.parent, t.index-1) }

func sibling(p *Node, i int) Element {
	if p == nil || i < 0 || i >= len(p.children) {
		return nil
	}
	return p.children[i]
}

// NextToken returns the token following t in the whole tree.
func (t *Token) NextToken() *Token {
	var el Element = t
	for el != nil {
		var next Element
		switch e := el.(type) {
		case *Token:
			next = e.NextSibling()
		case *Node:
			next = e.NextSibling()
		}
		for next != nil {
			switch nx := next.(type) {
			case *Token:
				return nx
			case *Node:
				if ft := nx.FirstToken(); ft != nil {
					return ft
				}
				next = nx.NextSibling()
			}
		}
		if p := el.Parent(); p != nil {
			el = p
		} else {
			el = nil
		}
	}
	return nil
}

// Ancestors returns the chain of parents of n, nearest first.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Root returns the root of the tree n belongs to.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// CoveringNode returns the deepest node whose range contains r.
func (n *Node) CoveringNode(r source.TextRange) *Node {
	cur := n
	for {
		var next *Node
		for _, c := range cur.children {
			if cn, ok := c.(*Node); ok && cn.rng.ContainsRange(r) && !cn.rng.Empty() {
				next = cn
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}
