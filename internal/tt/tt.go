// Package tt defines token trees, the interchange format between macro
// arguments, expanders and expansion output.
//
// A token tree is a Subtree: a delimiter with its open/close spans and an
// ordered list of children, each either a Leaf (Ident, Literal, Punct) or a
// nested Subtree. Trees are immutable values once built.
package tt

import (
	"rill/internal/span"
)

// DelimiterKind is the kind of brackets around a subtree.
type DelimiterKind uint8

const (
	Invisible DelimiterKind = iota
	Parenthesis
	Brace
	Bracket
)

func (k DelimiterKind) String() string {
	switch k {
	case Parenthesis:
		return "()"
	case Brace:
		return "{}"
	case Bracket:
		return "[]"
	default:
		return "∅"
	}
}

// Open returns the opening character, 0 for Invisible.
func (k DelimiterKind) Open() byte {
	switch k {
	case Parenthesis:
		return '('
	case Brace:
		return '{'
	case Bracket:
		return '['
	}
	return 0
}

// Close returns the closing character, 0 for Invisible.
func (k DelimiterKind) Close() byte {
	switch k {
	case Parenthesis:
		return ')'
	case Brace:
		return '}'
	case Bracket:
		return ']'
	}
	return 0
}

// Delimiter carries the kind and the spans of both brackets. Invisible
// delimiters still have spans: they cover the grouped tokens' origin.
type Delimiter struct {
	Kind  DelimiterKind
	Open  span.Span
	Close span.Span
}

// Spacing tells whether a punct is glued to the following punct.
type Spacing uint8

const (
	Alone Spacing = iota
	Joint
)

func (s Spacing) String() string {
	if s == Joint {
		return "Joint"
	}
	return "Alone"
}

// TokenTree is either a Leaf or a *Subtree.
type TokenTree interface {
	FirstSpan() span.Span
	isTokenTree()
}

// Leaf is one of Ident, Literal or Punct.
type Leaf interface {
	TokenTree
	Span() span.Span
	isLeaf()
}

// Ident is an identifier or keyword. Raw identifiers keep their r# prefix
// in Text.
type Ident struct {
	Text string
	Sp   span.Span
}

// Literal is any literal token, suffix included in Text.
type Literal struct {
	Text string
	Sp   span.Span
}

// Punct is a single punctuation character.
type Punct struct {
	Char    byte
	Spacing Spacing
	Sp      span.Span
}

// Subtree is a delimited sequence of token trees.
type Subtree struct {
	Delim    Delimiter
	Children []TokenTree
}

func (Ident) isTokenTree()    {}
func (Literal) isTokenTree()  {}
func (Punct) isTokenTree()    {}
func (*Subtree) isTokenTree() {}
func (Ident) isLeaf()         {}
func (Literal) isLeaf()       {}
func (Punct) isLeaf()         {}

func (i Ident) Span() span.Span   { return i.Sp }
func (l Literal) Span() span.Span { return l.Sp }
func (p Punct) Span() span.Span   { return p.Sp }

func (i Ident) FirstSpan() span.Span      { return i.Sp }
func (l Literal) FirstSpan() span.Span    { return l.Sp }
func (p Punct) FirstSpan() span.Span      { return p.Sp }
func (s *Subtree) FirstSpan() span.Span   { return s.Delim.Open }
func (s *Subtree) Len() int               { return len(s.Children) }
func (s *Subtree) IsInvisible() bool      { return s.Delim.Kind == Invisible }
func (s *Subtree) Push(trees ...TokenTree) { s.Children = append(s.Children, trees...) }

// NewSubtree creates an empty subtree.
func NewSubtree(kind DelimiterKind, open, closeSp span.Span) *Subtree {
	return &Subtree{Delim: Delimiter{Kind: kind, Open: open, Close: closeSp}}
}

// InvisibleAround wraps trees into an invisible subtree whose delimiter spans
// are sp.
func InvisibleAround(sp span.Span, trees ...TokenTree) *Subtree {
	return &Subtree{Delim: Delimiter{Kind: Invisible, Open: sp, Close: sp}, Children: trees}
}

// CountLeaves counts the leaves of the tree, recursively.
func (s *Subtree) CountLeaves() int {
	n := 0
	for _, c := range s.Children {
		if st, ok := c.(*Subtree); ok {
			n += st.CountLeaves()
			continue
		}
		n++
	}
	return n
}

// Walk visits every leaf in order, recursing into subtrees. Subtrees are
// passed to enter before their children.
func (s *Subtree) Walk(enter func(*Subtree), leaf func(Leaf)) {
	type frame struct {
		st *Subtree
		i  int
	}
	if enter != nil {
		enter(s)
	}
	stack := []frame{{st: s}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i >= len(top.st.Children) {
			stack = stack[:len(stack)-1]
			continue
		}
		c := top.st.Children[top.i]
		top.i++
		switch c := c.(type) {
		case *Subtree:
			if enter != nil {
				enter(c)
			}
			stack = append(stack, frame{st: c})
		case Leaf:
			if leaf != nil {
				leaf(c)
			}
		}
	}
}

// Clone returns a deep copy.
func (s *Subtree) Clone() *Subtree {
	out := &Subtree{Delim: s.Delim, Children: make([]TokenTree, len(s.Children))}
	for i, c := range s.Children {
		if st, ok := c.(*Subtree); ok {
			out.Children[i] = st.Clone()
			continue
		}
		out.Children[i] = c
	}
	return out
}

// MapSpans returns a deep copy with every span (leaves and delimiters)
// rewritten by fn.
func (s *Subtree) MapSpans(fn func(span.Span) span.Span) *Subtree {
	out := &Subtree{
		Delim:    Delimiter{Kind: s.Delim.Kind, Open: fn(s.Delim.Open), Close: fn(s.Delim.Close)},
		Children: make([]TokenTree, len(s.Children)),
	}
	for i, c := range s.Children {
		switch c := c.(type) {
		case *Subtree:
			out.Children[i] = c.MapSpans(fn)
		case Ident:
			c.Sp = fn(c.Sp)
			out.Children[i] = c
		case Literal:
			c.Sp = fn(c.Sp)
			out.Children[i] = c
		case Punct:
			c.Sp = fn(c.Sp)
			out.Children[i] = c
		}
	}
	return out
}
