package tt

import (
	"fmt"
	"strings"

	"rill/internal/token"
)

// LeafText returns the source text of a leaf.
func LeafText(l Leaf) string {
	switch l := l.(type) {
	case Ident:
		return l.Text
	case Literal:
		return l.Text
	case Punct:
		return string(l.Char)
	}
	return ""
}

// Pretty renders trees as source text: one space between tokens, none after
// a Joint punct. Invisible delimiters print nothing. A parenthesized group
// is glued to a preceding non-keyword ident (`f(x)`), and any group to a
// preceding `#` or `!` (`#[a]`, `m!{}`).
func Pretty(trees []TokenTree) string {
	var b strings.Builder
	prettyInto(&b, trees)
	return b.String()
}

func prettyInto(b *strings.Builder, trees []TokenTree) {
	var prev TokenTree
	for i, t := range trees {
		if i > 0 && !glued(prev, t) {
			b.WriteByte(' ')
		}
		prev = t
		switch t := t.(type) {
		case *Subtree:
			if c := t.Delim.Kind.Open(); c != 0 {
				b.WriteByte(c)
			}
			prettyInto(b, t.Children)
			if c := t.Delim.Kind.Close(); c != 0 {
				b.WriteByte(c)
			}
		case Leaf:
			b.WriteString(LeafText(t))
		}
	}
}

// glued reports whether next prints without a space after prev.
func glued(prev, next TokenTree) bool {
	if p, ok := prev.(Punct); ok && p.Spacing == Joint {
		return true
	}
	group, ok := next.(*Subtree)
	if !ok || group.Delim.Kind == Invisible {
		return false
	}
	switch p := prev.(type) {
	case Punct:
		return p.Char == '#' || p.Char == '!'
	case Ident:
		if group.Delim.Kind != Parenthesis {
			return false
		}
		kw, isKw := token.LookupKeyword(p.Text)
		return !isKw || kw == token.KwFn || kw == token.KwSelfType
	}
	return false
}

// String renders the subtree with Pretty, delimiters included.
func (s *Subtree) String() string {
	return Pretty([]TokenTree{s})
}

// DebugDump renders the tree with spans, one token per line:
//
//	SUBTREE () 0:#0@0..5#0 0:#0@5..6#0
//	  IDENT   foo 0:#0@1..4#0
//	  PUNCT   - [joint] 0:#0@4..5#0
func DebugDump(s *Subtree) string {
	var b strings.Builder
	debugInto(&b, s, 0)
	return b.String()
}

func debugInto(b *strings.Builder, s *Subtree, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%sSUBTREE %s %s %s\n", indent, s.Delim.Kind, s.Delim.Open, s.Delim.Close)
	for _, c := range s.Children {
		switch c := c.(type) {
		case *Subtree:
			debugInto(b, c, depth+1)
		case Ident:
			fmt.Fprintf(b, "%s  IDENT   %s %s\n", indent, c.Text, c.Sp)
		case Literal:
			fmt.Fprintf(b, "%s  LITERAL %s %s\n", indent, c.Text, c.Sp)
		case Punct:
			sp := "alone"
			if c.Spacing == Joint {
				sp = "joint"
			}
			fmt.Fprintf(b, "%s  PUNCT   %c [%s] %s\n", indent, c.Char, sp, c.Sp)
		}
	}
}
