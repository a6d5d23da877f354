package syntax

import (
	"strings"

	"rill/internal/token"
)

// NonTriviaText returns the text of n without trivia, tokens joined by
// nothing. Used for comparing paths and names.
func NonTriviaText(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	Tokens(n, func(t *Token) bool {
		if !t.IsTrivia() {
			b.WriteString(t.text)
		}
		return true
	})
	return b.String()
}

// NameText returns the identifier of the Name child of n.
func NameText(n *Node) string {
	if n == nil {
		return ""
	}
	name := n.ChildOfKind(Name)
	if name == nil {
		return ""
	}
	return NonTriviaText(name)
}

// MacroCallPath returns the Path of a MacroCall.
func MacroCallPath(call *Node) *Node {
	return call.ChildOfKind(Path)
}

// MacroCallTokenTree returns the delimited argument of a MacroCall.
func MacroCallTokenTree(call *Node) *Node {
	return call.ChildOfKind(TokenTree)
}

// PathName returns the last segment of a path.
func PathName(path *Node) string {
	if path == nil {
		return ""
	}
	segs := Descendants(path, PathSegment)
	if len(segs) == 0 {
		return ""
	}
	return NonTriviaText(segs[len(segs)-1].ChildOfKind(NameRef))
}

// Attrs returns the attributes of an item in source order.
func Attrs(item *Node) []*Node {
	return item.ChildrenOfKind(Attr)
}

// AttrIsInner reports whether attr is written #![...].
func AttrIsInner(attr *Node) bool {
	return attr.TokenOfKind(token.Bang) != nil
}

// AttrPath returns the text of the attribute's path, e.g. "derive".
func AttrPath(attr *Node) string {
	meta := attr.ChildOfKind(Meta)
	if meta == nil {
		return ""
	}
	return NonTriviaText(meta.ChildOfKind(Path))
}

// AttrTokenTree returns the delimited input of attr, if any.
func AttrTokenTree(attr *Node) *Node {
	meta := attr.ChildOfKind(Meta)
	if meta == nil {
		return nil
	}
	return meta.ChildOfKind(TokenTree)
}

// HasAttr reports whether item carries an attribute with the given path.
func HasAttr(item *Node, path string) bool {
	for _, a := range Attrs(item) {
		if AttrPath(a) == path {
			return true
		}
	}
	return false
}

// MacroCallsIn returns the macro calls of the subtree that are not nested
// inside another macro call's argument. Calls are in source order.
func MacroCallsIn(root *Node) []*Node {
	var out []*Node
	Preorder(root, func(n *Node) bool {
		switch n.kind {
		case MacroCall:
			out = append(out, n)
			return false
		case MacroRules:
			return false
		}
		return true
	})
	return out
}
