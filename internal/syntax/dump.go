package syntax

import (
	"fmt"
	"strings"
)

// Dump renders the tree one element per line, indented by depth:
//
//	SourceFile@0..9
//	  Fn@0..9
//	    fn@0..2 "fn"
func Dump(n *Node, withTrivia bool) string {
	var b strings.Builder
	depth := 0
	w := NewWalker(n)
	for {
		ev, ok := w.Next()
		if !ok {
			break
		}
		switch e := ev.Element.(type) {
		case *Node:
			if ev.Leave {
				depth--
				continue
			}
			fmt.Fprintf(&b, "%s%s@%s\n", strings.Repeat("  ", depth), e.kind, e.rng)
			depth++
		case *Token:
			if e.IsTrivia() && !withTrivia {
				continue
			}
			fmt.Fprintf(&b, "%s%s@%s %q\n", strings.Repeat("  ", depth), e.kind, e.rng, e.text)
		}
	}
	return b.String()
}
