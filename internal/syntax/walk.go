package syntax

// WalkEvent is produced by Walker: Enter before the children of a node and
// Leave after them. Tokens only produce Enter.
type WalkEvent struct {
	Leave   bool
	Element Element
}

type walkFrame struct {
	node *Node
	next int
}

// Walker is a pre-order traversal with an explicit stack, so arbitrarily
// deep trees never grow the goroutine stack.
type Walker struct {
	stack   []walkFrame
	start   *Node
	started bool
	skip    bool
}

// NewWalker creates a walker over the subtree rooted at n.
func NewWalker(n *Node) *Walker {
	return &Walker{start: n}
}

// Next returns the following event, or false when the walk is over.
func (w *Walker) Next() (WalkEvent, bool) {
	if !w.started {
		w.started = true
		if w.start == nil {
			return WalkEvent{}, false
		}
		w.stack = append(w.stack, walkFrame{node: w.start})
		return WalkEvent{Element: w.start}, true
	}
	if len(w.stack) == 0 {
		return WalkEvent{}, false
	}
	top := &w.stack[len(w.stack)-1]
	if w.skip {
		w.skip = false
		top.next = len(top.node.children)
	}
	if top.next >= len(top.node.children) {
		n := top.node
		w.stack = w.stack[:len(w.stack)-1]
		return WalkEvent{Leave: true, Element: n}, true
	}
	child := top.node.children[top.next]
	top.next++
	if cn, ok := child.(*Node); ok {
		w.stack = append(w.stack, walkFrame{node: cn})
	}
	return WalkEvent{Element: child}, true
}

// SkipSubtree skips the children of the node entered last. Its Leave event
// is still produced.
func (w *Walker) SkipSubtree() {
	w.skip = true
}

// Preorder calls fn for every node of the subtree in pre-order. Returning
// false from fn skips the node's children.
func Preorder(n *Node, fn func(*Node) bool) {
	w := NewWalker(n)
	for {
		ev, ok := w.Next()
		if !ok {
			return
		}
		if ev.Leave {
			continue
		}
		if cn, ok := ev.Element.(*Node); ok && !fn(cn) {
			w.SkipSubtree()
		}
	}
}

// Tokens calls fn for every token of the subtree in order. Returning false
// stops the walk.
func Tokens(n *Node, fn func(*Token) bool) {
	w := NewWalker(n)
	for {
		ev, ok := w.Next()
		if !ok {
			return
		}
		if t, ok := ev.Element.(*Token); ok && !fn(t) {
			return
		}
	}
}

// Descendants returns all nodes of the subtree (n included) matching kind.
func Descendants(n *Node, kind NodeKind) []*Node {
	var out []*Node
	Preorder(n, func(c *Node) bool {
		if c.kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}
