package syntax

import (
	"fmt"

	"fortio.org/safecast"

	"rill/internal/span"
)

// AstIDMap assigns stable ids to the anchor nodes of one file. Ids are
// handed out in pre-order; the root always gets span.RootAstID.
type AstIDMap struct {
	nodes   []*Node
	parents []int
	ids     map[*Node]span.AstID
}

// NewAstIDMap collects the anchors of the tree rooted at root.
func NewAstIDMap(root *Node) *AstIDMap {
	m := &AstIDMap{ids: make(map[*Node]span.AstID)}
	if root == nil {
		return m
	}
	// стек индексов открытых якорей, чтобы знать родителя
	var open []int
	w := NewWalker(root)
	for {
		ev, ok := w.Next()
		if !ok {
			break
		}
		n, isNode := ev.Element.(*Node)
		if !isNode || !(n == root || n.kind.IsAnchor()) {
			continue
		}
		if ev.Leave {
			open = open[:len(open)-1]
			continue
		}
		parent := -1
		if len(open) > 0 {
			parent = open[len(open)-1]
		}
		id, err := safecast.Conv[uint32](len(m.nodes))
		if err != nil {
			panic(fmt.Errorf("syntax: too many anchors: %w", err))
		}
		m.ids[n] = span.AstID(id)
		open = append(open, len(m.nodes))
		m.nodes = append(m.nodes, n)
		m.parents = append(m.parents, parent)
	}
	return m
}

// Len returns the number of anchors.
func (m *AstIDMap) Len() int { return len(m.nodes) }

// Get returns the anchor node with the given id.
func (m *AstIDMap) Get(id span.AstID) *Node {
	if int64(id) >= int64(len(m.nodes)) {
		return nil
	}
	return m.nodes[id]
}

// IDOf returns the id of an anchor node.
func (m *AstIDMap) IDOf(n *Node) (span.AstID, bool) {
	id, ok := m.ids[n]
	return id, ok
}

// AnchorOf returns the id of the innermost anchor containing n (n itself
// when it is an anchor).
func (m *AstIDMap) AnchorOf(n *Node) (span.AstID, *Node) {
	for cur := n; cur != nil; cur = cur.parent {
		if id, ok := m.ids[cur]; ok {
			return id, cur
		}
	}
	return span.RootAstID, m.Get(span.RootAstID)
}

// Anchors lists the anchors in pre-order, in the form span.RealSpanMap
// consumes.
func (m *AstIDMap) Anchors() []span.Anchor {
	out := make([]span.Anchor, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = span.Anchor{ID: span.AstID(i), Range: n.rng, Parent: m.parents[i]} //nolint:gosec // bounded by NewAstIDMap
	}
	return out
}
