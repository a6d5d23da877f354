package syntax

import (
	"fmt"

	"fortio.org/safecast"

	"rill/internal/source"
	"rill/internal/token"
)

// Builder assembles a tree bottom-up from a flat sequence of StartNode,
// Token and FinishNode calls. Ranges are computed from token text.
type Builder struct {
	stack  []*Node
	offset uint32
	root   *Node
}

// NewBuilder creates a builder whose first token starts at offset 0.
func NewBuilder() *Builder {
	return &Builder{}
}

// Offset returns the end offset of the last pushed token.
func (b *Builder) Offset() uint32 { return b.offset }

// Depth returns the number of open nodes.
func (b *Builder) Depth() int { return len(b.stack) }

// StartNode opens a node of kind k.
func (b *Builder) StartNode(k NodeKind) {
	n := &Node{kind: k, rng: source.TextRange{Start: b.offset, End: b.offset}}
	if len(b.stack) > 0 {
		b.attach(b.stack[len(b.stack)-1], n)
	}
	b.stack = append(b.stack, n)
}

// Token appends a leaf to the innermost open node.
func (b *Builder) Token(k token.Kind, text string) {
	if len(b.stack) == 0 {
		panic(fmt.Errorf("syntax: token %v outside of any node", k))
	}
	n, err := safecast.Conv[uint32](len(text))
	if err != nil {
		panic(fmt.Errorf("syntax: token too long: %w", err))
	}
	t := &Token{kind: k, text: text, rng: source.TextRange{Start: b.offset, End: b.offset + n}}
	b.offset += n
	b.attach(b.stack[len(b.stack)-1], t)
}

// FinishNode closes the innermost open node.
func (b *Builder) FinishNode() {
	if len(b.stack) == 0 {
		panic("syntax: FinishNode without StartNode")
	}
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	n.rng.End = b.offset
	if len(b.stack) == 0 {
		b.root = n
	}
}

// Finish returns the completed root. Nodes still open are closed.
func (b *Builder) Finish() *Node {
	for len(b.stack) > 0 {
		b.FinishNode()
	}
	return b.root
}

func (b *Builder) attach(parent *Node, el Element) {
	switch e := el.(type) {
	case *Node:
		e.parent = parent
		e.index = len(parent.children)
	case *Token:
		e.parent = parent
		e.index = len(parent.children)
	}
	parent.children = append(parent.children, el)
}
