package tt

import (
	"errors"

	"rill/internal/lexer"
)

// ErrUnexpected is returned by the Expect helpers when the next tree does
// not have the requested shape.
var ErrUnexpected = errors.New("unexpected token tree")

// Iter walks the children of one subtree without descending.
type Iter struct {
	trees []TokenTree
	pos   int
}

// NewIter iterates over the children of s.
func NewIter(s *Subtree) *Iter {
	return &Iter{trees: s.Children}
}

// IterOver iterates over an arbitrary slice of trees.
func IterOver(trees []TokenTree) *Iter {
	return &Iter{trees: trees}
}

func (it *Iter) Len() int            { return len(it.trees) - it.pos }
func (it *Iter) Done() bool          { return it.pos >= len(it.trees) }
func (it *Iter) Pos() int            { return it.pos }
func (it *Iter) Reset(pos int)       { it.pos = pos }
func (it *Iter) Remaining() []TokenTree { return it.trees[it.pos:] }

// Fork returns an independent iterator at the same position.
func (it *Iter) Fork() *Iter {
	return &Iter{trees: it.trees, pos: it.pos}
}

// Peek returns the next tree without consuming it.
func (it *Iter) Peek() TokenTree {
	return it.PeekN(0)
}

// PeekN returns the n-th tree after the current one.
func (it *Iter) PeekN(n int) TokenTree {
	if it.pos+n >= len(it.trees) || it.pos+n < 0 {
		return nil
	}
	return it.trees[it.pos+n]
}

// Next consumes and returns the next tree.
func (it *Iter) Next() TokenTree {
	if it.Done() {
		return nil
	}
	t := it.trees[it.pos]
	it.pos++
	return t
}

// Skip consumes n trees.
func (it *Iter) Skip(n int) {
	it.pos = min(it.pos+n, len(it.trees))
}

// ExpectIdent consumes an identifier.
func (it *Iter) ExpectIdent() (Ident, error) {
	if id, ok := it.Peek().(Ident); ok {
		it.pos++
		return id, nil
	}
	return Ident{}, ErrUnexpected
}

// ExpectLiteral consumes a literal.
func (it *Iter) ExpectLiteral() (Literal, error) {
	if lit, ok := it.Peek().(Literal); ok {
		it.pos++
		return lit, nil
	}
	return Literal{}, ErrUnexpected
}

// ExpectSubtree consumes a subtree.
func (it *Iter) ExpectSubtree() (*Subtree, error) {
	if st, ok := it.Peek().(*Subtree); ok {
		it.pos++
		return st, nil
	}
	return nil, ErrUnexpected
}

// ExpectPunct consumes the punct ch.
func (it *Iter) ExpectPunct(ch byte) (Punct, error) {
	if p, ok := it.Peek().(Punct); ok && p.Char == ch {
		it.pos++
		return p, nil
	}
	return Punct{}, ErrUnexpected
}

// ExpectGluedPunct consumes a punct together with the Joint puncts glued to
// it, as long as they still spell an operator (`..=`, `<<=`).
func (it *Iter) ExpectGluedPunct() ([]Punct, error) {
	first, ok := it.Peek().(Punct)
	if !ok {
		return nil, ErrUnexpected
	}
	out := []Punct{first}
	it.pos++
	text := []byte{first.Char}
	last := first
	for len(out) < lexer.MaxOpLen && last.Spacing == Joint {
		next, ok := it.Peek().(Punct)
		if !ok {
			break
		}
		if _, known := lexer.LookupOp(string(append(text, next.Char))); !known {
			break
		}
		text = append(text, next.Char)
		out = append(out, next)
		it.pos++
		last = next
	}
	return out, nil
}

// IsPunct reports whether t is the punct ch.
func IsPunct(t TokenTree, ch byte) bool {
	p, ok := t.(Punct)
	return ok && p.Char == ch
}

// IsIdent reports whether t is the identifier text.
func IsIdent(t TokenTree, text string) bool {
	id, ok := t.(Ident)
	return ok && id.Text == text
}
