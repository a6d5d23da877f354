package procmacro

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/tt"
)

// ErrMalformed is returned for token trees that do not decode into a
// well-formed tree.
var ErrMalformed = errors.New("malformed token tree")

type flatKind uint8

const (
	flatOpen flatKind = iota
	flatClose
	flatIdent
	flatLiteral
	flatPunct
)

// FlatSpan is a span on the wire.
type FlatSpan struct {
	_msgpack struct{} `msgpack:",as_array"`
	File     uint32
	Ast      uint32
	Start    uint32
	End      uint32
	Ctx      uint32
}

func flatSpan(sp span.Span) FlatSpan {
	return FlatSpan{
		File:  uint32(sp.Anchor.File),
		Ast:   uint32(sp.Anchor.Ast),
		Start: sp.Range.Start,
		End:   sp.Range.End,
		Ctx:   uint32(sp.Ctx),
	}
}

// Span converts back.
func (f FlatSpan) Span() span.Span {
	return span.Span{
		Anchor: span.SpanAnchor{File: source.FileID(f.File), Ast: span.AstID(f.Ast)},
		Range:  source.TextRange{Start: f.Start, End: f.End},
		Ctx:    span.SyntaxContext(f.Ctx),
	}
}

// FlatToken is one token of a pre-order token tree walk. Subtrees become an
// open and a close token carrying the delimiter kind.
type FlatToken struct {
	_msgpack struct{} `msgpack:",as_array"`
	Kind     uint8
	Text     string
	Delim    uint8
	Joint    bool
	Span     uint32
}

// FlatTree is a token tree with a deduplicated span table.
type FlatTree struct {
	Spans  []FlatSpan
	Tokens []FlatToken
}

// Flatten encodes a subtree, its own delimiters included.
func Flatten(st *tt.Subtree) *FlatTree {
	f := &FlatTree{}
	index := make(map[span.Span]uint32)
	spanIdx := func(sp span.Span) uint32 {
		if i, ok := index[sp]; ok {
			return i
		}
		i, err := safecast.Conv[uint32](len(f.Spans))
		if err != nil {
			panic(fmt.Errorf("span table overflow: %w", err))
		}
		index[sp] = i
		f.Spans = append(f.Spans, flatSpan(sp))
		return i
	}
	var walk func(st *tt.Subtree)
	walk = func(st *tt.Subtree) {
		f.Tokens = append(f.Tokens, FlatToken{Kind: uint8(flatOpen), Delim: uint8(st.Delim.Kind), Span: spanIdx(st.Delim.Open)})
		for _, c := range st.Children {
			switch c := c.(type) {
			case *tt.Subtree:
				walk(c)
			case tt.Ident:
				f.Tokens = append(f.Tokens, FlatToken{Kind: uint8(flatIdent), Text: c.Text, Span: spanIdx(c.Sp)})
			case tt.Literal:
				f.Tokens = append(f.Tokens, FlatToken{Kind: uint8(flatLiteral), Text: c.Text, Span: spanIdx(c.Sp)})
			case tt.Punct:
				f.Tokens = append(f.Tokens, FlatToken{
					Kind:  uint8(flatPunct),
					Text:  string(c.Char),
					Joint: c.Spacing == tt.Joint,
					Span:  spanIdx(c.Sp),
				})
			}
		}
		f.Tokens = append(f.Tokens, FlatToken{Kind: uint8(flatClose), Delim: uint8(st.Delim.Kind), Span: spanIdx(st.Delim.Close)})
	}
	walk(st)
	return f
}

// Tree decodes the flat form, validating its structure.
func (f *FlatTree) Tree() (*tt.Subtree, error) {
	if f == nil || len(f.Tokens) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	spanAt := func(i int) (span.Span, error) {
		idx := f.Tokens[i].Span
		if int(idx) >= len(f.Spans) {
			return span.Span{}, fmt.Errorf("%w: token %d refers to missing span %d", ErrMalformed, i, idx)
		}
		return f.Spans[idx].Span(), nil
	}
	var stack []*tt.Subtree
	var root *tt.Subtree
	for i, t := range f.Tokens {
		if root != nil {
			return nil, fmt.Errorf("%w: trailing tokens after the root", ErrMalformed)
		}
		sp, err := spanAt(i)
		if err != nil {
			return nil, err
		}
		if flatKind(t.Kind) != flatOpen && len(stack) == 0 {
			return nil, fmt.Errorf("%w: token %d outside of any subtree", ErrMalformed, i)
		}
		switch flatKind(t.Kind) {
		case flatOpen:
			if t.Delim > uint8(tt.Bracket) {
				return nil, fmt.Errorf("%w: unknown delimiter %d", ErrMalformed, t.Delim)
			}
			st := tt.NewSubtree(tt.DelimiterKind(t.Delim), sp, sp)
			if len(stack) > 0 {
				stack[len(stack)-1].Push(st)
			}
			stack = append(stack, st)
		case flatClose:
			top := stack[len(stack)-1]
			if uint8(top.Delim.Kind) != t.Delim {
				return nil, fmt.Errorf("%w: mismatched close at token %d", ErrMalformed, i)
			}
			top.Delim.Close = sp
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = top
			}
		case flatIdent:
			if t.Text == "" {
				return nil, fmt.Errorf("%w: empty identifier", ErrMalformed)
			}
			stack[len(stack)-1].Push(tt.Ident{Text: t.Text, Sp: sp})
		case flatLiteral:
			if t.Text == "" {
				return nil, fmt.Errorf("%w: empty literal", ErrMalformed)
			}
			stack[len(stack)-1].Push(tt.Literal{Text: t.Text, Sp: sp})
		case flatPunct:
			if len(t.Text) != 1 {
				return nil, fmt.Errorf("%w: punct %q is not one character", ErrMalformed, t.Text)
			}
			spacing := tt.Alone
			if t.Joint {
				spacing = tt.Joint
			}
			stack[len(stack)-1].Push(tt.Punct{Char: t.Text[0], Spacing: spacing, Sp: sp})
		default:
			return nil, fmt.Errorf("%w: unknown token kind %d", ErrMalformed, t.Kind)
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: unterminated subtree", ErrMalformed)
	}
	return root, nil
}
