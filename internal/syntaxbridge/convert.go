// Package syntaxbridge converts between concrete syntax trees and token
// trees.
//
// SyntaxToTokenTree turns a syntax (sub)tree into a spanned token tree
// (with grafts for censoring and fixups). TokenTreeToSyntax parses a token
// tree back into a syntax tree with a span map recording, for every output
// token, the span of the token tree leaf it came from.
package syntaxbridge

import (
	"strings"

	"rill/internal/lexer"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/token"
	"rill/internal/tt"
)

// SpanFunc returns the span of a range of the converted text.
type SpanFunc func(r source.TextRange) span.Span

// FixedSpan returns a SpanFunc giving every token the same span.
func FixedSpan(sp span.Span) SpanFunc {
	return func(source.TextRange) span.Span { return sp }
}

// converter собирает дерево токенов из плоского потока лексем.
type converter struct {
	stack []*tt.Subtree
}

func newConverter(open span.Span) *converter {
	root := tt.NewSubtree(tt.Invisible, open, open)
	return &converter{stack: []*tt.Subtree{root}}
}

func (c *converter) top() *tt.Subtree { return c.stack[len(c.stack)-1] }

func (c *converter) push(trees ...tt.TokenTree) {
	top := c.top()
	top.Children = append(top.Children, trees...)
}

func delimOf(k token.Kind) tt.DelimiterKind {
	switch k {
	case token.LParen, token.RParen:
		return tt.Parenthesis
	case token.LBracket, token.RBracket:
		return tt.Bracket
	case token.LBrace, token.RBrace:
		return tt.Brace
	}
	return tt.Invisible
}

func subRange(r source.TextRange, from, to int) source.TextRange {
	return source.TextRange{Start: r.Start + uint32(from), End: r.Start + uint32(to)} //nolint:gosec // offsets inside one token
}

// token добавляет одну лексему. jointNext — следующий токен пунктуации
// вплотную примыкает к этому.
func (c *converter) token(k token.Kind, text string, r source.TextRange, spanFor SpanFunc, jointNext bool) {
	switch {
	case k == token.DocComment:
		c.doc(text, spanFor(r))
	case k.IsTrivia() || k == token.EOF:
	case k.IsOpenDelim():
		sp := spanFor(r)
		c.stack = append(c.stack, tt.NewSubtree(delimOf(k), sp, sp))
	case k.IsCloseDelim():
		c.close(k, spanFor(r))
	case k == token.Lifetime:
		c.push(
			tt.Punct{Char: '\'', Spacing: tt.Joint, Sp: spanFor(subRange(r, 0, 1))},
			tt.Ident{Text: text[1:], Sp: spanFor(subRange(r, 1, len(text)))},
		)
	case k.IsLiteral():
		c.push(tt.Literal{Text: text, Sp: spanFor(r)})
	case k.IsIdentLike():
		c.push(tt.Ident{Text: text, Sp: spanFor(r)})
	case k.IsPunct():
		for i := 0; i < len(text); i++ {
			spacing := tt.Alone
			if i < len(text)-1 || jointNext {
				spacing = tt.Joint
			}
			c.push(tt.Punct{Char: text[i], Spacing: spacing, Sp: spanFor(subRange(r, i, i+1))})
		}
	default:
		if len(text) == 1 && lexer.IsPunctChar(text[0]) {
			c.push(tt.Punct{Char: text[0], Spacing: tt.Alone, Sp: spanFor(r)})
		} else if text != "" {
			c.push(tt.Ident{Text: text, Sp: spanFor(r)})
		}
	}
}

// close закрывает поддерево; непарная закрывающая скобка становится Punct.
func (c *converter) close(k token.Kind, sp span.Span) {
	want := delimOf(k)
	if len(c.stack) == 1 || c.top().Delim.Kind != want {
		c.push(tt.Punct{Char: want.Close(), Spacing: tt.Alone, Sp: sp})
		return
	}
	st := c.top()
	st.Delim.Close = sp
	c.stack = c.stack[:len(c.stack)-1]
	c.push(st)
}

// finish принудительно закрывает незакрытые поддеревья.
func (c *converter) finish(end span.Span) *tt.Subtree {
	for len(c.stack) > 1 {
		st := c.top()
		st.Delim.Close = end
		c.stack = c.stack[:len(c.stack)-1]
		c.push(st)
	}
	root := c.stack[0]
	root.Delim.Close = end
	return root
}

// doc превращает doc-комментарий в #[doc = "..."] или #![doc = "..."].
func (c *converter) doc(text string, sp span.Span) {
	inner := strings.HasPrefix(text, "//!") || strings.HasPrefix(text, "/*!")
	c.push(tt.Punct{Char: '#', Spacing: tt.Alone, Sp: sp})
	if inner {
		c.push(tt.Punct{Char: '!', Spacing: tt.Alone, Sp: sp})
	}
	body := tt.NewSubtree(tt.Bracket, sp, sp)
	body.Push(
		tt.Ident{Text: "doc", Sp: sp},
		tt.Punct{Char: '=', Spacing: tt.Alone, Sp: sp},
		tt.Literal{Text: quoteDoc(DocText(text)), Sp: sp},
	)
	c.push(body)
}

// DocText strips the comment markers of a doc comment.
func DocText(comment string) string {
	switch {
	case strings.HasPrefix(comment, "///"), strings.HasPrefix(comment, "//!"):
		return comment[3:]
	case strings.HasPrefix(comment, "/**"), strings.HasPrefix(comment, "/*!"):
		return strings.TrimSuffix(comment[3:], "*/")
	}
	return comment
}

func quoteDoc(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isGluePunct(k token.Kind) bool {
	return k.IsPunct() && k != token.Underscore && !k.IsOpenDelim() && !k.IsCloseDelim()
}
