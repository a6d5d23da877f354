// Package mbe implements declarative macros ("macro by example").
//
// A macro_rules! body is parsed into rules once. Expanding a call matches
// the call's token tree against each rule's matcher in order; the first
// rule that matches is transcribed with the captured fragments substituted.
// Tokens copied from the definition get their spans passed through the
// caller-supplied Mark, which is how the expansion's hygiene mark is
// applied; substituted fragments keep the spans they had at the call site.
package mbe

import (
	"fmt"

	"rill/internal/span"
	"rill/internal/tt"
)

// DefaultMaxLeaves bounds the size of one transcription.
const DefaultMaxLeaves = 1 << 20

// ExpandContext carries what a transcription needs from its caller.
type ExpandContext struct {
	// CallSite is the span of the macro call, used for the output root and
	// for errors with no better location.
	CallSite span.Span
	// Mark rewrites the span of every token copied from the definition.
	Mark func(span.Span) span.Span
	// DollarCrate renders `$crate`; nil renders the `crate` keyword.
	DollarCrate func(sp span.Span) []tt.TokenTree
	// MaxLeaves caps the output size; 0 means DefaultMaxLeaves.
	MaxLeaves int
}

// ExpandError is a failed match or transcription.
type ExpandError struct {
	Msg string
	Sp  span.Span
	// Rule is the index of the rule that progressed furthest, -1 if unknown.
	Rule int
}

func (e *ExpandError) Error() string { return e.Msg }

// Macro is a parsed macro_rules! definition.
type Macro struct {
	Rules []Rule
	// Err is set when the definition is malformed; such a macro expands
	// to nothing.
	Err error
}

// Parse parses the brace-delimited body of a macro_rules! definition.
func Parse(body *tt.Subtree) *Macro {
	rules, err := parseRules(body)
	return &Macro{Rules: rules, Err: err}
}

// Expand matches arg against the rules and transcribes the first match.
// The result is an invisible subtree; on error a best-effort (possibly
// empty) tree is returned together with the error.
func (m *Macro) Expand(arg *tt.Subtree, ctx ExpandContext) (*tt.Subtree, error) {
	out := tt.NewSubtree(tt.Invisible, ctx.CallSite, ctx.CallSite)
	if m.Err != nil {
		return out, m.Err
	}
	if ctx.MaxLeaves == 0 {
		ctx.MaxLeaves = DefaultMaxLeaves
	}
	bestRule, best := -1, -1
	var bestTok tt.TokenTree
	for i, r := range m.Rules {
		mt := &matcher{}
		b, ok := mt.matchRule(r.Lhs, arg.Children)
		if mt.err != nil {
			return out, &ExpandError{Msg: mt.err.Error(), Sp: ctx.CallSite, Rule: i}
		}
		if ok {
			t := &transcriber{ctx: &ctx}
			out.Children = t.ops(r.Rhs, b, nil)
			if t.err != nil {
				if e, ok := t.err.(*ExpandError); ok {
					e.Rule = i
				}
				return out, t.err
			}
			return out, nil
		}
		if mt.best > best {
			best, bestRule, bestTok = mt.best, i, mt.bestTok
			if mt.bestEnd {
				bestTok = nil
			}
		}
	}
	if bestTok == nil {
		return out, &ExpandError{Msg: "unexpected end of macro invocation", Sp: arg.Delim.Close, Rule: bestRule}
	}
	return out, &ExpandError{
		Msg:  fmt.Sprintf("no rules expected the token `%s`", tt.Pretty([]tt.TokenTree{bestTok})),
		Sp:   bestTok.FirstSpan(),
		Rule: bestRule,
	}
}
