// Package testkit holds invariant checks shared by tests of several
// packages.
package testkit

import (
	"context"
	"fmt"

	"fortio.org/safecast"

	"rill/internal/expand"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed
// real file:
// 1) the root range is non-empty and within the file content
// 2) every anchor range is contained in the root range
// 3) every token's span resolves back to the token's own range
func CheckSpanInvariants(ft *expand.FileTree, sf *source.File) error {
	if ft == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	if ft.Spans == nil {
		return fmt.Errorf("%s is not a real file", ft.File)
	}
	root := ft.Root.Range()
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if len(sf.Content) > 0 && root.Empty() {
		return fmt.Errorf("root range is empty: %v", root)
	}
	if root.End > lenContent {
		return fmt.Errorf("root range end beyond content: %d > %d", root.End, lenContent)
	}

	for _, a := range ft.AstIDs.Anchors() {
		if !root.ContainsRange(a.Range) {
			return fmt.Errorf("anchor #%d range %v is outside root %v", a.ID, a.Range, root)
		}
	}

	var bad error
	syntax.Tokens(ft.Root, func(t *syntax.Token) bool {
		sp := ft.Spans.SpanFor(t.Range())
		if sp.Anchor.File != sf.ID {
			bad = fmt.Errorf("token %q: span file mismatch: got=%d want=%d", t.Text(), sp.Anchor.File, sf.ID)
			return false
		}
		back, ok := ft.Spans.Resolve(sp)
		if !ok || back != t.Range() {
			bad = fmt.Errorf("token %q at %v resolves to %v (%v)", t.Text(), t.Range(), back, ok)
			return false
		}
		return true
	})
	return bad
}

// CheckExpansionSpans checks that every token of an expansion maps back to
// a range of a real file that lies inside one of allowed (typically the
// call and the macro definition). Tokens mapped to fixup spans are an
// error: they must have been removed.
func CheckExpansionSpans(ctx context.Context, reg *expand.Registry, info *expand.ExpansionInfo, allowed ...source.FileRange) error {
	var bad error
	info.SpanMap.Entries(func(r source.TextRange, sp span.Span) {
		if bad != nil {
			return
		}
		if sp.IsFixup() {
			bad = fmt.Errorf("output %v comes from a fixup token", r)
			return
		}
		fr, ok := reg.OriginalRange(ctx, sp)
		if !ok {
			bad = fmt.Errorf("output %v: span %v does not resolve", r, sp)
			return
		}
		for _, a := range allowed {
			if a.File == fr.File && a.Range.ContainsRange(fr.Range) {
				return
			}
		}
		bad = fmt.Errorf("output %v maps to %v, outside %v", r, fr, allowed)
	})
	return bad
}
