// Package span defines provenance for tokens produced by the macro
// expansion machinery.
//
// A Span never points into a macro file: its anchor is always a node of a
// real source file, identified by the node's stable AstID, and its range is
// relative to that node's start. Spans survive edits that do not touch the
// anchor node and can be resolved back to absolute file ranges on demand.
package span

import (
	"fmt"

	"rill/internal/source"
)

// Edition selects the language edition a piece of code was written for.
type Edition uint8

const (
	Edition2015 Edition = iota
	Edition2018
	Edition2021
	Edition2024

	numEditions
)

// EditionLatest is the edition used when nothing else is configured.
const EditionLatest = Edition2024

func (e Edition) String() string {
	switch e {
	case Edition2015:
		return "2015"
	case Edition2018:
		return "2018"
	case Edition2021:
		return "2021"
	case Edition2024:
		return "2024"
	default:
		return fmt.Sprintf("Edition(%d)", uint8(e))
	}
}

// ParseEdition converts "2015".."2024" into an Edition.
func ParseEdition(s string) (Edition, error) {
	for e := Edition2015; e < numEditions; e++ {
		if e.String() == s {
			return e, nil
		}
	}
	return EditionLatest, fmt.Errorf("unknown edition %q", s)
}

// SyntaxContext is a handle into a hygiene table. The first contexts of
// every table are the per-edition roots, so a root can be produced without
// access to the table.
type SyntaxContext uint32

// RootContext returns the root context of the given edition.
func RootContext(e Edition) SyntaxContext {
	return SyntaxContext(e)
}

// IsRoot reports whether ctx is an unmarked root context.
func (ctx SyntaxContext) IsRoot() bool {
	return ctx < SyntaxContext(numEditions)
}

// RootEdition returns the edition of a root context.
func (ctx SyntaxContext) RootEdition() (Edition, bool) {
	if !ctx.IsRoot() {
		return 0, false
	}
	return Edition(ctx), true
}

// NumRootContexts is the number of reserved root contexts.
const NumRootContexts = uint32(numEditions)

// AstID identifies a node inside the AstIDMap of one file. Ids are assigned
// in pre-order, the root of every file is 0.
type AstID uint32

const (
	// RootAstID is the id of the file's root node.
	RootAstID AstID = 0
	// FixupAstID anchors tokens synthesized by syntax fixups. Such tokens
	// do not exist in any file and are dropped after expansion.
	FixupAstID AstID = ^AstID(0) - 1
	// NoAstID marks an absent anchor.
	NoAstID AstID = ^AstID(0)
)

// SpanAnchor names the node a span's range is relative to.
type SpanAnchor struct {
	File source.FileID
	Ast  AstID
}

func (a SpanAnchor) String() string {
	switch a.Ast {
	case FixupAstID:
		return fmt.Sprintf("%d:fixup", a.File)
	case NoAstID:
		return fmt.Sprintf("%d:none", a.File)
	default:
		return fmt.Sprintf("%d:#%d", a.File, a.Ast)
	}
}

// Span is the provenance of a single token.
type Span struct {
	Anchor SpanAnchor
	Range  source.TextRange // relative to the anchor node start
	Ctx    SyntaxContext
}

// IsFixup reports whether the span belongs to a synthesized fixup token.
func (s Span) IsFixup() bool {
	return s.Anchor.Ast == FixupAstID
}

// WithCtx returns a copy of s with a different hygiene context.
func (s Span) WithCtx(ctx SyntaxContext) Span {
	s.Ctx = ctx
	return s
}

// Cover merges two spans sharing an anchor; spans with different anchors
// keep the first one.
func (s Span) Cover(other Span) Span {
	if s.Anchor != other.Anchor {
		return s
	}
	s.Range = s.Range.Cover(other.Range)
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("%s@%s#%d", s.Anchor, s.Range, s.Ctx)
}

// FixupSpan returns the span used for fixup placeholder tokens in file.
func FixupSpan(file source.FileID, ctx SyntaxContext) Span {
	return Span{Anchor: SpanAnchor{File: file, Ast: FixupAstID}, Ctx: ctx}
}
