package span

import (
	"sort"

	"rill/internal/source"
)

// Anchor describes one anchor node of a real file, as listed by the file's
// AstIDMap in pre-order.
type Anchor struct {
	ID     AstID
	Range  source.TextRange
	Parent int // index into the anchor list, -1 for the root
}

// RealSpanMap produces spans for absolute ranges of a real file by
// relativizing them to the innermost enclosing anchor node.
type RealSpanMap struct {
	file    source.FileID
	ctx     SyntaxContext
	anchors []Anchor
	byID    map[AstID]int
}

// NewRealSpanMap builds the map for file. anchors must be in pre-order with
// the root first; ctx is the root context of the file's edition.
func NewRealSpanMap(file source.FileID, ctx SyntaxContext, anchors []Anchor) *RealSpanMap {
	m := &RealSpanMap{
		file:    file,
		ctx:     ctx,
		anchors: anchors,
		byID:    make(map[AstID]int, len(anchors)),
	}
	for i, a := range anchors {
		m.byID[a.ID] = i
	}
	return m
}

// File returns the file the map belongs to.
func (m *RealSpanMap) File() source.FileID { return m.file }

// SpanFor returns the span of an absolute range of the file.
func (m *RealSpanMap) SpanFor(r source.TextRange) Span {
	if len(m.anchors) == 0 {
		return Span{Anchor: SpanAnchor{File: m.file, Ast: RootAstID}, Range: r, Ctx: m.ctx}
	}
	// pre-order => starts are non-decreasing
	i := sort.Search(len(m.anchors), func(i int) bool { return m.anchors[i].Range.Start > r.Start }) - 1
	if i < 0 {
		i = 0
	}
	for i > 0 && !m.anchors[i].Range.ContainsRange(r) {
		i = m.anchors[i].Parent
	}
	a := m.anchors[i]
	return Span{
		Anchor: SpanAnchor{File: m.file, Ast: a.ID},
		Range:  r.Sub(a.Range.Start),
		Ctx:    m.ctx,
	}
}

// AnchorOffset returns the absolute start of the anchor node id.
func (m *RealSpanMap) AnchorOffset(id AstID) (uint32, bool) {
	i, ok := m.byID[id]
	if !ok {
		return 0, false
	}
	return m.anchors[i].Range.Start, true
}

// Resolve turns a span anchored in this file back into an absolute range.
// ok is false for spans of other files and for fixup spans.
func (m *RealSpanMap) Resolve(sp Span) (source.TextRange, bool) {
	if sp.Anchor.File != m.file || sp.IsFixup() {
		return source.TextRange{}, false
	}
	off, ok := m.AnchorOffset(sp.Anchor.Ast)
	if !ok {
		return source.TextRange{}, false
	}
	return sp.Range.Add(off), true
}
