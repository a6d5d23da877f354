package span

import (
	"sort"

	"rill/internal/source"
)

type mapEntry struct {
	rng  source.TextRange
	span Span
}

// SpanMap maps ranges of a macro file back to the spans of the tokens that
// produced them. Entries are sorted and never overlap; gaps (synthesized
// whitespace) belong to no token.
type SpanMap struct {
	entries []mapEntry
}

// NewSpanMap returns an empty map.
func NewSpanMap() *SpanMap {
	return &SpanMap{}
}

// Push records that r maps to sp. Ranges must be pushed in increasing order;
// a range starting before the end of the previous one is ignored.
func (m *SpanMap) Push(r source.TextRange, sp Span) {
	if n := len(m.entries); n > 0 && r.Start < m.entries[n-1].rng.End {
		return
	}
	m.entries = append(m.entries, mapEntry{rng: r, span: sp})
}

// Len returns the number of entries.
func (m *SpanMap) Len() int {
	return len(m.entries)
}

// SpanAt returns the span of the token containing offset. An offset inside a
// gap maps to the following token; offsets past the end map to the last one.
func (m *SpanMap) SpanAt(offset uint32) (Span, bool) {
	_, sp, ok := m.EntryAt(offset)
	return sp, ok
}

// EntryAt is SpanAt that also returns the output range of the token.
func (m *SpanMap) EntryAt(offset uint32) (source.TextRange, Span, bool) {
	if len(m.entries) == 0 {
		return source.TextRange{}, Span{}, false
	}
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].rng.End > offset })
	if i == len(m.entries) {
		i--
	}
	return m.entries[i].rng, m.entries[i].span, true
}

// SpansForRange returns the spans of every token overlapping r, in order.
// An empty r selects the token containing its offset.
func (m *SpanMap) SpansForRange(r source.TextRange) []Span {
	if r.Empty() {
		if sp, ok := m.SpanAt(r.Start); ok {
			return []Span{sp}
		}
		return nil
	}
	var out []Span
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].rng.End > r.Start })
	for ; i < len(m.entries) && m.entries[i].rng.Start < r.End; i++ {
		out = append(out, m.entries[i].span)
	}
	return out
}

// RangesWithSpan returns the output ranges produced from tokens whose span
// shares sp's anchor and overlaps its range. Hygiene contexts are ignored.
func (m *SpanMap) RangesWithSpan(sp Span) []source.TextRange {
	return m.rangesWhere(func(s Span) bool {
		return s.Anchor == sp.Anchor && s.Range.Intersects(sp.Range)
	})
}

// RangesWithSpanExact returns the output ranges produced from exactly sp.
func (m *SpanMap) RangesWithSpanExact(sp Span) []source.TextRange {
	return m.rangesWhere(func(s Span) bool { return s == sp })
}

func (m *SpanMap) rangesWhere(pred func(Span) bool) []source.TextRange {
	var out []source.TextRange
	for _, e := range m.entries {
		if pred(e.span) {
			out = append(out, e.rng)
		}
	}
	return out
}

// Entries calls fn for every token with its output range.
func (m *SpanMap) Entries(fn func(r source.TextRange, sp Span)) {
	for _, e := range m.entries {
		fn(e.rng, e.span)
	}
}
