package span

import (
	"testing"

	"rill/internal/source"
)

func TestHirFileID(t *testing.T) {
	real := RealFile(7)
	if real.IsMacro() {
		t.Fatal("real file reported as macro")
	}
	if id, ok := real.FileID(); !ok || id != 7 {
		t.Errorf("FileID = %d,%v", id, ok)
	}
	mf := MacroFile(42)
	if !mf.IsMacro() {
		t.Fatal("macro file not reported as macro")
	}
	if id, ok := mf.MacroCall(); !ok || id != 42 {
		t.Errorf("MacroCall = %d,%v", id, ok)
	}
	if _, ok := mf.FileID(); ok {
		t.Error("macro file must not expose a real FileID")
	}
}

func TestRootContexts(t *testing.T) {
	for e := Edition2015; e < numEditions; e++ {
		ctx := RootContext(e)
		if !ctx.IsRoot() {
			t.Errorf("root of %s is not root", e)
		}
		if got, _ := ctx.RootEdition(); got != e {
			t.Errorf("RootEdition = %s, want %s", got, e)
		}
	}
	if SyntaxContext(NumRootContexts).IsRoot() {
		t.Error("first non-root context reported as root")
	}
	if _, err := ParseEdition("2021"); err != nil {
		t.Error(err)
	}
	if _, err := ParseEdition("1999"); err == nil {
		t.Error("expected error for unknown edition")
	}
}

func TestRealSpanMapInnermostAnchor(t *testing.T) {
	// root [0,100), item A [10,60) with child B [20,30), item C [70,90)
	anchors := []Anchor{
		{ID: 0, Range: source.TextRange{Start: 0, End: 100}, Parent: -1},
		{ID: 1, Range: source.TextRange{Start: 10, End: 60}, Parent: 0},
		{ID: 2, Range: source.TextRange{Start: 20, End: 30}, Parent: 1},
		{ID: 3, Range: source.TextRange{Start: 70, End: 90}, Parent: 0},
	}
	m := NewRealSpanMap(3, RootContext(Edition2021), anchors)

	tests := []struct {
		name   string
		in     source.TextRange
		anchor AstID
		rel    source.TextRange
	}{
		{"inside child", source.TextRange{Start: 22, End: 25}, 2, source.TextRange{Start: 2, End: 5}},
		{"after child in parent", source.TextRange{Start: 40, End: 42}, 1, source.TextRange{Start: 30, End: 32}},
		{"between items", source.TextRange{Start: 62, End: 65}, 0, source.TextRange{Start: 62, End: 65}},
		{"straddles child", source.TextRange{Start: 25, End: 35}, 1, source.TextRange{Start: 15, End: 25}},
		{"second item", source.TextRange{Start: 70, End: 72}, 3, source.TextRange{Start: 0, End: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := m.SpanFor(tt.in)
			if sp.Anchor.Ast != tt.anchor || sp.Range != tt.rel {
				t.Fatalf("SpanFor(%s) = %s, want anchor %d range %s", tt.in, sp, tt.anchor, tt.rel)
			}
			back, ok := m.Resolve(sp)
			if !ok || back != tt.in {
				t.Errorf("Resolve = %s,%v; want %s", back, ok, tt.in)
			}
		})
	}

	if _, ok := m.Resolve(FixupSpan(3, 0)); ok {
		t.Error("fixup spans must not resolve")
	}
}

func TestSpanMapQueries(t *testing.T) {
	a := Span{Anchor: SpanAnchor{File: 1, Ast: 4}, Range: source.TextRange{Start: 0, End: 3}}
	b := Span{Anchor: SpanAnchor{File: 1, Ast: 4}, Range: source.TextRange{Start: 4, End: 5}}
	c := Span{Anchor: SpanAnchor{File: 1, Ast: 9}, Range: source.TextRange{Start: 0, End: 1}}

	m := NewSpanMap()
	m.Push(source.TextRange{Start: 0, End: 3}, a)
	m.Push(source.TextRange{Start: 4, End: 5}, b)
	m.Push(source.TextRange{Start: 5, End: 6}, c)
	m.Push(source.TextRange{Start: 5, End: 9}, a) // overlaps, ignored

	if m.Len() != 3 {
		t.Fatalf("Len = %d", m.Len())
	}
	if sp, _ := m.SpanAt(3); sp != b {
		t.Errorf("gap offset must map to the next token, got %s", sp)
	}
	if sp, _ := m.SpanAt(100); sp != c {
		t.Errorf("offset past end must map to the last token, got %s", sp)
	}
	if got := m.SpansForRange(source.TextRange{Start: 1, End: 5}); len(got) != 2 {
		t.Errorf("SpansForRange = %v", got)
	}
	ranges := m.RangesWithSpan(Span{Anchor: a.Anchor, Range: source.TextRange{Start: 4, End: 4}})
	if len(ranges) != 1 || ranges[0] != (source.TextRange{Start: 4, End: 5}) {
		t.Errorf("RangesWithSpan = %v", ranges)
	}
	if got := m.RangesWithSpanExact(c.WithCtx(5)); len(got) != 0 {
		t.Errorf("exact lookup must respect ctx, got %v", got)
	}
}
