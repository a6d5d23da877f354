package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("parse")
	tm.End(a, "")
	b := tm.Begin("scan")
	tm.End(b, "3 calls")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "parse" || r.Phases[1].Note != "3 calls" {
		t.Fatalf("report = %+v", r)
	}
	if r.Phases[0].Count != 1 {
		t.Errorf("count = %d", r.Phases[0].Count)
	}
	sum := tm.Summary()
	for _, want := range []string{"parse", "scan", "// 3 calls", "total"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary lacks %q:\n%s", want, sum)
		}
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Errorf("report = %+v", r)
	}
}

func TestMerge(t *testing.T) {
	a := Report{TotalMS: 3, Phases: []PhaseReport{{Name: "parse", DurationMS: 1, Count: 1}, {Name: "expand", DurationMS: 2, Count: 1}}}
	b := Report{TotalMS: 5, Phases: []PhaseReport{{Name: "expand", DurationMS: 4, Count: 1}, {Name: "render", DurationMS: 1}}}

	m := Merge(a, b)
	if m.TotalMS != 8 {
		t.Errorf("total = %v", m.TotalMS)
	}
	want := []PhaseReport{
		{Name: "parse", DurationMS: 1, Count: 1},
		{Name: "expand", DurationMS: 6, Count: 2},
		{Name: "render", DurationMS: 1, Count: 1},
	}
	if len(m.Phases) != len(want) {
		t.Fatalf("phases = %+v", m.Phases)
	}
	for i, p := range want {
		if m.Phases[i] != p {
			t.Errorf("phase %d = %+v, want %+v", i, m.Phases[i], p)
		}
	}
	if !strings.Contains(m.Summary(), "// 2 files") {
		t.Errorf("summary:\n%s", m.Summary())
	}
}
