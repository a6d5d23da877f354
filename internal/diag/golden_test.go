package diag

import (
	"testing"

	"rill/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	userFile := fs.Add("./testdata/golden/sample.rs", []byte("a\nb\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     MacroOther,
			Message:  "another",
			Primary:  source.FileRange{File: userFile, Range: source.TextRange{Start: 2, End: 3}},
		},
		{
			Severity: SevError,
			Code:     SynUnexpectedToken,
			Message:  "first line\nsecond",
			Primary:  source.FileRange{File: userFile, Range: source.TextRange{Start: 0, End: 1}},
			Notes: []Note{
				{Range: source.FileRange{File: 99}, Msg: "unknown file is skipped"},
				{Range: source.FileRange{File: userFile, Range: source.TextRange{Start: 2, End: 3}}, Msg: "note line"},
			},
		},
	}

	expected := "error SYN2001 testdata/golden/sample.rs:1:1 first line second\n" +
		"note SYN2001 testdata/golden/sample.rs:2:1 note line\n" +
		"warning MAC4006 testdata/golden/sample.rs:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	bag := NewBag(3)
	r := NewDedupReporter(BagReporter{Bag: bag})
	primary := source.FileRange{File: 1, Range: source.TextRange{Start: 4, End: 8}}
	for range 3 {
		ReportError(r, MacroRecursionOverflow, primary, "recursion limit reached").Emit()
	}
	if bag.Len() != 1 {
		t.Fatalf("dedup reporter let through %d diagnostics", bag.Len())
	}
	for i := range 5 {
		bag.Add(NewError(MacroOther, source.FileRange{File: 1, Range: source.NewRange(uint32(i), 1)}, "x"))
	}
	if bag.Len() != 3 {
		t.Errorf("bag exceeded its limit: %d", bag.Len())
	}
	if !bag.HasErrors() {
		t.Error("HasErrors = false")
	}
}
