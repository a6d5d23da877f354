package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"rill/internal/diag"
	"rill/internal/source"
)

func decode(t *testing.T, buf *bytes.Buffer) DiagnosticsOutput {
	t.Helper()
	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	return output
}

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.rl", []byte("fn main() {\n    let x = m!(1);\n}"))

	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.MacroMatchFailure,
		source.FileRange{File: fileID, Range: source.NewRange(24, 5)},
		"no rules expected the token `1`").
		WithNote(source.FileRange{File: fileID, Range: source.NewRange(0, 2)}, "while expanding"))

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	output := decode(t, &buf)
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("output = %+v", output)
	}
	d := output.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "MAC4002" || d.Title != "No macro rule matched" {
		t.Errorf("diagnostic = %+v", d)
	}
	loc := d.Location
	if loc == nil || loc.File != "test.rl" || loc.StartByte != 24 || loc.EndByte != 29 {
		t.Fatalf("location = %+v", loc)
	}
	if loc.StartLine != 2 || loc.StartCol != 13 || loc.EndLine != 2 || loc.EndCol != 18 {
		t.Errorf("positions = %+v", loc)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "while expanding" || d.Notes[0].Location.StartLine != 1 {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestJSONWithoutPositions(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.rl", []byte("x\ny\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.MacroOther, source.FileRange{File: id, Range: source.NewRange(2, 1)}, "x").
		WithNote(source.FileRange{File: id}, "dropped"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "start_line") {
		t.Errorf("positions present:\n%s", buf.String())
	}
	if d := decode(t, &buf).Diagnostics[0]; len(d.Notes) != 0 {
		t.Errorf("notes without IncludeNotes: %+v", d.Notes)
	}
}

func TestJSONMaxLimit(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.rl", []byte("abcdef"))
	bag := diag.NewBag(10)
	for i := range uint32(5) {
		bag.Add(diag.NewError(diag.MacroOther, source.FileRange{File: id, Range: source.NewRange(i, 1)}, "e"))
	}
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 3})
	if out.Count != 3 || len(out.Diagnostics) != 3 {
		t.Errorf("count = %d", out.Count)
	}
}

func TestJSONTimingsKeepNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.rl", []byte(""))
	at := source.FileRange{File: id}
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, at, "timings").WithNote(at, `{"kind":"expand"}`))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	d := out.Diagnostics[0]
	if len(d.Notes) != 1 || d.Notes[0].Message != `{"kind":"expand"}` || d.Notes[0].Location != nil {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestJSONUnlocatedIO(t *testing.T) {
	fs := source.NewFileSet()
	fs.AddVirtual("other.rl", []byte("x"))
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{Severity: diag.SevError, Code: diag.IOLoadFileError, Message: "failed"})

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "location") || strings.Contains(buf.String(), "other.rl") {
		t.Errorf("I/O diagnostic got a location:\n%s", buf.String())
	}
}
