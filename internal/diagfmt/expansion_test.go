package diagfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"rill/internal/driver"
	"rill/internal/source"
)

func TestFormatExpansionTree(t *testing.T) {
	src := `macro_rules! inc { ($e:expr) => { $e + 1 }; }
macro_rules! twice { ($e:expr) => { inc!(inc!($e)) }; }
fn f() {
    let v = twice!(0);
    let w = gone!();
}
`
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.rl", []byte(src))
	res, err := driver.New(fs, driver.Options{}).ExpandFile(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := FormatExpansionTree(&buf, res, fs, TreeOpts{Output: true}); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"main.rl:4:13 twice! [expr]\n",
		"└─ inc! [expr] depth 1\n",
		"   └─ inc! [expr] depth 2\n",
		"main.rl:5:13 gone! [expr] unresolved: cannot find macro `gone` in this scope\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if !strings.Contains(strings.Join(strings.Fields(got), ""), "=>0+1") {
		t.Errorf("leaf output missing:\n%s", got)
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("escape codes without color")
	}
}
