package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"rill/internal/source"
)

// shortLine is one rendered row of FormatGoldenDiagnostics.
type shortLine struct {
	sev, code, path string
	line, col       uint32
	msg             string
}

func (l shortLine) String() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", l.sev, l.code, l.path, l.line, l.col, l.msg)
}

func compareShort(a, b shortLine) int {
	return cmp.Or(
		cmp.Compare(a.path, b.path),
		cmp.Compare(a.line, b.line),
		cmp.Compare(a.col, b.col),
		cmp.Compare(a.sev, b.sev),
		cmp.Compare(a.code, b.code),
		cmp.Compare(a.msg, b.msg),
	)
}

// FormatGoldenDiagnostics renders one line per diagnostic:
//
//	error MAC4001 src/main.rl:3:5 cannot find macro `nope` in this scope
//
// Lines are sorted by position so the output does not depend on the order
// the expander reported in. Entries whose file is unknown are skipped.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil {
		return ""
	}
	var lines []shortLine
	add := func(sev string, code Code, r source.FileRange, msg string) {
		f := fs.Get(r.File)
		if f == nil {
			return
		}
		pos, _ := fs.Resolve(r)
		lines = append(lines, shortLine{
			sev:  sev,
			code: code.ID(),
			path: slashPath(f.Path),
			line: pos.Line,
			col:  pos.Col,
			msg:  oneLine(msg),
		})
	}
	for i := range diags {
		d := &diags[i]
		add(d.Severity.Label(), d.Code, d.Primary, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			add("note", d.Code, n.Range, n.Msg)
		}
	}
	slices.SortStableFunc(lines, compareShort)

	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = l.String()
	}
	return strings.Join(rows, "\n")
}

// oneLine folds a multi-line message onto a single line.
func oneLine(msg string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg))
}

func slashPath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}
