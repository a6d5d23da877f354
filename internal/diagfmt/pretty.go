package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"rill/internal/diag"
	"rill/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note *color.Color
	gutter, caret, bold   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgBlue, color.Bold),
		note:   color.New(color.FgCyan, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
//
//	error[MAC4001]: <Message>
//	  --> <path>:<line>:<col>
//	   |
//	 3 | <строка>
//	   |     ^~~~
//	   = note: <path>:<line>:<col>: <Msg>
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, &d, fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	sev := d.Severity.Label()
	fmt.Fprintf(w, "%s%s %s\n",
		pal.severity(d.Severity).Sprint(sev),
		pal.severity(d.Severity).Sprintf("[%s]:", d.Code.ID()),
		pal.bold.Sprint(d.Message))

	var file *source.File
	if located(d) {
		file = fs.Get(d.Primary.File)
	}
	if file == nil {
		return
	}
	start, end := fs.Resolve(d.Primary)
	gw := len(strconv.FormatUint(uint64(end.Line+uint32(max(opts.Context, 0))), 10))
	pad := strings.Repeat(" ", gw)

	fmt.Fprintf(w, "%s%s %s:%d:%d\n", pad, pal.gutter.Sprint("-->"),
		formatPath(file.Path, opts.PathMode, opts.BaseDir), start.Line, start.Col)

	if d.Code != diag.ObsTimings {
		fmt.Fprintf(w, "%s %s\n", pad, pal.gutter.Sprint("|"))
		first := start.Line - min(start.Line-1, uint32(max(opts.Context, 0)))
		last := start.Line + uint32(max(opts.Context, 0))
		for ln := first; ln <= last; ln++ {
			text, ok := lineText(file, ln)
			if !ok {
				break
			}
			fmt.Fprintf(w, "%s %s %s\n", pal.gutter.Sprintf("%*d", gw, ln), pal.gutter.Sprint("|"), clip(text, opts.Width))
			if ln == start.Line {
				endCol := end.Col
				if end.Line != start.Line {
					endCol = uint32(len(text)) + 1
				}
				lead, mark := underline(text, start.Col, endCol)
				fmt.Fprintf(w, "%s %s %s%s\n", pad, pal.gutter.Sprint("|"), lead, pal.caret.Sprint(mark))
			}
		}
	}

	if !opts.ShowNotes && d.Code != diag.ObsTimings {
		return
	}
	for _, n := range d.Notes {
		loc := ""
		if nf := fs.Get(n.Range.File); nf != nil && !n.Range.Range.Empty() {
			ns, _ := fs.Resolve(n.Range)
			loc = fmt.Sprintf("%s:%d:%d: ", formatPath(nf.Path, opts.PathMode, opts.BaseDir), ns.Line, ns.Col)
		}
		fmt.Fprintf(w, "%s %s %s%s\n", pad, pal.gutter.Sprint("="), pal.note.Sprint("note: "), loc+n.Msg)
	}
}

// lineText returns line ln (1-based) without its newline.
func lineText(f *source.File, ln uint32) (string, bool) {
	if ln == 0 || int(ln) > len(f.LineIdx)+1 {
		return "", false
	}
	return strings.TrimRight(f.GetLine(ln), "\r"), true
}

// underline returns the blank lead and the ^~~~ mark for the byte columns
// [startCol, endCol) of line, measured in display cells so wide runes and
// tabs line up.
func underline(line string, startCol, endCol uint32) (lead, mark string) {
	s := min(int(startCol)-1, len(line))
	e := min(max(int(endCol)-1, s), len(line))
	leadW := displayWidth(line[:s])
	markW := max(displayWidth(line[s:e]), 1)
	return strings.Repeat(" ", leadW), "^" + strings.Repeat("~", markW-1)
}

func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += tabWidth
			continue
		}
		n += runewidth.RuneWidth(r)
	}
	return n
}

func clip(s string, width uint8) string {
	s = strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
	if width == 0 || runewidth.StringWidth(s) <= int(width) {
		return s
	}
	return runewidth.Truncate(s, int(width), "…")
}
