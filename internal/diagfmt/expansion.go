package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rill/internal/driver"
	"rill/internal/expand"
	"rill/internal/source"
)

// TreeOpts configures FormatExpansionTree.
type TreeOpts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// Output prints the expanded text of every leaf call under it.
	Output bool
}

type treeStyles struct {
	name, meta, err, loc, output lipgloss.Style
}

func newTreeStyles(w io.Writer, enabled bool) treeStyles {
	if !enabled {
		plain := lipgloss.NewStyle()
		return treeStyles{plain, plain, plain, plain, plain}
	}
	r := lipgloss.NewRenderer(w)
	return treeStyles{
		name:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		meta:   r.NewStyle().Foreground(lipgloss.Color("8")),
		err:    r.NewStyle().Foreground(lipgloss.Color("1")),
		loc:    r.NewStyle().Foreground(lipgloss.Color("4")),
		output: r.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// FormatExpansionTree prints the calls of res as a tree: each root with the
// calls found in its expansion below it.
//
//	main.rl:3:13 double! [expr]
//	└─ inc! [expr] depth 1
func FormatExpansionTree(w io.Writer, res *driver.FileResult, fs *source.FileSet, opts TreeOpts) error {
	st := newTreeStyles(w, opts.Color)
	path := formatPath(res.Path, opts.PathMode, opts.BaseDir)
	for _, root := range res.Roots {
		pos, _ := fs.Resolve(source.FileRange{File: res.File, Range: root.Range})
		head := st.loc.Render(fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col))
		if _, err := fmt.Fprintf(w, "%s %s\n", head, describe(root, st)); err != nil {
			return err
		}
		if err := writeChildren(w, root, "", st, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeChildren(w io.Writer, e *driver.Expansion, indent string, st treeStyles, opts TreeOpts) error {
	if opts.Output && len(e.Children) == 0 && e.Info != nil {
		text := strings.Join(strings.Fields(e.Text()), " ")
		if _, err := fmt.Fprintf(w, "%s   %s\n", indent, st.output.Render("=> "+text)); err != nil {
			return err
		}
	}
	for i, c := range e.Children {
		branch, next := "├─ ", "│  "
		if i == len(e.Children)-1 {
			branch, next = "└─ ", "   "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", indent, branch, describe(c, st)); err != nil {
			return err
		}
		if err := writeChildren(w, c, indent+next, st, opts); err != nil {
			return err
		}
	}
	return nil
}

func describe(e *driver.Expansion, st treeStyles) string {
	var name string
	switch e.Kind {
	case expand.CallAttr:
		name = "#[" + e.Name + "]"
	case expand.CallDerive:
		name = "derive(" + e.Name + ")"
	default:
		name = e.Name + "!"
	}
	out := st.name.Render(name) + " " + st.meta.Render(fmt.Sprintf("[%s]", e.ExpandTo))
	if e.Depth > 0 {
		out += " " + st.meta.Render(fmt.Sprintf("depth %d", e.Depth))
	}
	if e.Err != nil {
		out += " " + st.err.Render(e.Err.Kind.String()+": "+e.Err.Msg)
	}
	return out
}
