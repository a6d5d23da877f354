package driver

import (
	"slices"
	"strings"

	"rill/internal/expand"
)

// render replaces the calls of text with their expansions. Derive output
// goes after the item, which stays as written.
func render(text string, exps []*Expansion) string {
	if len(exps) == 0 {
		return text
	}
	at := func(e *Expansion) uint32 {
		if e.Kind == expand.CallDerive {
			return e.Range.End
		}
		return e.Range.Start
	}
	sorted := slices.Clone(exps)
	slices.SortStableFunc(sorted, func(a, b *Expansion) int {
		return int(at(a)) - int(at(b))
	})
	var b strings.Builder
	pos := uint32(0)
	for _, e := range sorted {
		if e == nil || at(e) < pos || int(e.Range.End) > len(text) {
			continue
		}
		if e.Kind == expand.CallDerive {
			b.WriteString(text[pos:e.Range.End])
			b.WriteString("\n")
			b.WriteString(e.Text())
			pos = e.Range.End
			continue
		}
		b.WriteString(text[pos:e.Range.Start])
		b.WriteString(e.Text())
		pos = e.Range.End
	}
	b.WriteString(text[pos:])
	return b.String()
}
