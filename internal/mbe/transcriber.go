package mbe

import (
	"fmt"

	"rill/internal/span"
	"rill/internal/tt"
)

// transcriber подставляет привязки в правую часть правила.
type transcriber struct {
	ctx    *ExpandContext
	idx    []int
	leaves int
	err    error
}

func (t *transcriber) setErr(sp span.Span, format string, args ...any) {
	if t.err == nil {
		t.err = &ExpandError{Msg: fmt.Sprintf(format, args...), Sp: sp}
	}
}

func (t *transcriber) mark(sp span.Span) span.Span {
	if t.ctx.Mark == nil {
		return sp
	}
	return t.ctx.Mark(sp)
}

// resolve descends into repetition bindings following the current
// repetition indices.
func (t *transcriber) resolve(b *binding) *binding {
	for _, i := range t.idx {
		if !b.rep {
			return b
		}
		if i >= len(b.nested) {
			return nil
		}
		b = b.nested[i]
	}
	return b
}

func (t *transcriber) ops(ops []Op, b *bindings, out []tt.TokenTree) []tt.TokenTree {
	for _, op := range ops {
		if t.ctx.MaxLeaves > 0 && t.leaves > t.ctx.MaxLeaves {
			t.setErr(t.ctx.CallSite, "macro expansion exceeds %d tokens", t.ctx.MaxLeaves)
			return out
		}
		switch op := op.(type) {
		case Leaf:
			t.leaves++
			out = append(out, remark(op.Tree, t.mark(op.Tree.Span())))
		case Group:
			st := tt.NewSubtree(op.Delim.Kind, t.mark(op.Delim.Open), t.mark(op.Delim.Close))
			st.Children = t.ops(op.Ops, b, nil)
			out = append(out, st)
		case Crate:
			sp := t.mark(op.Sp)
			t.leaves++
			if t.ctx.DollarCrate != nil {
				out = append(out, t.ctx.DollarCrate(sp)...)
			} else {
				out = append(out, tt.Ident{Text: "crate", Sp: sp})
			}
		case Var:
			out = t.variable(op, b, out)
		case Repeat:
			out = t.repeat(op, b, out)
		}
	}
	return out
}

func (t *transcriber) variable(v Var, b *bindings, out []tt.TokenTree) []tt.TokenTree {
	raw := b.lookup(v.Name)
	if raw == nil {
		// не метапеременная: выводим как написано
		sp := t.mark(v.Sp)
		t.leaves += 2
		return append(out, tt.Punct{Char: '$', Spacing: tt.Joint, Sp: sp}, tt.Ident{Text: v.Name, Sp: sp})
	}
	val := t.resolve(raw)
	if val == nil || val.rep {
		t.setErr(v.Sp, "variable `%s` is still repeating at this depth", v.Name)
		return out
	}
	for _, tr := range val.trees {
		if st, ok := tr.(*tt.Subtree); ok {
			t.leaves += st.CountLeaves()
		} else {
			t.leaves++
		}
	}
	if val.frag == FragExpr && len(val.trees) > 1 {
		sp := t.mark(v.Sp)
		return append(out, tt.InvisibleAround(sp, val.trees...))
	}
	return append(out, val.trees...)
}

func (t *transcriber) repeat(r Repeat, b *bindings, out []tt.TokenTree) []tt.TokenTree {
	count, name := -1, ""
	for _, v := range varsOf(r.Ops) {
		raw := b.lookup(v)
		if raw == nil {
			continue
		}
		val := t.resolve(raw)
		if val == nil || !val.rep {
			continue
		}
		switch {
		case count < 0:
			count, name = len(val.nested), v
		case count != len(val.nested):
			t.setErr(t.ctx.CallSite, "meta-variable `%s` repeats %d times, but `%s` repeats %d times", name, count, v, len(val.nested))
			return out
		}
	}
	if count < 0 {
		t.setErr(t.ctx.CallSite, "attempted to repeat an expression containing no syntax variables matched as repeating at this depth")
		return out
	}
	if r.Kind == ZeroOrOne && count > 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		if i > 0 {
			for _, s := range r.Sep {
				t.leaves++
				out = append(out, remark(s, t.mark(s.Span())))
			}
		}
		t.idx = append(t.idx, i)
		out = t.ops(r.Ops, b, out)
		t.idx = t.idx[:len(t.idx)-1]
		if t.err != nil {
			return out
		}
	}
	return out
}

func remark(l tt.Leaf, sp span.Span) tt.TokenTree {
	switch l := l.(type) {
	case tt.Ident:
		l.Sp = sp
		return l
	case tt.Literal:
		l.Sp = sp
		return l
	case tt.Punct:
		l.Sp = sp
		return l
	}
	return l
}
