package mbe

import (
	"errors"

	"rill/internal/parser"
	"rill/internal/syntaxbridge"
	"rill/internal/tt"
)

// maxMatchSteps bounds the backtracking of one rule.
const maxMatchSteps = 1 << 16

var errTooComplex = errors.New("macro invocation is too complex to match")

// binding is the value of a metavariable: a fragment, or one binding per
// repetition when the variable sits under `$(...)`.
type binding struct {
	frag   Fragment
	trees  []tt.TokenTree
	rep    bool
	nested []*binding
}

// bindings — неизменяемый список; откат при переборе бесплатный.
type bindings struct {
	name string
	val  *binding
	next *bindings
}

func (b *bindings) with(name string, v *binding) *bindings {
	return &bindings{name: name, val: v, next: b}
}

func (b *bindings) lookup(name string) *binding {
	for ; b != nil; b = b.next {
		if b.name == name {
			return b.val
		}
	}
	return nil
}

type cont func(rest []tt.TokenTree, b *bindings, pos int) bool

// matcher сопоставляет одно правило с аргументом, с откатами.
type matcher struct {
	steps   int
	best    int
	bestTok tt.TokenTree
	bestEnd bool
	err     error
}

func (m *matcher) fail(in []tt.TokenTree, pos int) bool {
	if pos >= m.best {
		m.best = pos
		m.bestEnd = len(in) == 0
		if len(in) > 0 {
			m.bestTok = in[0]
		}
	}
	return false
}

// matchRule returns the bindings of a full match of ops against in.
func (m *matcher) matchRule(ops []Op, in []tt.TokenTree) (*bindings, bool) {
	var out *bindings
	ok := m.seq(ops, in, nil, 0, func(rest []tt.TokenTree, b *bindings, pos int) bool {
		if len(rest) != 0 {
			return m.fail(rest, pos)
		}
		out = b
		return true
	})
	return out, ok
}

func (m *matcher) seq(ops []Op, in []tt.TokenTree, b *bindings, pos int, k cont) bool {
	if len(ops) == 0 {
		return k(in, b, pos)
	}
	m.steps++
	if m.steps > maxMatchSteps {
		m.err = errTooComplex
		return false
	}
	rest := ops[1:]
	next := func(in []tt.TokenTree, b *bindings, pos int) bool {
		return m.seq(rest, in, b, pos, k)
	}
	switch op := ops[0].(type) {
	case Leaf:
		if len(in) == 0 || !leafMatches(op.Tree, in[0]) {
			return m.fail(in, pos)
		}
		return next(in[1:], b, pos+1)
	case Group:
		if len(in) == 0 {
			return m.fail(in, pos)
		}
		st, ok := in[0].(*tt.Subtree)
		if !ok || st.Delim.Kind != op.Delim.Kind {
			return m.fail(in, pos)
		}
		var inner *bindings
		innerPos := pos + 1
		matched := m.seq(op.Ops, st.Children, b, pos+1, func(r []tt.TokenTree, ib *bindings, p int) bool {
			if len(r) != 0 {
				return m.fail(r, p)
			}
			inner, innerPos = ib, p
			return true
		})
		if !matched {
			return false
		}
		return next(in[1:], inner, innerPos)
	case Var:
		n, ok := matchFragment(op.Kind, in)
		if !ok {
			return m.fail(in, pos)
		}
		return next(in[n:], b.with(op.Name, &binding{frag: op.Kind, trees: in[:n]}), pos+max(n, 1))
	case Repeat:
		return m.repeat(op, in, b, pos, nil, next)
	}
	return false
}

// repeat пробует жадно ещё одну итерацию, затем завершает повторение.
func (m *matcher) repeat(op Repeat, in []tt.TokenTree, b *bindings, pos int, iters []*bindings, k cont) bool {
	canMore := op.Kind != ZeroOrOne || len(iters) == 0
	if canMore && len(in) > 0 {
		body, bodyPos, ok := in, pos, true
		if len(iters) > 0 && len(op.Sep) > 0 {
			body, ok = matchSep(op.Sep, in)
			bodyPos = pos + len(op.Sep)
		}
		if ok && len(body) > 0 {
			done := m.seq(op.Ops, body, nil, bodyPos, func(r []tt.TokenTree, ib *bindings, p int) bool {
				if len(r) == len(body) {
					return false
				}
				return m.repeat(op, r, b, p, append(iters[:len(iters):len(iters)], ib), k)
			})
			if done || m.err != nil {
				return done
			}
		}
	}
	if op.Kind == OneOrMore && len(iters) == 0 {
		return m.fail(in, pos)
	}
	for _, name := range varsOf(op.Ops) {
		v := &binding{rep: true, nested: make([]*binding, 0, len(iters))}
		for _, it := range iters {
			if nb := it.lookup(name); nb != nil {
				v.nested = append(v.nested, nb)
			} else {
				v.nested = append(v.nested, &binding{rep: true})
			}
		}
		b = b.with(name, v)
	}
	return k(in, b, pos)
}

func matchSep(sep []tt.Leaf, in []tt.TokenTree) ([]tt.TokenTree, bool) {
	if len(in) < len(sep) {
		return nil, false
	}
	for i, s := range sep {
		if !leafMatches(s, in[i]) {
			return nil, false
		}
	}
	return in[len(sep):], true
}

// unwrapSingle смотрит сквозь невидимую группу из одного элемента, которую
// оставляет подстановка фрагмента.
func unwrapSingle(t tt.TokenTree) tt.TokenTree {
	for {
		st, ok := t.(*tt.Subtree)
		if !ok || !st.IsInvisible() || len(st.Children) != 1 {
			return t
		}
		t = st.Children[0]
	}
}

func leafMatches(want tt.Leaf, got tt.TokenTree) bool {
	got = unwrapSingle(got)
	switch w := want.(type) {
	case tt.Ident:
		g, ok := got.(tt.Ident)
		return ok && g.Text == w.Text
	case tt.Literal:
		g, ok := got.(tt.Literal)
		return ok && g.Text == w.Text
	case tt.Punct:
		g, ok := got.(tt.Punct)
		return ok && g.Char == w.Char
	}
	return false
}

var prefixEntries = map[Fragment]parser.PrefixEntry{
	FragExpr:  parser.ExprPrefix,
	FragTy:    parser.TypePrefix,
	FragPat:   parser.PatPrefix,
	FragPath:  parser.PathPrefix,
	FragBlock: parser.BlockPrefix,
	FragStmt:  parser.StmtPrefix,
	FragItem:  parser.ItemPrefix,
	FragVis:   parser.VisPrefix,
	FragMeta:  parser.MetaPrefix,
}

// matchFragment reports how many trees at the start of in form a fragment
// of kind k.
func matchFragment(k Fragment, in []tt.TokenTree) (int, bool) {
	if len(in) == 0 {
		return 0, k == FragVis
	}
	first := unwrapSingle(in[0])
	switch k {
	case FragTT:
		if _, ok := in[0].(tt.Punct); ok {
			ps, _ := tt.IterOver(in).ExpectGluedPunct()
			return len(ps), true
		}
		return 1, true
	case FragIdent:
		id, ok := first.(tt.Ident)
		return 1, ok && id.Text != "_"
	case FragLifetime:
		if p, ok := first.(tt.Punct); ok && p.Char == '\'' && len(in) > 1 {
			_, ok := in[1].(tt.Ident)
			return 2, ok
		}
		return 0, false
	case FragLiteral:
		switch t := first.(type) {
		case tt.Literal:
			return 1, true
		case tt.Ident:
			return 1, t.Text == "true" || t.Text == "false"
		case tt.Punct:
			if t.Char == '-' && len(in) > 1 {
				_, ok := unwrapSingle(in[1]).(tt.Literal)
				return 2, ok
			}
		}
		return 0, false
	}
	entry, ok := prefixEntries[k]
	if !ok {
		return 0, false
	}
	return syntaxbridge.ParsePrefixTrees(in, entry)
}
