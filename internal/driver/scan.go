package driver

import (
	"context"

	"rill/internal/builtin"
	"rill/internal/expand"
	"rill/internal/hygiene"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/syntaxbridge"
	"rill/internal/tt"
)

// scopes is the textual scope of macro_rules! definitions.
type scopes = hygiene.Scopes[expand.MacroDefID]

// site is a macro call found in a file, resolved against the textual scope
// at its position.
type site struct {
	name string
	kind expand.CallKind
	// rng is the call's range in the scanned file: the call node for
	// function-like calls, the annotated item for attributes and derives.
	rng      source.TextRange
	to       expand.ExpandTo
	loc      expand.MacroCallLoc
	resolved bool
	eager    bool
	// visible is the textual scope at the call; nested calls resolve
	// against it.
	visible *scopes
}

// scanner walks one file in source order collecting calls and
// definitions.
type scanner struct {
	d       *Driver
	file    span.HirFileID
	ft      *expand.FileTree
	spanFor syntaxbridge.SpanFunc
	scopes  *scopes
	sites   []site
}

func (d *Driver) scan(ctx context.Context, file span.HirFileID, visible *scopes) ([]site, error) {
	ft, err := d.reg.File(ctx, file)
	if err != nil {
		return nil, err
	}
	spanFor, err := d.reg.SpanFunc(ctx, file)
	if err != nil {
		return nil, err
	}
	s := &scanner{d: d, file: file, ft: ft, spanFor: spanFor, scopes: visible}
	w := syntax.NewWalker(ft.Root)
	for {
		ev, ok := w.Next()
		if !ok {
			break
		}
		n, isNode := ev.Element.(*syntax.Node)
		if !isNode {
			continue
		}
		if ev.Leave {
			if n.Kind() == syntax.Module {
				s.scopes.Pop()
			}
			continue
		}
		switch n.Kind() {
		case syntax.Module:
			s.scopes.Push(syntax.HasAttr(n, "macro_use") || syntax.HasAttr(n, "macro_escape"))
			continue
		case syntax.MacroRules:
			s.define(n)
			w.SkipSubtree()
			continue
		case syntax.MacroCall:
			s.fnLike(n)
			w.SkipSubtree()
			continue
		}
		if n.Kind().IsItem() && s.attributes(n) {
			w.SkipSubtree()
		}
	}
	return s.sites, nil
}

func (s *scanner) astID(n *syntax.Node) span.FileAstID {
	id, _ := s.ft.AstIDs.IDOf(n)
	return span.FileAstID{File: s.file, Ast: id}
}

func (s *scanner) define(n *syntax.Node) {
	name := syntax.NameText(n)
	if name == "" {
		return
	}
	def := expand.MacroDefID{
		Edition: s.d.opts.Edition,
		Kind:    expand.Declarative,
		Ast:     s.astID(n),
		Name:    name,
	}
	if nn := n.ChildOfKind(syntax.Name); nn != nil {
		def.Span = s.spanFor(nn.TrimmedRange())
	}
	s.scopes.Insert(name, def)
}

func (s *scanner) fnLike(call *syntax.Node) {
	name := syntax.PathName(syntax.MacroCallPath(call))
	to := expand.ExpandToFor(call)
	st := site{
		name:    name,
		kind:    expand.CallFnLike,
		rng:     call.TrimmedRange(),
		to:      to,
		visible: s.scopes.Snapshot(),
	}
	st.loc = expand.MacroCallLoc{
		Kind: expand.MacroCallKind{
			Kind:     expand.CallFnLike,
			Ast:      s.astID(call),
			ExpandTo: to,
		},
		CallSite: s.spanFor(call.TrimmedRange()),
	}
	if def, ok := s.d.resolveFn(st.visible, name); ok {
		st.loc.Def, st.resolved = def, true
		if def.Kind == expand.BuiltinFn {
			st.eager = builtin.FnID(def.Builtin).IsEager()
		}
	}
	s.sites = append(s.sites, st)
}

// attributes records the attribute macro or the derives of item. It
// reports whether the item is replaced by an attribute expansion, in which
// case its body is scanned in the expansion instead.
func (s *scanner) attributes(item *syntax.Node) bool {
	attrs := syntax.Attrs(item)
	for i, a := range attrs {
		if syntax.AttrIsInner(a) {
			continue
		}
		def, ok := s.d.resolveAttr(syntax.AttrPath(a))
		if !ok {
			continue
		}
		s.sites = append(s.sites, s.itemSite(item, a, def, expand.CallAttr, i, 0))
		return true
	}
	derive := 0
	for i, a := range attrs {
		if syntax.AttrPath(a) != "derive" {
			continue
		}
		for _, name := range deriveNames(syntax.AttrTokenTree(a)) {
			st := s.itemSite(item, a, expand.MacroDefID{}, expand.CallDerive, i, derive)
			st.name, st.resolved = name, false
			if def, ok := s.d.resolveDerive(name); ok {
				st.loc.Def, st.resolved = def, true
			}
			s.sites = append(s.sites, st)
			derive++
		}
	}
	return false
}

func (s *scanner) itemSite(item, attr *syntax.Node, def expand.MacroDefID, kind expand.CallKind, attrIdx, deriveIdx int) site {
	return site{
		name:     def.Name,
		kind:     kind,
		rng:      item.TrimmedRange(),
		to:       expand.Items,
		resolved: true,
		visible:  s.scopes.Snapshot(),
		loc: expand.MacroCallLoc{
			Def: def,
			Kind: expand.MacroCallKind{
				Kind:        kind,
				Ast:         s.astID(item),
				ExpandTo:    expand.Items,
				AttrIndex:   attrIdx,
				DeriveIndex: deriveIdx,
			},
			CallSite: s.spanFor(attr.TrimmedRange()),
		},
	}
}

// deriveNames lists the last segments of the paths in `derive(A, b::C)`.
func deriveNames(n *syntax.Node) []string {
	if n == nil {
		return nil
	}
	var names []string
	last := ""
	syntax.Tokens(n, func(t *syntax.Token) bool {
		switch text := t.Text(); {
		case t.IsTrivia(), text == "(", text == ":", text == "::":
		case text == "," || text == ")":
			if last != "" {
				names = append(names, last)
			}
			last = ""
		default:
			last = text
		}
		return true
	})
	return names
}

// resolver resolves names of nested eager calls against visible.
func (d *Driver) resolver(visible *scopes) expand.Resolver {
	return func(name string) (expand.MacroDefID, bool) {
		return d.resolveFn(visible, name)
	}
}

// dummyText is what an unexpanded call is replaced with.
func dummyText(to expand.ExpandTo) string {
	return tt.Pretty(expand.DummyFragment(to, span.Span{}).Children)
}
