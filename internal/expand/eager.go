package expand

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"rill/internal/procmacro"
	"rill/internal/span"
	"rill/internal/tt"
)

// Resolver maps the name of a macro (the last path segment) to its
// definition.
type Resolver func(name string) (MacroDefID, bool)

// fingerprint hashes a token tree, spans included.
func fingerprint(st *tt.Subtree) Fingerprint {
	payload, err := msgpack.Marshal(procmacro.Flatten(st))
	if err != nil {
		panic(fmt.Errorf("fingerprint: %w", err))
	}
	return sha256.Sum256(payload)
}

// storeEager keeps arg under its fingerprint.
func (r *Registry) storeEager(arg *tt.Subtree) Fingerprint {
	fp := fingerprint(arg)
	r.mu.Lock()
	if _, ok := r.eager[fp]; !ok {
		r.eager[fp] = arg
	}
	r.mu.Unlock()
	return fp
}

// ExpandEager prepares an eager call: the macro calls written inside its
// argument are expanded first and the result becomes the loc's EagerArg.
// The returned loc is what should be interned. Errors of nested calls are
// collected; their tokens are left in place.
func (r *Registry) ExpandEager(ctx context.Context, loc MacroCallLoc, resolve Resolver) (MacroCallLoc, []*ExpandError) {
	arg, xerr := r.argument(ctx, loc)
	if xerr != nil {
		return loc, []*ExpandError{xerr}
	}
	e := &eagerExpander{r: r, ctx: ctx, outer: loc, resolve: resolve}
	expanded := arg.tree.Clone()
	expanded.Children = e.trees(expanded.Children, 0)
	loc.EagerArg = r.storeEager(expanded)
	return loc, e.errs
}

type eagerExpander struct {
	r       *Registry
	ctx     context.Context
	outer   MacroCallLoc
	resolve Resolver
	errs    []*ExpandError
}

// callAt matches `a::b ! (..)` at the start of trees and returns the last
// path segment, the span of the first one and the argument group.
func callAt(trees []tt.TokenTree) (name string, start span.Span, arg *tt.Subtree, n int, ok bool) {
	it := tt.IterOver(trees)
	first, err := it.ExpectIdent()
	if err != nil {
		return "", span.Span{}, nil, 0, false
	}
	name, start = first.Text, first.Sp
	for tt.IsPunct(it.Peek(), ':') && tt.IsPunct(it.PeekN(1), ':') {
		it.Skip(2)
		seg, err := it.ExpectIdent()
		if err != nil {
			return "", span.Span{}, nil, 0, false
		}
		name = seg.Text
	}
	if _, err := it.ExpectPunct('!'); err != nil {
		return "", span.Span{}, nil, 0, false
	}
	group, err := it.ExpectSubtree()
	if err != nil || group.IsInvisible() {
		return "", span.Span{}, nil, 0, false
	}
	return name, start, group, it.Pos(), true
}

func (e *eagerExpander) trees(trees []tt.TokenTree, depth int) []tt.TokenTree {
	out := make([]tt.TokenTree, 0, len(trees))
	for i := 0; i < len(trees); {
		if st, ok := trees[i].(*tt.Subtree); ok && st.IsInvisible() {
			cp := st.Clone()
			cp.Children = e.trees(cp.Children, depth)
			out = append(out, cp)
			i++
			continue
		}
		name, start, group, n, ok := callAt(trees[i:])
		if !ok {
			out = append(out, trees[i])
			i++
			continue
		}
		def, found := e.resolve(name)
		if !found {
			e.errs = append(e.errs, newError(Unresolved, start, "cannot find macro `%s` in this scope", name))
			out = append(out, trees[i:i+n]...)
			i += n
			continue
		}
		out = append(out, e.call(name, def, start, group, depth))
		i += n
	}
	return out
}

// call expands one nested call and returns its output as an invisible
// group.
func (e *eagerExpander) call(name string, def MacroDefID, start span.Span, group *tt.Subtree, depth int) tt.TokenTree {
	if depth >= e.r.opts.EagerLimit {
		e.errs = append(e.errs, newError(RecursionOverflow, start, "recursion limit reached while expanding `%s!`", name))
		return DummyFragment(Expr, start)
	}
	// аргумент вложенного вызова тоже раскрывается энергично
	arg := group.Clone()
	arg.Children = e.trees(arg.Children, depth+1)
	loc := MacroCallLoc{
		Def:   def,
		Krate: e.outer.Krate,
		Kind: MacroCallKind{
			Kind:     CallFnLike,
			Ast:      e.outer.Kind.Ast,
			ExpandTo: Expr,
		},
		CallSite: start,
		EagerArg: e.r.storeEager(arg),
	}
	id := e.r.Intern(loc)
	res := e.r.Expand(e.ctx, id)
	if res.Err != nil {
		e.errs = append(e.errs, res.Err)
	}
	if res.Value == nil {
		return DummyFragment(Expr, start)
	}
	// результат сам может содержать вызовы
	return tt.InvisibleAround(start, e.trees(res.Value.Output.Clone().Children, depth+1)...)
}
