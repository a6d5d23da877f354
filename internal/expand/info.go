package expand

import (
	"context"
	"strconv"

	"rill/internal/diag"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/syntaxbridge"
	"rill/internal/trace"
	"rill/internal/tt"
)

// ExpansionInfo is the result of expanding one call.
type ExpansionInfo struct {
	Call span.MacroCallID
	Loc  MacroCallLoc
	// Tree is the reparsed output, a macro file.
	Tree *FileTree
	// SpanMap maps every token range of Tree back to the span of the token
	// that produced it.
	SpanMap *span.SpanMap
	// Arg is the expander input, Output its token output.
	Arg    *tt.Subtree
	Output *tt.Subtree
}

// spanFor gives tokens of the macro file their original spans. A range
// inside a token narrows the token's span accordingly.
func (info *ExpansionInfo) spanFor(r source.TextRange) span.Span {
	er, sp, ok := info.SpanMap.EntryAt(r.Start)
	if !ok {
		return info.Loc.CallSite
	}
	if er != r && sp.Range.Len() == er.Len() && er.ContainsRange(r) {
		off := r.Start - er.Start
		sp.Range = source.TextRange{Start: sp.Range.Start + off, End: sp.Range.Start + off + r.Len()}
	}
	return sp
}

// MapRangeUp maps a range of the output to the span covering the tokens
// that produced it. Tokens anchored elsewhere than the first one are
// ignored.
func (info *ExpansionInfo) MapRangeUp(r source.TextRange) (span.Span, bool) {
	spans := info.SpanMap.SpansForRange(r)
	if len(spans) == 0 {
		return span.Span{}, false
	}
	out := spans[0]
	for _, sp := range spans[1:] {
		out = out.Cover(sp)
	}
	return out, true
}

// MapRangeDown returns the output ranges produced from exactly sp,
// hygiene context included.
func (info *ExpansionInfo) MapRangeDown(sp span.Span) []source.TextRange {
	return info.SpanMap.RangesWithSpanExact(sp)
}

// ArgRangesFor returns the output ranges produced from input tokens
// overlapping sp, whatever their hygiene context.
func (info *ExpansionInfo) ArgRangesFor(sp span.Span) []source.TextRange {
	return info.SpanMap.RangesWithSpan(sp)
}

// Text is the printed output.
func (info *ExpansionInfo) Text() string {
	return info.Tree.Root.Text()
}

// Expand expands call id, or returns the cached expansion. The value is
// set even when the expansion failed: failed calls yield a dummy fragment
// of the expected kind.
func (r *Registry) Expand(ctx context.Context, id span.MacroCallID) ExpandResult[*ExpansionInfo] {
	if perr, ok := r.Poisoned(id); ok {
		trace.Mark(ctx, trace.ScopeNode, "poisoned", id.String())
		r.mu.RLock()
		res, done := r.results[id]
		r.mu.RUnlock()
		if done && res.Err == perr {
			return res
		}
		res = r.dummy(id, perr)
		r.mu.Lock()
		r.results[id] = res
		r.mu.Unlock()
		return res
	}
	r.mu.RLock()
	res, ok := r.results[id]
	r.mu.RUnlock()
	if ok {
		trace.Mark(ctx, trace.ScopeNode, "cache-hit", id.String())
		return res
	}
	// общее вычисление живёт дольше отменённого вызывающего; каждый
	// ждёт его только пока жив свой ctx
	shared := context.WithoutCancel(ctx)
	ch := r.flight.DoChan("call:"+strconv.FormatUint(uint64(id), 10), func() (any, error) {
		r.mu.RLock()
		res, ok := r.results[id]
		r.mu.RUnlock()
		if ok {
			return res, nil
		}
		res = r.compute(shared, id)
		r.mu.Lock()
		r.results[id] = res
		r.mu.Unlock()
		return res, nil
	})
	select {
	case v := <-ch:
		return v.Val.(ExpandResult[*ExpansionInfo])
	case <-ctx.Done():
		loc, _ := r.Lookup(id)
		return r.dummy(id, newError(Other, loc.CallSite, "%v", context.Cause(ctx)))
	}
}

func (r *Registry) compute(ctx context.Context, id span.MacroCallID) ExpandResult[*ExpansionInfo] {
	loc, ok := r.Lookup(id)
	if !ok {
		return ExpandResult[*ExpansionInfo]{Err: newError(Other, span.Span{}, "unknown macro call %s", id)}
	}
	ctx, sp := trace.Start(ctx, trace.ScopeCall, "call:"+loc.Def.Name)

	arg, err := r.argument(ctx, loc)
	if err != nil {
		sp.End(err.Error())
		return r.dummy(id, err)
	}
	out, err := r.run(ctx, id, loc, arg)
	if arg.undo != nil {
		out = syntaxbridge.Reverse(out, arg.undo)
	}
	if err != nil && len(out.Children) == 0 {
		out = DummyFragment(loc.Kind.ExpandTo, loc.CallSite)
	}
	root, smap, perrs := syntaxbridge.TokenTreeToSyntax(out, loc.Kind.ExpandTo.Entry())
	if err == nil && len(perrs) > 0 {
		err = newError(MalformedOutput, loc.CallSite, "macro expansion is not a valid %s: %s", loc.Kind.ExpandTo, perrs[0].Msg)
	}
	info := &ExpansionInfo{
		Call: id,
		Loc:  loc,
		Tree: &FileTree{
			File:   span.MacroFile(id),
			Root:   root,
			AstIDs: syntax.NewAstIDMap(root),
			Errors: perrs,
		},
		SpanMap: smap,
		Arg:     arg.tree,
		Output:  out,
	}
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	sp.WithExtra("kind", loc.Def.Kind.String()).End(detail)
	return WithErr(info, err)
}

// dummy is the result of a call that could not be expanded.
func (r *Registry) dummy(id span.MacroCallID, err *ExpandError) ExpandResult[*ExpansionInfo] {
	loc, _ := r.Lookup(id)
	out := DummyFragment(loc.Kind.ExpandTo, loc.CallSite)
	root, smap, perrs := syntaxbridge.TokenTreeToSyntax(out, loc.Kind.ExpandTo.Entry())
	return WithErr(&ExpansionInfo{
		Call: id,
		Loc:  loc,
		Tree: &FileTree{
			File:   span.MacroFile(id),
			Root:   root,
			AstIDs: syntax.NewAstIDMap(root),
			Errors: perrs,
		},
		SpanMap: smap,
		Arg:     empty(loc.CallSite),
		Output:  out,
	}, err)
}

// DummyFragment is what stands in for a call that failed: nothing for
// items and statements, `false` for an expression, `_` for a pattern or
// a type.
func DummyFragment(to ExpandTo, sp span.Span) *tt.Subtree {
	switch to {
	case Expr:
		return tt.InvisibleAround(sp, tt.Ident{Text: "false", Sp: sp})
	case Pattern, Type:
		return tt.InvisibleAround(sp, tt.Ident{Text: "_", Sp: sp})
	}
	return empty(sp)
}

// OriginalRange resolves a span to the file range it was written at.
// Fixup spans resolve to nothing.
func (r *Registry) OriginalRange(ctx context.Context, sp span.Span) (source.FileRange, bool) {
	if sp.IsFixup() || sp.Anchor.Ast == span.NoAstID {
		return source.FileRange{}, false
	}
	ft, err := r.File(ctx, span.RealFile(sp.Anchor.File))
	if err != nil {
		return source.FileRange{}, false
	}
	rng, ok := ft.Spans.Resolve(sp)
	if !ok {
		return source.FileRange{}, false
	}
	return source.FileRange{File: sp.Anchor.File, Range: rng}, true
}

// OriginalCallRange locates the call of id in a real file.
func (r *Registry) OriginalCallRange(ctx context.Context, id span.MacroCallID) (source.FileRange, bool) {
	loc, ok := r.Lookup(id)
	if !ok {
		return source.FileRange{}, false
	}
	return r.originalCallRange(ctx, loc)
}

// MapFileRangeUp maps a range of a real or macro file to the real file
// range it came from.
func (r *Registry) MapFileRangeUp(ctx context.Context, file span.HirFileID, rng source.TextRange) (source.FileRange, bool) {
	if fid, ok := file.FileID(); ok {
		return source.FileRange{File: fid, Range: rng}, true
	}
	id, _ := file.MacroCall()
	res := r.Expand(ctx, id)
	if res.Value == nil {
		return source.FileRange{}, false
	}
	sp, ok := res.Value.MapRangeUp(rng)
	if !ok {
		return r.OriginalCallRange(ctx, id)
	}
	if fr, ok := r.OriginalRange(ctx, sp); ok {
		return fr, true
	}
	return r.OriginalCallRange(ctx, id)
}

// MapFileRangeDown returns the ranges of id's output produced from the
// tokens written at fr.
func (r *Registry) MapFileRangeDown(ctx context.Context, id span.MacroCallID, fr source.FileRange) []source.TextRange {
	ft, err := r.File(ctx, span.RealFile(fr.File))
	if err != nil {
		return nil
	}
	res := r.Expand(ctx, id)
	if res.Value == nil {
		return nil
	}
	return res.Value.ArgRangesFor(ft.Spans.SpanFor(fr.Range))
}

// Diagnostic turns an expansion error into a diagnostic located at the
// error's span, or at the call when the span resolves nowhere.
func (r *Registry) Diagnostic(ctx context.Context, id span.MacroCallID, err *ExpandError) diag.Diagnostic {
	primary, ok := r.OriginalRange(ctx, err.Sp)
	if !ok {
		primary, _ = r.OriginalCallRange(ctx, id)
	}
	d := diag.NewError(err.Code(), primary, err.Msg)
	if loc, ok := r.Lookup(id); ok && !err.User && err.Kind != Unresolved {
		if call, ok := r.OriginalCallRange(ctx, id); ok && call != primary {
			d = d.WithNote(call, "in this expansion of `"+loc.Def.Name+"!`")
		}
	}
	return d
}
