package expand

import (
	"context"
	"errors"
	"slices"
	"strings"

	"rill/internal/builtin"
	"rill/internal/hygiene"
	"rill/internal/mbe"
	"rill/internal/procmacro"
	"rill/internal/source"
	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/trace"
	"rill/internal/tt"
)

// mark returns the hygiene mark of call id applied on top of sp.
func (r *Registry) mark(id span.MacroCallID, loc MacroCallLoc, t hygiene.Transparency) func(span.Span) span.Span {
	m := hygiene.Mark{Call: id, Transparency: t}
	return func(sp span.Span) span.Span {
		return sp.WithCtx(r.hyg.ApplyMark(sp.Ctx, loc.CallSite.Ctx, m, loc.Def.Edition))
	}
}

// run dispatches to the expander of loc's definition. The output is never
// nil.
func (r *Registry) run(ctx context.Context, id span.MacroCallID, loc MacroCallLoc, arg macroArg) (*tt.Subtree, *ExpandError) {
	r.runs.Add(1)
	def := loc.Def
	switch def.Kind {
	case Declarative:
		mark := r.mark(id, loc, hygiene.SemiTransparent)
		callSite := mark(loc.CallSite)
		rules, err := r.macroRules(ctx, def)
		if err != nil {
			return empty(callSite), &ExpandError{Kind: Other, Msg: err.Error(), Sp: callSite, BadDef: true}
		}
		out, err := rules.Expand(arg.tree, mbe.ExpandContext{
			CallSite:  callSite,
			Mark:      mark,
			MaxLeaves: r.opts.MaxLeaves,
		})
		return out, mbeError(err, callSite)

	case BuiltinFn, BuiltinAttr, BuiltinDerive:
		env := r.builtinEnv(ctx, id, loc)
		var (
			out *tt.Subtree
			err error
		)
		switch def.Kind {
		case BuiltinFn:
			out, err = builtin.FnID(def.Builtin).Expand(env, arg.tree)
		case BuiltinAttr:
			out, err = builtin.AttrID(def.Builtin).Expand(env, arg.attr, arg.tree)
		default:
			out, err = builtin.DeriveID(def.Builtin).Expand(env, arg.tree)
		}
		if out == nil {
			out = empty(env.CallSite)
		}
		return out, builtinError(err, env.CallSite)

	case ProcMacro:
		callSite := r.mark(id, loc, hygiene.Transparent)(loc.CallSite)
		if def.Server < 0 || def.Server >= len(r.opts.ProcMacros) {
			return empty(callSite), newError(Unresolved, callSite, "proc-macro server %d is not configured", def.Server)
		}
		input := arg.tree
		if loc.Kind.Kind == CallFnLike {
			// proc macro видит поток токенов без внешних скобок
			input = &tt.Subtree{Delim: tt.Delimiter{Kind: tt.Invisible, Open: input.Delim.Open, Close: input.Delim.Close}, Children: input.Children}
		}
		if r.opts.ProcMacroTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.opts.ProcMacroTimeout)
			defer cancel()
		}
		out, err := r.opts.ProcMacros[def.Server].Expand(ctx, def.Name, input, arg.attr, callSite)
		if err != nil {
			trace.Fail(ctx, trace.ScopeCall, "proc-macro-failure:"+def.Name, err)
			return empty(callSite), procMacroError(err, callSite)
		}
		return out, nil
	}
	return empty(loc.CallSite), newError(Other, loc.CallSite, "unknown macro kind %s", def.Kind)
}

func empty(sp span.Span) *tt.Subtree {
	return tt.NewSubtree(tt.Invisible, sp, sp)
}

func mbeError(err error, sp span.Span) *ExpandError {
	if err == nil {
		return nil
	}
	var me *mbe.ExpandError
	if errors.As(err, &me) {
		return &ExpandError{Kind: MatchFailure, Msg: me.Msg, Sp: me.Sp}
	}
	var pe *mbe.ParseError
	if errors.As(err, &pe) {
		return &ExpandError{Kind: Other, Msg: pe.Error(), Sp: sp, BadDef: true}
	}
	return &ExpandError{Kind: Other, Msg: err.Error(), Sp: sp}
}

func builtinError(err error, sp span.Span) *ExpandError {
	if err == nil {
		return nil
	}
	var be *builtin.Error
	if errors.As(err, &be) {
		if be.Sp != (span.Span{}) {
			sp = be.Sp
		}
		return &ExpandError{Kind: Other, Msg: be.Msg, Sp: sp, User: be.User}
	}
	return &ExpandError{Kind: Other, Msg: err.Error(), Sp: sp}
}

func procMacroError(err error, sp span.Span) *ExpandError {
	var pe *procmacro.PanicError
	switch {
	case errors.As(err, &pe):
		return &ExpandError{Kind: ProcMacroPanic, Msg: pe.Error(), Sp: sp}
	case errors.Is(err, procmacro.ErrMalformed):
		return &ExpandError{Kind: MalformedOutput, Msg: err.Error(), Sp: sp}
	case errors.Is(err, context.DeadlineExceeded):
		return &ExpandError{Kind: ProcMacroPanic, Msg: "proc macro timed out: " + err.Error(), Sp: sp}
	}
	return &ExpandError{Kind: Other, Msg: err.Error(), Sp: sp}
}

// builtinEnv describes the call to a builtin.
func (r *Registry) builtinEnv(ctx context.Context, id span.MacroCallID, loc MacroCallLoc) *builtin.Env {
	env := &builtin.Env{
		CallSite:   r.mark(id, loc, hygiene.Transparent)(loc.CallSite),
		ModulePath: r.modulePath(ctx, loc),
		Cfg:        r.opts.Cfg,
	}
	if fr, ok := r.originalCallRange(ctx, loc); ok {
		if f := r.files.Get(fr.File); f != nil {
			env.File = f.Path
		}
		start, _ := r.files.Resolve(fr)
		env.Line, env.Column = start.Line, start.Col
	}
	return env
}

// modulePath is the `::`-joined path of the modules enclosing the call,
// following macro files out to the real file.
func (r *Registry) modulePath(ctx context.Context, loc MacroCallLoc) string {
	var segs []string
	cur := loc
	for depth := 0; depth < r.opts.EagerLimit; depth++ {
		n, err := r.node(ctx, cur.Kind.Ast)
		if err != nil {
			break
		}
		var mods []string
		for _, a := range n.Ancestors() {
			if a.Kind() == syntax.Module {
				mods = append(mods, syntax.NameText(a))
			}
		}
		// предки идут изнутри наружу
		slices.Reverse(mods)
		segs = append(mods, segs...)
		parent, ok := cur.Kind.Ast.File.MacroCall()
		if !ok {
			break
		}
		if cur, ok = r.Lookup(parent); !ok {
			break
		}
	}
	return strings.Join(append([]string{r.opts.CrateName}, segs...), "::")
}

// originalCallRange locates loc's call node in a real file.
func (r *Registry) originalCallRange(ctx context.Context, loc MacroCallLoc) (source.FileRange, bool) {
	if fid, ok := loc.Kind.Ast.File.FileID(); ok {
		n, err := r.node(ctx, loc.Kind.Ast)
		if err != nil {
			return source.FileRange{}, false
		}
		return source.FileRange{File: fid, Range: n.TrimmedRange()}, true
	}
	if fr, ok := r.OriginalRange(ctx, loc.CallSite); ok {
		return fr, true
	}
	return source.FileRange{}, false
}
