package expand

import (
	"context"

	"rill/internal/span"
	"rill/internal/syntax"
	"rill/internal/syntaxbridge"
	"rill/internal/tt"
)

// macroArg is what an expander is fed.
type macroArg struct {
	tree *tt.Subtree
	// attr is the input of an attribute macro (the tokens inside
	// #[name(...)]), nil for other calls.
	attr *tt.Subtree
	undo *syntaxbridge.UndoInfo
}

// argument builds the expander input of loc. Attribute and derive inputs
// are the annotated item with the invoking attribute censored out and
// incomplete syntax patched by fixups.
func (r *Registry) argument(ctx context.Context, loc MacroCallLoc) (macroArg, *ExpandError) {
	if !loc.EagerArg.IsZero() {
		r.mu.RLock()
		arg, ok := r.eager[loc.EagerArg]
		r.mu.RUnlock()
		if !ok {
			return macroArg{}, newError(Other, loc.CallSite, "eager argument %s is gone", loc.EagerArg)
		}
		return macroArg{tree: arg.Clone()}, nil
	}
	n, err := r.node(ctx, loc.Kind.Ast)
	if err != nil {
		return macroArg{}, newError(Other, loc.CallSite, "%v", err)
	}
	spanFor, err := r.SpanFunc(ctx, loc.Kind.Ast.File)
	if err != nil {
		return macroArg{}, newError(Other, loc.CallSite, "%v", err)
	}

	if loc.Kind.Kind == CallFnLike {
		body := syntax.MacroCallTokenTree(n)
		if body == nil {
			return macroArg{}, newError(Other, loc.CallSite, "macro call has no arguments")
		}
		return macroArg{tree: syntaxbridge.Unwrap(syntaxbridge.SyntaxToTokenTree(body, spanFor, nil))}, nil
	}

	attrs := syntax.Attrs(n)
	if loc.Kind.AttrIndex < 0 || loc.Kind.AttrIndex >= len(attrs) {
		return macroArg{}, newError(Other, loc.CallSite, "item has no attribute #%d", loc.Kind.AttrIndex)
	}
	attr := attrs[loc.Kind.AttrIndex]
	g := syntaxbridge.NewGrafts()
	g.Replace[attr] = nil
	if loc.Kind.Kind == CallDerive {
		// остальные derive-атрибуты тоже не должны попасть во вход
		for _, a := range attrs {
			if syntax.AttrPath(a) == "derive" {
				g.Replace[a] = nil
			}
		}
	}
	fixup := span.FixupSpan(loc.CallSite.Anchor.File, loc.CallSite.Ctx)
	undo := syntaxbridge.Fixup(n, spanFor, fixup, g)
	arg := macroArg{
		tree: syntaxbridge.SyntaxToTokenTree(n, spanFor, g),
		undo: undo,
	}
	if loc.Kind.Kind == CallAttr {
		if body := syntax.AttrTokenTree(attr); body != nil {
			arg.attr = syntaxbridge.Unwrap(syntaxbridge.SyntaxToTokenTree(body, spanFor, nil))
		} else {
			arg.attr = tt.NewSubtree(tt.Invisible, loc.CallSite, loc.CallSite)
		}
	}
	return arg, nil
}
