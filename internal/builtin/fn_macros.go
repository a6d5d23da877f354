package builtin

import (
	"strings"

	"rill/internal/tt"
)

func stringify(env *Env, arg *tt.Subtree) (*tt.Subtree, error) {
	return strLiteral(env, tt.Pretty(arg.Children)), nil
}

// splitCommas splits trees at top-level commas. A trailing comma yields no
// empty last element.
func splitCommas(trees []tt.TokenTree) [][]tt.TokenTree {
	var parts [][]tt.TokenTree
	start := 0
	for i, t := range trees {
		if tt.IsPunct(t, ',') {
			parts = append(parts, trees[start:i])
			start = i + 1
		}
	}
	if start < len(trees) {
		parts = append(parts, trees[start:])
	}
	return parts
}

// unwrapInvisible looks through invisible groups left by eager expansion.
func unwrapInvisible(trees []tt.TokenTree) []tt.TokenTree {
	for len(trees) == 1 {
		st, ok := trees[0].(*tt.Subtree)
		if !ok || !st.IsInvisible() {
			break
		}
		trees = st.Children
	}
	return trees
}

func concat(env *Env, arg *tt.Subtree) (*tt.Subtree, error) {
	var b strings.Builder
	for _, part := range splitCommas(arg.Children) {
		part = unwrapInvisible(part)
		if len(part) == 0 {
			return empty(env), errorf(env.CallSite, "expected a literal")
		}
		neg := false
		if tt.IsPunct(part[0], '-') {
			neg = true
			part = unwrapInvisible(part[1:])
		}
		if len(part) != 1 {
			return empty(env), errorf(part[0].FirstSpan(), "expected a literal")
		}
		switch t := part[0].(type) {
		case tt.Literal:
			v, err := literalValue(t.Text)
			if err != nil {
				return empty(env), errorf(t.Sp, "%v", err)
			}
			if neg {
				if t.Text[0] < '0' || t.Text[0] > '9' {
					return empty(env), errorf(t.Sp, "expected a literal")
				}
				b.WriteByte('-')
			}
			b.WriteString(v)
		case tt.Ident:
			if neg || (t.Text != "true" && t.Text != "false") {
				return empty(env), errorf(t.Sp, "expected a literal")
			}
			b.WriteString(t.Text)
		default:
			return empty(env), errorf(t.FirstSpan(), "expected a literal")
		}
	}
	return strLiteral(env, b.String()), nil
}

func compileError(env *Env, arg *tt.Subtree) (*tt.Subtree, error) {
	parts := splitCommas(arg.Children)
	if len(parts) == 1 {
		if trees := unwrapInvisible(parts[0]); len(trees) == 1 {
			if lit, ok := trees[0].(tt.Literal); ok && strings.HasSuffix(lit.Text, `"`) {
				msg, err := literalValue(lit.Text)
				if err == nil {
					return empty(env), &Error{Msg: msg, Sp: env.CallSite, User: true}
				}
			}
		}
	}
	return empty(env), errorf(env.CallSite, "compile_error! takes 1 argument")
}

func assert(env *Env, arg *tt.Subtree) (*tt.Subtree, error) {
	cond := arg.Children
	var rest []tt.TokenTree
	for i, t := range arg.Children {
		if tt.IsPunct(t, ',') {
			cond, rest = arg.Children[:i], arg.Children[i+1:]
			break
		}
	}
	if len(cond) == 0 {
		return empty(env), errorf(env.CallSite, "macro requires a boolean expression as an argument")
	}
	if len(rest) == 0 {
		msg := tt.Literal{Text: quoteStr("assertion failed: " + tt.Pretty(cond)), Sp: env.CallSite}
		rest = []tt.TokenTree{msg}
	}
	out := Quote(env.CallSite, "{ if !(#0) { ::core::panic!(#1); } }", cond, rest)
	return out, nil
}
