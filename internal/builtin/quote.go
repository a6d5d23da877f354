package builtin

import (
	"strconv"

	"rill/internal/span"
	"rill/internal/syntaxbridge"
	"rill/internal/tt"
)

// Quote lexes template into a token tree whose tokens all carry sp. A `#N`
// pair in the template (N a decimal index) is replaced by args[N], which
// keep their own spans.
func Quote(sp span.Span, template string, args ...[]tt.TokenTree) *tt.Subtree {
	root := syntaxbridge.TextToTokenTree(template, syntaxbridge.FixedSpan(sp))
	splice(root, args)
	return root
}

func splice(st *tt.Subtree, args [][]tt.TokenTree) {
	out := st.Children[:0:0]
	for i := 0; i < len(st.Children); i++ {
		c := st.Children[i]
		if sub, ok := c.(*tt.Subtree); ok {
			splice(sub, args)
			out = append(out, sub)
			continue
		}
		if tt.IsPunct(c, '#') && i+1 < len(st.Children) {
			if lit, ok := st.Children[i+1].(tt.Literal); ok {
				if n, err := strconv.Atoi(lit.Text); err == nil && n < len(args) {
					out = append(out, args[n]...)
					i++
					continue
				}
			}
		}
		out = append(out, c)
	}
	st.Children = out
}

func strLiteral(env *Env, s string) *tt.Subtree {
	return tt.InvisibleAround(env.CallSite, tt.Literal{Text: quoteStr(s), Sp: env.CallSite})
}

func intLiteral(env *Env, n uint32) *tt.Subtree {
	return tt.InvisibleAround(env.CallSite, tt.Literal{Text: strconv.FormatUint(uint64(n), 10) + "u32", Sp: env.CallSite})
}

func boolIdent(env *Env, v bool) *tt.Subtree {
	return tt.InvisibleAround(env.CallSite, tt.Ident{Text: strconv.FormatBool(v), Sp: env.CallSite})
}
