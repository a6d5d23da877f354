package builtin

import (
	"fmt"
	"slices"
	"strings"

	"rill/internal/tt"
)

// CfgOptions is the set of enabled cfg atoms: bare names (`unix`) and
// key-value pairs (`feature = "x"`).
type CfgOptions struct {
	atoms map[string]struct{}
}

// NewCfg builds options from flags written as `name` or `key=value`.
func NewCfg(flags ...string) *CfgOptions {
	c := &CfgOptions{atoms: make(map[string]struct{}, len(flags))}
	for _, f := range flags {
		key, value, _ := strings.Cut(f, "=")
		c.Enable(strings.TrimSpace(key), strings.Trim(strings.TrimSpace(value), `"`))
	}
	return c
}

func cfgKey(key, value string) string {
	if value == "" {
		return key
	}
	return key + "=" + value
}

// Enable turns an atom on.
func (c *CfgOptions) Enable(key, value string) {
	c.atoms[cfgKey(key, value)] = struct{}{}
}

// Enabled reports whether an atom is on.
func (c *CfgOptions) Enabled(key, value string) bool {
	if c == nil {
		return false
	}
	_, ok := c.atoms[cfgKey(key, value)]
	return ok
}

// Atoms lists the enabled atoms, sorted.
func (c *CfgOptions) Atoms() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.atoms))
	for a := range c.atoms {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// EvalCfg evaluates a cfg predicate such as `all(unix, not(feature = "x"))`.
func (c *CfgOptions) EvalCfg(trees []tt.TokenTree) (bool, error) {
	it := tt.IterOver(trees)
	v, err := c.eval(it)
	if err != nil {
		return false, err
	}
	if tt.IsPunct(it.Peek(), ',') {
		it.Next()
	}
	if !it.Done() {
		return false, fmt.Errorf("expected one cfg-pattern")
	}
	return v, nil
}

func (c *CfgOptions) eval(it *tt.Iter) (bool, error) {
	id, err := it.ExpectIdent()
	if err != nil {
		return false, fmt.Errorf("expected a cfg-pattern")
	}
	if sub, ok := it.Peek().(*tt.Subtree); ok && sub.Delim.Kind == tt.Parenthesis {
		it.Next()
		args, err := c.list(sub.Children)
		if err != nil {
			return false, err
		}
		switch id.Text {
		case "all":
			return !slices.Contains(args, false), nil
		case "any":
			return slices.Contains(args, true), nil
		case "not":
			if len(args) != 1 {
				return false, fmt.Errorf("expected 1 cfg-pattern")
			}
			return !args[0], nil
		}
		return false, fmt.Errorf("invalid predicate `%s`", id.Text)
	}
	if tt.IsPunct(it.Peek(), '=') {
		it.Next()
		lit, err := it.ExpectLiteral()
		if err != nil {
			return false, fmt.Errorf("expected a string literal after `=`")
		}
		v, err := literalValue(lit.Text)
		if err != nil {
			return false, err
		}
		return c.Enabled(id.Text, v), nil
	}
	return c.Enabled(id.Text, ""), nil
}

func (c *CfgOptions) list(trees []tt.TokenTree) ([]bool, error) {
	var out []bool
	for _, part := range splitCommas(trees) {
		it := tt.IterOver(part)
		v, err := c.eval(it)
		if err != nil {
			return nil, err
		}
		if !it.Done() {
			return nil, fmt.Errorf("expected `,` between cfg-patterns")
		}
		out = append(out, v)
	}
	return out, nil
}

func cfgMacro(env *Env, arg *tt.Subtree) (*tt.Subtree, error) {
	v, err := env.Cfg.EvalCfg(arg.Children)
	if err != nil {
		return boolIdent(env, false), errorf(env.CallSite, "%v", err)
	}
	return boolIdent(env, v), nil
}
