package driver

import (
	"context"
	"crypto/sha256"
	"fmt"

	"rill/internal/expand"
	"rill/internal/span"
	"rill/internal/tt"
)

// combineDigest: H(content || dep1 || dep2 ...). deps уже в детерминированном порядке.
func combineDigest(content expand.Fingerprint, deps ...expand.Fingerprint) expand.Fingerprint {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out expand.Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}

func textDigest(s string) expand.Fingerprint {
	return sha256.Sum256([]byte(s))
}

// defDigest hashes what a definition expands by: the macro_rules! text of
// a declarative macro, the kind and name of anything else.
func (d *Driver) defDigest(ctx context.Context, def expand.MacroDefID) (expand.Fingerprint, error) {
	head := textDigest(def.Kind.String() + ":" + def.Name)
	if def.Kind != expand.Declarative {
		return head, nil
	}
	ft, err := d.reg.File(ctx, def.Ast.File)
	if err != nil {
		return expand.Fingerprint{}, err
	}
	n := ft.Node(def.Ast.Ast)
	if n == nil {
		return expand.Fingerprint{}, fmt.Errorf("no definition node %s", def.Ast)
	}
	return combineDigest(head, textDigest(n.Text())), nil
}

// CacheKey is the invalidation key of call id: it changes when the call's
// location, the text of its argument or the text of its definition does.
func (d *Driver) CacheKey(ctx context.Context, id span.MacroCallID) (expand.Fingerprint, error) {
	loc, ok := d.reg.Lookup(id)
	if !ok {
		return expand.Fingerprint{}, fmt.Errorf("unknown macro call %s", id)
	}
	defHash, err := d.defDigest(ctx, loc.Def)
	if err != nil {
		return expand.Fingerprint{}, err
	}
	var argHash expand.Fingerprint
	if res := d.reg.Expand(ctx, id); res.Value != nil {
		argHash = textDigest(tt.Pretty(res.Value.Arg.Children))
	}
	return loc.CacheKey(argHash, defHash), nil
}
