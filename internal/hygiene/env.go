package hygiene

import (
	"rill/internal/source"
	"rill/internal/span"
)

// BindingID identifies one local binding introduced into an Env.
type BindingID uint32

// NoBinding is returned by failed lookups.
const NoBinding BindingID = 0

type bindKey struct {
	name source.StringID
	ctx  span.SyntaxContext
}

// Env resolves local variables hygienically: a name is looked up by its
// NFC-normalized text together with its context normalized to macro_rules
// hygiene, so a `let x` written inside a macro body never captures, and is
// never captured by, an `x` written at the call site.
type Env struct {
	table  *Table
	names  *source.Interner
	scopes []map[bindKey]BindingID
	next   BindingID
}

// NewEnv creates an environment with one open scope.
func NewEnv(table *Table, names *source.Interner) *Env {
	return &Env{table: table, names: names, scopes: []map[bindKey]BindingID{{}}}
}

// Push opens a block scope.
func (e *Env) Push() {
	e.scopes = append(e.scopes, map[bindKey]BindingID{})
}

// Pop closes the innermost block scope.
func (e *Env) Pop() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

func (e *Env) key(name string, ctx span.SyntaxContext) bindKey {
	return bindKey{name: e.names.InternIdent(name), ctx: e.table.NormalizeToMacroRules(ctx)}
}

// Bind introduces a binding in the innermost scope and returns its id.
func (e *Env) Bind(name string, ctx span.SyntaxContext) BindingID {
	e.next++
	e.scopes[len(e.scopes)-1][e.key(name, ctx)] = e.next
	return e.next
}

// Lookup resolves a use of name written with ctx.
func (e *Env) Lookup(name string, ctx span.SyntaxContext) (BindingID, bool) {
	k := e.key(name, ctx)
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if id, ok := e.scopes[i][k]; ok {
			return id, true
		}
	}
	return NoBinding, false
}
