// Package hygiene implements syntax contexts and the scoping environments
// that consult them.
//
// Every token produced by an expansion carries a SyntaxContext. A context is
// a node of a tree: applying a mark (one expansion step of one macro call)
// to a context yields a child. Tokens copied from a macro's definition get
// the call's mark on top of the definition's context; tokens substituted from
// the argument keep the context the caller wrote them with. Two identifiers
// denote the same local binding only if their text and their contexts,
// normalized for macro_rules hygiene, agree.
package hygiene

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"

	"rill/internal/span"
)

// Transparency controls how much of the call site a marked token can see.
type Transparency uint8

const (
	// Transparent marks are invisible to name resolution (builtins).
	Transparent Transparency = iota
	// SemiTransparent marks hide local variables and labels but not items
	// (macro_rules).
	SemiTransparent
	// Opaque marks hide everything (macros 2.0, proc-macro def-site).
	Opaque
)

func (t Transparency) String() string {
	switch t {
	case Transparent:
		return "transparent"
	case SemiTransparent:
		return "semitransparent"
	case Opaque:
		return "opaque"
	}
	return fmt.Sprintf("Transparency(%d)", uint8(t))
}

// Mark is one expansion step.
type Mark struct {
	Call         span.MacroCallID
	Transparency Transparency
}

type ctxData struct {
	outer   span.MacroCallID
	transp  Transparency
	edition span.Edition
	parent  span.SyntaxContext
	// opaque — ближайший предок, у которого остались только Opaque-метки;
	// semi — только Opaque и SemiTransparent.
	opaque span.SyntaxContext
	semi   span.SyntaxContext
}

// selfRef в ключе означает «ссылается на сам создаваемый контекст».
const selfRef = ^span.SyntaxContext(0)

type ctxKey struct {
	outer   span.MacroCallID
	transp  Transparency
	edition span.Edition
	parent  span.SyntaxContext
	opaque  span.SyntaxContext
	semi    span.SyntaxContext
}

// Table interns syntax contexts. The zero value is not usable; call
// NewTable. A Table is safe for concurrent use and is meant to be injected
// into every operation that creates contexts, so tests can build isolated
// tables.
type Table struct {
	mu    sync.RWMutex
	data  []ctxData
	index map[ctxKey]span.SyntaxContext
}

// NewTable returns a table holding only the per-edition root contexts.
func NewTable() *Table {
	t := &Table{index: make(map[ctxKey]span.SyntaxContext)}
	for e := span.Edition2015; e <= span.EditionLatest; e++ {
		root := span.RootContext(e)
		t.data = append(t.data, ctxData{edition: e, parent: root, opaque: root, semi: root})
	}
	return t
}

// Len returns the number of contexts, roots included.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data)
}

func (t *Table) get(ctx span.SyntaxContext) ctxData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(ctx) >= len(t.data) {
		panic(fmt.Errorf("hygiene: unknown syntax context %d", ctx))
	}
	return t.data[ctx]
}

// intern returns the context for key, creating it if needed. selfRef in
// key.opaque/key.semi is replaced by the new context's own handle.
func (t *Table) intern(key ctxKey) span.SyntaxContext {
	t.mu.RLock()
	id, ok := t.index[key]
	t.mu.RUnlock()
	if ok {
		return id
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.index[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.data))
	if err != nil || n == uint32(selfRef) {
		panic(fmt.Errorf("syntax context table overflow: %w", err))
	}
	id = span.SyntaxContext(n)
	d := ctxData{outer: key.outer, transp: key.transp, edition: key.edition, parent: key.parent, opaque: key.opaque, semi: key.semi}
	if d.opaque == selfRef {
		d.opaque = id
	}
	if d.semi == selfRef {
		d.semi = id
	}
	t.data = append(t.data, d)
	t.index[key] = id
	return id
}

// ApplyMark returns the context of a token marked by one expansion step.
// callSite is the context of the macro call itself; it matters when a
// macro_rules macro is invoked from inside a more opaque expansion, where the
// call site's marks have to be replayed under the new mark.
func (t *Table) ApplyMark(ctx span.SyntaxContext, callSite span.SyntaxContext, m Mark, edition span.Edition) span.SyntaxContext {
	if m.Transparency == Opaque {
		return t.applyMarkInternal(ctx, m, edition)
	}
	var base span.SyntaxContext
	if m.Transparency == SemiTransparent {
		base = t.NormalizeToMacros2(callSite)
	} else {
		base = t.NormalizeToMacroRules(callSite)
	}
	if base.IsRoot() {
		return t.applyMarkInternal(ctx, m, edition)
	}
	for _, inner := range t.Marks(ctx) {
		base = t.applyMarkInternal(base, inner, edition)
	}
	return t.applyMarkInternal(base, m, edition)
}

func (t *Table) applyMarkInternal(ctx span.SyntaxContext, m Mark, edition span.Edition) span.SyntaxContext {
	d := t.get(ctx)
	opaque, semi := d.opaque, d.semi
	if m.Transparency >= Opaque {
		opaque = t.intern(ctxKey{outer: m.Call, transp: m.Transparency, edition: edition, parent: opaque, opaque: selfRef, semi: selfRef})
	}
	if m.Transparency >= SemiTransparent {
		semi = t.intern(ctxKey{outer: m.Call, transp: m.Transparency, edition: edition, parent: semi, opaque: opaque, semi: selfRef})
	}
	return t.intern(ctxKey{outer: m.Call, transp: m.Transparency, edition: edition, parent: ctx, opaque: opaque, semi: semi})
}

// Parent returns the context the outermost mark was applied to. Roots are
// their own parents.
func (t *Table) Parent(ctx span.SyntaxContext) span.SyntaxContext {
	return t.get(ctx).parent
}

// OuterMark returns the last mark applied to ctx; ok is false for roots.
func (t *Table) OuterMark(ctx span.SyntaxContext) (Mark, bool) {
	if ctx.IsRoot() {
		return Mark{}, false
	}
	d := t.get(ctx)
	return Mark{Call: d.outer, Transparency: d.transp}, true
}

// Edition returns the edition tokens of ctx were written in.
func (t *Table) Edition(ctx span.SyntaxContext) span.Edition {
	return t.get(ctx).edition
}

// NormalizeToMacroRules drops transparent marks. Local variables are
// resolved by comparing identifiers under this normalization.
func (t *Table) NormalizeToMacroRules(ctx span.SyntaxContext) span.SyntaxContext {
	return t.get(ctx).semi
}

// NormalizeToMacros2 drops transparent and semi-transparent marks.
func (t *Table) NormalizeToMacros2(ctx span.SyntaxContext) span.SyntaxContext {
	return t.get(ctx).opaque
}

// Marks returns the marks of ctx from the root outwards.
func (t *Table) Marks(ctx span.SyntaxContext) []Mark {
	var marks []Mark
	for !ctx.IsRoot() {
		d := t.get(ctx)
		marks = append(marks, Mark{Call: d.outer, Transparency: d.transp})
		ctx = d.parent
	}
	for i, j := 0, len(marks)-1; i < j; i, j = i+1, j-1 {
		marks[i], marks[j] = marks[j], marks[i]
	}
	return marks
}

// Root returns the root context ctx descends from.
func (t *Table) Root(ctx span.SyntaxContext) span.SyntaxContext {
	for !ctx.IsRoot() {
		ctx = t.get(ctx).parent
	}
	return ctx
}

// Describe renders ctx as root.edition followed by its marks, e.g.
// "#4 = 2024 > call#1/semitransparent".
func (t *Table) Describe(ctx span.SyntaxContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d = %s", ctx, t.Edition(t.Root(ctx)))
	for _, m := range t.Marks(ctx) {
		fmt.Fprintf(&b, " > %s/%s", m.Call, m.Transparency)
	}
	return b.String()
}
