package expand

import (
	"crypto/sha256"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"rill/internal/hygiene"
	"rill/internal/span"
)

// CrateID names a crate of the compilation.
type CrateID uint32

// MacroDefKind selects the expander of a definition.
type MacroDefKind uint8

const (
	Declarative MacroDefKind = iota
	BuiltinFn
	BuiltinAttr
	BuiltinDerive
	ProcMacro
)

func (k MacroDefKind) String() string {
	switch k {
	case Declarative:
		return "declarative"
	case BuiltinFn:
		return "builtin-fn"
	case BuiltinAttr:
		return "builtin-attr"
	case BuiltinDerive:
		return "builtin-derive"
	case ProcMacro:
		return "proc-macro"
	}
	return fmt.Sprintf("MacroDefKind(%d)", uint8(k))
}

// MacroDefID identifies a macro definition. It is a plain value; two ids
// are the same definition iff they are equal.
type MacroDefID struct {
	Krate   CrateID
	Edition span.Edition
	Kind    MacroDefKind
	// Ast is the macro_rules! item of a declarative macro.
	Ast span.FileAstID
	// Builtin is the builtin.FnID, AttrID or DeriveID of a builtin.
	Builtin uint8
	// Name is the proc macro's name on its server, or the builtin's name.
	Name string
	// Server indexes Options.ProcMacros.
	Server              int
	AllowInternalUnsafe bool
	// Span covers the definition's name.
	Span span.Span
}

// Transparency is the hygiene of tokens the definition introduces.
func (d MacroDefID) Transparency() hygiene.Transparency {
	if d.Kind == Declarative {
		return hygiene.SemiTransparent
	}
	return hygiene.Transparent
}

// CallKind is how a macro is invoked.
type CallKind uint8

const (
	CallFnLike CallKind = iota
	CallAttr
	CallDerive
)

func (k CallKind) String() string {
	switch k {
	case CallFnLike:
		return "fn-like"
	case CallAttr:
		return "attr"
	case CallDerive:
		return "derive"
	}
	return fmt.Sprintf("CallKind(%d)", uint8(k))
}

// Noun names the kind of macro in messages.
func (k CallKind) Noun() string {
	switch k {
	case CallAttr:
		return "attribute macro"
	case CallDerive:
		return "derive macro"
	}
	return "macro"
}

// MacroCallKind locates the call in its file.
type MacroCallKind struct {
	Kind CallKind
	// Ast is the MacroCall node of a fn-like call, the annotated item of an
	// attribute or derive.
	Ast      span.FileAstID
	ExpandTo ExpandTo
	// AttrIndex is the position of the invoking attribute among the item's
	// attributes; for derives it is the #[derive] attribute.
	AttrIndex int
	// DeriveIndex is the position of the derive inside #[derive(...)].
	DeriveIndex int
}

// Fingerprint is a content hash.
type Fingerprint [sha256.Size]byte

// IsZero reports whether f is unset.
func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

func (f Fingerprint) String() string { return fmt.Sprintf("%x", f[:6]) }

// MacroCallLoc is everything that determines one expansion. Locs are
// comparable; the registry interns them.
type MacroCallLoc struct {
	Def      MacroDefID
	Krate    CrateID
	Kind     MacroCallKind
	CallSite span.Span
	// EagerArg fingerprints the already expanded argument of an eager
	// call; zero for lazy calls.
	EagerArg Fingerprint
}

// CacheKey is the key under which an incremental build may keep the
// expansion: the loc together with hashes of the definition text and the
// argument text. Changing either text changes the key.
func (l MacroCallLoc) CacheKey(argHash, defHash Fingerprint) Fingerprint {
	payload, err := msgpack.Marshal(&struct {
		Loc MacroCallLoc
		Arg Fingerprint
		Def Fingerprint
	}{l, argHash, defHash})
	if err != nil {
		// loc состоит только из чисел и строк
		panic(fmt.Errorf("cache key: %w", err))
	}
	return sha256.Sum256(payload)
}
