// Package builtin implements the macros the compiler provides itself:
// function-like macros (stringify!, concat!, line!, ...), attribute macros
// (#[test], #[bench], ...) and derives (Clone, Debug, ...).
//
// Each family is a closed set of ids with one switch that dispatches to the
// implementation; lookup goes by name.
package builtin

import (
	"fmt"

	"rill/internal/span"
	"rill/internal/tt"
)

// Env is what a builtin may know about its call.
type Env struct {
	// CallSite is the span given to generated tokens.
	CallSite span.Span
	// File is the path of the file the call was written in.
	File string
	// Line and Column locate the call, 1-based.
	Line, Column uint32
	// ModulePath is the `::`-separated path of the enclosing module.
	ModulePath string
	Cfg        *CfgOptions
}

// Error is a builtin expansion failure.
type Error struct {
	Msg string
	Sp  span.Span
	// User is set for compile_error!, whose message comes from the source.
	User bool
}

func (e *Error) Error() string { return e.Msg }

func errorf(sp span.Span, format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Sp: sp}
}

func empty(env *Env) *tt.Subtree {
	return tt.NewSubtree(tt.Invisible, env.CallSite, env.CallSite)
}

// FnID names a function-like builtin.
type FnID uint8

const (
	FnStringify FnID = iota + 1
	FnConcat
	FnLine
	FnColumn
	FnFile
	FnModulePath
	FnCompileError
	FnAssert
	FnCfg
)

var fnNames = map[string]FnID{
	"stringify":     FnStringify,
	"concat":        FnConcat,
	"line":          FnLine,
	"column":        FnColumn,
	"file":          FnFile,
	"module_path":   FnModulePath,
	"compile_error": FnCompileError,
	"assert":        FnAssert,
	"cfg":           FnCfg,
}

// LookupFn finds a function-like builtin by name.
func LookupFn(name string) (FnID, bool) {
	id, ok := fnNames[name]
	return id, ok
}

func (id FnID) String() string {
	for name, v := range fnNames {
		if v == id {
			return name
		}
	}
	return fmt.Sprintf("FnID(%d)", uint8(id))
}

// IsEager reports whether the macro's argument must have its own macro
// calls expanded before the macro runs.
func (id FnID) IsEager() bool {
	return id == FnConcat || id == FnCompileError
}

// Expand runs the builtin on the argument's token tree.
func (id FnID) Expand(env *Env, arg *tt.Subtree) (*tt.Subtree, error) {
	switch id {
	case FnStringify:
		return stringify(env, arg)
	case FnConcat:
		return concat(env, arg)
	case FnLine:
		return intLiteral(env, env.Line), nil
	case FnColumn:
		return intLiteral(env, env.Column), nil
	case FnFile:
		return strLiteral(env, env.File), nil
	case FnModulePath:
		return strLiteral(env, env.ModulePath), nil
	case FnCompileError:
		return compileError(env, arg)
	case FnAssert:
		return assert(env, arg)
	case FnCfg:
		return cfgMacro(env, arg)
	}
	return empty(env), errorf(env.CallSite, "unknown builtin macro %d", uint8(id))
}

// AttrID names a builtin attribute macro.
type AttrID uint8

const (
	AttrTest AttrID = iota + 1
	AttrBench
	AttrGlobalAllocator
	AttrDerive
)

var attrNames = map[string]AttrID{
	"test":             AttrTest,
	"bench":            AttrBench,
	"global_allocator": AttrGlobalAllocator,
	"derive":           AttrDerive,
}

// LookupAttr finds a builtin attribute by name.
func LookupAttr(name string) (AttrID, bool) {
	id, ok := attrNames[name]
	return id, ok
}

func (id AttrID) String() string {
	for name, v := range attrNames {
		if v == id {
			return name
		}
	}
	return fmt.Sprintf("AttrID(%d)", uint8(id))
}

// Expand runs the attribute on item, whose token tree already has the
// attribute itself removed.
func (id AttrID) Expand(env *Env, _ *tt.Subtree, item *tt.Subtree) (*tt.Subtree, error) {
	switch id {
	case AttrTest, AttrBench:
		// тестовые функции существуют только в сборке с cfg(test)
		if env.Cfg != nil && env.Cfg.Enabled("test", "") {
			return item, nil
		}
		return empty(env), nil
	case AttrGlobalAllocator, AttrDerive:
		return item, nil
	}
	return item, errorf(env.CallSite, "unknown builtin attribute %d", uint8(id))
}

// DeriveID names a builtin derive.
type DeriveID uint8

const (
	DeriveCopy DeriveID = iota + 1
	DeriveClone
	DeriveDebug
	DeriveDefault
	DerivePartialEq
	DeriveEq
	DeriveHash
)

var deriveNames = map[string]DeriveID{
	"Copy":      DeriveCopy,
	"Clone":     DeriveClone,
	"Debug":     DeriveDebug,
	"Default":   DeriveDefault,
	"PartialEq": DerivePartialEq,
	"Eq":        DeriveEq,
	"Hash":      DeriveHash,
}

// LookupDerive finds a builtin derive by name.
func LookupDerive(name string) (DeriveID, bool) {
	id, ok := deriveNames[name]
	return id, ok
}

func (id DeriveID) String() string {
	for name, v := range deriveNames {
		if v == id {
			return name
		}
	}
	return fmt.Sprintf("DeriveID(%d)", uint8(id))
}

// Expand generates the impl for the annotated item.
func (id DeriveID) Expand(env *Env, item *tt.Subtree) (*tt.Subtree, error) {
	shape, err := parseShape(item)
	if err != nil {
		return empty(env), errorf(env.CallSite, "%v", err)
	}
	var text string
	switch id {
	case DeriveCopy:
		text = shape.impl("::core::marker::Copy", "")
	case DeriveClone:
		text = shape.impl("::core::clone::Clone", shape.cloneBody())
	case DeriveDebug:
		text = shape.impl("::core::fmt::Debug", shape.debugBody())
	case DeriveDefault:
		text = shape.impl("::core::default::Default", shape.defaultBody())
	case DerivePartialEq:
		text = shape.impl("::core::cmp::PartialEq", shape.eqBody())
	case DeriveEq:
		text = shape.impl("::core::cmp::Eq", "")
	case DeriveHash:
		text = shape.impl("::core::hash::Hash", shape.hashBody())
	default:
		return empty(env), errorf(env.CallSite, "unknown builtin derive %d", uint8(id))
	}
	return Quote(env.CallSite, text), nil
}
