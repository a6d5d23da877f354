package driver

import (
	"strings"

	"rill/internal/builtin"
	"rill/internal/expand"
	"rill/internal/procmacro"
)

type procKey struct {
	name string
	kind procmacro.Kind
}

// resolveFn finds a function-like macro: textual macro_rules! first, then
// builtins, then proc macros.
func (d *Driver) resolveFn(visible *scopes, name string) (expand.MacroDefID, bool) {
	if visible != nil {
		if def, ok := visible.Lookup(name); ok {
			return def, true
		}
	}
	if id, ok := builtin.LookupFn(name); ok {
		return expand.MacroDefID{Edition: d.opts.Edition, Kind: expand.BuiltinFn, Builtin: uint8(id), Name: name}, true
	}
	return d.resolveProc(name, procmacro.KindFnLike)
}

// resolveAttr finds an attribute macro by the last segment of its path.
// `derive` is not one: derives are resolved one by one.
func (d *Driver) resolveAttr(path string) (expand.MacroDefID, bool) {
	name := lastSegment(path)
	if id, ok := builtin.LookupAttr(name); ok && id != builtin.AttrDerive {
		return expand.MacroDefID{Edition: d.opts.Edition, Kind: expand.BuiltinAttr, Builtin: uint8(id), Name: name}, true
	}
	return d.resolveProc(name, procmacro.KindAttr)
}

func (d *Driver) resolveDerive(name string) (expand.MacroDefID, bool) {
	if id, ok := builtin.LookupDerive(name); ok {
		return expand.MacroDefID{Edition: d.opts.Edition, Kind: expand.BuiltinDerive, Builtin: uint8(id), Name: name}, true
	}
	return d.resolveProc(name, procmacro.KindDerive)
}

func (d *Driver) resolveProc(name string, kind procmacro.Kind) (expand.MacroDefID, bool) {
	server, ok := d.procs[procKey{name: name, kind: kind}]
	if !ok {
		return expand.MacroDefID{}, false
	}
	return expand.MacroDefID{Edition: d.opts.Edition, Kind: expand.ProcMacro, Name: name, Server: server}, true
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return strings.TrimSpace(path[i+2:])
	}
	return strings.TrimSpace(path)
}
