package span

import (
	"fmt"

	"rill/internal/source"
)

// MacroCallID is the interned identity of one macro invocation.
// Zero is never handed out by a registry.
type MacroCallID uint32

// NoMacroCall is the absent call id.
const NoMacroCall MacroCallID = 0

func (id MacroCallID) String() string {
	return fmt.Sprintf("call#%d", uint32(id))
}

// HirFileID is either a real source file or the virtual file produced by
// expanding a macro call. The high bit separates the two.
type HirFileID uint32

const macroFileBit = HirFileID(1) << 31

// RealFile wraps a source file id.
func RealFile(id source.FileID) HirFileID {
	if HirFileID(id)&macroFileBit != 0 {
		panic(fmt.Errorf("file id %d does not fit a HirFileID", id))
	}
	return HirFileID(id)
}

// MacroFile wraps the expansion of a call.
func MacroFile(id MacroCallID) HirFileID {
	if HirFileID(id)&macroFileBit != 0 {
		panic(fmt.Errorf("macro call id %d does not fit a HirFileID", id))
	}
	return HirFileID(id) | macroFileBit
}

// IsMacro reports whether the file is a macro expansion.
func (f HirFileID) IsMacro() bool {
	return f&macroFileBit != 0
}

// FileID returns the real file id; ok is false for macro files.
func (f HirFileID) FileID() (source.FileID, bool) {
	if f.IsMacro() {
		return 0, false
	}
	return source.FileID(f), true
}

// MacroCall returns the call id of a macro file; ok is false for real files.
func (f HirFileID) MacroCall() (MacroCallID, bool) {
	if !f.IsMacro() {
		return 0, false
	}
	return MacroCallID(f &^ macroFileBit), true
}

func (f HirFileID) String() string {
	if id, ok := f.MacroCall(); ok {
		return "macro:" + id.String()
	}
	return fmt.Sprintf("file:%d", uint32(f))
}

// FileAstID points at a node of a (real or macro) file.
type FileAstID struct {
	File HirFileID
	Ast  AstID
}

func (id FileAstID) String() string {
	return fmt.Sprintf("%s#%d", id.File, id.Ast)
}
