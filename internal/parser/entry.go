package parser

import (
	"rill/internal/syntax"
	"rill/internal/token"
)

// TopEntry selects the grammar production a whole input is parsed as.
type TopEntry uint8

const (
	SourceFileEntry TopEntry = iota
	MacroItemsEntry
	MacroStmtsEntry
	ExprEntry
	PatternEntry
	TypeEntry
)

var topEntryNames = [...]string{
	SourceFileEntry: "SourceFile",
	MacroItemsEntry: "MacroItems",
	MacroStmtsEntry: "MacroStmts",
	ExprEntry:       "Expr",
	PatternEntry:    "Pattern",
	TypeEntry:       "Type",
}

func (e TopEntry) String() string {
	if int(e) < len(topEntryNames) {
		return topEntryNames[e]
	}
	return "TopEntry(?)"
}

// RootKind is the kind of the root node the entry produces.
func (e TopEntry) RootKind() syntax.NodeKind {
	switch e {
	case SourceFileEntry:
		return syntax.SourceFile
	case MacroItemsEntry:
		return syntax.MacroItems
	case MacroStmtsEntry:
		return syntax.MacroStmts
	case ExprEntry:
		return syntax.ExprRoot
	case PatternEntry:
		return syntax.PatRoot
	case TypeEntry:
		return syntax.TypeRoot
	}
	return syntax.Error
}

// EntryForRoot is the inverse of RootKind.
func EntryForRoot(k syntax.NodeKind) (TopEntry, bool) {
	switch k {
	case syntax.SourceFile:
		return SourceFileEntry, true
	case syntax.MacroItems:
		return MacroItemsEntry, true
	case syntax.MacroStmts:
		return MacroStmtsEntry, true
	case syntax.ExprRoot:
		return ExprEntry, true
	case syntax.PatRoot:
		return PatternEntry, true
	case syntax.TypeRoot:
		return TypeEntry, true
	}
	return 0, false
}

// ParseTop parses the whole input. The result always describes exactly one
// root node covering every input token.
func ParseTop(inp *Input, entry TopEntry) []Event {
	p := newParser(inp)
	m := p.start()
	switch entry {
	case SourceFileEntry:
		p.innerAttrs()
		p.itemList(token.EOF)
	case MacroItemsEntry:
		p.itemList(token.EOF)
	case MacroStmtsEntry:
		p.stmtList(token.EOF)
	case ExprEntry:
		p.expr()
	case PatternEntry:
		p.pattern()
	case TypeEntry:
		p.typ()
	}
	if !p.atEOF() {
		e := p.start()
		p.error("unexpected tokens after " + entry.String())
		for !p.atEOF() {
			p.bump()
		}
		e.complete(p, syntax.Error)
	}
	m.complete(p, entry.RootKind())
	return p.events
}

// PrefixEntry selects a fragment parsed from the start of an input without
// requiring the whole input to be consumed. Declarative macro matching uses
// it for fragment specifiers.
type PrefixEntry uint8

const (
	VisPrefix PrefixEntry = iota
	BlockPrefix
	StmtPrefix
	PatPrefix
	TypePrefix
	PathPrefix
	ExprPrefix
	ItemPrefix
	MetaPrefix
)

// ParsePrefix parses one fragment at the start of inp. Use Input.Consumed to
// learn how much input it took.
func ParsePrefix(inp *Input, entry PrefixEntry) []Event {
	p := newParser(inp)
	switch entry {
	case VisPrefix:
		p.visibility()
	case BlockPrefix:
		p.blockExpr()
	case StmtPrefix:
		p.stmtFragment()
	case PatPrefix:
		p.patternTop()
	case TypePrefix:
		p.typ()
	case PathPrefix:
		p.path(pathType)
	case ExprPrefix:
		p.expr()
	case ItemPrefix:
		if !p.item() {
			p.error("expected item")
		}
	case MetaPrefix:
		p.meta()
	}
	return p.events
}
