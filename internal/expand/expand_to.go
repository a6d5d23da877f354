package expand

import (
	"fmt"

	"rill/internal/parser"
	"rill/internal/syntax"
)

// ExpandTo is the fragment kind an expansion is parsed as.
type ExpandTo uint8

const (
	Items ExpandTo = iota
	Statements
	Pattern
	Type
	Expr
)

func (e ExpandTo) String() string {
	switch e {
	case Items:
		return "items"
	case Statements:
		return "statements"
	case Pattern:
		return "pattern"
	case Type:
		return "type"
	case Expr:
		return "expr"
	}
	return fmt.Sprintf("ExpandTo(%d)", uint8(e))
}

// Entry is the parser entry point for the fragment kind.
func (e ExpandTo) Entry() parser.TopEntry {
	switch e {
	case Statements:
		return parser.MacroStmtsEntry
	case Pattern:
		return parser.PatternEntry
	case Type:
		return parser.TypeEntry
	case Expr:
		return parser.ExprEntry
	}
	return parser.MacroItemsEntry
}

// ExpandToFor classifies a MacroCall node by where it is written. Unknown
// positions are treated as item positions.
func ExpandToFor(call *syntax.Node) ExpandTo {
	parent := call.Parent()
	if parent == nil {
		return Items
	}
	switch parent.Kind() {
	case syntax.MacroPat:
		return Pattern
	case syntax.MacroType:
		return Type
	case syntax.MacroExpr:
		// `m!();` одним выражением в statement-позиции раскрывается как
		// statements, чтобы в нём могли быть и items
		if gp := parent.Parent(); gp != nil {
			switch gp.Kind() {
			case syntax.ExprStmt, syntax.StmtList, syntax.MacroStmts:
				return Statements
			}
		}
		return Expr
	case syntax.SourceFile, syntax.MacroItems, syntax.ItemList, syntax.AssocItemList, syntax.Module:
		return Items
	case syntax.StmtList, syntax.MacroStmts:
		return Statements
	}
	return Items
}
