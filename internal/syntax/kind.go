package syntax

import "fmt"

// NodeKind is the kind of an inner node of the concrete syntax tree.
type NodeKind uint8

const (
	Error NodeKind = iota

	// roots
	SourceFile
	MacroItems
	MacroStmts
	ExprRoot
	PatRoot
	TypeRoot

	// common
	Name
	NameRef
	Path
	PathSegment
	GenericArgList
	GenericParamList
	TypeParam
	LifetimeParam
	TypeBoundList
	Visibility
	Attr
	Meta
	TokenTree

	// items
	Fn
	ParamList
	Param
	SelfParam
	RetType
	Struct
	RecordFieldList
	RecordField
	TupleFieldList
	TupleField
	Module
	ItemList
	Const
	Static
	Impl
	AssocItemList
	Use
	UseTree
	UseTreeList
	MacroRules
	MacroCall

	// statements
	StmtList
	LetStmt
	ExprStmt

	// expressions
	Literal
	PathExpr
	PrefixExpr
	RefExpr
	BinExpr
	CastExpr
	RangeExpr
	ParenExpr
	TupleExpr
	ArrayExpr
	BlockExpr
	IfExpr
	WhileExpr
	LoopExpr
	ForExpr
	ReturnExpr
	BreakExpr
	ContinueExpr
	CallExpr
	ArgList
	MethodCallExpr
	FieldExpr
	IndexExpr
	TryExpr
	RecordExpr
	RecordExprFieldList
	RecordExprField
	MacroExpr

	// patterns
	WildcardPat
	IdentPat
	LiteralPat
	TuplePat
	TupleStructPat
	RefPat
	PathPat
	RestPat
	MacroPat

	// types
	PathType
	RefType
	TupleType
	ArrayType
	SliceType
	NeverType
	InferType
	MacroType

	nodeKindCount
)

var nodeKindNames = [...]string{
	Error:               "Error",
	SourceFile:          "SourceFile",
	MacroItems:          "MacroItems",
	MacroStmts:          "MacroStmts",
	ExprRoot:            "ExprRoot",
	PatRoot:             "PatRoot",
	TypeRoot:            "TypeRoot",
	Name:                "Name",
	NameRef:             "NameRef",
	Path:                "Path",
	PathSegment:         "PathSegment",
	GenericArgList:      "GenericArgList",
	GenericParamList:    "GenericParamList",
	TypeParam:           "TypeParam",
	LifetimeParam:       "LifetimeParam",
	TypeBoundList:       "TypeBoundList",
	Visibility:          "Visibility",
	Attr:                "Attr",
	Meta:                "Meta",
	TokenTree:           "TokenTree",
	Fn:                  "Fn",
	ParamList:           "ParamList",
	Param:               "Param",
	SelfParam:           "SelfParam",
	RetType:             "RetType",
	Struct:              "Struct",
	RecordFieldList:     "RecordFieldList",
	RecordField:         "RecordField",
	TupleFieldList:      "TupleFieldList",
	TupleField:          "TupleField",
	Module:              "Module",
	ItemList:            "ItemList",
	Const:               "Const",
	Static:              "Static",
	Impl:                "Impl",
	AssocItemList:       "AssocItemList",
	Use:                 "Use",
	UseTree:             "UseTree",
	UseTreeList:         "UseTreeList",
	MacroRules:          "MacroRules",
	MacroCall:           "MacroCall",
	StmtList:            "StmtList",
	LetStmt:             "LetStmt",
	ExprStmt:            "ExprStmt",
	Literal:             "Literal",
	PathExpr:            "PathExpr",
	PrefixExpr:          "PrefixExpr",
	RefExpr:             "RefExpr",
	BinExpr:             "BinExpr",
	CastExpr:            "CastExpr",
	RangeExpr:           "RangeExpr",
	ParenExpr:           "ParenExpr",
	TupleExpr:           "TupleExpr",
	ArrayExpr:           "ArrayExpr",
	BlockExpr:           "BlockExpr",
	IfExpr:              "IfExpr",
	WhileExpr:           "WhileExpr",
	LoopExpr:            "LoopExpr",
	ForExpr:             "ForExpr",
	ReturnExpr:          "ReturnExpr",
	BreakExpr:           "BreakExpr",
	ContinueExpr:        "ContinueExpr",
	CallExpr:            "CallExpr",
	ArgList:             "ArgList",
	MethodCallExpr:      "MethodCallExpr",
	FieldExpr:           "FieldExpr",
	IndexExpr:           "IndexExpr",
	TryExpr:             "TryExpr",
	RecordExpr:          "RecordExpr",
	RecordExprFieldList: "RecordExprFieldList",
	RecordExprField:     "RecordExprField",
	MacroExpr:           "MacroExpr",
	WildcardPat:         "WildcardPat",
	IdentPat:            "IdentPat",
	LiteralPat:          "LiteralPat",
	TuplePat:            "TuplePat",
	TupleStructPat:      "TupleStructPat",
	RefPat:              "RefPat",
	PathPat:             "PathPat",
	RestPat:             "RestPat",
	MacroPat:            "MacroPat",
	PathType:            "PathType",
	RefType:             "RefType",
	TupleType:           "TupleType",
	ArrayType:           "ArrayType",
	SliceType:           "SliceType",
	NeverType:           "NeverType",
	InferType:           "InferType",
	MacroType:           "MacroType",
}

func (k NodeKind) String() string {
	if k < nodeKindCount {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", uint8(k))
}

// IsRoot reports whether k is the root kind of a parsed file or fragment.
func (k NodeKind) IsRoot() bool {
	return k >= SourceFile && k <= TypeRoot
}

// IsItem reports whether k is an item.
func (k NodeKind) IsItem() bool {
	switch k {
	case Fn, Struct, Module, Const, Static, Impl, Use, MacroRules, MacroCall:
		return true
	}
	return false
}

// IsAnchor reports whether nodes of kind k get an AstID. Anchors are the
// nodes spans are made relative to.
func (k NodeKind) IsAnchor() bool {
	return k.IsRoot() || k.IsItem()
}

// AttachesTrivia reports whether comments directly preceding a node of this
// kind belong inside the node (doc comments of items and fields).
func (k NodeKind) AttachesTrivia() bool {
	switch k {
	case Fn, Struct, Module, Const, Static, Impl, Use, MacroRules, MacroCall, RecordField, TupleField, LetStmt:
		return true
	}
	return false
}

// IsExpr reports whether k is an expression.
func (k NodeKind) IsExpr() bool {
	return k >= Literal && k <= MacroExpr && k != ArgList && k != RecordExprFieldList && k != RecordExprField
}

// IsPat reports whether k is a pattern.
func (k NodeKind) IsPat() bool {
	return k >= WildcardPat && k <= MacroPat
}

// IsType reports whether k is a type.
func (k NodeKind) IsType() bool {
	return k >= PathType && k <= MacroType
}
