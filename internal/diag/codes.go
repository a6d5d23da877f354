package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexUnterminatedChar         Code = 1005

	// Парсерные
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynUnclosedDelimiter Code = 2002
	SynExpectSemicolon   Code = 2003
	SynExpectIdentifier  Code = 2004
	SynExpectExpression  Code = 2005
	SynExpectType        Code = 2006
	SynExpectPattern     Code = 2007
	SynExpectItem        Code = 2008
	SynExpectBlock       Code = 2009
	SynUnbalancedCloser  Code = 2010

	// Раскрытие макросов
	MacroInfo              Code = 4000
	MacroUnresolved        Code = 4001
	MacroMatchFailure      Code = 4002
	MacroRecursionOverflow Code = 4003
	MacroProcMacroPanic    Code = 4004
	MacroMalformedOutput   Code = 4005
	MacroOther             Code = 4006
	MacroCompileError      Code = 4007
	MacroBadDefinition     Code = 4008

	// Ошибки I/O
	IOLoadFileError Code = 5001
	IOConfigError   Code = 5002

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number literal",
	LexUnterminatedChar:         "Unterminated character literal",
	SynUnexpectedToken:          "Unexpected token",
	SynUnclosedDelimiter:        "Unclosed delimiter",
	SynExpectSemicolon:          "Expected ';'",
	SynExpectIdentifier:         "Expected identifier",
	SynExpectExpression:         "Expected expression",
	SynExpectType:               "Expected type",
	SynExpectPattern:            "Expected pattern",
	SynExpectItem:               "Expected item",
	SynExpectBlock:              "Expected block",
	SynUnbalancedCloser:         "Unbalanced closing delimiter",
	MacroUnresolved:             "Unresolved macro",
	MacroMatchFailure:           "No macro rule matched",
	MacroRecursionOverflow:      "Macro recursion limit reached",
	MacroProcMacroPanic:         "Procedural macro failed",
	MacroMalformedOutput:        "Macro expansion is not valid syntax",
	MacroOther:                  "Macro expansion failed",
	MacroCompileError:           "compile_error! invoked",
	MacroBadDefinition:          "Malformed macro definition",
	IOLoadFileError:             "I/O load file error",
	IOConfigError:               "Configuration error",
	ObsInfo:                     "Observability information",
	ObsTimings:                  "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MAC%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
