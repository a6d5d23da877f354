package parser

import (
	"strings"

	"rill/internal/diag"
	"rill/internal/lexer"
	"rill/internal/source"
	"rill/internal/syntax"
)

type Options struct {
	Reporter  diag.Reporter
	MaxErrors uint // 0 — без ограничения
}

// Result — дерево файла и его синтаксические ошибки.
type Result struct {
	Root   *syntax.Node
	Errors []SyntaxError
}

// ParseFile lexes and parses a whole file as a SourceFile. Lexer and parser
// errors go to opts.Reporter; the tree is returned in every case.
func ParseFile(file *source.File, opts Options) Result {
	toks := lexer.Tokenize(file, lexer.Options{Reporter: opts.Reporter})
	events := ParseTop(InputFromTokens(toks), SourceFileEntry)
	root, errs := BuildTree(toks, events)
	reportErrors(opts, file.ID, errs)
	return Result{Root: root, Errors: errs}
}

// ParseText parses detached text with the given entry point.
func ParseText(text string, entry TopEntry) Result {
	toks := lexer.TokenizeText(text, lexer.Options{})
	events := ParseTop(InputFromTokens(toks), entry)
	root, errs := BuildTree(toks, events)
	return Result{Root: root, Errors: errs}
}

func reportErrors(opts Options, file source.FileID, errs []SyntaxError) {
	if opts.Reporter == nil {
		return
	}
	for i, e := range errs {
		if opts.MaxErrors != 0 && uint(i) >= opts.MaxErrors {
			return
		}
		diag.ReportError(opts.Reporter, ErrorCode(e.Msg), source.FileRange{File: file, Range: e.Range}, e.Msg).Emit()
	}
}

// ErrorCode maps a parser message onto a diagnostic code.
func ErrorCode(msg string) diag.Code {
	switch {
	case strings.HasPrefix(msg, "expected `;`"):
		return diag.SynExpectSemicolon
	case strings.HasPrefix(msg, "expected `{`"):
		return diag.SynExpectBlock
	case strings.HasPrefix(msg, "expected expression"), strings.HasPrefix(msg, "expected initializer"):
		return diag.SynExpectExpression
	case strings.HasPrefix(msg, "expected type"):
		return diag.SynExpectType
	case strings.HasPrefix(msg, "expected pattern"):
		return diag.SynExpectPattern
	case strings.HasPrefix(msg, "expected item"):
		return diag.SynExpectItem
	case strings.HasPrefix(msg, "expected name"), strings.HasPrefix(msg, "expected identifier"):
		return diag.SynExpectIdentifier
	case strings.HasPrefix(msg, "unclosed delimiter"):
		return diag.SynUnclosedDelimiter
	}
	return diag.SynUnexpectedToken
}
