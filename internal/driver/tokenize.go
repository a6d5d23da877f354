package driver

import (
	"context"

	"rill/internal/diag"
	"rill/internal/lexer"
	"rill/internal/source"
	"rill/internal/syntaxbridge"
	"rill/internal/token"
	"rill/internal/tt"
)

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	// Tokens is the raw lexer stream, EOF included.
	Tokens []token.Token
	Tree   *tt.Subtree
	Bag    *diag.Bag
}

// Tokenize lowers the file at path to a token tree, the form a macro sees
// its input in.
func Tokenize(ctx context.Context, path string, opts Options) (*TokenizeResult, error) {
	pr, err := Parse(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	// Спаны токенов — относительно ближайшего якоря, как у аргументов макросов
	tree := syntaxbridge.SyntaxToTokenTree(pr.Tree.Root, pr.Tree.Spans.SpanFor, nil)
	// ошибки лексера уже в pr.Bag
	toks := lexer.Tokenize(pr.File, lexer.Options{})
	return &TokenizeResult{
		FileSet: pr.FileSet,
		File:    pr.File,
		Tokens:  toks,
		Tree:    tree,
		Bag:     pr.Bag,
	}, nil
}
