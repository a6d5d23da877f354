package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"rill/internal/source"
	"rill/internal/token"
	"rill/internal/tt"
)

type TokenOutput struct {
	Kind    string           `json:"kind"`
	Text    string           `json:"text,omitempty"`
	Range   source.TextRange `json:"range"`
	Leading []string         `json:"leading,omitempty"`
}

func triviaName(k token.TriviaKind) string {
	switch k {
	case token.TriviaSpace:
		return "Space"
	case token.TriviaNewline:
		return "Newline"
	case token.TriviaLineComment:
		return "LineComment"
	case token.TriviaBlockComment:
		return "BlockComment"
	case token.TriviaDocOuter:
		return "DocOuter"
	case token.TriviaDocInner:
		return "DocInner"
	}
	return "Unknown"
}

func leadingNames(tok token.Token) []string {
	if len(tok.Leading) == 0 {
		return nil // Убираем пустые массивы из JSON
	}
	out := make([]string, len(tok.Leading))
	for i, tv := range tok.Leading {
		out[i] = triviaName(tv.Kind)
	}
	return out
}

// FormatTokensPretty выводит токены в человекочитаемом формате
func FormatTokensPretty(w io.Writer, tokens []token.Token, file source.FileID, fs *source.FileSet) error {
	for i, tok := range tokens {
		startPos, endPos := fs.Resolve(source.FileRange{File: file, Range: tok.Range})

		if _, err := fmt.Fprintf(w, "%3d: %-15s", i+1, tok.Kind.String()); err != nil {
			return err
		}
		if tok.Text != "" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d", startPos.Line, startPos.Col, endPos.Line, endPos.Col)
		if leading := leadingNames(tok); len(leading) > 0 {
			fmt.Fprintf(w, " (leading: %s)", strings.Join(leading, ", "))
		}
		fmt.Fprintln(w)

		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, TokenOutput{
			Kind:    tok.Kind.String(),
			Text:    tok.Text,
			Range:   tok.Range,
			Leading: leadingNames(tok),
		})
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// FormatTokenTree prints a token tree: as text when debug is false, with
// spans and spacing one token per line otherwise.
func FormatTokenTree(w io.Writer, st *tt.Subtree, debug bool) error {
	if debug {
		_, err := io.WriteString(w, tt.DebugDump(st))
		return err
	}
	_, err := fmt.Fprintln(w, tt.Pretty(st.Children))
	return err
}
