package parser

import "rill/internal/token"

// Input is the token sequence the parser consumes: one kind and one text per
// significant token, trivia excluded.
type Input struct {
	kinds []token.Kind
	texts []string
}

// NewInput creates an empty input with room for n tokens.
func NewInput(n int) *Input {
	return &Input{kinds: make([]token.Kind, 0, n), texts: make([]string, 0, n)}
}

// InputFromTokens builds the input from lexer output. EOF is dropped.
func InputFromTokens(toks []token.Token) *Input {
	inp := NewInput(len(toks))
	for _, t := range toks {
		if t.Kind == token.EOF {
			break
		}
		inp.Push(t.Kind, t.Text)
	}
	return inp
}

// Push appends a token.
func (inp *Input) Push(k token.Kind, text string) {
	inp.kinds = append(inp.kinds, k)
	inp.texts = append(inp.texts, text)
}

// Len returns the number of tokens.
func (inp *Input) Len() int { return len(inp.kinds) }

// Kind returns the kind of token i, or EOF past the end.
func (inp *Input) Kind(i int) token.Kind {
	if i < 0 || i >= len(inp.kinds) {
		return token.EOF
	}
	return inp.kinds[i]
}

// Text returns the text of token i, or "" past the end.
func (inp *Input) Text(i int) string {
	if i < 0 || i >= len(inp.texts) {
		return ""
	}
	return inp.texts[i]
}

// Consumed replays the token events and reports how many whole input tokens
// they used, plus how many bytes of the next token were taken by a partial
// split.
func (inp *Input) Consumed(events []Event) (tokens, partial int) {
	for _, ev := range events {
		if ev.Kind != EvToken {
			continue
		}
		if ev.Len == 0 {
			tokens++
			partial = 0
			continue
		}
		partial += ev.Len
		if partial >= len(inp.Text(tokens)) {
			tokens++
			partial = 0
		}
	}
	return tokens, partial
}
