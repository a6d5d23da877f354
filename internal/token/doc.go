// Package token defines lexical token kinds and trivia for the rill front end.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Range matches Text exactly (Start..End).
//   - Compound operators (->, ::, ..=) are single tokens; the token-tree
//     bridge splits them into joint single-character puncts.
//   - Comments, including doc comments, are leading Trivia and never appear
//     in the main token stream. The tree builder turns them into Comment and
//     DocComment tokens of the concrete syntax tree.
//   - macro_rules is an identifier; the parser recognizes it by text.
package token
