// Package diag defines the diagnostic model shared by the lexer, the parser
// and the macro expander.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error.
//   - Code: compact numeric identifier (see codes.go) with a stable string form.
//   - Message: short, human oriented text.
//   - Primary: the real file range the diagnostic points at. Diagnostics about
//     macro expansions are mapped back to user-written text before they get
//     here, so Primary never refers to a macro file.
//   - Notes: optional secondary ranges with messages.
//
// # Emitting diagnostics
//
// Phases report through a Reporter, usually via ReportError/ReportWarning and
// the chained ReportBuilder. BagReporter collects into a Bag, which is safe for
// concurrent use since expansion runs on several goroutines.
//
// Rendering lives in internal/diagfmt.
package diag
