package expand

import (
	"fmt"

	"rill/internal/diag"
	"rill/internal/span"
)

// ErrorKind classifies expansion failures.
type ErrorKind uint8

const (
	Unresolved ErrorKind = iota + 1
	MatchFailure
	RecursionOverflow
	ProcMacroPanic
	MalformedOutput
	Other
)

func (k ErrorKind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case MatchFailure:
		return "match-failure"
	case RecursionOverflow:
		return "recursion-overflow"
	case ProcMacroPanic:
		return "proc-macro-panic"
	case MalformedOutput:
		return "malformed-output"
	case Other:
		return "other"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// ExpandError is a failed (or partially failed) expansion.
type ExpandError struct {
	Kind ErrorKind
	Msg  string
	Sp   span.Span
	// User marks messages written by the user (compile_error!).
	User bool
	// BadDef marks errors in the macro definition rather than the call.
	BadDef bool
}

func (e *ExpandError) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

func newError(kind ErrorKind, sp span.Span, format string, args ...any) *ExpandError {
	return &ExpandError{Kind: kind, Msg: fmt.Sprintf(format, args...), Sp: sp}
}

// Code is the diagnostic code of the error.
func (e *ExpandError) Code() diag.Code {
	switch {
	case e.User:
		return diag.MacroCompileError
	case e.BadDef:
		return diag.MacroBadDefinition
	}
	switch e.Kind {
	case Unresolved:
		return diag.MacroUnresolved
	case MatchFailure:
		return diag.MacroMatchFailure
	case RecursionOverflow:
		return diag.MacroRecursionOverflow
	case ProcMacroPanic:
		return diag.MacroProcMacroPanic
	case MalformedOutput:
		return diag.MacroMalformedOutput
	}
	return diag.MacroOther
}

// ExpandResult carries a value together with an optional error. The value
// is usable even when Err is set.
type ExpandResult[T any] struct {
	Value T
	Err   *ExpandError
}

// OK wraps a value without error.
func OK[T any](v T) ExpandResult[T] {
	return ExpandResult[T]{Value: v}
}

// WithErr wraps a value with an error.
func WithErr[T any](v T, err *ExpandError) ExpandResult[T] {
	return ExpandResult[T]{Value: v, Err: err}
}
