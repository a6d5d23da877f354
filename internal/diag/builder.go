package diag

import "rill/internal/source"

func New(sev Severity, code Code, primary source.FileRange, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.FileRange, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(r source.FileRange, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Range: r, Msg: msg})
	return d
}
