package diag

import (
	"rill/internal/source"
)

type Note struct {
	Range source.FileRange
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.FileRange
	Notes    []Note
}
