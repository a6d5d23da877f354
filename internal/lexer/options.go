package lexer

import (
	"rill/internal/diag"
	"rill/internal/source"
)

type Options struct {
	Reporter diag.Reporter // может быть nil — тогда ошибки игнорируем (но продолжаем лексить)
}

func (lx *Lexer) errLex(code diag.Code, r source.TextRange, msg string) {
	if lx.opts.Reporter == nil {
		return
	}
	diag.ReportError(lx.opts.Reporter, code, source.FileRange{File: lx.file.ID, Range: r}, msg).Emit()
}
