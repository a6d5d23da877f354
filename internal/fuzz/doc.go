// Package fuzztests houses Go fuzz harnesses for the rill front end:
// source -> lexer -> parser -> token trees -> expansion. They guard against
// panics, hangs and lossy conversions on arbitrary inputs.
//
// Назначение: прогонять байты через лексер, парсер, мост syntax<->tt и
// драйвер раскрытия макросов.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/lexer, internal/parser,
// internal/syntaxbridge, internal/driver.

package fuzztests
