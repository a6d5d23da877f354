package builtin

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// quoteStr renders s as a string literal using only the escapes the lexer
// understands.
func quoteStr(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if unicode.IsPrint(r) {
				b.WriteRune(r)
			} else {
				fmt.Fprintf(&b, `\u{%x}`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// literalValue returns the value a literal contributes to concat!.
func literalValue(text string) (string, error) {
	switch {
	case strings.HasPrefix(text, "b'"), strings.HasPrefix(text, `b"`), strings.HasPrefix(text, "br"):
		return "", fmt.Errorf("cannot concatenate a byte string literal")
	case strings.HasPrefix(text, "r#"), strings.HasPrefix(text, `r"`):
		body := strings.TrimLeft(text[1:], "#")
		hashes := len(text) - 1 - len(body)
		if len(body) < 2+hashes {
			return "", fmt.Errorf("malformed raw string literal")
		}
		return body[1 : len(body)-1-hashes], nil
	case strings.HasPrefix(text, `"`):
		if len(text) < 2 || !strings.HasSuffix(text, `"`) {
			return "", fmt.Errorf("unterminated string literal")
		}
		return unescape(text[1 : len(text)-1])
	case strings.HasPrefix(text, "'"):
		if len(text) < 2 || !strings.HasSuffix(text, "'") {
			return "", fmt.Errorf("unterminated char literal")
		}
		return unescape(text[1 : len(text)-1])
	case len(text) > 0 && text[0] >= '0' && text[0] <= '9':
		return numberValue(text), nil
	}
	return "", fmt.Errorf("expected a literal")
}

// numberValue drops the type suffix and the digit separators.
func numberValue(text string) string {
	text = strings.ReplaceAll(text, "_", "")
	hex := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
	for _, suf := range []string{"u8", "u16", "u32", "u64", "u128", "usize", "i8", "i16", "i32", "i64", "i128", "isize", "f32", "f64"} {
		if strings.HasSuffix(text, suf) && !(hex && suf[0] == 'f') {
			return strings.TrimSuffix(text, suf)
		}
	}
	return text
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			r, n := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += n
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("trailing backslash in literal")
		}
		i += 2
		switch s[i-1] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(s[i-1])
		case 'x':
			if i+2 > len(s) {
				return "", fmt.Errorf("truncated \\x escape")
			}
			v, err := strconv.ParseUint(s[i:i+2], 16, 8)
			if err != nil || v > 0x7f {
				return "", fmt.Errorf("invalid \\x escape")
			}
			b.WriteByte(byte(v))
			i += 2
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i >= len(s) || s[i] != '{' || end < 0 {
				return "", fmt.Errorf("invalid unicode escape")
			}
			v, err := strconv.ParseUint(strings.ReplaceAll(s[i+1:i+end], "_", ""), 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", fmt.Errorf("invalid unicode escape")
			}
			b.WriteRune(rune(v))
			i += end + 1
		case '\n':
			// продолжение строки: пропускаем ведущие пробелы
			for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
				i++
			}
		default:
			return "", fmt.Errorf("unknown character escape `%c`", s[i-1])
		}
	}
	return b.String(), nil
}
