package common

import "strings"

// Escape escapes s for use inside a single-quoted string literal. Quotes,
// backslashes and the usual control characters are backslash-escaped.
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	WriteEscaped(&sb, s)
	return sb.String()
}

// WriteEscaped writes the escaped form of s to sb
func WriteEscaped(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			sb.WriteByte(c)
		}
	}
}

// Unescape reverses Escape. A backslash followed by a character with no
// special meaning yields that character.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch n := s[i]; n {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		default:
			sb.WriteByte(n)
		}
	}
	return sb.String()
}

// Quote returns s escaped and wrapped in single quotes
func Quote(s string) string {
	return "'" + Escape(s) + "'"
}
