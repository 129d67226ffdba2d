package capture

import (
	"strings"
	"unicode/utf8"
)

// ParseForm decodes an application/x-www-form-urlencoded body into its fields, keeping input order.
// a segment without '=' yields a field with no value. invalid percent escapes are kept verbatim.
func ParseForm(raw string) []FormField {
	if raw == "" {
		return nil
	}

	segments := strings.Split(raw, "&")
	fields := make([]FormField, 0, len(segments))
	for _, segment := range segments {
		key, value, found := strings.Cut(segment, "=")
		field := FormField{Key: unescapeFormComponent(key), HasValue: found}
		if found {
			field.Value = unescapeFormComponent(value)
		}
		fields = append(fields, field)
	}
	return fields
}

// unescapeFormComponent decodes each valid %XX triplet on its own and copies invalid
// ones through untouched. decoded bytes that do not form valid utf-8 are kept escaped.
func unescapeFormComponent(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}

	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '%' {
			out.WriteByte(s[i])
			i++
			continue
		}

		// gather a run of valid escapes so multi byte sequences decode together
		start := i
		var run []byte
		for i+2 < len(s) && s[i] == '%' && isHex(s[i+1]) && isHex(s[i+2]) {
			run = append(run, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 3
		}
		if len(run) == 0 {
			out.WriteByte('%')
			i++
			continue
		}
		writeDecodedRun(&out, run, s[start:i])
	}
	return out.String()
}

// writeDecodedRun writes the decoded runes of run, falling back to the escaped text
// for any byte that does not start a valid utf-8 sequence.
func writeDecodedRun(out *strings.Builder, run []byte, escaped string) {
	for pos := 0; pos < len(run); {
		r, size := utf8.DecodeRune(run[pos:])
		if r == utf8.RuneError && size <= 1 {
			out.WriteString(escaped[pos*3 : pos*3+3])
			pos++
			continue
		}
		out.WriteString(string(run[pos : pos+size]))
		pos += size
	}
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
