package capture

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// ResolveEncoding maps a charset token from a content-type header to a text encoding.
// blank or unrecognised tokens resolve to UTF-8, an invalid charset must never abort a capture.
func ResolveEncoding(charset string) encoding.Encoding {
	charset = strings.Trim(strings.TrimSpace(charset), `"'`)
	if charset == "" {
		return unicode.UTF8
	}

	enc, err := htmlindex.Get(charset)
	if err != nil || enc == nil {
		return unicode.UTF8
	}
	return enc
}

// EncodingName returns the canonical web name of an encoding, "utf-8" when it cannot be named.
func EncodingName(enc encoding.Encoding) string {
	if enc == nil {
		return "utf-8"
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return "utf-8"
	}
	return name
}

// DecodeText decodes captured bytes with enc. bytes that fail to decode are
// returned verbatim so the transcript still shows something useful.
func DecodeText(data []byte, enc encoding.Encoding) string {
	if len(data) == 0 {
		return ""
	}
	if enc == nil || enc == unicode.UTF8 {
		return string(data)
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
