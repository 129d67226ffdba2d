package capture

import (
	"mime"
	"strings"
)

// MediaClass is the handling strategy chosen for a body from its media type
type MediaClass int

const (
	MediaNone MediaClass = iota
	MediaText
	MediaImage
	MediaMultipart
	MediaForm
	MediaOther
)

const (
	mediaTypeMultipartForm = "multipart/form-data"
	mediaTypeURLEncoded    = "application/x-www-form-urlencoded"
)

// String returns the string representation of the media class
func (c MediaClass) String() string {
	switch c {
	case MediaNone:
		return "none"
	case MediaText:
		return "text"
	case MediaImage:
		return "image"
	case MediaMultipart:
		return "multipart"
	case MediaForm:
		return "form"
	case MediaOther:
		return "other"
	default:
		return "unknown"
	}
}

// Classify decides how a body with the given media type is captured.
// rules are checked in precedence order and the first match wins, every input maps to exactly one class.
func Classify(mediaType string) MediaClass {
	mt := strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case mt == "":
		return MediaNone
	case strings.HasPrefix(mt, mediaTypeMultipartForm):
		return MediaMultipart
	case mt == mediaTypeURLEncoded:
		return MediaForm
	case IsTextMediaType(mt):
		return MediaText
	case strings.HasPrefix(mt, "image/"):
		return MediaImage
	default:
		return MediaOther
	}
}

// IsTextMediaType reports whether a body of this media type can be safely stringified
func IsTextMediaType(mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mediaType))

	return strings.HasPrefix(mt, "text/") ||
		mt == "application/json" || strings.HasSuffix(mt, "+json") ||
		mt == "application/xml" || strings.HasSuffix(mt, "+xml") ||
		mt == "application/yaml" || strings.HasSuffix(mt, "+yaml") ||
		mt == "application/graphql"
}

// ParseContentType splits a Content-Type header value into its media type, charset and parameters.
// malformed values degrade to whatever precedes the first ';' rather than failing.
func ParseContentType(value string) (mediaType, charset string, params map[string]string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", nil
	}

	mt, p, err := mime.ParseMediaType(value)
	if err != nil {
		mt, _, _ = strings.Cut(value, ";")
		return strings.ToLower(strings.TrimSpace(mt)), "", nil
	}
	return mt, p["charset"], p
}
