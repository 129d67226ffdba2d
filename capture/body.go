package capture

// BodyKind identifies which variant a Body carries
type BodyKind int

const (
	KindEmpty BodyKind = iota
	KindText
	KindRaw
	KindMultipart
	KindForm
	KindImage
	KindFailed
)

// String returns the string representation of the body kind
func (k BodyKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindRaw:
		return "raw"
	case KindMultipart:
		return "multipart"
	case KindForm:
		return "form"
	case KindImage:
		return "image"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Body is the captured representation of a request or response body.
// the set of implementations is closed, switch on the concrete type or on Kind().
type Body interface {
	Kind() BodyKind
	isBody()
}

// EmptyBody is a message without content
type EmptyBody struct{}

// TextBody is a body of a textual media type, decoded with its charset
type TextBody struct {
	Text      string `json:"text"`
	MediaType string `json:"mediaType"`
}

// RawBody is an unclassified body shown as best-effort decoded text
type RawBody struct {
	Text               string `json:"text"`
	MediaType          string `json:"mediaType,omitempty"`
	MissingContentType bool   `json:"missingContentType,omitempty"`
}

// MultipartBody summarises the parts of a multipart/form-data body
type MultipartBody struct {
	Fields []FieldSummary `json:"fields"`
}

// FormBody holds the raw text and decoded fields of an url-encoded form
type FormBody struct {
	Raw    string      `json:"raw"`
	Fields []FormField `json:"fields"`
}

// ImageBody describes an image body persisted to the scratch directory
type ImageBody struct {
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
	SavedPath string `json:"savedPath"`
}

// FailedBody reports a body whose structured extraction failed, the exchange itself still completes
type FailedBody struct {
	Class     MediaClass `json:"class"`
	MediaType string     `json:"mediaType,omitempty"`
	Message   string     `json:"message"`
}

// FieldSummary describes one part of a multipart form
type FieldSummary struct {
	Name        string `json:"name"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	SavedPath   string `json:"savedPath,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Value       string `json:"value,omitempty"`
}

// IsFile reports whether the part carried a file upload
func (f FieldSummary) IsFile() bool {
	return f.FileName != ""
}

// FormField is one decoded key/value pair of an url-encoded form
type FormField struct {
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	HasValue bool   `json:"hasValue"`
}

func (EmptyBody) Kind() BodyKind     { return KindEmpty }
func (TextBody) Kind() BodyKind      { return KindText }
func (RawBody) Kind() BodyKind       { return KindRaw }
func (MultipartBody) Kind() BodyKind { return KindMultipart }
func (FormBody) Kind() BodyKind      { return KindForm }
func (ImageBody) Kind() BodyKind     { return KindImage }
func (FailedBody) Kind() BodyKind    { return KindFailed }

func (EmptyBody) isBody()     {}
func (TextBody) isBody()      {}
func (RawBody) isBody()       {}
func (MultipartBody) isBody() {}
func (FormBody) isBody()      {}
func (ImageBody) isBody()     {}
func (FailedBody) isBody()    {}

// BodyText returns the displayable text of a body, empty for variants that have none
func BodyText(b Body) string {
	switch body := b.(type) {
	case TextBody:
		return body.Text
	case RawBody:
		return body.Text
	case FormBody:
		return body.Raw
	default:
		return ""
	}
}

// BodyMediaType returns the media type recorded for a body, if any
func BodyMediaType(b Body) string {
	switch body := b.(type) {
	case TextBody:
		return body.MediaType
	case RawBody:
		return body.MediaType
	case MultipartBody:
		return mediaTypeMultipartForm
	case FormBody:
		return mediaTypeURLEncoded
	case ImageBody:
		return body.MediaType
	case FailedBody:
		return body.MediaType
	default:
		return ""
	}
}
