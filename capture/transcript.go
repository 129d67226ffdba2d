package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// TranscriptTimestampLayout stamps the request, response and fault block headers
const TranscriptTimestampLayout = "2006-01-02 15:04:05"

// Separator terminates every completed exchange in a transcript
var Separator = strings.Repeat("*", 50)

// TranscriptSink renders each exchange as a line oriented transcript
// and writes it to a LineWriter. one exchange's block is written whole before the next starts.
type TranscriptSink struct {
	w  LineWriter
	mu sync.Mutex
}

// NewTranscriptSink creates a transcript sink writing to w
func NewTranscriptSink(w LineWriter) (*TranscriptSink, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	return &TranscriptSink{w: w}, nil
}

func (t *TranscriptSink) Record(_ context.Context, exchange *Exchange) error {
	lines := Transcript(exchange)

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, line := range lines {
		t.w.WriteLine(line)
	}
	return nil
}

// Transcript renders the lines for one exchange: the request block, then either the
// response block or the fault block, then the separator.
func Transcript(exchange *Exchange) []string {
	tr := &transcript{}
	tr.request(exchange)
	if exchange.Response != nil {
		tr.response(exchange.Response)
	}
	if exchange.Faulted() {
		tr.fault(exchange)
	}
	tr.add(Separator)
	return tr.lines
}

type transcript struct {
	lines []string
}

func (t *transcript) add(line string) {
	t.lines = append(t.lines, line)
}

func (t *transcript) addf(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func stamp(ts time.Time) string {
	return ts.Format(TranscriptTimestampLayout)
}

func (t *transcript) request(exchange *Exchange) {
	t.addf("%s - Request:", stamp(exchange.StartedAt))
	t.addf("Method: %s", exchange.Method)
	t.addf("URL: %s", exchange.URL)
	t.headers(exchange.Request.Headers)

	if exchange.Request.Body == nil || exchange.Request.Body.Kind() == KindEmpty {
		t.add("Body: Empty Content")
		return
	}
	t.body(exchange.Request.Body)
}

func (t *transcript) response(resp *ResponseRecord) {
	t.addf("%s - Response:", stamp(resp.ReceivedAt))
	t.addf("Status Code: %d %s", resp.StatusCode, resp.Reason)
	t.headers(resp.Headers)
	if resp.Body == nil || resp.Body.Kind() == KindEmpty {
		if resp.Headers.Value("Content-Type") == "" {
			t.add("Null or empty Content-Type header.")
			t.add("Raw Body: ")
		}
		return
	}
	t.body(resp.Body)
}

func (t *transcript) fault(exchange *Exchange) {
	ts := exchange.StartedAt.Add(exchange.Duration)
	t.addf("%s - Fault:", stamp(ts))
	t.addf("Error: %s", exchange.Fault.Error())
}

func (t *transcript) headers(headers Headers) {
	t.add("Headers:")
	for _, h := range headers {
		t.addf("  %s: %s", h.Name, h.Joined())
	}
}

func (t *transcript) body(body Body) {
	switch b := body.(type) {
	case EmptyBody:
	case TextBody:
		t.addf("Body: %s", b.Text)
	case RawBody:
		if b.MissingContentType {
			t.add("Null or empty Content-Type header.")
		} else {
			t.addf("Content-Type: %s", b.MediaType)
		}
		t.addf("Raw Body: %s", b.Text)
	case MultipartBody:
		t.add("Multipart Form Data Content:")
		for _, field := range b.Fields {
			t.addf("  Field: %s", field.Name)
			if field.IsFile() {
				t.addf("  Original FileName: %s", field.FileName)
				t.addf("  Content-Type: %s", field.ContentType)
				t.addf("  Saved to: %s", field.SavedPath)
				t.addf("  File Size: %d bytes", field.Size)
				continue
			}
			t.addf("  Value: %s", field.Value)
		}
	case FormBody:
		t.add("Form URL Encoded Content:")
		t.addf("Raw Data: %s", b.Raw)
		if len(b.Fields) > 0 {
			t.add("Parsed Form Fields:")
			for _, field := range b.Fields {
				if !field.HasValue {
					t.addf("  %s: (no value)", field.Key)
					continue
				}
				t.addf("  %s: %s", field.Key, field.Value)
			}
		}
	case ImageBody:
		t.addf("Image Content Type: %s", b.MediaType)
		t.addf("Image Size: %d bytes", b.Size)
		t.addf("Image saved to: %s", b.SavedPath)
	case FailedBody:
		switch b.Class {
		case MediaMultipart:
			t.addf("Error processing multipart content: %s", b.Message)
		case MediaImage:
			t.addf("Image Content Type: %s", b.MediaType)
			t.addf("Error processing image response: %s", b.Message)
		case MediaForm:
			t.addf("Error processing URL encoded content: %s", b.Message)
		default:
			t.addf("Error processing %s content: %s", b.Class, b.Message)
		}
	}
}
