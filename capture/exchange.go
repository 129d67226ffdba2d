package capture

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

// Phase is the last state an exchange reached. emitted exchanges always end in
// PhaseResponseCaptured or PhaseFaulted.
type Phase int

const (
	PhaseStarted Phase = iota
	PhaseRequestCaptured
	PhaseSent
	PhaseResponseCaptured
	PhaseFaulted
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseStarted:
		return "started"
	case PhaseRequestCaptured:
		return "request-captured"
	case PhaseSent:
		return "sent"
	case PhaseResponseCaptured:
		return "response-captured"
	case PhaseFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// HeaderValueSeparator joins multiple values of one header for display
const HeaderValueSeparator = ", "

// HeaderField is one header name with all of its values
type HeaderField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Joined returns the values joined for display
func (h HeaderField) Joined() string {
	return strings.Join(h.Values, HeaderValueSeparator)
}

// Headers is an ordered, multi-valued header map with case-insensitive lookup
type Headers []HeaderField

// NewHeaders snapshots an http.Header. regular headers come first, content headers
// (Content-*) after them, each group sorted by name so the display order is stable.
func NewHeaders(h http.Header) Headers {
	if len(h) == 0 {
		return nil
	}

	var regular, content []string
	for name := range h {
		if isContentHeader(name) {
			content = append(content, name)
		} else {
			regular = append(regular, name)
		}
	}
	sort.Strings(regular)
	sort.Strings(content)

	headers := make(Headers, 0, len(h))
	for _, name := range append(regular, content...) {
		values := make([]string, len(h[name]))
		copy(values, h[name])
		headers = append(headers, HeaderField{Name: name, Values: values})
	}
	return headers
}

// Get returns the values of a header, matching the name case-insensitively
func (h Headers) Get(name string) []string {
	for _, field := range h {
		if strings.EqualFold(field.Name, name) {
			return field.Values
		}
	}
	return nil
}

// Value returns the joined values of a header, empty when absent
func (h Headers) Value(name string) string {
	return strings.Join(h.Get(name), HeaderValueSeparator)
}

func isContentHeader(name string) bool {
	return len(name) >= len("Content-") && strings.EqualFold(name[:len("Content-")], "Content-")
}

// RequestRecord is the captured request side of an exchange
type RequestRecord struct {
	Headers       Headers `json:"headers"`
	Body          Body    `json:"body"`
	ContentLength int64   `json:"contentLength"`
}

// ResponseRecord is the captured response side of an exchange
type ResponseRecord struct {
	StatusCode    int       `json:"statusCode"`
	Reason        string    `json:"reason"`
	Proto         string    `json:"proto"`
	Headers       Headers   `json:"headers"`
	Body          Body      `json:"body"`
	ContentLength int64     `json:"contentLength"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

// Exchange is one request paired with at most one response or one fault.
// it is finalized exactly once and must be treated as immutable by sinks.
type Exchange struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	URL       string          `json:"url"`
	Proto     string          `json:"proto"`
	StartedAt time.Time       `json:"startedAt"`
	Duration  time.Duration   `json:"duration"`
	Request   RequestRecord   `json:"request"`
	Response  *ResponseRecord `json:"response,omitempty"`
	Fault     error           `json:"-"`
	// FaultMessage mirrors Fault for serialized records
	FaultMessage string `json:"fault,omitempty"`
	// Phase is the last state reached before finalization
	Phase Phase `json:"phase"`
}

// Faulted reports whether the exchange ended with a transport fault instead of a response
func (e *Exchange) Faulted() bool {
	return e.Fault != nil
}

// Outcome returns "response" or "fault"
func (e *Exchange) Outcome() string {
	if e.Faulted() {
		return "fault"
	}
	return "response"
}

// Reason returns the reason phrase for a status code, the text after the code in a status line
func Reason(status string, code int) string {
	if _, text, ok := strings.Cut(status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(code)
}
