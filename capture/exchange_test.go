package capture

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeaders_ContentHeadersLast(t *testing.T) {
	h := http.Header{
		"Content-Type":   {"application/json"},
		"X-Request-Id":   {"abc"},
		"Accept":         {"*/*"},
		"Content-Length": {"12"},
	}

	headers := NewHeaders(h)
	require.Len(t, headers, 4)

	var names []string
	for _, field := range headers {
		names = append(names, field.Name)
	}
	assert.Equal(t, []string{"Accept", "X-Request-Id", "Content-Length", "Content-Type"}, names)
}

func TestNewHeaders_CopiesValues(t *testing.T) {
	h := http.Header{"Accept": {"text/plain", "text/html"}}
	headers := NewHeaders(h)

	h["Accept"][0] = "changed"
	assert.Equal(t, []string{"text/plain", "text/html"}, headers.Get("accept"))
	assert.Equal(t, "text/plain, text/html", headers.Value("ACCEPT"))
	assert.Empty(t, headers.Value("missing"))
	assert.Nil(t, NewHeaders(nil))
}

func TestReason(t *testing.T) {
	assert.Equal(t, "Not Found", Reason("404 Not Found", 404))
	assert.Equal(t, "Custom Reason", Reason("418 Custom Reason", 418))
	assert.Equal(t, "Internal Server Error", Reason("", 500))
	assert.Equal(t, "Created", Reason("201", 201))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "started", PhaseStarted.String())
	assert.Equal(t, "response-captured", PhaseResponseCaptured.String())
	assert.Equal(t, "faulted", PhaseFaulted.String())
	assert.Equal(t, "unknown", (PhaseFaulted + 1).String())
	assert.Equal(t, "unknown", Phase(99).String())
	assert.Equal(t, "request", DirectionRequest.String())
	assert.Equal(t, "image", KindImage.String())
}
