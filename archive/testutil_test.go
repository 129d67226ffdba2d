package archive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/pb33f/mataki/capture"
	"github.com/pb33f/mataki/capture/har"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

// writeTestHAR captures n synthetic exchanges into a HAR file. every fifth one faults,
// every third one returns 404, the seventh has a request body that failed extraction
// and durations grow with the index.
func writeTestHAR(t *testing.T, n int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.har")
	sink := har.NewArchiveSink(path, "mataki", "test")

	for i := 0; i < n; i++ {
		exchange := &capture.Exchange{
			ID:        fmt.Sprintf("ex-%d", i),
			Method:    []string{http.MethodGet, http.MethodPost}[i%2],
			URL:       fmt.Sprintf("http://localhost/items/%d", i),
			Proto:     "HTTP/1.1",
			StartedAt: baseTime.Add(time.Duration(i) * time.Second),
			Duration:  time.Duration(i+1) * 10 * time.Millisecond,
			Request:   capture.RequestRecord{Body: capture.EmptyBody{}},
		}

		if i == 6 {
			exchange.Request.Body = capture.FailedBody{Class: capture.MediaMultipart, Message: "no boundary"}
		}

		switch {
		case i%5 == 4:
			exchange.Fault = errors.New("connection refused")
		case i%3 == 2:
			exchange.Response = &capture.ResponseRecord{
				StatusCode:    404,
				Reason:        "Not Found",
				Headers:       capture.NewHeaders(http.Header{"Content-Type": {"text/plain"}}),
				Body:          capture.TextBody{Text: "missing", MediaType: "text/plain"},
				ContentLength: 7,
			}
		default:
			body := fmt.Sprintf(`{"id":%d}`, i)
			exchange.Response = &capture.ResponseRecord{
				StatusCode:    200,
				Reason:        "OK",
				Headers:       capture.NewHeaders(http.Header{"Content-Type": {"application/json; charset=utf-8"}}),
				Body:          capture.TextBody{Text: body, MediaType: "application/json"},
				ContentLength: int64(len(body)),
			}
		}

		require.NoError(t, sink.Record(context.Background(), exchange))
	}
	require.NoError(t, sink.Close())
	return path
}
