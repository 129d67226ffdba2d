package tui

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/pb33f/harhar"
	"github.com/pb33f/mataki/archive"
	"github.com/pb33f/mataki/capture"
	"github.com/pb33f/mataki/capture/har"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCapture records an ok exchange, a 404 and a fault, in that order
func writeCapture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.har")
	sink := har.NewArchiveSink(path, "mataki", "test")
	started := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

	exchanges := []*capture.Exchange{
		{
			Method: http.MethodGet, URL: "http://localhost/ok", Proto: "HTTP/1.1",
			StartedAt: started, Duration: 12 * time.Millisecond,
			Request: capture.RequestRecord{Body: capture.EmptyBody{}},
			Response: &capture.ResponseRecord{
				StatusCode: 200, Reason: "OK",
				Headers: capture.NewHeaders(http.Header{"Content-Type": {"application/json"}}),
				Body:    capture.TextBody{Text: `{"ok":true}`, MediaType: "application/json"},
			},
		},
		{
			Method: http.MethodPost, URL: "http://localhost/missing", Proto: "HTTP/1.1",
			StartedAt: started.Add(time.Second), Duration: 30 * time.Millisecond,
			Request: capture.RequestRecord{Body: capture.EmptyBody{}},
			Response: &capture.ResponseRecord{
				StatusCode: 404, Reason: "Not Found",
				Headers: capture.NewHeaders(http.Header{"Content-Type": {"text/plain"}}),
				Body:    capture.TextBody{Text: "missing", MediaType: "text/plain"},
			},
		},
		{
			Method: http.MethodGet, URL: "http://localhost/down", Proto: "HTTP/1.1",
			StartedAt: started.Add(2 * time.Second), Duration: 5 * time.Millisecond,
			Request: capture.RequestRecord{Body: capture.EmptyBody{}},
			Fault:   errors.New("connection refused"),
		},
	}
	for _, exchange := range exchanges {
		require.NoError(t, sink.Record(context.Background(), exchange))
	}
	require.NoError(t, sink.Close())
	return path
}

func loadedModel(t *testing.T) *ExchangeViewModel {
	t.Helper()

	path := writeCapture(t)
	streamer, err := archive.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = streamer.Close() })

	m := NewExchangeViewModel(path)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(indexCompleteMsg{index: streamer.GetIndex(), streamer: streamer, duration: time.Millisecond})
	require.True(t, m.ready)
	return m
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "200 OK", formatStatus(&archive.EntryMetadata{StatusCode: 200, StatusText: "OK"}))
	assert.Equal(t, "404", formatStatus(&archive.EntryMetadata{StatusCode: 404, StatusText: "Not Found"}))
	assert.Equal(t, faultStatus, formatStatus(&archive.EntryMetadata{Faulted: true}))
	assert.Equal(t, "---", formatStatus(&archive.EntryMetadata{}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "---", formatDuration(0))
	assert.Equal(t, "500µs", formatDuration(0.5))
	assert.Equal(t, "150ms", formatDuration(150))
	assert.Equal(t, "2.5s", formatDuration(2500))
	assert.Equal(t, "1m5s", formatDuration(65000))
}

func TestFormatURL(t *testing.T) {
	assert.Equal(t, "/", formatURL("", 120))
	assert.Equal(t, "/items?id=1", formatURL("http://localhost/items?id=1", 120))

	long := "http://localhost/" + strings.Repeat("a", 200)
	formatted := formatURL(long, 80)
	assert.Len(t, formatted, 42)
	assert.True(t, strings.HasSuffix(formatted, "..."))
}

func TestIsDuration(t *testing.T) {
	for _, s := range []string{"150ms", "2.5s", "1m5s", "500µs"} {
		assert.True(t, isDuration(s), s)
	}
	for _, s := range []string{"", "/api/users", "5u7hmsls", "1.2.3s", "ms"} {
		assert.False(t, isDuration(s), s)
	}
}

func TestColorizeStatus(t *testing.T) {
	assert.Equal(t, " 200 OK ", colorizeStatus(" 200 OK "))
	assert.Contains(t, colorizeStatus(" GET /down FAULT 5ms"), faultStatus)
	assert.Contains(t, colorizeStatus(" GET /x 404 5ms"), "404")
}

func TestModel_Loaded(t *testing.T) {
	m := loadedModel(t)

	require.Len(t, m.rows, 3)
	assert.Equal(t, "GET", m.rows[0][0])
	assert.Equal(t, "/ok", m.rows[0][1])
	assert.Equal(t, faultStatus, m.rows[2][2])

	view := m.View()
	assert.Contains(t, view, "mataki:")
	assert.Contains(t, view, "1 faults")
}

func TestModel_ProblemsFilter(t *testing.T) {
	m := loadedModel(t)

	handled, _ := m.handleKey("f")
	assert.True(t, handled)
	assert.True(t, m.problemsOnly)
	assert.Equal(t, []int{1, 2}, m.visible)
	require.Len(t, m.rows, 2)
	assert.Equal(t, "/missing", m.rows[0][1])

	m.handleKey("f")
	assert.False(t, m.problemsOnly)
	assert.Len(t, m.rows, 3)
}

func TestModel_SplitViewShowsFault(t *testing.T) {
	m := loadedModel(t)
	m.handleKey("f")
	m.table.SetCursor(1)
	m.selectedIndex = 1

	m.handleKey("enter")
	require.True(t, m.splitVisible)
	require.NotNil(t, m.selectedEntry)
	assert.Equal(t, "http://localhost/down", m.selectedEntry.Request.URL)

	response := m.formatResponse()
	assert.Contains(t, response, "Fault")
	assert.Contains(t, response, "connection refused")
	assert.Contains(t, response, "After")
	assert.NotContains(t, response, "Headers")

	m.handleKey("tab")
	assert.Equal(t, ViewportFocusResponse, m.focusedViewport)
	assert.Contains(t, m.statusParts(), "[Response]")

	m.handleKey("esc")
	assert.False(t, m.splitVisible)
	assert.Equal(t, ViewModeTable, m.viewMode)
}

func TestModel_SplitViewShowsResponse(t *testing.T) {
	m := loadedModel(t)

	m.handleKey("enter")
	require.NotNil(t, m.selectedEntry)
	assert.Contains(t, m.formatResponse(), `{"ok":true}`)
	assert.Contains(t, m.formatRequest(), "http://localhost/ok")
}

func TestModel_IndexError(t *testing.T) {
	m := NewExchangeViewModel("missing.har")
	m.Update(indexErrorMsg{err: errors.New("no such file")})

	assert.Equal(t, LoadStateError, m.loadState)
	assert.Contains(t, m.View(), "no such file")

	handled, cmd := m.handleKey("q")
	assert.True(t, handled)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func sectionTitled(t *testing.T, sections []detailSection, title string) detailSection {
	t.Helper()
	for _, section := range sections {
		if section.title == title {
			return section
		}
	}
	require.Failf(t, "section not found", "no %q section", title)
	return detailSection{}
}

func TestRequestPanel_FormFields(t *testing.T) {
	req := &harhar.Request{
		Method: http.MethodPost,
		URL:    "http://localhost/form",
		Body: harhar.BodyType{
			MIMEType: "application/x-www-form-urlencoded",
			Content:  "name=Mataki&email=mataki%40example.com&flag",
		},
	}

	form := sectionTitled(t, requestPanel(req, har.Notes{}), "Form Fields")
	assert.Equal(t, []detailRow{
		{"Raw Data", "name=Mataki&email=mataki%40example.com&flag"},
		{"name", "Mataki"},
		{"email", "mataki@example.com"},
		{"flag", noFormValue},
	}, form.rows)
}

func TestRequestPanel_MultipartAndNotes(t *testing.T) {
	req := &harhar.Request{
		Method: http.MethodPost,
		URL:    "http://localhost/upload",
		Body: harhar.BodyType{
			MIMEType: "multipart/form-data; boundary=x",
			Content:  "file=@/tmp/u/demo.txt;type=text/plain\ntextField=field value",
		},
	}
	notes := har.Notes{Request: []string{"upload demo.txt saved to /tmp/u/demo.txt"}}

	sections := requestPanel(req, notes)
	fields := sectionTitled(t, sections, "Multipart Fields")
	require.Len(t, fields.rows, 2)
	assert.Equal(t, detailRow{"file", "demo.txt (text/plain) saved to /tmp/u/demo.txt"}, fields.rows[0])
	assert.Equal(t, detailRow{"textField", "field value"}, fields.rows[1])

	captured := sectionTitled(t, sections, captureNotesTitle)
	assert.Equal(t, []detailRow{{"#1", "upload demo.txt saved to /tmp/u/demo.txt"}}, captured.rows)
}

func TestResponsePanel_ImageAndMissingContentType(t *testing.T) {
	image := &harhar.Entry{Response: harhar.Response{
		StatusCode: 200,
		StatusText: "OK",
		Body:       harhar.BodyResponseType{MIMEType: "image/jpeg", Size: 4},
	}}
	meta := &archive.EntryMetadata{Notes: har.Notes{Response: []string{har.ImageSavedNote + "/tmp/i/a.jpg"}}}

	img := sectionTitled(t, responsePanel(image, meta), "Image")
	assert.Contains(t, img.rows, detailRow{"Size", "4 bytes"})
	assert.Contains(t, img.rows, detailRow{"Saved To", "/tmp/i/a.jpg"})

	untyped := &harhar.Entry{Response: harhar.Response{
		StatusCode: 200,
		Body:       harhar.BodyResponseType{Content: "untyped", Size: 7},
	}}
	body := sectionTitled(t, responsePanel(untyped, nil), "Body")
	assert.Equal(t, detailRow{"Content-Type", noContentType}, body.rows[0])
}

func TestRenderPanel_TruncatesToWidth(t *testing.T) {
	out := renderPanel([]detailSection{{
		title: "Body",
		rows:  []detailRow{{"Content", strings.Repeat("x", 200)}, {"Empty", ""}},
	}}, 60)

	assert.Contains(t, out, "Body")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "(empty)")
	assert.NotContains(t, out, strings.Repeat("x", 60))
}
