package archive

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex(t *testing.T) {
	path := writeTestHAR(t, 10)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	index, err := BuildIndex(context.Background(), path, file)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)

	assert.Equal(t, path, index.FilePath)
	assert.Equal(t, 10, index.TotalEntries)
	assert.Equal(t, info.Size(), index.FileSize)
	assert.NotEmpty(t, index.FileHash)
	assert.Equal(t, "1.2", index.Version)
	require.NotNil(t, index.Creator)
	assert.Equal(t, "mataki", index.Creator.Name)
	assert.Equal(t, 2, index.TotalFaults)
	assert.Equal(t, 1, index.TotalBodyFailures)
	assert.Equal(t, 10, index.UniqueURLs)
	assert.Equal(t, baseTime, index.TimeRange.Start)
	assert.Equal(t, baseTime.Add(9e9), index.TimeRange.End)

	first := index.Entries[0]
	assert.Equal(t, "GET", first.Method)
	assert.Equal(t, "localhost", first.Host)
	assert.Equal(t, 200, first.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", first.MimeType)
	assert.Equal(t, 10.0, first.Duration)
	assert.Empty(t, first.FaultMessage())
	assert.False(t, first.BodyFailed())

	faulted := index.Entries[4]
	assert.True(t, faulted.Faulted)
	assert.Equal(t, "connection refused", faulted.FaultMessage())

	assert.True(t, index.Entries[6].BodyFailed())
}

func TestBuildIndex_SameContentSameHash(t *testing.T) {
	path := writeTestHAR(t, 3)
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	a, err := BuildIndex(context.Background(), "a", strings.NewReader(string(content)))
	require.NoError(t, err)
	b, err := BuildIndex(context.Background(), "b", strings.NewReader(string(content)))
	require.NoError(t, err)

	assert.Equal(t, a.FileHash, b.FileHash)
}

func TestBuildIndex_SkipsUnknownKeys(t *testing.T) {
	doc := `{"extra": [1, {"a": 2}], "log": {"version": "1.2", "pages": [], "entries": [
		{"startedDateTime": "2025-05-04T10:00:00Z", "time": 3, "request": {"method": "GET", "url": "http://h/x"},
		 "response": {"status": 0}, "comment": "note; fault: dial tcp: refused"}
	]}}`

	index, err := BuildIndex(context.Background(), "inline", strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, index.Entries, 1)

	meta := index.Entries[0]
	assert.True(t, meta.Faulted)
	assert.Equal(t, "dial tcp: refused", meta.FaultMessage())
	assert.Equal(t, []string{"note"}, meta.Notes.Other)
	assert.Equal(t, "h", meta.Host)
}

func TestBuildIndex_InvalidJSON(t *testing.T) {
	_, err := BuildIndex(context.Background(), "bad", strings.NewReader(`{"log": {"entries": {}}}`))
	assert.Error(t, err)

	_, err = BuildIndex(context.Background(), "bad", strings.NewReader(`[]`))
	assert.Error(t, err)
}

func TestBuildIndex_StatusZeroWithoutFaultNote(t *testing.T) {
	doc := `{"log": {"entries": [{"request": {"method": "GET", "url": "http://h/"}, "response": {"status": 0}}]}}`

	index, err := BuildIndex(context.Background(), "inline", strings.NewReader(doc))
	require.NoError(t, err)
	assert.False(t, index.Entries[0].Faulted)
	assert.Zero(t, index.TotalFaults)
}

func TestFileStreamer_GetEntry(t *testing.T) {
	path := writeTestHAR(t, 10)

	streamer, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer streamer.Close()

	for i := 0; i < 10; i++ {
		entry, err := streamer.GetEntry(context.Background(), i)
		require.NoError(t, err)

		meta, err := streamer.GetMetadata(i)
		require.NoError(t, err)
		assert.Equal(t, meta.URL, entry.Request.URL)
		assert.Equal(t, meta.StatusCode, entry.Response.StatusCode)
	}

	entry, err := streamer.GetEntry(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, `{"id":0}`, entry.Response.Body.Content)

	_, err = streamer.GetEntry(context.Background(), 10)
	assert.Error(t, err)
	_, err = streamer.GetMetadata(-1)
	assert.Error(t, err)
}

func TestFileStreamer_ConcurrentReads(t *testing.T) {
	path := writeTestHAR(t, 20)

	streamer, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer streamer.Close()

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := streamer.GetEntry(context.Background(), i)
			errs <- err
		}()
	}
	for i := 0; i < 20; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestFileStreamer_Closed(t *testing.T) {
	streamer, err := Open(context.Background(), writeTestHAR(t, 2))
	require.NoError(t, err)
	require.NoError(t, streamer.Close())
	require.NoError(t, streamer.Close())

	_, err = streamer.GetEntry(context.Background(), 0)
	assert.Error(t, err)
}

func TestFileStreamer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, writeTestHAR(t, 2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStreamer_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), "/nonexistent/capture.har")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	path := writeTestHAR(t, 10)

	streamer, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer streamer.Close()

	summary := Summarize(streamer.GetIndex(), 3)
	assert.Equal(t, 10, summary.TotalEntries)
	assert.Equal(t, 2, summary.Faults)
	assert.Equal(t, 1, summary.BodyFailures)
	assert.Equal(t, 2, summary.ByStatusClass["fault"])
	assert.Equal(t, 3, summary.ByStatusClass["4xx"])
	assert.Equal(t, 5, summary.ByStatusClass["2xx"])
	assert.Equal(t, 5, summary.ByMethod["GET"])
	assert.Equal(t, 10, summary.ByHost["localhost"])
	assert.Equal(t, 5, summary.ByMimeType["application/json"])
	assert.Equal(t, 55.0, summary.AverageDuration)

	require.Len(t, summary.Slowest, 3)
	assert.Equal(t, 100.0, summary.Slowest[0].Duration)
	assert.Equal(t, []string{"2xx", "4xx", "fault"}, SortedKeys(summary.ByStatusClass))
}
