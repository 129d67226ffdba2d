package scenario

import (
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pb33f/mataki/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCatalog(t *testing.T) ([]Result, *capture.MemoryStore) {
	t.Helper()

	env := StartEnvironment()
	t.Cleanup(env.Close)

	store := capture.NewMemoryStore()
	client, err := capture.NewClient(store, capture.Options{ScratchRoot: t.TempDir()})
	require.NoError(t, err)

	runner := &Runner{
		Client: client,
		Target: Target{BaseURL: env.URL(), FaultURL: env.FaultURL},
	}
	return runner.Run(context.Background(), Catalog()), store
}

func findExchange(t *testing.T, store *capture.MemoryStore, suffix string, method string) *capture.Exchange {
	t.Helper()
	for _, exchange := range store.Snapshot() {
		if strings.HasSuffix(exchange.URL, suffix) && exchange.Method == method {
			return exchange
		}
	}
	t.Fatalf("no %s exchange for %s", method, suffix)
	return nil
}

func resultNamed(results []Result, name string) Result {
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	return Result{}
}

func TestCatalog_EveryScenarioRecordedOnce(t *testing.T) {
	results, store := runCatalog(t)

	require.Len(t, results, len(Catalog()))
	assert.Equal(t, len(Catalog()), store.Len())

	for _, s := range Catalog() {
		result := resultNamed(results, s.Name)
		if s.ExpectFault {
			assert.Error(t, result.Err, s.Name)
		} else {
			assert.NoError(t, result.Err, s.Name)
		}
	}
}

func TestCatalog_CallerSeesOriginalBodies(t *testing.T) {
	results, _ := runCatalog(t)

	assert.Equal(t, `{"name":"Mataki","type":"json"}`, string(resultNamed(results, "json").Body))
	assert.Equal(t, JPEGBytes, resultNamed(results, "image").Body)
	assert.Equal(t, "untyped payload", string(resultNamed(results, "untyped").Body))
	assert.Equal(t, http.StatusNotFound, resultNamed(results, "not-found").StatusCode)
	assert.Equal(t, http.StatusInternalServerError, resultNamed(results, "server-error").StatusCode)

	// the echoed multipart body must still parse after capture consumed it once
	echoed := resultNamed(results, "multipart").Body
	require.NotEmpty(t, echoed)
	assert.Contains(t, string(echoed), DemoFileContent)
}

func TestCatalog_CapturedBodies(t *testing.T) {
	_, store := runCatalog(t)

	var sawForm, sawMultipart bool
	for _, exchange := range store.Snapshot() {
		switch body := exchange.Request.Body.(type) {
		case capture.FormBody:
			sawForm = true
			require.Len(t, body.Fields, 3)
			assert.Equal(t, "mataki@example.com", body.Fields[1].Value)
		case capture.MultipartBody:
			sawMultipart = true
			require.Len(t, body.Fields, 2)
			assert.Equal(t, int64(len(DemoFileContent)), body.Fields[0].Size)
			assert.Equal(t, "field value", body.Fields[1].Value)
		}
	}
	assert.True(t, sawForm)
	assert.True(t, sawMultipart)

	image := findExchange(t, store, "/image/jpeg", http.MethodGet)
	imageBody, ok := image.Response.Body.(capture.ImageBody)
	require.True(t, ok)
	assert.Equal(t, int64(4), imageBody.Size)
	assert.Equal(t, ".jpg", filepath.Ext(imageBody.SavedPath))

	sjis := findExchange(t, store, "/sjis", http.MethodGet)
	assert.Equal(t, "あ", capture.BodyText(sjis.Response.Body))

	untyped := findExchange(t, store, "/raw", http.MethodGet)
	raw, ok := untyped.Response.Body.(capture.RawBody)
	require.True(t, ok)
	assert.True(t, raw.MissingContentType)

	fault := findExchange(t, store, "/unreachable", http.MethodGet)
	assert.True(t, fault.Faulted())
	assert.Nil(t, fault.Response)
}

func TestMultipartUpload(t *testing.T) {
	body, contentType, err := MultipartUpload("a.txt", []byte("abc"), map[string]string{"k": "v"})
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, form.Value["k"])
	require.Len(t, form.File["file"], 1)
	assert.Equal(t, "a.txt", form.File["file"][0].Filename)
}

func TestGenerated(t *testing.T) {
	scenarios, err := Generated(3, 42, filepath.Join(t.TempDir(), "missing-words"))
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	req, err := scenarios[0].Build(context.Background(), Target{BaseURL: "http://localhost"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
	assert.NotEmpty(t, payload)

	again, err := Generated(3, 42, filepath.Join(t.TempDir(), "missing-words"))
	require.NoError(t, err)
	first, _ := scenarios[1].Build(context.Background(), Target{BaseURL: "http://localhost"})
	second, _ := again[1].Build(context.Background(), Target{BaseURL: "http://localhost"})
	assert.Equal(t, first.ContentLength, second.ContentLength)
}

func TestEchoHandler_InvalidStatus(t *testing.T) {
	env := StartEnvironment()
	defer env.Close()

	resp, err := http.Get(env.URL() + "/status/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunner_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &Runner{Client: http.DefaultClient}
	assert.Empty(t, runner.Run(ctx, Catalog()))
}
