package capture

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMaterializer(t *testing.T) *Materializer {
	t.Helper()
	return NewMaterializer(NewScratch(t.TempDir()), nil)
}

func headerWith(contentType string) http.Header {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

func TestMaterialize_NilAndNoBody(t *testing.T) {
	m := newTestMaterializer(t)

	body, replay, err := m.Materialize(context.Background(), DirectionRequest, headerWith("text/plain"), nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyBody{}, body)
	assert.Nil(t, replay)

	body, replay, err = m.Materialize(context.Background(), DirectionResponse, headerWith(""), http.NoBody)
	require.NoError(t, err)
	assert.Equal(t, KindEmpty, body.Kind())
	assert.Nil(t, replay)
}

func TestMaterialize_ReplayMatchesCapturedBytes(t *testing.T) {
	m := newTestMaterializer(t)
	payload := `{"name":"Mataki","type":"json"}`

	body, replay, err := m.Materialize(context.Background(), DirectionRequest,
		headerWith("application/json; charset=utf-8"), io.NopCloser(strings.NewReader(payload)))
	require.NoError(t, err)
	require.NotNil(t, replay)

	assert.Equal(t, TextBody{Text: payload, MediaType: "application/json"}, body)
	assert.Equal(t, int64(len(payload)), replay.Len())

	read, err := io.ReadAll(replay)
	require.NoError(t, err)
	assert.Equal(t, payload, string(read))

	// a fresh reader starts over regardless of the replay position
	again, err := io.ReadAll(replay.Fresh())
	require.NoError(t, err)
	assert.Equal(t, payload, string(again))
}

func TestMaterialize_ReadFailure(t *testing.T) {
	m := newTestMaterializer(t)
	boom := errors.New("connection reset")

	_, replay, err := m.Materialize(context.Background(), DirectionResponse,
		headerWith("text/plain"), io.NopCloser(iotest.ErrReader(boom)))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, replay)
}

func TestDescribe_MissingContentType(t *testing.T) {
	m := newTestMaterializer(t)

	body := m.Describe(context.Background(), DirectionRequest, "", []byte("hello"))
	assert.Equal(t, RawBody{Text: "hello", MissingContentType: true}, body)
}

func TestDescribe_Other(t *testing.T) {
	m := newTestMaterializer(t)

	body := m.Describe(context.Background(), DirectionResponse, "application/octet-stream", []byte("abc"))
	assert.Equal(t, RawBody{Text: "abc", MediaType: "application/octet-stream"}, body)
}

func TestDescribe_TextWithCharset(t *testing.T) {
	m := newTestMaterializer(t)

	body := m.Describe(context.Background(), DirectionResponse, "text/plain; charset=iso-8859-1", []byte{'c', 'a', 'f', 0xe9})
	assert.Equal(t, TextBody{Text: "café", MediaType: "text/plain"}, body)
}

func TestDescribe_FormOnRequest(t *testing.T) {
	m := newTestMaterializer(t)
	raw := "name=Mataki&email=mataki%40example.com&age=28"

	body := m.Describe(context.Background(), DirectionRequest, "application/x-www-form-urlencoded", []byte(raw))
	form, ok := body.(FormBody)
	require.True(t, ok)
	assert.Equal(t, raw, form.Raw)
	assert.Len(t, form.Fields, 3)
}

func TestDescribe_FormOnResponseIsRaw(t *testing.T) {
	m := newTestMaterializer(t)

	body := m.Describe(context.Background(), DirectionResponse, "application/x-www-form-urlencoded", []byte("a=1"))
	assert.Equal(t, KindRaw, body.Kind())
}

func TestDescribe_MultipartOnRequest(t *testing.T) {
	m := newTestMaterializer(t)
	data, contentType := buildMultipart(t)

	body := m.Describe(context.Background(), DirectionRequest, contentType, data)
	mp, ok := body.(MultipartBody)
	require.True(t, ok)
	assert.Len(t, mp.Fields, 2)
}

func TestDescribe_MultipartWithoutBoundaryFails(t *testing.T) {
	m := newTestMaterializer(t)

	body := m.Describe(context.Background(), DirectionRequest, "multipart/form-data", []byte("junk"))
	failed, ok := body.(FailedBody)
	require.True(t, ok)
	assert.Equal(t, MediaMultipart, failed.Class)
	assert.Contains(t, failed.Message, "boundary")
}

func TestDescribe_ImageOnResponse(t *testing.T) {
	root := t.TempDir()
	m := NewMaterializer(NewScratch(root), nil)

	body := m.Describe(context.Background(), DirectionResponse, "image/png", []byte{1, 2, 3})
	img, ok := body.(ImageBody)
	require.True(t, ok)
	assert.Equal(t, int64(3), img.Size)
	assert.Equal(t, filepath.Join(root, ImagesDirName), filepath.Dir(img.SavedPath))
	_, err := os.Stat(img.SavedPath)
	assert.NoError(t, err)
}

func TestDescribe_ImageOnRequestIsRaw(t *testing.T) {
	m := newTestMaterializer(t)

	body := m.Describe(context.Background(), DirectionRequest, "image/png", []byte{1})
	assert.Equal(t, RawBody{Text: "\x01", MediaType: "image/png"}, body)
}

func TestDescribe_ImageSaveFailure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ImagesDirName), nil, 0644))
	m := NewMaterializer(NewScratch(root), nil)

	body := m.Describe(context.Background(), DirectionResponse, "image/gif", []byte{1})
	failed, ok := body.(FailedBody)
	require.True(t, ok)
	assert.Equal(t, MediaImage, failed.Class)
	assert.Equal(t, "image/gif", failed.MediaType)
}

func TestBodyHelpers(t *testing.T) {
	assert.Equal(t, "x", BodyText(TextBody{Text: "x"}))
	assert.Equal(t, "a=1", BodyText(FormBody{Raw: "a=1"}))
	assert.Empty(t, BodyText(ImageBody{}))
	assert.Equal(t, "multipart/form-data", BodyMediaType(MultipartBody{}))
	assert.Equal(t, "application/x-www-form-urlencoded", BodyMediaType(FormBody{}))
	assert.Empty(t, BodyMediaType(EmptyBody{}))
}
