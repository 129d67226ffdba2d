package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Direction tells the materializer which side of an exchange a body belongs to
type Direction int

const (
	DirectionRequest Direction = iota
	DirectionResponse
)

// String returns the string representation of the direction
func (d Direction) String() string {
	switch d {
	case DirectionRequest:
		return "request"
	case DirectionResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Replay is replacement content serving bytes that were already captured,
// so the next consumer of a body reads exactly what the capture layer saw.
type Replay struct {
	data   []byte
	reader *bytes.Reader
}

func newReplay(data []byte) *Replay {
	return &Replay{data: data, reader: bytes.NewReader(data)}
}

func (r *Replay) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

// Close is a no-op, the captured bytes stay readable through Fresh
func (r *Replay) Close() error {
	return nil
}

// Len returns the number of captured bytes
func (r *Replay) Len() int64 {
	return int64(len(r.data))
}

// Bytes returns the captured bytes, callers must not modify them
func (r *Replay) Bytes() []byte {
	return r.data
}

// Fresh returns a new reader positioned at the start of the captured bytes
func (r *Replay) Fresh() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(r.data))
}

// Materializer consumes a body once, derives its Body representation and
// hands back equivalent replacement content.
type Materializer struct {
	scratch *Scratch
	logger  *slog.Logger
}

// NewMaterializer creates a materializer persisting extracted payloads to scratch
func NewMaterializer(scratch *Scratch, logger *slog.Logger) *Materializer {
	if scratch == nil {
		scratch = NewScratch("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{scratch: scratch, logger: logger}
}

// Materialize reads body exactly once. it returns the captured representation and a Replay
// that must replace the original carrier. a nil or http.NoBody body yields EmptyBody and no replay.
// only a failure to read the carrier is returned as an error, extraction failures become FailedBody.
func (m *Materializer) Materialize(ctx context.Context, dir Direction, header http.Header, body io.ReadCloser) (Body, *Replay, error) {
	if body == nil || body == http.NoBody {
		return EmptyBody{}, nil, nil
	}

	data, err := io.ReadAll(body)
	if closeErr := body.Close(); closeErr != nil {
		m.logger.DebugContext(ctx, "error closing captured body", "direction", dir.String(), "error", closeErr)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s body: %w", dir, err)
	}

	return m.Describe(ctx, dir, header.Get("Content-Type"), data), newReplay(data), nil
}

// Describe builds the Body representation of bytes already captured with the given Content-Type header.
// multipart and url-encoded extraction applies to requests, image extraction to responses.
func (m *Materializer) Describe(ctx context.Context, dir Direction, contentType string, data []byte) Body {
	mediaType, charset, params := ParseContentType(contentType)
	enc := ResolveEncoding(charset)
	class := Classify(mediaType)

	switch {
	case class == MediaNone:
		m.logger.DebugContext(ctx, "no content-type present", "direction", dir.String(), "size", len(data))
		return RawBody{Text: DecodeText(data, enc), MissingContentType: true}

	case class == MediaMultipart && dir == DirectionRequest:
		fields, err := extractMultipart(data, params["boundary"], m.scratch)
		if err != nil {
			m.logger.WarnContext(ctx, "error processing multipart content", "error", err)
			return FailedBody{Class: class, MediaType: mediaType, Message: err.Error()}
		}
		return MultipartBody{Fields: fields}

	case class == MediaForm && dir == DirectionRequest:
		raw := DecodeText(data, enc)
		return FormBody{Raw: raw, Fields: ParseForm(raw)}

	case class == MediaText:
		return TextBody{Text: DecodeText(data, enc), MediaType: mediaType}

	case class == MediaImage && dir == DirectionResponse:
		img, err := captureImage(mediaType, data, m.scratch)
		if err != nil {
			m.logger.WarnContext(ctx, "error processing image response", "error", err)
			return FailedBody{Class: class, MediaType: mediaType, Message: err.Error()}
		}
		return img

	default:
		return RawBody{Text: DecodeText(data, enc), MediaType: mediaType}
	}
}
