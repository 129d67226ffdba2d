package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
)

// ErrMissingBoundary is returned when a multipart body has no boundary parameter
var ErrMissingBoundary = errors.New("multipart content has no boundary")

// extractMultipart walks the parts of a captured multipart/form-data body.
// file parts are persisted to the uploads scratch directory, value parts are decoded inline.
// parts without a content-disposition form name are skipped.
func extractMultipart(data []byte, boundary string, scratch *Scratch) ([]FieldSummary, error) {
	if boundary == "" {
		return nil, ErrMissingBoundary
	}

	reader := multipart.NewReader(bytes.NewReader(data), boundary)
	var fields []FieldSummary
	for {
		part, err := reader.NextRawPart()
		if errors.Is(err, io.EOF) {
			return fields, nil
		}
		if err != nil {
			return fields, fmt.Errorf("failed to read multipart part: %w", err)
		}

		field, ok, err := summarizePart(part, scratch)
		part.Close()
		if err != nil {
			return fields, err
		}
		if ok {
			fields = append(fields, field)
		}
	}
}

func summarizePart(part *multipart.Part, scratch *Scratch) (FieldSummary, bool, error) {
	if part.Header.Get("Content-Disposition") == "" {
		return FieldSummary{}, false, nil
	}

	field := FieldSummary{
		Name:     part.FormName(),
		FileName: part.FileName(),
	}

	content, err := io.ReadAll(part)
	if err != nil {
		return field, false, fmt.Errorf("failed to read part %q: %w", field.Name, err)
	}

	mediaType, charset, _ := ParseContentType(part.Header.Get("Content-Type"))

	if !field.IsFile() {
		field.Value = DecodeText(content, ResolveEncoding(charset))
		return field, true, nil
	}

	field.ContentType = mediaType
	field.Size = int64(len(content))
	path, err := scratch.SaveUpload(field.FileName, content)
	if err != nil {
		return field, false, err
	}
	field.SavedPath = path
	return field, true, nil
}
