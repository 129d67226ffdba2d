package har

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pb33f/mataki/capture"
)

// multipartContent renders fields in curl's -F notation, one per line:
// name=value for values, name=@path;type=content-type for saved uploads.
func multipartContent(fields []capture.FieldSummary) string {
	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		if field.IsFile() {
			lines = append(lines, fmt.Sprintf("%s=@%s;type=%s", field.Name, field.SavedPath, field.ContentType))
			continue
		}
		lines = append(lines, field.Name+"="+field.Value)
	}
	return strings.Join(lines, "\n")
}

// ParseMultipartContent reads fields back from the curl notation written into an entry.
// the original file name is recovered from the saved upload's <uuid>_<name> file name,
// sizes are not part of the notation. a line without '=' continues the previous value.
func ParseMultipartContent(content string) []capture.FieldSummary {
	if content == "" {
		return nil
	}

	var fields []capture.FieldSummary
	for _, line := range strings.Split(content, "\n") {
		name, value, found := strings.Cut(line, "=")
		if !found {
			if n := len(fields); n > 0 && !fields[n-1].IsFile() {
				fields[n-1].Value += "\n" + line
			}
			continue
		}

		path, isFile := strings.CutPrefix(value, "@")
		if !isFile {
			fields = append(fields, capture.FieldSummary{Name: name, Value: value})
			continue
		}
		path, contentType, _ := strings.Cut(path, ";type=")
		fields = append(fields, capture.FieldSummary{
			Name:        name,
			FileName:    uploadFileName(path),
			ContentType: contentType,
			SavedPath:   path,
		})
	}
	return fields
}

func uploadFileName(path string) string {
	base := filepath.Base(path)
	if prefix, name, ok := strings.Cut(base, "_"); ok && uuid.Validate(prefix) == nil {
		return name
	}
	return base
}
