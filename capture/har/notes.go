package har

import "strings"

const (
	noteSeparator      = "; "
	requestNotePrefix  = "request "
	responseNotePrefix = "response "

	// FaultNotePrefix marks the note of an exchange that never got a response
	FaultNotePrefix = "fault: "

	// ImageSavedNote precedes the scratch path of a captured image
	ImageSavedNote = "image saved to "

	extractionFailedNote = "extraction failed: "
)

// Notes are the capture annotations kept in an entry comment: what happened to each
// body beyond its text, and the transport error of a faulted exchange.
// foreign comment phrases are kept in Other.
type Notes struct {
	Request  []string
	Response []string
	Fault    string
	Other    []string
}

// Comment joins the notes into an entry comment. the fault goes last so a message
// containing the separator survives ParseNotes.
func (n Notes) Comment() string {
	parts := make([]string, 0, len(n.Other)+len(n.Request)+len(n.Response)+1)
	parts = append(parts, n.Other...)
	for _, note := range n.Request {
		parts = append(parts, requestNotePrefix+note)
	}
	for _, note := range n.Response {
		parts = append(parts, responseNotePrefix+note)
	}
	if n.Fault != "" {
		parts = append(parts, FaultNotePrefix+n.Fault)
	}
	return strings.Join(parts, noteSeparator)
}

// ParseNotes splits an entry comment written by Comment back into its notes
func ParseNotes(comment string) Notes {
	var n Notes
	if comment == "" {
		return n
	}

	parts := strings.Split(comment, noteSeparator)
	for i, part := range parts {
		if strings.HasPrefix(part, FaultNotePrefix) {
			n.Fault = strings.TrimPrefix(strings.Join(parts[i:], noteSeparator), FaultNotePrefix)
			break
		}
		if note, ok := strings.CutPrefix(part, requestNotePrefix); ok {
			n.Request = append(n.Request, note)
			continue
		}
		if note, ok := strings.CutPrefix(part, responseNotePrefix); ok {
			n.Response = append(n.Response, note)
			continue
		}
		n.Other = append(n.Other, part)
	}
	return n
}

// Empty reports whether there is nothing to show
func (n Notes) Empty() bool {
	return len(n.Request) == 0 && len(n.Response) == 0 && n.Fault == "" && len(n.Other) == 0
}

// Failures returns the body extraction failures of both sides
func (n Notes) Failures() []string {
	var failures []string
	for _, note := range n.Request {
		if strings.Contains(note, extractionFailedNote) {
			failures = append(failures, requestNotePrefix+note)
		}
	}
	for _, note := range n.Response {
		if strings.Contains(note, extractionFailedNote) {
			failures = append(failures, responseNotePrefix+note)
		}
	}
	return failures
}
