package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/harhar"
	"github.com/pb33f/mataki/archive"
	"github.com/pb33f/mataki/capture"
	"github.com/pb33f/mataki/capture/har"
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(RGBGrey).Align(lipgloss.Right)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(RGBPink)
	emptyValue   = lipgloss.NewStyle().Faint(true).Render("(empty)")
)

const (
	minLabelWidth = 15
	maxLabelWidth = 25
	noContentType = "(none)"
	noFormValue   = "(no value)"

	captureNotesTitle = "Capture Notes"
	otherNotesTitle   = "Notes"
)

// detailRow is one labelled line of a panel
type detailRow struct {
	label string
	value string
}

// detailSection is a titled group of rows
type detailSection struct {
	title string
	rows  []detailRow
}

// renderPanel lays sections out as a label column and a value column sized to width
func renderPanel(sections []detailSection, width int) string {
	labelWidth := min(max(width*3/10, minLabelWidth), maxLabelWidth)
	valueWidth := width - labelWidth - 2
	label := labelStyle.Width(labelWidth)

	blocks := make([]string, 0, len(sections))
	for _, section := range sections {
		var b strings.Builder
		b.WriteString(sectionStyle.Width(width).Render(section.title))
		for _, row := range section.rows {
			b.WriteString("\n")
			b.WriteString(label.Render(row.label))
			b.WriteString("  ")
			b.WriteString(fitValue(row.value, valueWidth))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func fitValue(value string, width int) string {
	switch {
	case value == "":
		return emptyValue
	case width > 3 && len(value) > width:
		return value[:width-3] + "..."
	default:
		return value
	}
}

// requestPanel describes what was sent: line, headers, query, cookies, then the body
// the way the capture layer classified it.
func requestPanel(req *harhar.Request, notes har.Notes) []detailSection {
	sections := []detailSection{{
		title: "Request",
		rows:  []detailRow{{"Method", req.Method}, {"URL", req.URL}, {"Protocol", req.HTTPVersion}},
	}}
	sections = appendPairs(sections, "Headers", req.Headers)
	sections = appendPairs(sections, "Query", req.QueryParams)
	sections = appendCookies(sections, req.Cookies)

	if req.Body.Content != "" || req.BodySize > 0 {
		sections = append(sections, requestBodySections(req)...)
	}
	return appendNotes(sections, captureNotesTitle, notes.Request)
}

func requestBodySections(req *harhar.Request) []detailSection {
	mediaType, _, _ := capture.ParseContentType(req.Body.MIMEType)
	switch capture.Classify(mediaType) {
	case capture.MediaForm:
		rows := []detailRow{{"Raw Data", truncateBody(req.Body.Content, maxBodyDisplayLength)}}
		for _, field := range capture.ParseForm(req.Body.Content) {
			value := field.Value
			if !field.HasValue {
				value = noFormValue
			}
			rows = append(rows, detailRow{field.Key, value})
		}
		return []detailSection{{title: "Form Fields", rows: rows}}
	case capture.MediaMultipart:
		var rows []detailRow
		for _, field := range har.ParseMultipartContent(req.Body.Content) {
			if field.IsFile() {
				rows = append(rows, detailRow{field.Name, fmt.Sprintf("%s (%s) saved to %s", field.FileName, field.ContentType, field.SavedPath)})
				continue
			}
			rows = append(rows, detailRow{field.Name, field.Value})
		}
		return []detailSection{{title: "Multipart Fields", rows: rows}}
	default:
		return []detailSection{bodySection(req.Body.MIMEType, req.BodySize, req.Body.Content)}
	}
}

// responsePanel describes what came back, or the fault when nothing did
func responsePanel(entry *harhar.Entry, meta *archive.EntryMetadata) []detailSection {
	if meta != nil && meta.Faulted {
		return appendNotes(faultSections(meta), otherNotesTitle, meta.Notes.Other)
	}

	resp := &entry.Response
	sections := []detailSection{{
		title: "Response",
		rows: []detailRow{
			{"Status", fmt.Sprintf("%d %s", resp.StatusCode, resp.StatusText)},
			{"Protocol", resp.HTTPVersion},
			{"Duration", formatDuration(entry.Time)},
		},
	}}
	sections = appendPairs(sections, "Headers", resp.Headers)
	sections = appendCookies(sections, resp.Cookies)

	var notes har.Notes
	if meta != nil {
		notes = meta.Notes
	}

	mediaType, _, _ := capture.ParseContentType(resp.Body.MIMEType)
	if capture.Classify(mediaType) == capture.MediaImage {
		sections = append(sections, detailSection{
			title: "Image",
			rows: []detailRow{
				{"Content-Type", resp.Body.MIMEType},
				{"Size", fmt.Sprintf("%d bytes", resp.Body.Size)},
				{"Saved To", savedImagePath(notes.Response)},
			},
		})
	} else if resp.Body.Content != "" || resp.Body.Size > 0 {
		sections = append(sections, bodySection(resp.Body.MIMEType, resp.Body.Size, resp.Body.Content))
	}

	sections = appendNotes(sections, captureNotesTitle, notes.Response)
	return appendNotes(sections, otherNotesTitle, notes.Other)
}

// faultSections describes an exchange that ended in a transport error
func faultSections(meta *archive.EntryMetadata) []detailSection {
	message := meta.FaultMessage()
	if message == "" {
		message = "unknown error"
	}
	return []detailSection{{
		title: "Fault",
		rows: []detailRow{
			{"Error", FaultNoteStyle.Render(message)},
			{"Time", meta.Timestamp.Format("2006-01-02 15:04:05")},
			{"After", formatDuration(meta.Duration)},
		},
	}}
}

func bodySection(mimeType string, size int, content string) detailSection {
	if mimeType == "" {
		mimeType = noContentType
	}
	return detailSection{
		title: "Body",
		rows: []detailRow{
			{"Content-Type", mimeType},
			{"Size", fmt.Sprintf("%d bytes", size)},
			{"Content", truncateBody(content, maxBodyDisplayLength)},
		},
	}
}

func savedImagePath(notes []string) string {
	for _, note := range notes {
		if path, ok := strings.CutPrefix(note, har.ImageSavedNote); ok {
			return path
		}
	}
	return ""
}

func appendPairs(sections []detailSection, title string, pairs []harhar.NameValuePair) []detailSection {
	if len(pairs) == 0 {
		return sections
	}
	rows := make([]detailRow, len(pairs))
	for i, p := range pairs {
		rows[i] = detailRow{p.Name, p.Value}
	}
	return append(sections, detailSection{title: title, rows: rows})
}

func appendCookies(sections []detailSection, cookies []harhar.Cookie) []detailSection {
	if len(cookies) == 0 {
		return sections
	}
	rows := make([]detailRow, len(cookies))
	for i, c := range cookies {
		rows[i] = detailRow{c.Name, c.Value}
	}
	return append(sections, detailSection{title: "Cookies", rows: rows})
}

// appendNotes adds notes numbered in recording order
func appendNotes(sections []detailSection, title string, notes []string) []detailSection {
	if len(notes) == 0 {
		return sections
	}
	rows := make([]detailRow, len(notes))
	for i, note := range notes {
		rows[i] = detailRow{fmt.Sprintf("#%d", i+1), note}
	}
	return append(sections, detailSection{title: title, rows: rows})
}
