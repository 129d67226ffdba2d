package tui

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/pb33f/mataki/archive"
)

func (m *ExchangeViewModel) buildTableRows() {
	rows := make([]table.Row, 0, len(m.visible))
	for _, i := range m.visible {
		rows = append(rows, formatEntryRow(m.allEntries[i], m.width))
	}
	m.rows = rows
}

func formatEntryRow(entry *archive.EntryMetadata, terminalWidth int) table.Row {
	return table.Row{
		formatMethod(entry.Method),
		formatURL(entry.URL, terminalWidth),
		formatStatus(entry),
		formatDuration(entry.Duration),
	}
}

func formatMethod(method string) string {
	if method == "" {
		method = "GET"
	}
	if len(method) > 7 {
		return method[:7]
	}
	return method
}

func formatURL(fullURL string, terminalWidth int) string {
	if fullURL == "" {
		return "/"
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return truncateString(fullURL, maxURLDisplayLength)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	available := terminalWidth - methodColumnWidth - statusColumnWidth - durationColumnWidth - 10
	available = max(available, minURLColumnWidth)
	available = min(available, maxURLColumnWidth)

	return truncateString(path, available)
}

func formatStatus(entry *archive.EntryMetadata) string {
	if entry.Faulted {
		return faultStatus
	}
	if entry.StatusCode == 0 {
		return "---"
	}

	code := strconv.Itoa(entry.StatusCode)
	if entry.StatusText != "" {
		status := code + " " + entry.StatusText
		if len(status) <= statusColumnWidth {
			return status
		}
	}
	return code
}

func formatDuration(durationMs float64) string {
	if durationMs <= 0 {
		return "---"
	}

	d := time.Duration(durationMs * float64(time.Millisecond))

	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", float64(d.Milliseconds())/1000.0)
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) - minutes*60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func truncateBody(content string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "\n...[truncated]"
}
