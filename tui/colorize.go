package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/lipgloss/v2"
)

// selected rows carry this escape sequence, styling them again would clobber the background
const selectedLineMarker = "\x1b[1;38;5;201;48;2;42;26;42m"

var renderedMethods = map[string]string{}

func init() {
	for method, style := range map[string]lipgloss.Style{
		"GET":    StyleMethodGreen,
		"HEAD":   StyleMethodGreen,
		"PATCH":  StyleMethodYellow,
		"PUT":    StyleMethodBlue,
		"POST":   StyleMethodBlue,
		"DELETE": StyleMethodRed,
	} {
		renderedMethods[method] = style.Render(method)
	}
}

// ColorizeTable post-processes rendered table output, coloring methods, status codes
// and durations on every line except the header and the selected row.
func ColorizeTable(tableView string, cursor int, rows []table.Row) string {
	lines := strings.Split(tableView, "\n")

	var selected string
	if cursor >= 0 && cursor < len(rows) && len(rows[cursor]) >= 4 {
		selected = strings.Join(rows[cursor], "")
	}

	var result strings.Builder
	result.Grow(len(tableView) + len(lines)*40)

	for i, line := range lines {
		isSelected := strings.Contains(line, selectedLineMarker) ||
			(selected != "" && strings.Contains(stripSpaces(line), stripSpaces(selected)))

		if i >= 1 && !isSelected {
			line = colorizeMethod(line)
			line = colorizeStatus(line)
			line = colorizeDuration(line)
		}

		result.WriteString(line)
		if i < len(lines)-1 {
			result.WriteByte('\n')
		}
	}
	return result.String()
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

func colorizeMethod(line string) string {
	for method, rendered := range renderedMethods {
		token := " " + method + " "
		if strings.Contains(line, token) {
			return strings.Replace(line, token, " "+rendered+" ", 1)
		}
	}
	return line
}

// colorizeStatus colors the first " NNN " token with 4xx or 5xx, or a FAULT marker
func colorizeStatus(line string) string {
	if idx := strings.Index(line, " "+faultStatus+" "); idx >= 0 {
		return line[:idx+1] + StyleStatusFault.Render(faultStatus) + line[idx+1+len(faultStatus):]
	}

	for i := 0; i < len(line)-4; i++ {
		if line[i] != ' ' || line[i+4] != ' ' || !isDigit(line[i+1]) || !isDigit(line[i+2]) || !isDigit(line[i+3]) {
			continue
		}
		code := line[i+1 : i+4]
		switch code[0] {
		case '4':
			return line[:i+1] + StyleStatus4xx.Render(code) + line[i+4:]
		case '5':
			return line[:i+1] + StyleStatus5xx.Render(code) + line[i+4:]
		}
		return line
	}
	return line
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func colorizeDuration(line string) string {
	trimmed := strings.TrimRight(line, " ")
	lastSpace := strings.LastIndexByte(trimmed, ' ')
	if lastSpace == -1 {
		return line
	}
	part := trimmed[lastSpace+1:]
	if !isDuration(part) {
		return line
	}
	return trimmed[:lastSpace+1] + StyleDurationFaint.Render(part) + line[len(trimmed):]
}

// isDuration accepts values like "150ms", "2.5s" or "1m3s" and rejects paths and identifiers
func isDuration(s string) bool {
	if s == "" || !isDigit(s[0]) {
		return false
	}

	var value string
	switch {
	case strings.HasSuffix(s, "µs"):
		value = strings.TrimSuffix(s, "µs")
	case strings.HasSuffix(s, "ms"):
		value = strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "s"):
		value = strings.TrimSuffix(s, "s")
		if m, rest, ok := strings.Cut(value, "m"); ok {
			return allDigits(m) && allDigits(rest)
		}
	default:
		return false
	}
	if value == "" {
		return false
	}

	dots := 0
	for i := 0; i < len(value); i++ {
		if value[i] == '.' {
			dots++
			if dots > 1 {
				return false
			}
			continue
		}
		if !isDigit(value[i]) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
