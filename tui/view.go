package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/mataki/capture/har"
)

func (m *ExchangeViewModel) render() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	var builder strings.Builder
	builder.WriteString(m.renderTitle())
	builder.WriteString("\n")
	builder.WriteString(ColorizeTable(m.table.View(), m.table.Cursor(), m.rows))
	builder.WriteString("\n")

	if m.viewMode == ViewModeTableWithSplit {
		builder.WriteString(m.renderSplitPanel())
		builder.WriteString("\n")
	}

	builder.WriteString(m.renderStatusBar())
	return builder.String()
}

func (m *ExchangeViewModel) renderTitle() string {
	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(RGBBlue).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		BorderBottom(true).
		Padding(0, 1).
		Width(m.width)

	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("mataki: %s | ", m.fileName))

	count := fmt.Sprintf("(%d exchanges", len(m.allEntries))
	if m.index != nil && m.index.TotalFaults > 0 {
		count += fmt.Sprintf(", %d faults", m.index.TotalFaults)
	}
	if m.problemsOnly {
		count += fmt.Sprintf(", showing %d problems", len(m.visible))
	}
	if m.indexingTime > 0 {
		count += fmt.Sprintf(", loaded in %v", m.indexingTime.Round(time.Millisecond))
	}
	count += ")"

	return frame.Render(title + lipgloss.NewStyle().Faint(true).Render(count))
}

func (m *ExchangeViewModel) statusParts() []string {
	var parts []string
	if m.viewMode == ViewModeTable {
		parts = append(parts, "↑/↓: Navigate", "Enter: View Details")
		if m.problemsOnly {
			parts = append(parts, "f: Show All")
		} else {
			parts = append(parts, "f: Problems Only")
		}
	} else {
		parts = append(parts, "↑/↓: Scroll", "Tab: Switch Panel", "Esc: Close Details")
	}
	parts = append(parts, "q: Quit")

	if m.selectedIndex < len(m.visible) {
		parts = append(parts, fmt.Sprintf("Entry %d/%d", m.selectedIndex+1, len(m.visible)))
	}

	if m.viewMode == ViewModeTableWithSplit {
		if m.focusedViewport == ViewportFocusRequest {
			parts = append(parts, "[Request]")
		} else {
			parts = append(parts, "[Response]")
		}
	}
	return parts
}

func (m *ExchangeViewModel) renderStatusBar() string {
	return HelpStyle.Render(strings.Join(m.statusParts(), " | "))
}

func (m *ExchangeViewModel) renderSplitPanel() string {
	if m.selectedEntry == nil {
		return lipgloss.NewStyle().
			Faint(true).
			Align(lipgloss.Center, lipgloss.Center).
			Width(m.width).
			Height(m.height / 2).
			Render("No entry selected")
	}

	panelWidth := m.width/2 - splitPanelPadding
	panelHeight := (m.height-tableVerticalPadding)/2 - splitPanelPadding

	base := lipgloss.NewStyle().
		Width(panelWidth).
		Height(panelHeight).
		BorderStyle(lipgloss.NormalBorder())

	focused := base.BorderForeground(RGBBlue)
	unfocused := base.BorderForeground(lipgloss.Color("240"))

	left, right := unfocused, unfocused
	if m.focusedViewport == ViewportFocusRequest {
		left = focused
	} else {
		right = focused
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		left.Render(m.requestViewport.View()),
		right.Render(m.responseViewport.View()))
}

func (m *ExchangeViewModel) formatRequest() string {
	if m.selectedEntry == nil {
		return "No request data"
	}
	var notes har.Notes
	if m.selectedMeta != nil {
		notes = m.selectedMeta.Notes
	}
	return renderPanel(requestPanel(&m.selectedEntry.Request, notes), m.requestViewport.Width())
}

func (m *ExchangeViewModel) formatResponse() string {
	if m.selectedEntry == nil {
		return "No response data"
	}

	return renderPanel(responsePanel(m.selectedEntry, m.selectedMeta), m.responseViewport.Width())
}

func (m *ExchangeViewModel) updateViewportContent() {
	if m.selectedEntry == nil {
		return
	}
	m.requestViewport.SetContent(m.formatRequest())
	m.responseViewport.SetContent(m.formatResponse())
}
