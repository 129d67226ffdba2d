package tui

import (
	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/lipgloss/v2"
)

var (
	RGBBlue       = lipgloss.Color("45")
	RGBPink       = lipgloss.Color("201")
	RGBRed        = lipgloss.Color("196")
	RGBYellow     = lipgloss.Color("220")
	RGBGreen      = lipgloss.Color("46")
	RGBGrey       = lipgloss.Color("246")
	RGBSubtlePink = lipgloss.Color("#2a1a2a")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(RGBPink)

	HelpStyle = lipgloss.NewStyle().
			Faint(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(RGBRed).
			Bold(true)

	FaultNoteStyle = lipgloss.NewStyle().
			Foreground(RGBRed)
)

// table colorization
var (
	StyleMethodGreen  = lipgloss.NewStyle().Foreground(RGBGreen)  // GET, HEAD
	StyleMethodYellow = lipgloss.NewStyle().Foreground(RGBYellow) // PATCH
	StyleMethodBlue   = lipgloss.NewStyle().Foreground(RGBBlue)   // PUT, POST
	StyleMethodRed    = lipgloss.NewStyle().Foreground(RGBRed)    // DELETE

	StyleStatus4xx   = lipgloss.NewStyle().Foreground(RGBYellow)
	StyleStatus5xx   = lipgloss.NewStyle().Foreground(RGBRed)
	StyleStatusFault = lipgloss.NewStyle().Foreground(RGBRed).Bold(true)

	StyleDurationFaint = lipgloss.NewStyle().Faint(true)
)

// ApplyTableStyles applies the pink header and selection theme to t
func ApplyTableStyles(t table.Model) table.Model {
	s := table.DefaultStyles()

	s.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(RGBPink).
		BorderBottom(true).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		Foreground(RGBPink).
		Bold(true).
		Padding(0, 1)

	s.Selected = lipgloss.NewStyle().
		Bold(true).
		Foreground(RGBPink).
		Background(RGBSubtlePink).
		Padding(0, 0)

	s.Cell = lipgloss.NewStyle().
		Padding(0, 1)

	t.SetStyles(s)
	return t
}
