package cmd

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/mataki/tui"
)

const matakiASCII = `                 _        _    _ 
 _ __ ___   __ _| |_ __ _| | _(_)
| '_ ` + "`" + ` _ \ / _` + "`" + ` | __/ _` + "`" + ` | |/ / |
| | | | | | (_| | || (_| |   <| |
|_| |_| |_|\__,_|\__\__,_|_|\_\_|`

// RenderBanner returns the styled banner shown by the version command
func RenderBanner() string {
	banner := lipgloss.NewStyle().
		Foreground(tui.RGBPink).
		Bold(true).
		Render(matakiASCII)

	subtitle := lipgloss.NewStyle().
		Foreground(tui.RGBBlue).
		Italic(true).
		Render("http exchange recorder")

	return lipgloss.NewStyle().
		MarginBottom(1).
		Render(banner + "\n" + subtitle)
}
