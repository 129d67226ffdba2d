package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/pb33f/mataki/archive"
)

type LoadState int

const (
	LoadStateLoading LoadState = iota
	LoadStateLoaded
	LoadStateError
)

type indexCompleteMsg struct {
	index    *archive.Index
	streamer archive.Streamer
	duration time.Duration
}

type indexErrorMsg struct {
	err error
}

func (m *ExchangeViewModel) startIndexing() tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		streamer, err := archive.Open(context.Background(), m.fileName)
		if err != nil {
			return indexErrorMsg{err: err}
		}

		return indexCompleteMsg{
			index:    streamer.GetIndex(),
			streamer: streamer,
			duration: time.Since(start),
		}
	}
}

func (m *ExchangeViewModel) renderLoadingView() string {
	frame := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	title := TitleStyle.Render("Loading capture")
	fileInfo := lipgloss.NewStyle().Foreground(RGBGrey).Render("\n" + m.fileName)

	text := fmt.Sprintf("%s %s%s", m.loadingSpinner.View(), title, fileInfo)
	if m.indexingMessage != "" {
		text += "\n\n" + lipgloss.NewStyle().Foreground(RGBBlue).Render(m.indexingMessage)
	}
	return frame.Render(text)
}

func (m *ExchangeViewModel) renderErrorView() string {
	frame := ErrorStyle.
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	return frame.Render(fmt.Sprintf("error loading capture\n\n%v\n\npress 'q' to quit", m.err))
}

func createLoadingSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(RGBPink)
	return s
}
