// Package tui is a terminal browser for captured exchanges stored in a HAR archive.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/table"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/pb33f/harhar"
	"github.com/pb33f/mataki/archive"
)

type ViewMode int

const (
	ViewModeTable ViewMode = iota
	ViewModeTableWithSplit
)

type ViewportFocus int

const (
	ViewportFocusRequest ViewportFocus = iota
	ViewportFocusResponse
)

type ExchangeViewModel struct {
	table      table.Model
	allEntries []*archive.EntryMetadata
	visible    []int // positions in allEntries shown by the table
	rows       []table.Row
	columns    []table.Column

	streamer      archive.Streamer
	index         *archive.Index
	selectedEntry *harhar.Entry
	selectedMeta  *archive.EntryMetadata
	selectedIndex int

	viewMode     ViewMode
	problemsOnly bool
	width        int
	height       int
	ready        bool
	quitting     bool

	requestViewport  viewport.Model
	responseViewport viewport.Model
	focusedViewport  ViewportFocus
	splitVisible     bool

	fileName string

	loadState       LoadState
	loadingSpinner  spinner.Model
	indexingMessage string
	indexingTime    time.Duration

	err error
}

func NewExchangeViewModel(fileName string) *ExchangeViewModel {
	return &ExchangeViewModel{
		fileName: fileName,
		columns: []table.Column{
			{Title: "Method", Width: methodColumnWidth},
			{Title: "URL", Width: maxURLDisplayLength},
			{Title: "Status", Width: statusColumnWidth},
			{Title: "Duration", Width: durationColumnWidth},
		},
		viewMode:        ViewModeTable,
		loadState:       LoadStateLoading,
		loadingSpinner:  createLoadingSpinner(),
		indexingMessage: "Building index...",
	}
}

func (m *ExchangeViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.loadingSpinner.Tick,
		m.startIndexing(),
	)
}

func (m *ExchangeViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	if m.loadState == LoadStateLoading {
		m.loadingSpinner, cmd = m.loadingSpinner.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case indexCompleteMsg:
		m.loadState = LoadStateLoaded
		m.index = msg.index
		m.streamer = msg.streamer
		m.allEntries = msg.index.Entries
		m.indexingTime = msg.duration
		m.applyFilter()

		if m.width > 0 && m.height > 0 {
			m.initializeTable()
			m.ready = true
		}
		return m, nil

	case indexErrorMsg:
		m.loadState = LoadStateError
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if m.loadState == LoadStateLoaded && !m.ready && m.index != nil {
			m.initializeTable()
			m.ready = true
		} else if m.ready {
			m.updateTableDimensions()
		}
		if m.splitVisible {
			m.updateViewportDimensions()
		}

	case tea.KeyPressMsg:
		if handled, cmd := m.handleKey(msg.String()); handled {
			return m, cmd
		}
	}

	if m.loadState == LoadStateLoaded && m.ready {
		if !m.splitVisible {
			m.table, cmd = m.table.Update(msg)
			cmds = append(cmds, cmd)
			m.selectedIndex = m.table.Cursor()
		} else if m.focusedViewport == ViewportFocusRequest {
			m.requestViewport, cmd = m.requestViewport.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			m.responseViewport, cmd = m.responseViewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// handleKey applies the viewer's own bindings, reporting false for keys the
// table or viewports should see instead.
func (m *ExchangeViewModel) handleKey(key string) (bool, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return true, tea.Quit
	}

	if m.loadState != LoadStateLoaded || !m.ready {
		return false, nil
	}

	switch key {
	case "enter":
		m.toggleSplitView()
		if m.splitVisible {
			if err := m.loadSelectedEntry(); err != nil {
				m.err = err
			}
		}
		return true, nil

	case "esc":
		if m.splitVisible {
			m.toggleSplitView()
		}
		return true, nil

	case "tab":
		if m.splitVisible {
			if m.focusedViewport == ViewportFocusRequest {
				m.focusedViewport = ViewportFocusResponse
			} else {
				m.focusedViewport = ViewportFocusRequest
			}
		}
		return true, nil

	case "f":
		if !m.splitVisible {
			m.problemsOnly = !m.problemsOnly
			m.applyFilter()
			m.buildTableRows()
			m.table.SetRows(m.rows)
			m.table.SetCursor(0)
			m.selectedIndex = 0
		}
		return true, nil
	}
	return false, nil
}

// isProblem reports whether an entry faulted or answered with a 4xx or 5xx status
func isProblem(meta *archive.EntryMetadata) bool {
	return meta.Faulted || meta.StatusCode >= 400
}

func (m *ExchangeViewModel) applyFilter() {
	m.visible = m.visible[:0]
	for i, meta := range m.allEntries {
		if m.problemsOnly && !isProblem(meta) {
			continue
		}
		m.visible = append(m.visible, i)
	}
}

func (m *ExchangeViewModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.loadState {
	case LoadStateLoading:
		return m.renderLoadingView()
	case LoadStateError:
		return m.renderErrorView()
	case LoadStateLoaded:
		if !m.ready {
			return "Initializing..."
		}
		return m.render()
	default:
		return "Unknown state"
	}
}

// Cleanup closes the archive once the program exits
func (m *ExchangeViewModel) Cleanup() error {
	if m.streamer != nil {
		return m.streamer.Close()
	}
	return nil
}

func (m *ExchangeViewModel) tableHeight() int {
	if m.splitVisible {
		return (m.height - tableVerticalPadding) / 2
	}
	return m.height - tableVerticalPadding
}

func (m *ExchangeViewModel) initializeTable() {
	m.buildTableRows()

	m.table = table.New(
		table.WithColumns(m.columns),
		table.WithRows(m.rows),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
		table.WithWidth(m.width),
	)
	m.table = ApplyTableStyles(m.table)
	m.adjustColumnWidths()
}

func (m *ExchangeViewModel) updateTableDimensions() {
	m.table.SetHeight(m.tableHeight())
	m.table.SetWidth(m.width)
	m.adjustColumnWidths()
}

func (m *ExchangeViewModel) updateViewportDimensions() {
	splitHeight := (m.height-tableVerticalPadding)/2 - splitPanelPadding
	splitWidth := m.width/2 - splitPanelPadding

	if m.requestViewport.Width() == 0 {
		m.requestViewport = viewport.New(viewport.WithWidth(splitWidth), viewport.WithHeight(splitHeight))
		m.responseViewport = viewport.New(viewport.WithWidth(splitWidth), viewport.WithHeight(splitHeight))
		return
	}
	m.requestViewport.SetWidth(splitWidth)
	m.requestViewport.SetHeight(splitHeight)
	m.responseViewport.SetWidth(splitWidth)
	m.responseViewport.SetHeight(splitHeight)
}

func (m *ExchangeViewModel) toggleSplitView() {
	m.splitVisible = !m.splitVisible
	if m.splitVisible {
		m.viewMode = ViewModeTableWithSplit
		m.focusedViewport = ViewportFocusRequest
		m.updateTableDimensions()
		m.updateViewportDimensions()
		return
	}
	m.viewMode = ViewModeTable
	m.updateTableDimensions()
}

func (m *ExchangeViewModel) loadSelectedEntry() error {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.visible) {
		return nil
	}

	position := m.visible[m.selectedIndex]
	entry, err := m.streamer.GetEntry(context.Background(), position)
	if err != nil {
		return err
	}

	m.selectedEntry = entry
	m.selectedMeta = m.allEntries[position]
	m.updateViewportContent()
	return nil
}

func (m *ExchangeViewModel) adjustColumnWidths() {
	urlWidth := m.width - methodColumnWidth - statusColumnWidth - durationColumnWidth - borderPadding
	urlWidth = max(urlWidth, minURLColumnWidth)

	m.columns[0].Width = methodColumnWidth
	m.columns[1].Width = urlWidth
	m.columns[2].Width = statusColumnWidth
	m.columns[3].Width = durationColumnWidth

	m.table.SetColumns(m.columns)
}
