package tui

const (
	tableVerticalPadding = 4
	splitPanelPadding    = 2
	minURLColumnWidth    = 20
	maxURLColumnWidth    = 100
	borderPadding        = 6

	methodColumnWidth   = 8
	statusColumnWidth   = 10
	durationColumnWidth = 10

	maxBodyDisplayLength = 5000
	maxURLDisplayLength  = 50

	// faultStatus is shown in the status column for exchanges that never got a response
	faultStatus = "FAULT"
)
