package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/pb33f/mataki/tui"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:   "view <har-file>",
	Short: "Browse a recorded HAR file in the terminal",
	Long: `Open a HAR file written by mataki (or any other tool) in an interactive
terminal viewer. Faulted exchanges are flagged, 'f' narrows the list to faults
and error statuses, Enter opens the request and response side by side.`,
	Args: cobra.ExactArgs(1),
	Example: `  mataki view demo.har
  mataki view demo.har -v`,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	harFile := args[0]
	if err := ValidateHARFile(harFile); err != nil {
		return err
	}

	GetLogger().Debug("launching terminal UI", "har_file", harFile)
	return LaunchTUI(harFile)
}

// LaunchTUI runs the viewer until the user quits, then releases the archive
func LaunchTUI(harFile string) error {
	model := tui.NewExchangeViewModel(harFile)

	finalModel, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if m, ok := finalModel.(*tui.ExchangeViewModel); ok {
		if err := m.Cleanup(); err != nil {
			return fmt.Errorf("cleanup error: %w", err)
		}
	}
	return nil
}
