package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/pb33f/mataki/archive"
	"github.com/spf13/cobra"
)

var summarySlowest int

var summaryCmd = &cobra.Command{
	Use:   "summary <har-file>",
	Short: "Print counts and the slowest exchanges of a HAR file",
	Args:  cobra.ExactArgs(1),
	Example: `  mataki summary demo.har
  mataki summary demo.har --slowest 10`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summarySlowest, "slowest", 5, "Number of slowest exchanges to list")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	harFile := args[0]
	if err := ValidateHARFile(harFile); err != nil {
		return err
	}

	streamer, err := InitializeStreamer(cmd.Context(), harFile, GetLogger())
	if err != nil {
		return err
	}
	defer streamer.Close()

	index := streamer.GetIndex()
	writeSummary(cmd.OutOrStdout(), harFile, index, archive.Summarize(index, summarySlowest))
	return nil
}

func writeSummary(w io.Writer, harFile string, index *archive.Index, s *archive.Summary) {
	fmt.Fprintln(w, "=== HAR File Summary ===")
	fmt.Fprintf(w, "File:          %s\n", harFile)
	fmt.Fprintf(w, "Exchanges:     %d\n", s.TotalEntries)
	fmt.Fprintf(w, "Faults:        %d\n", s.Faults)
	fmt.Fprintf(w, "Body Failures: %d\n", s.BodyFailures)
	fmt.Fprintf(w, "Unique URLs:   %d\n", index.UniqueURLs)
	fmt.Fprintf(w, "File Size:     %.2f KB\n", float64(index.FileSize)/1024)
	fmt.Fprintf(w, "Body Bytes:    %d sent, %d received\n", index.TotalRequestBytes, index.TotalResponseBytes)
	fmt.Fprintf(w, "Avg Duration:  %.1fms\n", s.AverageDuration)
	if s.TotalEntries > 0 {
		fmt.Fprintf(w, "Time Range:    %s to %s\n",
			index.TimeRange.Start.Format(time.DateTime),
			index.TimeRange.End.Format(time.DateTime))
	}
	if index.Creator != nil {
		fmt.Fprintf(w, "Creator:       %s %s\n", index.Creator.Name, index.Creator.Version)
	}

	writeCounts(w, "By status", s.ByStatusClass)
	writeCounts(w, "By method", s.ByMethod)
	writeCounts(w, "By host", s.ByHost)
	writeCounts(w, "By media type", s.ByMimeType)

	if len(s.Slowest) > 0 {
		fmt.Fprintln(w, "\nSlowest:")
		for _, meta := range s.Slowest {
			status := fmt.Sprintf("%d", meta.StatusCode)
			if meta.Faulted {
				status = "fault"
			}
			fmt.Fprintf(w, "  %8.1fms  %-6s %-5s %s\n", meta.Duration, meta.Method, status, meta.URL)
		}
	}
}

func writeCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, key := range archive.SortedKeys(counts) {
		fmt.Fprintf(w, "  %-28s %d\n", key, counts[key])
	}
}
