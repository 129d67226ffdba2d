package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pb33f/mataki/archive"
	"github.com/pb33f/mataki/config"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	Logger     *slog.Logger
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "mataki",
		Short: "Record HTTP exchanges flowing through a Go http.Client",
		Long: `mataki sits in an http.Client transport chain and records every request and
response passing through it: headers, decoded text bodies, url-encoded and
multipart forms, uploaded files and images, and transport faults. Exchanges go
to a console or file transcript, a HAR archive, redis, or prometheus metrics.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger()
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a mataki.yaml config file")

	// reconfigured in PersistentPreRunE once flags are parsed
	setupLogger()
}

// setupLogger configures the global slog logger based on the verbose flag
func setupLogger() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts = &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}
	}

	Logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(Logger)

	if verbose {
		Logger.Debug("verbose logging enabled",
			"level", slog.LevelDebug.String(),
			"pid", os.Getpid())
	}
}

// GetLogger returns the global logger instance
func GetLogger() *slog.Logger {
	if Logger == nil {
		setupLogger()
	}
	return Logger
}

// currentConfig returns the loaded config, or defaults when a command runs without the root pre-run
func currentConfig() *config.Config {
	if cfg == nil {
		loaded, err := config.Load("")
		if err != nil {
			return &config.Config{}
		}
		cfg = loaded
	}
	return cfg
}

// ValidateHARFile checks that the path exists and is not a directory
func ValidateHARFile(harFile string) error {
	if harFile == "" {
		return fmt.Errorf("HAR file path is required")
	}

	info, err := os.Stat(harFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("HAR file does not exist: %s", harFile)
		}
		return fmt.Errorf("error accessing HAR file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("provided path is a directory, not a file: %s", harFile)
	}
	return nil
}

// InitializeStreamer opens and indexes a HAR file, logging what it found
func InitializeStreamer(ctx context.Context, harFile string, logger *slog.Logger) (archive.Streamer, error) {
	logger.Debug("building HAR file index...")
	streamer, err := archive.Open(ctx, harFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open HAR archive: %w", err)
	}

	index := streamer.GetIndex()
	logger.Info("HAR file loaded",
		"entries", index.TotalEntries,
		"faults", index.TotalFaults,
		"body_failures", index.TotalBodyFailures,
		"file_size_kb", index.FileSize/1024,
		"unique_urls", index.UniqueURLs,
		"build_time", index.BuildTime,
		"time_range", fmt.Sprintf("%s to %s",
			index.TimeRange.Start.Format("2006-01-02 15:04:05"),
			index.TimeRange.End.Format("2006-01-02 15:04:05")))

	if index.Creator != nil {
		logger.Debug("HAR creator", "name", index.Creator.Name, "version", index.Creator.Version)
	}
	return streamer, nil
}
