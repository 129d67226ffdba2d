package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pb33f/mataki/capture"
	"github.com/pb33f/mataki/scenario"
	"github.com/spf13/cobra"
)

var (
	demoSinks     sinkFlags
	demoGenerated int
	demoSeed      int64
	demoDictPath  string
	demoHold      bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Send demonstration traffic through a recording client",
	Long: `Start a local echo server and send it one request of each kind mataki
understands: text, json, xml, a legacy charset, a url-encoded form, a multipart
upload, an image, 404 and 500 responses, a response without a content type and a
request that faults. Every exchange is printed as a transcript and can also be
written to a HAR file, redis or prometheus metrics.`,
	Example: `  mataki demo
  mataki demo --har demo.har --log-file demo.log
  mataki demo --generated 50 --metrics-addr :9090 --hold`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func init() {
	demoSinks.register(demoCmd)
	demoCmd.Flags().IntVarP(&demoGenerated, "generated", "n", 0, "Also send this many random json documents")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 0, "Random seed for generated documents (0 = time based)")
	demoCmd.Flags().StringVar(&demoDictPath, "dict", scenario.DefaultDictionaryPath, "Word list for generated documents")
	demoCmd.Flags().BoolVar(&demoHold, "hold", false, "Keep serving metrics until interrupted")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	logger := GetLogger()
	c := currentConfig()
	flags := demoSinks.resolve(cmd, c)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, flags, c, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("error closing sinks", "error", err)
		}
	}()

	scenarios := scenario.Catalog()
	if demoGenerated > 0 {
		generated, err := scenario.Generated(demoGenerated, demoSeed, demoDictPath)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, generated...)
	}

	env := scenario.StartEnvironment()
	defer env.Close()

	// every client built through capture.Client records while the stage is installed
	stage, err := capture.Stage(p.sink, p.recorderOptions(c))
	if err != nil {
		return err
	}
	capture.Install(stage)
	defer capture.Uninstall()

	runner := &scenario.Runner{
		Client: capture.Client(nil),
		Target: scenario.Target{BaseURL: env.URL(), FaultURL: env.FaultURL},
		Logger: logger,
	}
	if c.Capture.Timeout > 0 {
		runner.Client.Timeout = c.Capture.Timeout
	}

	results := runner.Run(ctx, scenarios)
	printResults(cmd.ErrOrStderr(), results)

	if flags.harFile != "" {
		logger.Info("HAR archive written", "path", flags.harFile, "entries", p.archive.Len())
	}

	if demoHold && p.server != nil {
		logger.Info("holding metrics endpoint open, press ctrl+c to exit")
		<-ctx.Done()
	}
	return nil
}

func printResults(w io.Writer, results []scenario.Result) {
	fmt.Fprintf(w, "\n%-16s %-8s %-10s %s\n", "SCENARIO", "STATUS", "DURATION", "BYTES")
	for _, r := range results {
		status := fmt.Sprintf("%d", r.StatusCode)
		if r.Err != nil {
			status = "fault"
		}
		fmt.Fprintf(w, "%-16s %-8s %-10s %d\n", r.Name, status, r.Duration.Round(time.Microsecond), len(r.Body))
	}
}
