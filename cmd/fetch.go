package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pb33f/mataki/capture"
	"github.com/spf13/cobra"
)

var (
	fetchSinks   sinkFlags
	fetchMethod  string
	fetchData    string
	fetchHeaders []string
	fetchOutput  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Perform one request through the recorder",
	Long: `Send a single HTTP request through a recording client. The response body is
written to stdout (or --output), the transcript goes to stderr unless --log-file
or --quiet is given.`,
	Example: `  mataki fetch https://example.com
  mataki fetch -X POST -H 'Content-Type: application/json' -d '{"a":1}' http://localhost:8080/items
  mataki fetch --har one.har https://example.com/logo.png -o logo.png`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchSinks.register(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchMethod, "request", "X", "", "HTTP method (GET, or POST when --data is set)")
	fetchCmd.Flags().StringVarP(&fetchData, "data", "d", "", "Request body, @file reads it from a file")
	fetchCmd.Flags().StringArrayVarP(&fetchHeaders, "header", "H", nil, "Request header as 'Name: value', repeatable")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Write the response body to a file")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger := GetLogger()
	c := currentConfig()
	flags := fetchSinks.resolve(cmd, c)

	p, err := buildPipeline(cmd.Context(), flags, c, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("error closing sinks", "error", err)
		}
	}()

	req, err := buildFetchRequest(cmd, args[0])
	if err != nil {
		return err
	}

	client, err := capture.NewClient(p.sink, p.recorderOptions(c))
	if err != nil {
		return err
	}
	client.Timeout = c.Capture.Timeout

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	out := cmd.OutOrStdout()
	if fetchOutput != "" {
		file, err := os.Create(fetchOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write response body: %w", err)
	}
	logger.Debug("fetch complete", "status", resp.StatusCode, "bytes", resp.ContentLength)
	return nil
}

func buildFetchRequest(cmd *cobra.Command, target string) (*http.Request, error) {
	var body io.Reader
	data := fetchData
	if name, ok := strings.CutPrefix(data, "@"); ok {
		content, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		data = string(content)
	}
	if data != "" {
		body = strings.NewReader(data)
	}

	method := strings.ToUpper(fetchMethod)
	if method == "" {
		method = http.MethodGet
		if data != "" {
			method = http.MethodPost
		}
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, target, body)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	for _, h := range fetchHeaders {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if data != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}
