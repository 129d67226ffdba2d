package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pb33f/mataki/capture"
	"github.com/pb33f/mataki/capture/har"
	"github.com/pb33f/mataki/config"
	"github.com/pb33f/mataki/metrics"
	"github.com/pb33f/mataki/store"
	"github.com/spf13/cobra"
)

// sinkFlags are shared by the commands that record traffic
type sinkFlags struct {
	logFile     string
	harFile     string
	metricsAddr string
	redis       bool
	quiet       bool
}

func (f *sinkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Append the transcript to this file instead of the console")
	cmd.Flags().StringVar(&f.harFile, "har", "", "Write every exchange to this HAR file")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&f.redis, "redis", false, "Store exchanges in redis (see redis.* config)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not print the transcript")
}

// resolve merges flags over config file values, a flag wins only when set
func (f *sinkFlags) resolve(cmd *cobra.Command, c *config.Config) sinkFlags {
	out := *f
	flags := cmd.Flags()
	if !flags.Changed("log-file") && c.Capture.LogFile != "" {
		out.logFile = c.Capture.LogFile
	}
	if !flags.Changed("har") && c.Capture.HARFile != "" {
		out.harFile = c.Capture.HARFile
	}
	if !flags.Changed("metrics-addr") && c.Metrics.Addr != "" {
		out.metricsAddr = c.Metrics.Addr
	}
	if !flags.Changed("redis") {
		out.redis = c.Redis.Enabled
	}
	return out
}

// pipeline is the set of sinks one command records into
type pipeline struct {
	sink    capture.ExchangeSink
	memory  *capture.MemoryStore
	archive *har.ArchiveSink
	metrics *metrics.Sink
	server  *http.Server
	closers []func() error
	logger  *slog.Logger
}

func buildPipeline(ctx context.Context, flags sinkFlags, c *config.Config, console io.Writer, logger *slog.Logger) (*pipeline, error) {
	p := &pipeline{memory: capture.NewMemoryStore(), logger: logger}
	sinks := []capture.ExchangeSink{p.memory}

	if !flags.quiet {
		var writer capture.LineWriter = capture.NewConsoleWriter(console)
		if flags.logFile != "" {
			fw, err := capture.NewFileWriter(flags.logFile)
			if err != nil {
				return nil, err
			}
			p.closers = append(p.closers, fw.Close)
			writer = fw
		}
		transcript, err := capture.NewTranscriptSink(writer)
		if err != nil {
			return nil, p.fail(err)
		}
		sinks = append(sinks, transcript)
	}

	if flags.harFile != "" {
		p.archive = har.NewArchiveSink(flags.harFile, "mataki", Version)
		p.closers = append(p.closers, p.archive.Close)
		sinks = append(sinks, p.archive)
	}

	if flags.redis {
		redisSink, err := store.NewRedisSink(ctx, store.Options{
			Addr:       c.Redis.Address,
			Password:   c.Redis.Password,
			DB:         c.Redis.DB,
			KeyPrefix:  c.Redis.KeyPrefix,
			TTL:        c.Redis.TTL,
			MaxEntries: c.Redis.MaxEntries,
		})
		if err != nil {
			return nil, p.fail(err)
		}
		p.closers = append(p.closers, redisSink.Close)
		sinks = append(sinks, redisSink)
	}

	p.sink = capture.Tee(sinks...)

	if flags.metricsAddr != "" {
		p.metrics = metrics.NewSink(p.sink, metrics.Options{Namespace: c.Metrics.Namespace})
		p.sink = p.metrics
		if err := p.serveMetrics(flags.metricsAddr); err != nil {
			return nil, p.fail(err)
		}
	}

	return p, nil
}

func (p *pipeline) serveMetrics(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.metrics.Handler())
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("metrics server stopped", "error", err)
		}
	}()
	p.logger.Info("serving metrics", "addr", listener.Addr().String(), "path", "/metrics")
	return nil
}

// fail closes whatever was opened so far and returns err
func (p *pipeline) fail(err error) error {
	if closeErr := p.Close(); closeErr != nil {
		p.logger.Debug("error closing sinks after setup failure", "error", closeErr)
	}
	return err
}

// Close flushes the HAR archive and releases files, connections and the metrics server
func (p *pipeline) Close() error {
	var errs []error
	if p.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, p.server.Shutdown(ctx))
		cancel()
		p.server = nil
	}
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	p.closers = nil
	return errors.Join(errs...)
}

func (p *pipeline) recorderOptions(c *config.Config) capture.Options {
	opts := capture.DefaultOptions()
	opts.Logger = p.logger
	opts.ScratchRoot = c.Capture.ScratchRoot
	return opts
}
