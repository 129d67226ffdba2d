package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Options configures a Recorder
type Options struct {
	// Base is the next round tripper in the chain, http.DefaultTransport when nil
	Base http.RoundTripper

	// Logger receives diagnostics, slog.Default() when nil
	Logger *slog.Logger

	// ScratchRoot is the directory holding extracted uploads and images, os.TempDir() when empty
	ScratchRoot string

	// Now is the clock used for timestamps and durations
	Now func() time.Time
}

// DefaultOptions returns sensible default options
func DefaultOptions() Options {
	return Options{
		Base:   http.DefaultTransport,
		Logger: slog.Default(),
		Now:    time.Now,
	}
}

// Recorder is an http.RoundTripper that captures every exchange passing through it
// and hands it to a sink exactly once, whether the call succeeds or faults.
// the layer is additive: the caller sees the same response or the same error it
// would have seen without it.
type Recorder struct {
	base         http.RoundTripper
	sink         ExchangeSink
	materializer *Materializer
	logger       *slog.Logger
	now          func() time.Time
}

// NewRecorder creates a recorder handing exchanges to sink
func NewRecorder(sink ExchangeSink, opts Options) (*Recorder, error) {
	if sink == nil {
		return nil, fmt.Errorf("failed to create recorder: %w", ErrNilSink)
	}
	return newRecorder(sink, opts), nil
}

// newRecorder fills option defaults for an already validated sink
func newRecorder(sink ExchangeSink, opts Options) *Recorder {
	defaults := DefaultOptions()
	if opts.Base == nil {
		opts.Base = defaults.Base
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	return &Recorder{
		base:         opts.Base,
		sink:         sink,
		materializer: NewMaterializer(NewScratch(opts.ScratchRoot), opts.Logger),
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

// Base returns the round tripper the recorder delegates to
func (r *Recorder) Base() http.RoundTripper {
	return r.base
}

func (r *Recorder) recording() {}

// RoundTrip implements http.RoundTripper
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	started := r.now()

	exchange := &Exchange{
		ID:        uuid.NewString(),
		Method:    req.Method,
		URL:       req.URL.String(),
		Proto:     req.Proto,
		StartedAt: started,
		Phase:     PhaseStarted,
	}
	exchange.Request.Headers = NewHeaders(req.Header)
	exchange.Request.ContentLength = req.ContentLength

	outgoing, err := r.captureRequest(ctx, req, exchange)
	if err != nil {
		return nil, r.fail(ctx, exchange, err)
	}
	exchange.Phase = PhaseRequestCaptured

	exchange.Phase = PhaseSent
	resp, err := r.base.RoundTrip(outgoing)
	if err != nil {
		return nil, r.fail(ctx, exchange, err)
	}
	exchange.Duration = r.now().Sub(started)

	if err = r.captureResponse(ctx, resp, exchange); err != nil {
		return nil, r.fail(ctx, exchange, err)
	}
	exchange.Phase = PhaseResponseCaptured

	r.logger.DebugContext(ctx, "exchange captured",
		"id", exchange.ID,
		"method", exchange.Method,
		"url", exchange.URL,
		"status", resp.StatusCode,
		"duration", exchange.Duration)

	r.emit(ctx, exchange)
	return resp, nil
}

// captureRequest materializes the request body onto a clone of req, so the caller's
// request is never mutated and the next stage reads the captured bytes.
func (r *Recorder) captureRequest(ctx context.Context, req *http.Request, exchange *Exchange) (*http.Request, error) {
	body, replay, err := r.materializer.Materialize(ctx, DirectionRequest, req.Header, req.Body)
	if err != nil {
		return nil, err
	}
	exchange.Request.Body = body
	if replay == nil {
		return req, nil
	}

	outgoing := req.Clone(ctx)
	exchange.Request.ContentLength = replay.Len()
	outgoing.ContentLength = replay.Len()
	if replay.Len() == 0 {
		outgoing.Body = http.NoBody
		outgoing.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
		return outgoing, nil
	}
	outgoing.Body = replay
	outgoing.GetBody = func() (io.ReadCloser, error) { return replay.Fresh(), nil }
	return outgoing, nil
}

// captureResponse records status and headers, then materializes the body and swaps
// in the replay. a failure to read the body leaves it closed and is returned.
func (r *Recorder) captureResponse(ctx context.Context, resp *http.Response, exchange *Exchange) error {
	record := &ResponseRecord{
		StatusCode:    resp.StatusCode,
		Reason:        Reason(resp.Status, resp.StatusCode),
		Proto:         resp.Proto,
		Headers:       NewHeaders(resp.Header),
		ContentLength: resp.ContentLength,
		ReceivedAt:    r.now(),
	}
	exchange.Response = record

	body, replay, err := r.materializer.Materialize(ctx, DirectionResponse, resp.Header, resp.Body)
	if err != nil {
		exchange.Response = nil
		return err
	}
	record.Body = body
	if replay != nil {
		resp.Body = replay
		resp.ContentLength = replay.Len()
		record.ContentLength = replay.Len()
	}
	return nil
}

// fail finalizes a faulted exchange and returns the original error untouched
func (r *Recorder) fail(ctx context.Context, exchange *Exchange, err error) error {
	exchange.Duration = r.now().Sub(exchange.StartedAt)
	exchange.Response = nil
	exchange.Fault = err
	exchange.FaultMessage = err.Error()
	exchange.Phase = PhaseFaulted

	r.logger.DebugContext(ctx, "exchange faulted",
		"id", exchange.ID,
		"method", exchange.Method,
		"url", exchange.URL,
		"error", err)

	r.emit(ctx, exchange)
	return err
}

// emit hands the exchange to the sink once. sink errors and panics are logged
// and never reach the caller.
func (r *Recorder) emit(ctx context.Context, exchange *Exchange) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WarnContext(ctx, "exchange sink panicked", "id", exchange.ID, "panic", rec)
		}
	}()

	if err := r.sink.Record(context.WithoutCancel(ctx), exchange); err != nil {
		r.logger.WarnContext(ctx, "exchange sink failed", "id", exchange.ID, "error", err)
	}
}
