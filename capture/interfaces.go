// Package capture intercepts HTTP exchanges inside an http.Client's transport chain.
// it classifies and materializes request and response bodies exactly once, restores them
// for the next consumer, and hands one finished Exchange per call to a sink.
package capture

import (
	"context"
	"net/http"
)

// ExchangeSink receives finished exchanges, one call per RoundTrip.
// implementations must be safe for concurrent use and must not mutate the exchange.
type ExchangeSink interface {
	// Record stores or forwards a finalized exchange
	Record(ctx context.Context, exchange *Exchange) error
}

// LineWriter receives a transcript one logical line at a time
type LineWriter interface {
	// WriteLine emits a single line, without a trailing newline
	WriteLine(line string)
}

// StageSupplier builds a pipeline stage around the next round tripper
type StageSupplier func(next http.RoundTripper) http.RoundTripper

// SinkFunc adapts a function to an ExchangeSink
type SinkFunc func(ctx context.Context, exchange *Exchange) error

func (f SinkFunc) Record(ctx context.Context, exchange *Exchange) error {
	return f(ctx, exchange)
}
