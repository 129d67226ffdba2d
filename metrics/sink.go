// Package metrics exports prometheus counters and histograms for captured exchanges.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pb33f/mataki/capture"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "mataki"

// Options configures a metrics Sink
type Options struct {
	// Namespace prefixes metric names, DefaultNamespace when empty
	Namespace string

	// Registry receives the collectors, a fresh registry when nil
	Registry *prometheus.Registry

	// DurationBuckets overrides the exchange duration histogram buckets
	DurationBuckets []float64
}

// Sink records exchange metrics and forwards each exchange to the next sink.
//
// Metrics:
//   - mataki_exchanges_total: exchanges by method, status class and outcome
//   - mataki_exchange_duration_seconds: round trip duration by method and outcome
//   - mataki_body_bytes: captured body sizes by direction
//   - mataki_body_failures_total: bodies that could not be processed, by direction and class
//   - mataki_sink_errors_total: errors returned by the next sink
type Sink struct {
	next     capture.ExchangeSink
	registry *prometheus.Registry

	exchangesTotal   *prometheus.CounterVec
	exchangeDuration *prometheus.HistogramVec
	bodyBytes        *prometheus.HistogramVec
	bodyFailures     *prometheus.CounterVec
	sinkErrors       prometheus.Counter
}

// NewSink registers the collectors and returns a sink forwarding to next.
// next may be nil when only metrics are wanted.
func NewSink(next capture.ExchangeSink, opts Options) *Sink {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if len(opts.DurationBuckets) == 0 {
		opts.DurationBuckets = prometheus.DefBuckets
	}

	s := &Sink{
		next:     next,
		registry: opts.Registry,

		exchangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "exchanges_total",
				Help:      "Total number of captured HTTP exchanges",
			},
			[]string{"method", "status_class", "outcome"},
		),

		exchangeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Name:      "exchange_duration_seconds",
				Help:      "Duration of captured round trips in seconds",
				Buckets:   opts.DurationBuckets,
			},
			[]string{"method", "outcome"},
		),

		bodyBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Name:      "body_bytes",
				Help:      "Size of captured bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 10), // 64B to 16MB
			},
			[]string{"direction"},
		),

		bodyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "body_failures_total",
				Help:      "Bodies whose content could not be processed",
			},
			[]string{"direction", "class"},
		),

		sinkErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Name:      "sink_errors_total",
				Help:      "Errors returned by the downstream exchange sink",
			},
		),
	}

	opts.Registry.MustRegister(
		s.exchangesTotal,
		s.exchangeDuration,
		s.bodyBytes,
		s.bodyFailures,
		s.sinkErrors,
	)
	return s
}

// Record observes exchange and then hands it to the next sink
func (s *Sink) Record(ctx context.Context, exchange *capture.Exchange) error {
	outcome := exchange.Outcome()
	status := "fault"
	if exchange.Response != nil {
		status = StatusClass(exchange.Response.StatusCode)
	}

	s.exchangesTotal.WithLabelValues(exchange.Method, status, outcome).Inc()
	s.exchangeDuration.WithLabelValues(exchange.Method, outcome).Observe(exchange.Duration.Seconds())

	s.observeBody(capture.DirectionRequest, exchange.Request.Body, exchange.Request.ContentLength)
	if exchange.Response != nil {
		s.observeBody(capture.DirectionResponse, exchange.Response.Body, exchange.Response.ContentLength)
	}

	if s.next == nil {
		return nil
	}
	if err := s.next.Record(ctx, exchange); err != nil {
		s.sinkErrors.Inc()
		return err
	}
	return nil
}

func (s *Sink) observeBody(direction capture.Direction, body capture.Body, length int64) {
	if body == nil {
		return
	}
	if failed, ok := body.(capture.FailedBody); ok {
		s.bodyFailures.WithLabelValues(direction.String(), failed.Class.String()).Inc()
	}
	if length > 0 {
		s.bodyBytes.WithLabelValues(direction.String()).Observe(float64(length))
	}
}

// Registry returns the registry holding the sink's collectors
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the prometheus exposition format
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// StatusClass buckets a status code as "2xx", "4xx" and so on
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}
