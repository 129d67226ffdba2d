package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pb33f/mataki/capture"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okExchange(method string, status int) *capture.Exchange {
	return &capture.Exchange{
		Method:   method,
		URL:      "http://localhost/items",
		Duration: 25 * time.Millisecond,
		Request:  capture.RequestRecord{Body: capture.EmptyBody{}},
		Response: &capture.ResponseRecord{
			StatusCode:    status,
			Body:          capture.TextBody{Text: "hello", MediaType: "text/plain"},
			ContentLength: 5,
		},
	}
}

func TestSink_CountsExchanges(t *testing.T) {
	store := capture.NewMemoryStore()
	sink := NewSink(store, Options{})

	ctx := context.Background()
	require.NoError(t, sink.Record(ctx, okExchange(http.MethodGet, 200)))
	require.NoError(t, sink.Record(ctx, okExchange(http.MethodGet, 204)))
	require.NoError(t, sink.Record(ctx, okExchange(http.MethodPost, 404)))
	require.NoError(t, sink.Record(ctx, &capture.Exchange{
		Method:   http.MethodGet,
		Duration: time.Millisecond,
		Request:  capture.RequestRecord{Body: capture.EmptyBody{}},
		Fault:    errors.New("connection refused"),
	}))

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.exchangesTotal.WithLabelValues("GET", "2xx", "response")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.exchangesTotal.WithLabelValues("POST", "4xx", "response")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.exchangesTotal.WithLabelValues("GET", "fault", "fault")))
	assert.Equal(t, 4, store.Len())
	assert.Zero(t, testutil.ToFloat64(sink.sinkErrors))
}

func TestSink_BodyFailures(t *testing.T) {
	sink := NewSink(nil, Options{})

	exchange := okExchange(http.MethodPost, 200)
	exchange.Request = capture.RequestRecord{
		Body:          capture.FailedBody{Class: capture.MediaMultipart, Message: "no boundary"},
		ContentLength: 12,
	}
	require.NoError(t, sink.Record(context.Background(), exchange))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.bodyFailures.WithLabelValues("request", "multipart")))
	assert.Equal(t, 2, testutil.CollectAndCount(sink.bodyBytes))
}

func TestSink_ForwardsErrors(t *testing.T) {
	boom := errors.New("boom")
	sink := NewSink(capture.SinkFunc(func(context.Context, *capture.Exchange) error {
		return boom
	}), Options{Namespace: "test"})

	err := sink.Record(context.Background(), okExchange(http.MethodGet, 200))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.sinkErrors))
}

func TestSink_Handler(t *testing.T) {
	sink := NewSink(nil, Options{})
	require.NoError(t, sink.Record(context.Background(), okExchange(http.MethodGet, 200)))

	rec := httptest.NewRecorder()
	sink.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mataki_exchanges_total"))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "5xx", StatusClass(503))
	assert.Equal(t, "other", StatusClass(0))
	assert.Equal(t, "other", StatusClass(600))
}
