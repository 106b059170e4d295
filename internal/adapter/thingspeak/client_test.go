package thingspeak

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChannel       = "3204291"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
	testFeed          = `{"channel":{"id":3204291},"feeds":[{"created_at":"2024-01-01T12:00:00Z","entry_id":1,"field1":"45"}]}`
)

func testClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func requireFailure(t *testing.T, err error, kind domain.FailureKind) *domain.FetchFailure {
	t.Helper()
	require.Error(t, err)
	var ff *domain.FetchFailure
	require.True(t, errors.As(err, &ff), "expected *domain.FetchFailure, got %T", err)
	assert.Equal(t, kind, ff.Kind)
	return ff
}

func TestClient_FetchRawFeed_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/"+testChannel+"/feeds.json", r.URL.Path)
		assert.Equal(t, "8000", r.URL.Query().Get("results"))
		assert.Equal(t, http.MethodGet, r.Method)

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	payload, err := c.FetchRawFeed(context.Background(), testChannel, 8000)
	require.NoError(t, err)
	assert.JSONEq(t, testFeed, string(payload))

	res := domain.ProcessFeed(payload, domain.NewDate(2024, 1, 1), domain.DefaultOptions())
	assert.Equal(t, domain.ResultOK, res.Status)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.metrics.FetchFailures.WithLabelValues(string(domain.FailureStatus))))
}

func TestClient_FetchRawFeed_EscapesChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/a%2Fb/feeds.json", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"feeds":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.FetchRawFeed(context.Background(), "a/b", 10)
	require.NoError(t, err)
}

func TestClient_FetchRawFeed_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`-1`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.FetchRawFeed(context.Background(), testChannel, 10)

	ff := requireFailure(t, err, domain.FailureStatus)
	assert.Equal(t, http.StatusNotFound, ff.StatusCode)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FetchFailures.WithLabelValues("status")))
}

func TestClient_FetchRawFeed_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"feeds":[{"created_at":`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.FetchRawFeed(context.Background(), testChannel, 10)

	requireFailure(t, err, domain.FailureDecode)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FetchFailures.WithLabelValues("decode")))
}

func TestClient_FetchRawFeed_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 50*time.Millisecond)
	_, err := c.FetchRawFeed(context.Background(), testChannel, 10)

	requireFailure(t, err, domain.FailureTimeout)
}

func TestClient_FetchRawFeed_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.FetchRawFeed(ctx, testChannel, 10)

	requireFailure(t, err, domain.FailureTimeout)
}

func TestClient_FetchRawFeed_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := testClient(url, 5*time.Second)
	_, err := c.FetchRawFeed(context.Background(), testChannel, 10)

	requireFailure(t, err, domain.FailureTransport)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FetchFailures.WithLabelValues("transport")))
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := NewClient("https://api.thingspeak.com/", time.Second, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, "https://api.thingspeak.com", c.baseURL)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}
