package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `{"feeds":[
	{"created_at":"2024-01-05T14:10:00Z","field1":"58.5"},
	{"created_at":"2024-01-06T14:10:00Z","field1":"27.5"}
]}`

func feedServer(t *testing.T, status int, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("THINGSPEAK_BASE_URL", srv.URL)
	t.Setenv("THINGSPEAK_TIMEOUT", "2s")
}

func runExport(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr, observability.NewMetricsForTesting())
	return stdout.String(), err
}

func TestRun_CSVToStdout(t *testing.T) {
	feedServer(t, http.StatusOK, testFeed)

	out, err := runExport(t, "-since", "06/01/2024")
	require.NoError(t, err)
	assert.Equal(t, "created_at,field1\n2024-01-06 11:10:00,27.5\n", out)
}

func TestRun_WritesFile(t *testing.T) {
	feedServer(t, http.StatusOK, testFeed)
	path := filepath.Join(t.TempDir(), "report.pdf")

	_, err := runExport(t, "-since", "2024-01-01", "-format", "pdf", "-out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRun_NoMatch(t *testing.T) {
	feedServer(t, http.StatusOK, testFeed)

	_, err := runExport(t, "-since", "2024-02-01")
	require.ErrorIs(t, err, errNoData)
	assert.Contains(t, err.Error(), "No data found since 01/02/2024.")
}

func TestRun_FetchFailure(t *testing.T) {
	feedServer(t, http.StatusBadGateway, "")

	_, err := runExport(t, "-since", "2024-01-01")
	var ff *domain.FetchFailure
	require.True(t, errors.As(err, &ff))
	assert.Equal(t, domain.FailureStatus, ff.Kind)
}

func TestRun_BadFlags(t *testing.T) {
	_, err := runExport(t, "-format", "docx")
	assert.Error(t, err)

	feedServer(t, http.StatusOK, testFeed)
	_, err = runExport(t, "-since", "tomorrow")
	assert.Error(t, err)
}
