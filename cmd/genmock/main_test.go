package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	f := generate(genOptions{
		start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		interval: time.Hour,
		count:    100,
		channels: 2,
	}, 42)

	require.Len(t, f.Feeds, 100)
	assert.Equal(t, 42, f.Channel.ID)
	assert.Equal(t, "2024-01-01T00:00:00Z", f.Feeds[0]["created_at"])
	assert.Equal(t, "72", f.Feeds[0]["field1"])
	assert.Equal(t, "74", f.Feeds[0]["field2"])
	assert.Equal(t, "71.25", f.Feeds[1]["field1"])

	data, err := json.Marshal(f)
	require.NoError(t, err)

	res := domain.ProcessFeed(data, domain.NewDate(2024, 1, 1), domain.DefaultOptions())
	assert.Equal(t, domain.ResultOK, res.Status)
	assert.Equal(t, []int{1, 2}, res.ActiveChannels)
	assert.Empty(t, res.Malformed)

	seen := map[domain.StatusClass]bool{}
	for _, e := range f.Feeds {
		v, err := json.Number(e["field1"].(string)).Float64()
		require.NoError(t, err)
		seen[domain.Classify(v, domain.Thresholds{DryBelow: 30, SaturatedAbove: 80})] = true
	}
	assert.Len(t, seen, 3, "sawtooth should cover every status band")
}

func TestGenerate_Malformed(t *testing.T) {
	f := generate(genOptions{
		start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		interval:       time.Hour,
		count:          10,
		channels:       1,
		malformedEvery: 5,
	}, 1)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.NoError(t, check(data, 1))

	res := domain.ProcessFeed(data, domain.Date{}, domain.DefaultOptions())
	require.Len(t, res.Malformed, 2)
	assert.Equal(t, 4, res.Malformed[0].Index)
	assert.Equal(t, 9, res.Malformed[1].Index)
}

func TestNewRouter(t *testing.T) {
	h := newRouter([]byte(`{"feeds":[]}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels/3204291/feeds.json?results=8000", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"feeds":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/channels/1/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
