package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeSnapshot(t *testing.T) {
	processed := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(processed))
	t.Cleanup(func() { SetClock(nil) })

	res := ProcessFeed(RawPayload(testFeedOne), NewDate(2024, 1, 1), DefaultOptions())
	require.Equal(t, ResultOK, res.Status)

	ev := NewSnapshotEvent("3204291", "refresh-1", res)
	assert.Equal(t, map[string]float64{"field1": 45}, ev.Values)
	assert.Equal(t, map[string]StatusClass{"field1": StatusIdeal}, ev.Statuses)
	assert.Equal(t, processed, ev.ProcessedAt)
	assert.Equal(t, 1, ev.Retained)

	out, err := SerializeSnapshot(ev)
	require.NoError(t, err)
	assert.Equal(t, []byte("3204291"), out.Key)
	assert.Equal(t, "refresh-1", out.Headers["refresh_id"])
	assert.Equal(t, "2024-01-01T15:00:00Z", out.Headers["processed_at"])

	var roundtrip SnapshotEvent
	require.NoError(t, json.Unmarshal(out.Value, &roundtrip))
	assert.Equal(t, ev.Values, roundtrip.Values)
	assert.Equal(t, ev.Statuses, roundtrip.Statuses)
	assert.Equal(t, NewDate(2024, 1, 1), roundtrip.Cutoff)
	assert.True(t, ev.TakenAt.Equal(roundtrip.TakenAt))
	assert.Contains(t, string(out.Value), `"cutoff":"2024-01-01"`)
}

func TestAsFetchFailure(t *testing.T) {
	assert.Nil(t, AsFetchFailure(nil))

	ff := &FetchFailure{Kind: FailureTimeout, Err: assert.AnError}
	assert.Same(t, ff, AsFetchFailure(ff))

	wrapped := AsFetchFailure(assert.AnError)
	assert.Equal(t, FailureTransport, wrapped.Kind)
	assert.ErrorIs(t, wrapped, assert.AnError)

	status := &FetchFailure{Kind: FailureStatus, StatusCode: 502, Err: assert.AnError}
	assert.Contains(t, status.Error(), "status 502")
}

func TestChannelLabel(t *testing.T) {
	labels := map[int]string{1: "Bed A", 2: ""}
	assert.Equal(t, "Bed A", ChannelLabel(labels, 1))
	assert.Equal(t, "field2", ChannelLabel(labels, 2))
	assert.Equal(t, "field3", ChannelLabel(nil, 3))
}
