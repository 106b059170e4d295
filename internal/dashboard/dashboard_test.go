package dashboard

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeed = `{"feeds":[
	{"created_at":"2024-01-05T14:10:00Z","field1":"58.5","field2":"90"},
	{"created_at":"2024-01-06T14:10:00Z","field1":"27.5","field2":"85"}
]}`

func outcome(payload string, cutoff domain.Date) pipeline.Outcome {
	return pipeline.Outcome{
		RefreshID: "r-1",
		ChannelID: "3204291",
		Cutoff:    cutoff,
		Result:    domain.ProcessFeed(domain.RawPayload(payload), cutoff, domain.DefaultOptions()),
	}
}

func TestBuildView_OK(t *testing.T) {
	v := BuildView(outcome(testFeed, domain.NewDate(2024, 1, 5)), map[int]string{2: "Bed B"})

	assert.Equal(t, "ok", v.State)
	assert.True(t, v.HasData())
	assert.Empty(t, v.Notices)
	require.Len(t, v.Readings, 2)

	assert.Equal(t, "field1", v.Readings[0].Label)
	assert.Equal(t, 27.5, v.Readings[0].Value)
	assert.Equal(t, domain.StatusDry, v.Readings[0].Status)
	assert.Equal(t, Notice{Level: LevelError, Text: MsgDry}, v.Readings[0].Notice)

	assert.Equal(t, "Bed B", v.Readings[1].Label)
	assert.Equal(t, Notice{Level: LevelInfo, Text: MsgSaturated}, v.Readings[1].Notice)

	require.Len(t, v.Series, 2)
	assert.Len(t, v.Series[0].Points, 2)
	assert.Equal(t, "Showing data since 05/01/2024", v.Caption)
	assert.Equal(t, "Last reading: 06/01/2024 11:10", v.LastReading)
	assert.Equal(t, 2, v.Retained)
}

func TestBuildView_Unavailable(t *testing.T) {
	out := pipeline.Outcome{
		ChannelID: "3204291",
		Cutoff:    domain.NewDate(2024, 1, 1),
		Failure:   &domain.FetchFailure{Kind: domain.FailureTimeout, Err: context.DeadlineExceeded},
	}
	v := BuildView(out, nil)

	assert.Equal(t, "unavailable", v.State)
	assert.False(t, v.HasData())
	assert.Equal(t, []Notice{{Level: LevelInfo, Text: MsgAwaiting}}, v.Notices)
	assert.Empty(t, v.Readings)
}

func TestBuildView_Empty(t *testing.T) {
	v := BuildView(outcome(`{"feeds":[]}`, domain.NewDate(2024, 1, 1)), nil)

	assert.Equal(t, "empty", v.State)
	assert.Equal(t, []Notice{{Level: LevelInfo, Text: MsgAwaiting}}, v.Notices)
}

func TestBuildView_NoMatch(t *testing.T) {
	v := BuildView(outcome(testFeed, domain.NewDate(2024, 2, 1)), nil)

	assert.Equal(t, "no_match", v.State)
	require.Len(t, v.Notices, 2)
	assert.Equal(t, Notice{Level: LevelWarning, Text: "No data found since 01/02/2024."}, v.Notices[0])
	assert.Equal(t, MsgNoDataHint, v.Notices[1].Text)
	assert.Empty(t, v.Series)
}

func TestStatusNotice(t *testing.T) {
	assert.Equal(t, MsgDry, StatusNotice(domain.StatusDry).Text)
	assert.Equal(t, MsgIdeal, StatusNotice(domain.StatusIdeal).Text)
	assert.Equal(t, LevelSuccess, StatusNotice(domain.StatusIdeal).Level)
	assert.Equal(t, MsgSaturated, StatusNotice(domain.StatusSaturated).Text)
}

func TestRender_OK(t *testing.T) {
	v := BuildView(outcome(testFeed, domain.NewDate(2024, 1, 5)), map[int]string{1: "<Bed A>"})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, v))
	html := buf.String()

	assert.Contains(t, html, MsgDry)
	assert.Contains(t, html, "&lt;Bed A&gt;")
	assert.Contains(t, html, `value="2024-01-05"`)
	assert.Contains(t, html, "/api/export.csv?since=2024-01-05")
	assert.Equal(t, 2, strings.Count(html, "<polyline"))
	assert.Contains(t, html, "Last reading: 06/01/2024 11:10")
}

func TestRender_NoMatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, BuildView(outcome(testFeed, domain.NewDate(2024, 2, 1)), nil)))

	assert.Contains(t, buf.String(), "No data found since 01/02/2024.")
	assert.NotContains(t, buf.String(), "<svg")
}

func TestBuildChart(t *testing.T) {
	t0 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	c := buildChart([]ChartSeries{{
		Channel: 1,
		Points: []domain.Point{
			{Time: t0, Value: 0},
			{Time: t0.Add(time.Hour), Value: 100},
		},
	}})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, "32.0,208.0 608.0,32.0", c.Lines[0].Points)
	assert.Equal(t, 0.0, c.YMin)
	assert.Equal(t, 100.0, c.YMax)
}

func TestBuildChart_SinglePointAndOutOfRange(t *testing.T) {
	t0 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	c := buildChart([]ChartSeries{{Channel: 1, Points: []domain.Point{{Time: t0, Value: 120}}}})

	require.Len(t, c.Lines, 1)
	assert.Equal(t, "320.0,32.0", c.Lines[0].Points)
	assert.Equal(t, 120.0, c.YMax)
}

func TestBuildChart_NoSeries(t *testing.T) {
	c := buildChart(nil)
	assert.Empty(t, c.Lines)
}
