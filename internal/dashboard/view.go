// Package dashboard turns a refresh outcome into the page model shown to
// users: notices, current readings with status messages, and chart series.
package dashboard

import (
	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/pipeline"
)

// Level is the visual severity of a notice.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
)

// User-facing messages.
const (
	MsgAwaiting    = "Awaiting connection to ThingSpeak..."
	MsgNoDataHint  = "Try selecting an earlier date."
	MsgDry         = "Dry soil! Water now."
	MsgIdeal       = "Ideal moisture."
	MsgSaturated   = "Saturated soil."
	lastReadingFmt = "02/01/2006 15:04"
)

// Notice is a single message box.
type Notice struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// SensorReading is the current value of one active channel.
type SensorReading struct {
	Channel int                `json:"channel"`
	Field   string             `json:"field"`
	Label   string             `json:"label"`
	Value   float64            `json:"value"`
	Status  domain.StatusClass `json:"status"`
	Notice  Notice             `json:"notice"`
}

// ChartSeries is one line of the history chart.
type ChartSeries struct {
	Channel int            `json:"channel"`
	Label   string         `json:"label"`
	Points  []domain.Point `json:"points"`
}

// View is the complete page model. It is also the /api/dashboard response.
type View struct {
	RefreshID   string          `json:"refresh_id"`
	ChannelID   string          `json:"channel_id"`
	State       string          `json:"state"`
	Since       domain.Date     `json:"since"`
	Notices     []Notice        `json:"notices"`
	Readings    []SensorReading `json:"readings,omitempty"`
	Series      []ChartSeries   `json:"series,omitempty"`
	Caption     string          `json:"caption,omitempty"`
	LastReading string          `json:"last_reading,omitempty"`
	Total       int             `json:"total"`
	Retained    int             `json:"retained"`
	Dropped     int             `json:"dropped"`
}

// HasData reports whether the view carries readings to chart and export.
func (v View) HasData() bool {
	return v.State == string(domain.ResultOK)
}

// BuildView maps a refresh outcome to the page model. Fetch failures and an
// empty feed both show the awaiting-connection notice.
func BuildView(out pipeline.Outcome, labels map[int]string) View {
	res := out.Result
	v := View{
		RefreshID: out.RefreshID,
		ChannelID: out.ChannelID,
		State:     out.State(),
		Since:     out.Cutoff,
		Total:     res.Total,
		Retained:  res.Retained,
		Dropped:   len(res.Malformed),
	}

	if out.Failure != nil || res.Status == domain.ResultEmpty {
		v.Notices = []Notice{{Level: LevelInfo, Text: MsgAwaiting}}
		return v
	}
	if res.Status == domain.ResultNoMatch {
		v.Notices = []Notice{
			{Level: LevelWarning, Text: "No data found since " + out.Cutoff.Display() + "."},
			{Level: LevelInfo, Text: MsgNoDataHint},
		}
		return v
	}

	v.Notices = []Notice{}
	for _, ch := range res.ActiveChannels {
		val, ok := res.Snapshot.Values[ch]
		if !ok {
			continue
		}
		status := res.Snapshot.Statuses[ch]
		v.Readings = append(v.Readings, SensorReading{
			Channel: ch,
			Field:   domain.FieldName(ch),
			Label:   domain.ChannelLabel(labels, ch),
			Value:   val,
			Status:  status,
			Notice:  StatusNotice(status),
		})
	}
	for _, s := range res.Series {
		v.Series = append(v.Series, ChartSeries{
			Channel: s.Channel,
			Label:   domain.ChannelLabel(labels, s.Channel),
			Points:  s.Points,
		})
	}
	v.Caption = "Showing data since " + out.Cutoff.Display()
	v.LastReading = "Last reading: " + res.Snapshot.Time.Format(lastReadingFmt)
	return v
}

// StatusNotice returns the message box for a status band.
func StatusNotice(s domain.StatusClass) Notice {
	switch s {
	case domain.StatusDry:
		return Notice{Level: LevelError, Text: MsgDry}
	case domain.StatusSaturated:
		return Notice{Level: LevelInfo, Text: MsgSaturated}
	default:
		return Notice{Level: LevelSuccess, Text: MsgIdeal}
	}
}
