package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Defaults mirror the production dashboard: six sensor fields, a fixed −3h
// display offset, and a 30/80 moisture band.
const (
	DefaultSensorChannels = 6
	MaxSensorChannels     = 8 // ThingSpeak channels expose field1..field8
	DefaultUTCOffset      = -3 * time.Hour
	DefaultDryBelow       = 30.0
	DefaultSaturatedAbove = 80.0
)

// RawPayload is the undecoded JSON body returned by the feeds endpoint.
type RawPayload = json.RawMessage

// RawFeedPoint is one feed entry as received. Fields holds every fieldN key
// present in the entry, keyed by channel id, including explicit nulls.
type RawFeedPoint struct {
	CreatedAt string
	Fields    map[int]json.RawMessage
}

// Reading is a normalized feed entry. Time is shifted into the display offset
// and stored in UTC; Values holds only present channel values.
type Reading struct {
	Time   time.Time
	Values map[int]float64
}

// Value returns the reading for channel ch, if present.
func (r Reading) Value(ch int) (float64, bool) {
	v, ok := r.Values[ch]
	return v, ok
}

// Point is one (instant, value) pair of a sensor series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SensorSeries is the ordered present values of one channel.
type SensorSeries struct {
	Channel int     `json:"channel"`
	Points  []Point `json:"points"`
}

// Thresholds define the DRY / IDEAL / SATURATED band for one channel.
type Thresholds struct {
	DryBelow       float64 `json:"dry_below"`
	SaturatedAbove float64 `json:"saturated_above"`
}

// Options parameterize normalization and classification.
type Options struct {
	SensorChannels int
	UTCOffset      time.Duration
	Thresholds     Thresholds
	// ChannelThresholds overrides Thresholds for individual channels.
	ChannelThresholds map[int]Thresholds
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		SensorChannels: DefaultSensorChannels,
		UTCOffset:      DefaultUTCOffset,
		Thresholds: Thresholds{
			DryBelow:       DefaultDryBelow,
			SaturatedAbove: DefaultSaturatedAbove,
		},
	}
}

// ThresholdsFor returns the band for channel ch.
func (o Options) ThresholdsFor(ch int) Thresholds {
	if t, ok := o.ChannelThresholds[ch]; ok {
		return t
	}
	return o.Thresholds
}

func (o Options) channels() int {
	switch {
	case o.SensorChannels <= 0:
		return DefaultSensorChannels
	case o.SensorChannels > MaxSensorChannels:
		return MaxSensorChannels
	default:
		return o.SensorChannels
	}
}

// FieldName returns the feed key for channel ch, e.g. 1 -> "field1".
func FieldName(ch int) string {
	return "field" + strconv.Itoa(ch)
}

// ChannelLabel returns the configured label for ch, falling back to its field name.
func ChannelLabel(labels map[int]string, ch int) string {
	if l, ok := labels[ch]; ok && l != "" {
		return l
	}
	return FieldName(ch)
}

// Snapshot is the latest filtered reading with per-channel status.
type Snapshot struct {
	Time     time.Time
	Values   map[int]float64
	Statuses map[int]StatusClass
}

// SnapshotEvent is the serialized form of a snapshot published downstream.
type SnapshotEvent struct {
	ChannelID   string                 `json:"channel_id"`
	RefreshID   string                 `json:"refresh_id"`
	TakenAt     time.Time              `json:"taken_at"`
	Values      map[string]float64     `json:"values"`
	Statuses    map[string]StatusClass `json:"statuses"`
	Retained    int                    `json:"retained"`
	Cutoff      Date                   `json:"cutoff"`
	ProcessedAt time.Time              `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the snapshot topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
