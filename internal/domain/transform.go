package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing created_at.
// ThingSpeak emits RFC 3339 with a "Z" suffix; the zoneless forms are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// Normalized is the output of Normalize.
type Normalized struct {
	Total     int       // entries in the feeds array
	Readings  []Reading // valid entries, in feed order
	Declared  []int     // channels whose fieldN key appears in any entry, ascending
	Malformed []*MalformedRecordError
}

// Normalize decodes a feeds payload into readings. It returns ErrEmptyFeed when
// the payload carries no entries. Entries that cannot be decoded or whose
// created_at cannot be parsed are reported in Malformed and skipped.
func Normalize(payload RawPayload, opts Options) (Normalized, error) {
	entries, ok := decodeFeeds(payload)
	if !ok {
		return Normalized{}, ErrEmptyFeed
	}

	n := opts.channels()
	declared := make(map[int]bool, n)
	out := Normalized{
		Total:    len(entries),
		Readings: make([]Reading, 0, len(entries)),
	}

	for i, entry := range entries {
		point, err := parseFeedPoint(entry, n)
		if err != nil {
			out.Malformed = append(out.Malformed, &MalformedRecordError{Index: i, Err: err})
			continue
		}
		for ch := range point.Fields {
			declared[ch] = true
		}

		ts, err := parseTimestamp(point.CreatedAt)
		if err != nil {
			out.Malformed = append(out.Malformed, &MalformedRecordError{Index: i, Err: err})
			continue
		}

		out.Readings = append(out.Readings, Reading{
			Time:   ts.UTC().Add(opts.UTCOffset),
			Values: coerceFields(point.Fields),
		})
	}

	for ch := 1; ch <= n; ch++ {
		if declared[ch] {
			out.Declared = append(out.Declared, ch)
		}
	}
	return out, nil
}

// decodeFeeds extracts the "feeds" array. ok is false when there is nothing to process.
func decodeFeeds(payload RawPayload) ([]json.RawMessage, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope == nil {
		return nil, false
	}
	raw, ok := envelope["feeds"]
	if !ok {
		return nil, false
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// parseFeedPoint decodes one feed entry, keeping field keys 1..channels.
func parseFeedPoint(entry json.RawMessage, channels int) (RawFeedPoint, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(entry, &obj); err != nil {
		return RawFeedPoint{}, fmt.Errorf("decode entry: %w", err)
	}
	if obj == nil {
		return RawFeedPoint{}, errors.New("entry is null")
	}

	var point RawFeedPoint
	if raw, ok := obj["created_at"]; ok {
		if err := json.Unmarshal(raw, &point.CreatedAt); err != nil {
			return RawFeedPoint{}, fmt.Errorf("decode created_at: %w", err)
		}
	}

	point.Fields = make(map[int]json.RawMessage, channels)
	for ch := 1; ch <= channels; ch++ {
		if raw, ok := obj[FieldName(ch)]; ok {
			point.Fields[ch] = raw
		}
	}
	return point, nil
}

// parseTimestamp parses an ISO-8601 instant.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing created_at")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse created_at %q", s)
}

func coerceFields(fields map[int]json.RawMessage) map[int]float64 {
	values := make(map[int]float64, len(fields))
	for ch, raw := range fields {
		if v, ok := coerceValue(raw); ok {
			values[ch] = v
		}
	}
	return values
}

// coerceValue converts a JSON string or number to float64. Null, empty,
// non-numeric, and non-finite values report ok=false.
func coerceValue(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return parseFloat(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return parseFloat(n.String())
}

// parseFloat parses a string as a finite float64.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
