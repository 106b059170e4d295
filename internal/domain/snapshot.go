package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// NewSnapshotEvent builds the downstream event for an OK result.
// Channel maps are keyed by field name ("field1") for readability in consumers.
func NewSnapshotEvent(channelID, refreshID string, res Result) SnapshotEvent {
	ev := SnapshotEvent{
		ChannelID:   channelID,
		RefreshID:   refreshID,
		TakenAt:     res.Snapshot.Time,
		Values:      make(map[string]float64, len(res.Snapshot.Values)),
		Statuses:    make(map[string]StatusClass, len(res.Snapshot.Statuses)),
		Retained:    res.Retained,
		Cutoff:      res.Cutoff,
		ProcessedAt: clock.Now().UTC(),
	}
	for ch, v := range res.Snapshot.Values {
		ev.Values[FieldName(ch)] = v
	}
	for ch, s := range res.Snapshot.Statuses {
		ev.Statuses[FieldName(ch)] = s
	}
	return ev
}

// SerializeSnapshot marshals a snapshot event into an OutputEvent keyed by channel id.
func SerializeSnapshot(ev SnapshotEvent) (OutputEvent, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return OutputEvent{
		Key:   []byte(ev.ChannelID),
		Value: data,
		Headers: map[string]string{
			"refresh_id":   ev.RefreshID,
			"processed_at": ev.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
