// Package domain models soil-moisture telemetry read from a ThingSpeak channel
// feed and the pure pipeline that turns a raw feed into a dashboard result.
//
// # Data Source
//
// Readings come from the ThingSpeak channel feeds endpoint:
//
//	GET /channels/<id>/feeds.json?results=<n>
//
// The response body is an object with a "feeds" array. Each entry carries a
// "created_at" timestamp and up to eight "fieldN" values:
//
//	{"created_at":"2024-01-01T12:00:00Z","entry_id":17,"field1":"45","field2":null}
//
// ThingSpeak reports field values as strings. Values may be null, empty, or
// junk written by a misbehaving sensor; all of those are treated as absent.
//
// # Time
//
// created_at is UTC (RFC 3339). Every instant is shifted by a fixed display
// offset (−3h by default). The shifted instant is stored in UTC so its wall
// clock reads as local time; calendar dates are taken from that wall clock.
//
// # Pipeline
//
//	Normalize   payload -> readings, declared channels, malformed records
//	FilterSince readings on or after a calendar date (day granularity)
//	Activity    channels with at least one present value after filtering
//	Snapshot    last filtered reading, classified per active channel
//	Export      one row per filtered reading, one column per declared channel
//
// [ProcessFeed] runs all stages and reports one of three outcomes: Empty,
// NoMatch, or OK.
//
// # Status Classification
//
// Moisture percentage is classified per channel against two thresholds:
//
//	DRY        value <  DryBelow        (default 30)
//	IDEAL      DryBelow <= value <= SaturatedAbove
//	SATURATED  value >  SaturatedAbove  (default 80)
package domain
