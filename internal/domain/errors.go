package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyFeed means the payload held no feed entries: not an object, no
// "feeds" key, or an empty array.
var ErrEmptyFeed = errors.New("empty feed")

// MalformedRecordError describes a single feed entry that was dropped.
type MalformedRecordError struct {
	Index int // position in the feeds array
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %d: %v", e.Index, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// FailureKind classifies a failed feed fetch.
type FailureKind string

const (
	FailureTransport FailureKind = "transport"
	FailureTimeout   FailureKind = "timeout"
	FailureStatus    FailureKind = "status"
	FailureDecode    FailureKind = "decode"
)

// FetchFailure is returned by feed fetchers. StatusCode is set for FailureStatus.
type FetchFailure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *FetchFailure) Error() string {
	if e.Kind == FailureStatus {
		return fmt.Sprintf("fetch feed: %s %d: %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch feed: %s: %v", e.Kind, e.Err)
}

func (e *FetchFailure) Unwrap() error { return e.Err }

// AsFetchFailure extracts a FetchFailure from err, wrapping unknown errors as transport failures.
func AsFetchFailure(err error) *FetchFailure {
	if err == nil {
		return nil
	}
	var ff *FetchFailure
	if errors.As(err, &ff) {
		return ff
	}
	return &FetchFailure{Kind: FailureTransport, Err: err}
}
