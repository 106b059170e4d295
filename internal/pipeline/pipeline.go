package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/observability"
	"github.com/google/uuid"
)

// OutcomeUnavailable labels a refresh whose fetch failed.
const OutcomeUnavailable = "unavailable"

// FeedFetcher retrieves the raw feed payload for a channel.
type FeedFetcher interface {
	FetchRawFeed(ctx context.Context, channelID string, limit int) (domain.RawPayload, error)
}

// SnapshotPublisher forwards OK snapshots downstream.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, event domain.SnapshotEvent) error
}

// Settings identify the feed to poll and the default date window.
type Settings struct {
	ChannelID string
	Limit     int
	Lookback  time.Duration
}

// Outcome is the result of one refresh. Failure is set when the fetch failed,
// in which case Result is the zero value.
type Outcome struct {
	RefreshID string
	ChannelID string
	Cutoff    domain.Date
	FetchedAt time.Time
	Failure   *domain.FetchFailure
	Result    domain.Result
}

// State returns "unavailable" for failed fetches, otherwise the result status.
func (o Outcome) State() string {
	if o.Failure != nil {
		return OutcomeUnavailable
	}
	return string(o.Result.Status)
}

// Refresher runs one fetch-process-publish cycle per call. It holds no
// per-refresh state, so concurrent calls are independent.
type Refresher struct {
	fetcher   FeedFetcher
	processor *Processor
	publisher SnapshotPublisher
	settings  Settings
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	lastFail  atomic.Pointer[domain.FetchFailure]
}

// New creates a Refresher. Pass a nil publisher to disable snapshot publishing.
func New(f FeedFetcher, p *Processor, pub SnapshotPublisher, s Settings, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		fetcher:   f,
		processor: p,
		publisher: pub,
		settings:  s,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the feed has been fetched successfully at
// least once. Before that it reports the most recent fetch failure, if any.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if r.ready.Load() {
		return nil
	}
	if ff := r.lastFail.Load(); ff != nil {
		return fmt.Errorf("feed has not been fetched successfully yet: %w", ff)
	}
	return errors.New("feed has not been fetched successfully yet")
}

// ChannelID returns the polled channel.
func (r *Refresher) ChannelID() string {
	return r.settings.ChannelID
}

// DefaultCutoff returns today minus the configured lookback, in the display offset.
func (r *Refresher) DefaultCutoff() domain.Date {
	return domain.DefaultCutoff(r.processor.Options().UTCOffset, r.settings.Lookback)
}

// Refresh fetches the feed and processes it against cutoff. It never returns
// an error: fetch failures are reported in Outcome.Failure.
func (r *Refresher) Refresh(ctx context.Context, cutoff domain.Date) Outcome {
	out := Outcome{
		RefreshID: uuid.NewString(),
		ChannelID: r.settings.ChannelID,
		Cutoff:    cutoff,
	}
	logger := r.logger.With("refresh_id", out.RefreshID, "channel_id", out.ChannelID)

	payload, err := r.fetcher.FetchRawFeed(ctx, r.settings.ChannelID, r.settings.Limit)
	out.FetchedAt = domain.Now()
	if err != nil {
		out.Failure = domain.AsFetchFailure(err)
		r.lastFail.Store(out.Failure)
		logger.Error("feed fetch failed", "kind", out.Failure.Kind, "error", out.Failure.Err)
		r.metrics.Refreshes.WithLabelValues(OutcomeUnavailable).Inc()
		return out
	}
	r.ready.Store(true)

	out.Result = r.processor.Process(payload, cutoff)
	res := out.Result

	r.metrics.Refreshes.WithLabelValues(string(res.Status)).Inc()
	r.metrics.RecordsDropped.Add(float64(len(res.Malformed)))
	r.metrics.ReadingsRetained.Set(float64(res.Retained))

	switch res.Status {
	case domain.ResultEmpty:
		logger.Info("feed is empty", "records", res.Total, "dropped", len(res.Malformed))
	case domain.ResultNoMatch:
		logger.Info("no readings since cutoff", "cutoff", cutoff.String(), "records", res.Total)
	case domain.ResultOK:
		// Channels missing from this snapshot must not keep a stale value.
		r.metrics.SensorValue.Reset()
		for ch, v := range res.Snapshot.Values {
			r.metrics.SensorValue.WithLabelValues(strconv.Itoa(ch)).Set(v)
		}
		logger.Info("refresh complete",
			"cutoff", cutoff.String(),
			"records", res.Total,
			"retained", res.Retained,
			"dropped", len(res.Malformed),
			"active_channels", res.ActiveChannels,
		)
		r.publish(ctx, logger, out)
	}
	return out
}

func (r *Refresher) publish(ctx context.Context, logger *slog.Logger, out Outcome) {
	if r.publisher == nil {
		return
	}
	ev := domain.NewSnapshotEvent(out.ChannelID, out.RefreshID, out.Result)
	if err := r.publisher.PublishSnapshot(ctx, ev); err != nil {
		logger.Warn("publish snapshot failed", "error", err)
		r.metrics.SnapshotsPublished.WithLabelValues("error").Inc()
		return
	}
	r.metrics.SnapshotsPublished.WithLabelValues("success").Inc()
}
