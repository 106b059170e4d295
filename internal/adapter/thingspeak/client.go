package thingspeak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/observability"
)

// maxBodyBytes bounds a feeds response; 8000 entries with six fields stay well below it.
const maxBodyBytes = 16 << 20

// Client fetches channel feeds from the ThingSpeak read API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a ThingSpeak client. timeout bounds each request end to end.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchRawFeed issues one GET for the channel's latest limit entries. Errors
// are always *domain.FetchFailure.
func (c *Client) FetchRawFeed(ctx context.Context, channelID string, limit int) (domain.RawPayload, error) {
	u := fmt.Sprintf("%s/channels/%s/feeds.json", c.baseURL, url.PathEscape(channelID))
	params := url.Values{
		"results": {strconv.Itoa(limit)},
	}

	start := time.Now()
	payload, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		ff := domain.AsFetchFailure(err)
		c.metrics.FetchFailures.WithLabelValues(string(ff.Kind)).Inc()
		c.logger.Debug("thingspeak request failed", "channel_id", channelID, "kind", ff.Kind, "error", ff.Err)
		return nil, ff
	}
	return payload, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.RawPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &domain.FetchFailure{Kind: domain.FailureTransport, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchFailure{Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.FetchFailure{
			Kind:       domain.FailureStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("thingspeak API error: %s", strings.TrimSpace(string(body))),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.FetchFailure{Kind: classify(err), Err: fmt.Errorf("read response: %w", err)}
	}
	if !json.Valid(body) {
		return nil, &domain.FetchFailure{Kind: domain.FailureDecode, Err: errors.New("response is not valid JSON")}
	}
	return domain.RawPayload(body), nil
}

// classify separates deadline expiry from other transport errors.
func classify(err error) domain.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.FailureTimeout
	}
	return domain.FailureTransport
}
