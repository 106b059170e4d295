package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
)

// Processor runs the pure feed pipeline and logs dropped records.
type Processor struct {
	opts   domain.Options
	logger *slog.Logger
}

// NewProcessor creates a Processor with the given normalizer options.
func NewProcessor(opts domain.Options, logger *slog.Logger) *Processor {
	return &Processor{
		opts:   opts,
		logger: logger,
	}
}

// Options returns the normalizer options.
func (p *Processor) Options() domain.Options {
	return p.opts
}

// Process normalizes payload and filters it to readings on or after cutoff.
func (p *Processor) Process(payload domain.RawPayload, cutoff domain.Date) domain.Result {
	res := domain.ProcessFeed(payload, cutoff, p.opts)
	for _, m := range res.Malformed {
		p.logger.Warn("malformed record dropped", "index", m.Index, "error", m.Err)
	}
	return res
}
