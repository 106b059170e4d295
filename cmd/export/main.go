// Command export runs one refresh against the configured ThingSpeak channel and
// writes the filtered readings to a file. Feed settings come from the same
// environment variables as the monitor service.
//
// Usage:
//
//	go run ./cmd/export -since 2024-01-05 -format xlsx -out readings.xlsx
//	go run ./cmd/export -format csv > readings.csv
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/soil-moisture-monitor/internal/adapter/export"
	"github.com/couchcryptid/soil-moisture-monitor/internal/adapter/thingspeak"
	"github.com/couchcryptid/soil-moisture-monitor/internal/config"
	"github.com/couchcryptid/soil-moisture-monitor/internal/dashboard"
	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	"github.com/couchcryptid/soil-moisture-monitor/internal/observability"
	"github.com/couchcryptid/soil-moisture-monitor/internal/pipeline"
)

// errNoData is returned when the refresh succeeds but nothing is exportable.
var errNoData = errors.New("no data to export")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, observability.NewMetrics()); err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, metrics *observability.Metrics) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	since := fs.String("since", "", "first local date to include, YYYY-MM-DD or DD/MM/YYYY (default: DEFAULT_LOOKBACK ago)")
	format := fs.String("format", "csv", "output format: csv, xlsx, or pdf")
	out := fs.String("out", "-", "output path, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "csv" && *format != "xlsx" && *format != "pdf" {
		return fmt.Errorf("unknown format %q", *format)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLoggerTo(stderr, cfg.LogLevel, "text")

	client := thingspeak.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, metrics, logger)
	refresher := pipeline.New(client, pipeline.NewProcessor(cfg.DomainOptions(), logger), nil, pipeline.Settings{
		ChannelID: cfg.ChannelID,
		Limit:     cfg.FeedResults,
		Lookback:  cfg.DefaultLookback,
	}, logger, metrics)

	cutoff := refresher.DefaultCutoff()
	if *since != "" {
		if cutoff, err = domain.ParseDate(*since); err != nil {
			return err
		}
	}

	outcome := refresher.Refresh(ctx, cutoff)
	if outcome.Failure != nil {
		return outcome.Failure
	}
	if outcome.Result.Status != domain.ResultOK {
		view := dashboard.BuildView(outcome, cfg.Labels())
		return fmt.Errorf("%w: %s", errNoData, view.Notices[0].Text)
	}

	data, err := render(*format, outcome, cfg.Labels())
	if err != nil {
		return fmt.Errorf("render %s: %w", *format, err)
	}

	if *out == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	logger.Info("export written", "path", *out, "format", *format, "rows", outcome.Result.Retained)
	return nil
}

func render(format string, outcome pipeline.Outcome, labels map[int]string) ([]byte, error) {
	switch format {
	case "xlsx":
		return export.BuildXLSX(outcome.Result, labels)
	case "pdf":
		return export.BuildReportPDF(export.Report{
			ChannelID:   outcome.ChannelID,
			Result:      outcome.Result,
			Labels:      labels,
			GeneratedAt: outcome.FetchedAt,
		})
	default:
		var buf bytes.Buffer
		err := export.WriteCSV(&buf, outcome.Result.Export)
		return buf.Bytes(), err
	}
}
