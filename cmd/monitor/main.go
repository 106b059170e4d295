package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/soil-moisture-monitor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/soil-moisture-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/soil-moisture-monitor/internal/adapter/thingspeak"
	"github.com/couchcryptid/soil-moisture-monitor/internal/config"
	"github.com/couchcryptid/soil-moisture-monitor/internal/observability"
	"github.com/couchcryptid/soil-moisture-monitor/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := thingspeak.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, metrics, logger)
	processor := pipeline.NewProcessor(cfg.DomainOptions(), logger)

	// Snapshot publishing is feature-flagged via KAFKA_ENABLED.
	var (
		publisher pipeline.SnapshotPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSnapshotTopic, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSnapshotTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	refresher := pipeline.New(client, processor, publisher, pipeline.Settings{
		ChannelID: cfg.ChannelID,
		Limit:     cfg.FeedResults,
		Lookback:  cfg.DefaultLookback,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, refresher, cfg.Labels(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Warm readiness with one refresh at the default cutoff.
	go refresher.Refresh(ctx, refresher.DefaultCutoff())

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
