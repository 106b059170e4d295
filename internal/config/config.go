package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// maxFeedResults is the ThingSpeak cap on results per feeds request.
const maxFeedResults = 8000

// Config holds all service settings, populated from environment variables.
type Config struct {
	ChannelID   string
	FeedBaseURL string
	FeedResults int
	FeedTimeout time.Duration

	UTCOffset       time.Duration
	SensorChannels  int
	DefaultLookback time.Duration
	DryBelow        float64
	SaturatedAbove  float64
	Sensors         SensorFile

	channelThresholds map[int]domain.Thresholds

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Snapshot publishing.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parsePositiveDuration("THINGSPEAK_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	lookback, err := parsePositiveDuration("DEFAULT_LOOKBACK", "168h")
	if err != nil {
		return nil, err
	}
	offset, err := time.ParseDuration(sharedcfg.EnvOrDefault("UTC_OFFSET", "-3h"))
	if err != nil || offset < -14*time.Hour || offset > 14*time.Hour {
		return nil, errors.New("invalid UTC_OFFSET")
	}

	results, err := parseIntInRange("THINGSPEAK_RESULTS", maxFeedResults, 1, maxFeedResults)
	if err != nil {
		return nil, err
	}
	channels, err := parseIntInRange("SENSOR_CHANNELS", domain.DefaultSensorChannels, 1, domain.MaxSensorChannels)
	if err != nil {
		return nil, err
	}

	dryBelow, err := parseFloat("DRY_BELOW", domain.DefaultDryBelow)
	if err != nil {
		return nil, err
	}
	saturatedAbove, err := parseFloat("SATURATED_ABOVE", domain.DefaultSaturatedAbove)
	if err != nil {
		return nil, err
	}
	if dryBelow > saturatedAbove {
		return nil, errors.New("DRY_BELOW must not exceed SATURATED_ABOVE")
	}

	var sensors SensorFile
	if path := os.Getenv("SENSOR_CONFIG"); path != "" {
		sensors, err = LoadSensorFile(path)
		if err != nil {
			return nil, fmt.Errorf("SENSOR_CONFIG: %w", err)
		}
	}
	channelThresholds, err := sensors.thresholds(domain.Thresholds{DryBelow: dryBelow, SaturatedAbove: saturatedAbove})
	if err != nil {
		return nil, fmt.Errorf("SENSOR_CONFIG: %w", err)
	}

	cfg := &Config{
		ChannelID:   sharedcfg.EnvOrDefault("THINGSPEAK_CHANNEL_ID", "3204291"),
		FeedBaseURL: sharedcfg.EnvOrDefault("THINGSPEAK_BASE_URL", "https://api.thingspeak.com"),
		FeedResults: results,
		FeedTimeout: feedTimeout,

		UTCOffset:       offset,
		SensorChannels:  channels,
		DefaultLookback: lookback,
		DryBelow:        dryBelow,
		SaturatedAbove:  saturatedAbove,
		Sensors:         sensors,

		channelThresholds: channelThresholds,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "soil-moisture-snapshots"),
	}

	if cfg.ChannelID == "" {
		return nil, errors.New("THINGSPEAK_CHANNEL_ID is required")
	}
	if cfg.FeedBaseURL == "" {
		return nil, errors.New("THINGSPEAK_BASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSnapshotTopic == "" {
		return nil, errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// DomainOptions converts the config into normalizer options, applying
// per-sensor threshold overrides from the sensor file.
func (c *Config) DomainOptions() domain.Options {
	opts := domain.Options{
		SensorChannels: c.SensorChannels,
		UTCOffset:      c.UTCOffset,
		Thresholds: domain.Thresholds{
			DryBelow:       c.DryBelow,
			SaturatedAbove: c.SaturatedAbove,
		},
	}
	opts.ChannelThresholds = c.channelThresholds
	return opts
}

// Labels returns display labels per channel from the sensor file.
func (c *Config) Labels() map[int]string {
	return c.Sensors.labels()
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
