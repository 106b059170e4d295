package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/soil-moisture-monitor/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces snapshot messages to a Kafka topic.
// It implements pipeline.SnapshotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the snapshot topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot serializes and writes a single snapshot event. Messages are
// keyed by channel id so snapshots for one channel stay ordered.
func (w *Writer) PublishSnapshot(ctx context.Context, event domain.SnapshotEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}
	w.logger.Debug("snapshot published", "topic", w.writer.Topic, "refresh_id", event.RefreshID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a snapshot event into a Kafka message with
// headers in a stable order.
func serializeToMessage(event domain.SnapshotEvent) (kafkago.Message, error) {
	out, err := domain.SerializeSnapshot(event)
	if err != nil {
		return kafkago.Message{}, err
	}
	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
