// Package kafka publishes normalized airman records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/airmen-search-service/internal/config"
	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// Writer produces messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one committed batch and writes it in a single
// WriteMessages call. Messages are keyed by unique ID so every version of a
// person lands on the same partition.
func (w *Writer) Publish(ctx context.Context, airmen []domain.Airman) error {
	if len(airmen) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(airmen))
	for i := range airmen {
		msg, err := serializeToMessage(airmen[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d airmen: %w", len(msgs), err)
	}
	w.logger.Debug("published batch", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Airman into a Kafka message.
func serializeToMessage(a domain.Airman) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize airman %s: %w", a.UniqueID, err)
	}
	return kafkago.Message{
		Key:   []byte(a.UniqueID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "state", Value: []byte(a.State)},
			{Key: "ingested_at", Value: []byte(a.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}
