package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/synthetic-met-data/internal/config"
	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces artifact manifests to a Kafka topic.
// It implements pipeline.Notifier.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured manifest topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes one manifest message keyed by run ID.
func (p *Publisher) Publish(ctx context.Context, m domain.Manifest) error {
	msg, err := serializeToMessage(m)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}
	p.logger.Info("manifest published", "topic", p.writer.Topic, "run_id", m.RunID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Manifest into a Kafka message.
func serializeToMessage(m domain.Manifest) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize manifest: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(m.Region)},
			{Key: "masked", Value: []byte(strconv.FormatBool(m.Masked))},
			{Key: "created_at", Value: []byte(m.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
