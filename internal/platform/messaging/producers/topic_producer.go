package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/property-report-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// TopicProducer publishes JSON messages to a single topic.
// Writes are synchronous so the outbox only marks a message processed once the broker acked it.
type TopicProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

var _ MessagePublisher = (*TopicProducer)(nil)

// NewTopicProducer dials the brokers, ensures the topic exists and returns a producer for it
func NewTopicProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topic string) (*TopicProducer, error) {
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for topic %s: %w", topic, err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, topic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same report id, same partition
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &TopicProducer{
		logger: logger.With("topic", topic),
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish marshals value to JSON and writes it under key
func (p *TopicProducer) Publish(ctx context.Context, key string, value interface{}) error {
	var payload []byte
	switch v := value.(type) {
	case json.RawMessage:
		payload = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal message value for topic %s: %w", p.topic, err)
		}
		payload = encoded
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message", "key", key, "error", err)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message", "key", key)
	return nil
}

func (p *TopicProducer) Close() error {
	p.logger.Info("Closing Kafka producer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
