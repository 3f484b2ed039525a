package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/property-report-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// KafkaReader is the subset of kafka.Reader the consumer needs
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads one topic as part of a consumer group
type KafkaConsumer struct {
	reader     KafkaReader
	logger     *slog.Logger
	topic      string
	groupID    string
	retryDelay time.Duration
	done       chan struct{}
}

var _ Consumer = (*KafkaConsumer)(nil)

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig, topic, groupID string) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	})
	return newKafkaConsumer(logger, reader, topic, groupID)
}

func newKafkaConsumer(logger *slog.Logger, reader KafkaReader, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		logger:     logger.With("topic", topic, "group_id", groupID),
		topic:      topic,
		groupID:    groupID,
		retryDelay: time.Second,
		done:       make(chan struct{}),
	}
}

// Subscribe starts consuming in the background until ctx is canceled
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return errors.New("message handler is required")
	}
	c.logger.Info("Subscribed to Kafka topic")

	go func() {
		defer close(c.done)
		c.consume(ctx, handler)
	}()

	return nil
}

// Done is closed once the consume loop has exited
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *KafkaConsumer) consume(ctx context.Context, handler MessageHandler) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("Context canceled, stopping consumer")
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer")
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
			continue
		}

		log := c.logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
		log.Debug("Received message from Kafka")

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			// Not redelivered: the next commit on this partition moves the group offset past it.
			// Handlers park poison messages themselves and the stuck-report watchdog fails
			// reports whose request was dropped here.
			log.Error("Failed to process message, skipping", "error", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error("Failed to commit message after successful processing", "error", err)
			continue
		}
		log.Debug("Message committed successfully")
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
