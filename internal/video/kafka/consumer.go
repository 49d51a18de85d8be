package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// ConsumerConfig configures a group consumer. Offsets are committed
// explicitly after the handler finishes, so a crash mid-job replays the
// message instead of losing it.
type ConsumerConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
	Logger   zerolog.Logger
}

type Consumer struct {
	reader *kafkago.Reader
	logger zerolog.Logger
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("consumer config: brokers list is empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("consumer config: topic is empty")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("consumer config: group id is empty")
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{
		reader: reader,
		logger: cfg.Logger.With().Str("component", "kafka_consumer").Str("topic", cfg.Topic).Logger(),
	}, nil
}

// Fetch blocks until a message arrives or the context ends. The message stays
// uncommitted until Commit is called.
func (c *Consumer) Fetch(ctx context.Context) (kafkago.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("kafka fetch: %w", err)
	}
	return msg, nil
}

func (c *Consumer) Commit(ctx context.Context, msg kafkago.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka commit: %w", err)
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
