package kafka

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// MessageHandler processes one message value.
type MessageHandler func(ctx context.Context, value []byte) error

// Consumer feeds every message of a topic to a handler. Handler failures
// are logged and the message is skipped.
type Consumer struct {
	reader  MessageReader
	handler MessageHandler
	logger  *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, handler MessageHandler, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1e6, // 1MB
	})
	return NewConsumerWithReader(r, handler, logger)
}

func NewConsumerWithReader(reader MessageReader, handler MessageHandler, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{reader: reader, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled or the reader fails, then closes
// the reader.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("kafka consumer stopped", zap.Error(err))
			return err
		}

		if err := c.handler(ctx, m.Value); err != nil {
			c.logger.Warn("kafka message skipped",
				zap.String("topic", m.Topic),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
	}
}
