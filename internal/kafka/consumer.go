package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-companion/internal/logger"
)

type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// NewConsumer creates a consumer-group reader for one topic.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, log: log}
}

// Start reads until ctx is cancelled. Handler errors are logged and the message
// is committed anyway; there is no redelivery.
func (c *Consumer) Start(ctx context.Context, handler func(ctx context.Context, msg kafka.Message) error) error {
	c.log.Info("KAFKA", fmt.Sprintf("Consumer started on %s", c.reader.Config().Topic))

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.log.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			return err
		}

		if err := handler(ctx, msg); err != nil {
			c.log.Error("KAFKA", fmt.Sprintf("Handler failed for %s offset %d: %v", msg.Topic, msg.Offset, err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
