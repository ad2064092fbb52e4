package auth

import (
	"context"
	"fmt"
	"time"

	"ms-companion/internal/logger"
	"ms-companion/internal/models"
)

// SMSSender hands a text message to whatever delivers it.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, payload interface{}) error
}

// KafkaSMSSender queues messages for cmd/sms-relay.
type KafkaSMSSender struct {
	Producer jsonPublisher
	Topic    string
}

func (s *KafkaSMSSender) Send(ctx context.Context, to, body string) error {
	msg := models.SMSMessage{To: to, Body: body, CreatedAt: time.Now().UTC()}
	if err := s.Producer.PublishJSON(ctx, s.Topic, to, msg); err != nil {
		return fmt.Errorf("queue sms: %w", err)
	}
	return nil
}

// LogSMSSender prints messages instead of sending them. Development only.
type LogSMSSender struct {
	Logger *logger.Logger
}

func (s *LogSMSSender) Send(_ context.Context, to, body string) error {
	s.Logger.Warn("SMS", fmt.Sprintf("Kafka disabled, not delivering SMS to %s: %s", to, body))
	return nil
}
