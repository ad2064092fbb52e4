// Package sms delivers queued one-time-code messages to the SMS gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-companion/internal/config"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
)

var ErrGatewayRejected = errors.New("sms gateway rejected message")

type gatewayRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Relay posts each queued message to the gateway once.
type Relay struct {
	URL    string
	Token  string
	Client *http.Client
	Logger *logger.Logger
	// MaxAge drops messages older than this; their codes have expired anyway.
	MaxAge time.Duration
}

func NewRelay(cfg config.SMSConfig, maxAge time.Duration, log *logger.Logger) *Relay {
	return &Relay{
		URL:    cfg.GatewayURL,
		Token:  cfg.GatewayToken,
		Client: &http.Client{Timeout: 10 * time.Second},
		Logger: log,
		MaxAge: maxAge,
	}
}

// Handle is the consumer callback for the outbound SMS topic.
func (r *Relay) Handle(ctx context.Context, msg kafka.Message) error {
	var m models.SMSMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		return fmt.Errorf("decode sms message at offset %d: %w", msg.Offset, err)
	}

	if r.MaxAge > 0 && !m.CreatedAt.IsZero() && time.Since(m.CreatedAt) > r.MaxAge {
		r.Logger.Warn("SMS", fmt.Sprintf("Dropping stale message to %s queued at %s", m.To, m.CreatedAt.Format(time.RFC3339)))
		return nil
	}

	return r.Deliver(ctx, m)
}

func (r *Relay) Deliver(ctx context.Context, m models.SMSMessage) error {
	payload, err := json.Marshal(gatewayRequest{To: m.To, Body: m.Body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post to sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Status)
	}

	r.Logger.Info("SMS", fmt.Sprintf("Delivered message to %s", m.To))
	return nil
}
