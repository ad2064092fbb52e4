package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ms-companion/internal/config"
	"ms-companion/internal/kafka"
	"ms-companion/internal/logger"
	"ms-companion/internal/sms"
)

func main() {
	log := logger.NewLogger("sms-relay")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	if cfg.SMS.GatewayURL == "" {
		log.Fatal("CONFIG", "SMS_GATEWAY_URL not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.SMSOutbound}, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	relay := sms.NewRelay(cfg.SMS, cfg.Auth.OTPTTL, log)
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.SMSOutbound, cfg.SMS.GroupID, log)
	defer consumer.Close()

	log.Info("APP", fmt.Sprintf("SMS relay forwarding %s to %s", cfg.Kafka.Topics.SMSOutbound, cfg.SMS.GatewayURL))
	if err := consumer.Start(ctx, relay.Handle); err != nil {
		log.Fatal("KAFKA", err.Error())
	}
	log.Info("APP", "✅ SMS relay stopped")
}
