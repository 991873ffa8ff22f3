package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"leave-portal/internal/bootstrap"
	"leave-portal/internal/config"
	"leave-portal/internal/events"
	"leave-portal/internal/messaging/kafka/consumer"
)

const auditConsumerGroup = "leave-portal-audit"

// RunConsumer feeds leave lifecycle events into the audit trail until
// SIGINT or SIGTERM.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.KafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required")
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.LeaveLifecycleTopic,
		GroupID:        auditConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	auditTrail := consumer.NewLeaveAuditTrail(bootstrap.NewStdoutAuditLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeLeaveLifecycle(ctx, reader, auditTrail, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
