package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"leave-portal/internal/events"
)

// MessageReader is satisfied by *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type LeaveEventHandler interface {
	HandleLeaveEvent(ctx context.Context, event events.LeaveLifecycleEvent) error
}

func ConsumeLeaveLifecycle(
	ctx context.Context,
	reader MessageReader,
	handler LeaveEventHandler,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.leave_lifecycle")
	log.Info("leave lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("leave lifecycle consumer stopped")
				return
			}
			log.Error("fetch leave lifecycle message failed", zap.Error(err))
			continue
		}
		HandleMessage(ctx, reader, handler, msg, log)
	}
}

// HandleMessage processes one message. Undecodable or unknown events are
// committed and dropped; handler failures stay uncommitted for redelivery.
func HandleMessage(
	ctx context.Context,
	reader MessageReader,
	handler LeaveEventHandler,
	msg kafkago.Message,
	log *zap.Logger,
) bool {
	var event events.LeaveLifecycleEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error("decode leave lifecycle event failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		_ = reader.CommitMessages(ctx, msg)
		return false
	}

	if !knownEvent(event.EventType) {
		log.Warn("unknown leave lifecycle event, skipping", zap.String("event_type", event.EventType))
		_ = reader.CommitMessages(ctx, msg)
		return false
	}

	if err := handler.HandleLeaveEvent(ctx, event); err != nil {
		log.Error("handle leave lifecycle event failed",
			zap.String("leave_id", event.LeaveID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		return false
	}

	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit leave lifecycle message failed", zap.Error(err))
		return false
	}

	log.Debug("leave lifecycle event handled",
		zap.String("leave_id", event.LeaveID),
		zap.String("event_type", event.EventType),
	)
	return true
}

func knownEvent(t string) bool {
	switch t {
	case events.LeaveApplied, events.LeaveApproved, events.LeaveDeclined, events.LeaveCancelled:
		return true
	}
	return false
}
