package producer_test

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"leave-portal/internal/messaging/kafka"
	kafkaMock "leave-portal/internal/messaging/kafka/mock"
	"leave-portal/internal/messaging/kafka/producer"
)

type fakeWriter struct {
	written []kafkago.Message
	failFor map[string]error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if err := f.failFor[string(m.Key)]; err != nil {
			return err
		}
		f.written = append(f.written, m)
	}
	return nil
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes and marks sent, failures are recorded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{failFor: map[string]error{"leave-2": errors.New("broker down")}}

		events := []kafka.OutboxEvent{
			{ID: "o-1", AggregateID: "leave-1", EventType: "leave.applied", Topic: "hr.leave.lifecycle.v1", Payload: []byte(`{}`), RequestID: "rid"},
			{ID: "o-2", AggregateID: "leave-2", EventType: "leave.approved", Topic: "hr.leave.lifecycle.v1", Payload: []byte(`{}`)},
		}
		repo.EXPECT().ListPending(ctx, 50).Return(events, nil)
		repo.EXPECT().MarkSent(ctx, "o-1").Return(nil)
		repo.EXPECT().MarkFailed(ctx, "o-2", "broker down").Return(nil)

		sent, err := producer.ProcessPendingEvents(ctx, repo, writer, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Len(t, writer.written, 1)
		msg := writer.written[0]
		assert.Equal(t, "hr.leave.lifecycle.v1", msg.Topic)
		assert.Equal(t, []byte("leave-1"), msg.Key)
		assert.Contains(t, msg.Headers, kafkago.Header{Key: "event_type", Value: []byte("leave.applied")})
		assert.Contains(t, msg.Headers, kafkago.Header{Key: "request_id", Value: []byte("rid")})
	})

	t.Run("empty batch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		repo.EXPECT().ListPending(ctx, 50).Return(nil, nil)

		sent, err := producer.ProcessPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop())
		assert.NoError(t, err)
		assert.Zero(t, sent)
	})

	t.Run("list error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		repo.EXPECT().ListPending(ctx, 50).Return(nil, errors.New("db down"))

		_, err := producer.ProcessPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop())
		assert.EqualError(t, err, "db down")
	})
}
