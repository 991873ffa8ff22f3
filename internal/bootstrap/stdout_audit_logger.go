package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"

	"leave-portal/internal/shared/contextutil"
)

// StdoutAuditLogger writes audit entries through zap. Production logging
// ships stdout, so this is the audit trail.
type StdoutAuditLogger struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewStdoutAuditLogger(logger ...*zap.Logger) *StdoutAuditLogger {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	return &StdoutAuditLogger{logger: l, now: time.Now}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	fields := []zap.Field{
		zap.String("timestamp", l.now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	}
	fields = append(fields, contextutil.ExtractMetadata(ctx).Fields()...)
	l.logger.Info("audit event", fields...)
}
