package consumer

import (
	"context"
	"fmt"
	"strings"

	"leave-portal/internal/bootstrap"
	"leave-portal/internal/events"
	"leave-portal/internal/observability"
	"leave-portal/internal/shared/contextutil"
)

// LeaveAuditTrail records every lifecycle event in the audit log and counts
// it per type.
type LeaveAuditTrail struct {
	audit bootstrap.AuditLogger
}

func NewLeaveAuditTrail(audit bootstrap.AuditLogger) *LeaveAuditTrail {
	return &LeaveAuditTrail{audit: audit}
}

func (a *LeaveAuditTrail) HandleLeaveEvent(ctx context.Context, event events.LeaveLifecycleEvent) error {
	if event.LeaveID == "" {
		return fmt.Errorf("leave event %s without leave_id", event.EventType)
	}
	if event.RequestID != "" {
		ctx = contextutil.WithRequestID(ctx, event.RequestID)
	}

	a.audit.Log(ctx, bootstrap.AuditLog{
		Action:  auditAction(event.EventType),
		Message: fmt.Sprintf("leave %s moved %s -> %s by %s", event.LeaveID, orNone(event.FromStatus), event.ToStatus, event.ActorRole),
		Meta: map[string]any{
			"leave_id":    event.LeaveID,
			"employee_id": event.EmployeeID,
			"leave_type":  event.LeaveType,
			"start_date":  event.StartDate,
			"end_date":    event.EndDate,
			"actor_id":    event.ActorID,
			"occurred_at": event.OccurredAt,
		},
	})
	observability.LeaveEventsConsumed.WithLabelValues(event.EventType).Inc()
	return nil
}

// auditAction turns "leave.approved" into "LEAVE_APPROVED".
func auditAction(eventType string) string {
	return strings.ToUpper(strings.ReplaceAll(eventType, ".", "_"))
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
