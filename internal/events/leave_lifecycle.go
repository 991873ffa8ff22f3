package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveApplied   = "leave.applied"
	LeaveApproved  = "leave.approved"
	LeaveDeclined  = "leave.declined"
	LeaveCancelled = "leave.cancelled"
)

// LeaveLifecycleEvent is published once per status change. FromStatus is
// empty for leave.applied.
type LeaveLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	OccurredAt time.Time `json:"occurred_at"`
}
