package leave

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no transition can leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Leave is a single leave request. Rows are never deleted; rejected and
// cancelled requests stay for reporting.
type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates"`

	LeaveType string    `gorm:"type:varchar(30);not null"`
	StartDate time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	Reason    string    `gorm:"type:text;not null"`

	Status    Status     `gorm:"type:varchar(20);not null;default:'pending';index:idx_leaves_status"`
	DecidedBy *uuid.UUID `gorm:"type:uuid"`
	DecidedAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time

	EmployeeName string `gorm:"->;-:migration"`
}

func (l Leave) Range() DateRange {
	return NewDateRange(l.StartDate, l.EndDate)
}

func (l Leave) OwnedBy(employeeID uuid.UUID) bool {
	return l.EmployeeID == employeeID
}
