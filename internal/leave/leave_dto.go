package leave

// ApplyLeaveRequest carries no binding rules; Validate reports every field.
type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

func (r ApplyLeaveRequest) Candidate() Candidate {
	return Candidate{
		LeaveType: r.LeaveType,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Reason:    r.Reason,
	}
}

type CancelLeaveRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type LeaveResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	EmployeeName   string  `json:"employee_name,omitempty"`
	LeaveType      string  `json:"leave_type"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	WorkingDays    int     `json:"working_days"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	StatusLabel    string  `json:"status_label"`
	SubmissionDate string  `json:"submission_date"`
	DecidedBy      *string `json:"decided_by,omitempty"`
	DecidedAt      *string `json:"decided_at,omitempty"`
}

type ApplyLeaveResponse struct {
	LeaveResponse
	Warnings []string `json:"warnings,omitempty"`
}

// ReportRow is one line of the manager report.
type ReportRow struct {
	Employee    string `json:"employee"`
	LeaveType   string `json:"leave_type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

type BalanceResponse struct {
	LeaveType      string `json:"leave_type"`
	Label          string `json:"label"`
	Year           int    `json:"year"`
	MaxDaysPerYear int    `json:"max_days_per_year"`
	UsedDays       int    `json:"used_days"`
	RemainingDays  int    `json:"remaining_days"`
}

// PageQuery is optional paging for list endpoints. A nil Page means the
// whole list.
type PageQuery struct {
	Page     *int `json:"page" form:"page" binding:"omitempty,min=1"`
	PageSize int  `json:"page_size" form:"page_size" binding:"omitempty,min=1,max=100"`
}

type CalendarQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

type CalendarResponse struct {
	From string        `json:"from"`
	To   string        `json:"to"`
	Days []OccupiedDay `json:"days"`
}
