package leave

import (
	"fmt"
	"strings"
	"time"

	leaveerrors "leave-portal/internal/leave/errors"
	"leave-portal/internal/leavetype"
)

// Candidate is an application before it is accepted. Dates are raw strings
// so that parse failures surface as field errors.
type Candidate struct {
	LeaveType string
	StartDate string
	EndDate   string
	Reason    string
}

// MaxRequestDays caps the inclusive span of one request.
const MaxRequestDays = 366

// ValidationResult maps a field name to its message. Empty means accepted.
type ValidationResult map[string]string

func (r ValidationResult) OK() bool { return len(r) == 0 }

func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return leaveerrors.ErrValidation.WithDetails(map[string]string(r))
}

// Validate checks a candidate against the catalog and the submission day.
// Each field reports only its first failure.
func Validate(c Candidate, catalog leavetype.Catalog, today time.Time) ValidationResult {
	res := ValidationResult{}
	today = DateOf(today)

	if strings.TrimSpace(c.LeaveType) == "" {
		res["leave_type"] = "leave type is required"
	} else if !catalog.Contains(c.LeaveType) {
		res["leave_type"] = "unknown leave type"
	}

	start, startOK := parseField(res, "start_date", c.StartDate)
	end, endOK := parseField(res, "end_date", c.EndDate)

	if startOK && endOK {
		if end.Before(start) {
			res["end_date"] = "end date must be on or after start date"
		} else if NewDateRange(start, end).Days() > MaxRequestDays {
			res["end_date"] = fmt.Sprintf("leave cannot span more than %d days", MaxRequestDays)
		}
	}
	if startOK && start.Before(today) {
		res["start_date"] = "start date cannot be in the past"
	}

	if strings.TrimSpace(c.Reason) == "" {
		res["reason"] = "reason is required"
	}
	return res
}

func parseField(res ValidationResult, field, v string) (time.Time, bool) {
	if strings.TrimSpace(v) == "" {
		res[field] = strings.ReplaceAll(field, "_", " ") + " is required"
		return time.Time{}, false
	}
	t, err := ParseDate(v)
	if err != nil {
		res[field] = "invalid date, expected YYYY-MM-DD"
		return time.Time{}, false
	}
	return t, true
}
