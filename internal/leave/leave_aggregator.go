package leave

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"leave-portal/internal/leavetype"
)

// Label title-cases a wire value for display, e.g. "approved" -> "Approved".
// A Caser is stateful, so one is built per call.
func Label(v string) string {
	v = strings.TrimSpace(strings.ReplaceAll(v, "_", " "))
	if v == "" {
		return ""
	}
	return cases.Title(language.English).String(v)
}

func ToResponse(l Leave, cal Calendar) LeaveResponse {
	res := LeaveResponse{
		ID:             l.ID.String(),
		EmployeeID:     l.EmployeeID.String(),
		EmployeeName:   l.EmployeeName,
		LeaveType:      l.LeaveType,
		StartDate:      l.StartDate.Format(DateLayout),
		EndDate:        l.EndDate.Format(DateLayout),
		WorkingDays:    cal.WorkingDays(l.StartDate, l.EndDate),
		Reason:         l.Reason,
		Status:         string(l.Status),
		StatusLabel:    Label(string(l.Status)),
		SubmissionDate: l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.DecidedBy != nil {
		v := l.DecidedBy.String()
		res.DecidedBy = &v
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.UTC().Format(time.RFC3339)
		res.DecidedAt = &v
	}
	return res
}

// bySubmissionDesc orders newest first. The sort is stable so equal
// timestamps keep input order.
func bySubmissionDesc(leaves []Leave) []Leave {
	out := make([]Leave, len(leaves))
	copy(out, leaves)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func toResponses(leaves []Leave, cal Calendar) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, ToResponse(l, cal))
	}
	return out
}

// EmployeeHistory returns the requests of one employee, newest first.
func EmployeeHistory(leaves []Leave, employeeID uuid.UUID, cal Calendar) []LeaveResponse {
	own := make([]Leave, 0, len(leaves))
	for _, l := range leaves {
		if l.OwnedBy(employeeID) {
			own = append(own, l)
		}
	}
	return toResponses(bySubmissionDesc(own), cal)
}

// ManagerView returns every request, newest first, with working days.
func ManagerView(leaves []Leave, cal Calendar) []LeaveResponse {
	return toResponses(bySubmissionDesc(leaves), cal)
}

// PendingQueue returns the requests awaiting a decision, oldest first.
func PendingQueue(leaves []Leave, cal Calendar) []LeaveResponse {
	pending := make([]Leave, 0, len(leaves))
	for _, l := range leaves {
		if l.Status == StatusPending {
			pending = append(pending, l)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return toResponses(pending, cal)
}

func Report(leaves []Leave) []ReportRow {
	rows := make([]ReportRow, 0, len(leaves))
	for _, l := range bySubmissionDesc(leaves) {
		rows = append(rows, ReportRow{
			Employee:    l.EmployeeName,
			LeaveType:   Label(l.LeaveType),
			StartDate:   l.StartDate.Format(DateLayout),
			EndDate:     l.EndDate.Format(DateLayout),
			Reason:      l.Reason,
			Status:      Label(string(l.Status)),
			SubmittedAt: l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

var reportHeader = []string{"Employee", "Leave Type", "Start Date", "End Date", "Reason", "Status", "Submitted At"}

// WriteCSV writes rows with a header line. An empty report is just the header.
func WriteCSV(w io.Writer, rows []ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Employee, r.LeaveType, r.StartDate, r.EndDate, r.Reason, r.Status, r.SubmittedAt}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Balance reports allowance usage per catalog type for one year.
// A non-positive maximum means the type is not capped.
func Balance(leaves []Leave, catalog leavetype.Catalog, year int, cal Calendar) []BalanceResponse {
	types := catalog.All()
	out := make([]BalanceResponse, 0, len(types))
	for _, t := range types {
		used := UsedDays(leaves, t.Code, year, cal)
		remaining := 0
		if t.MaxDaysPerYear > 0 {
			remaining = max(t.MaxDaysPerYear-used, 0)
		}
		out = append(out, BalanceResponse{
			LeaveType:      t.Code,
			Label:          t.Label,
			Year:           year,
			MaxDaysPerYear: t.MaxDaysPerYear,
			UsedDays:       used,
			RemainingDays:  remaining,
		})
	}
	return out
}
