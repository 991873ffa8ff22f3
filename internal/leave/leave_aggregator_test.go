package leave_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"leave-portal/internal/leave"
	"leave-portal/internal/leavetype"
)

func submittedAt(l leave.Leave, ts string) leave.Leave {
	at, _ := time.Parse(time.RFC3339, ts)
	l.CreatedAt = at
	return l
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Approved", leave.Label("approved"))
	assert.Equal(t, "Casual Leave", leave.Label("casual_leave"))
	assert.Equal(t, "", leave.Label("  "))
}

func TestToResponse(t *testing.T) {
	decider := uuid.New()
	decidedAt := time.Date(2024, 6, 21, 8, 0, 0, 0, time.UTC)
	l := submittedAt(leaveOn(t, "2024-07-01", "2024-07-03", leave.StatusApproved), "2024-06-20T10:00:00Z")
	l.DecidedBy = &decider
	l.DecidedAt = &decidedAt

	res := leave.ToResponse(l, leave.CalendarDays{})
	assert.Equal(t, "2024-07-01", res.StartDate)
	assert.Equal(t, 3, res.WorkingDays)
	assert.Equal(t, "Approved", res.StatusLabel)
	assert.Equal(t, "2024-06-20T10:00:00Z", res.SubmissionDate)
	assert.Equal(t, decider.String(), *res.DecidedBy)
	assert.Equal(t, "2024-06-21T08:00:00Z", *res.DecidedAt)
}

func TestEmployeeHistory(t *testing.T) {
	me := uuid.New()
	older := submittedAt(leaveOn(t, "2024-07-01", "2024-07-01", leave.StatusApproved), "2024-06-01T00:00:00Z")
	older.EmployeeID = me
	newer := submittedAt(leaveOn(t, "2024-08-01", "2024-08-02", leave.StatusPending), "2024-06-10T00:00:00Z")
	newer.EmployeeID = me
	someoneElse := submittedAt(leaveOn(t, "2024-07-01", "2024-07-01", leave.StatusPending), "2024-06-15T00:00:00Z")

	got := leave.EmployeeHistory([]leave.Leave{older, someoneElse, newer}, me, leave.CalendarDays{})
	assert.Len(t, got, 2)
	assert.Equal(t, newer.ID.String(), got[0].ID)
	assert.Equal(t, older.ID.String(), got[1].ID)
}

func TestPendingQueue_OldestFirst(t *testing.T) {
	first := submittedAt(leaveOn(t, "2024-07-10", "2024-07-11", leave.StatusPending), "2024-06-01T00:00:00Z")
	second := submittedAt(leaveOn(t, "2024-07-01", "2024-07-02", leave.StatusPending), "2024-06-05T00:00:00Z")
	decided := submittedAt(leaveOn(t, "2024-07-01", "2024-07-02", leave.StatusApproved), "2024-05-01T00:00:00Z")

	got := leave.PendingQueue([]leave.Leave{second, decided, first}, leave.CalendarDays{})
	assert.Len(t, got, 2)
	assert.Equal(t, first.ID.String(), got[0].ID)
	assert.Equal(t, second.ID.String(), got[1].ID)
}

func TestManagerView_KeepsEveryStatus(t *testing.T) {
	var all []leave.Leave
	for i, s := range allStatuses {
		l := leaveOn(t, "2024-07-01", "2024-07-02", s)
		l.CreatedAt = time.Date(2024, 6, 1+i, 0, 0, 0, 0, time.UTC)
		all = append(all, l)
	}
	got := leave.ManagerView(all, leave.CalendarDays{})
	assert.Len(t, got, 4)
	assert.Equal(t, "cancelled", got[0].Status)
	assert.Equal(t, 2, got[0].WorkingDays)
}

func TestReport(t *testing.T) {
	t.Run("no requests", func(t *testing.T) {
		rows := leave.Report(nil)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("labels and order", func(t *testing.T) {
		a := submittedAt(leaveOn(t, "2024-07-01", "2024-07-03", leave.StatusRejected), "2024-06-01T09:00:00Z")
		a.EmployeeName = "Ann Lee"
		a.Reason = "Trip"
		b := submittedAt(leaveOn(t, "2024-08-01", "2024-08-01", leave.StatusPending), "2024-06-02T09:00:00Z")
		b.EmployeeName = "Bo Kim"
		b.LeaveType = "sick"

		rows := leave.Report([]leave.Leave{a, b})
		assert.Equal(t, []leave.ReportRow{
			{Employee: "Bo Kim", LeaveType: "Sick", StartDate: "2024-08-01", EndDate: "2024-08-01", Status: "Pending", SubmittedAt: "2024-06-02T09:00:00Z"},
			{Employee: "Ann Lee", LeaveType: "Annual", StartDate: "2024-07-01", EndDate: "2024-07-03", Reason: "Trip", Status: "Rejected", SubmittedAt: "2024-06-01T09:00:00Z"},
		}, rows)
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := leave.WriteCSV(&buf, []leave.ReportRow{
		{Employee: "Ann Lee", LeaveType: "Annual", StartDate: "2024-07-01", EndDate: "2024-07-03", Reason: "Trip, with family", Status: "Approved", SubmittedAt: "2024-06-01T09:00:00Z"},
	})
	assert.NoError(t, err)
	assert.Equal(t,
		"Employee,Leave Type,Start Date,End Date,Reason,Status,Submitted At\n"+
			"Ann Lee,Annual,2024-07-01,2024-07-03,\"Trip, with family\",Approved,2024-06-01T09:00:00Z\n",
		buf.String(),
	)

	buf.Reset()
	assert.NoError(t, leave.WriteCSV(&buf, nil))
	assert.Equal(t, "Employee,Leave Type,Start Date,End Date,Reason,Status,Submitted At\n", buf.String())
}

func TestBalance(t *testing.T) {
	catalog := leavetype.NewCatalog([]leavetype.LeaveType{
		{Code: "annual", Label: "Annual Leave", MaxDaysPerYear: 5},
		{Code: "unpaid", Label: "Unpaid Leave", MaxDaysPerYear: 0},
	})
	leaves := []leave.Leave{
		leaveOn(t, "2024-07-01", "2024-07-03", leave.StatusApproved),
		leaveOn(t, "2024-08-01", "2024-08-05", leave.StatusPending),
	}

	got := leave.Balance(leaves, catalog, 2024, leave.CalendarDays{})
	assert.Equal(t, []leave.BalanceResponse{
		{LeaveType: "annual", Label: "Annual Leave", Year: 2024, MaxDaysPerYear: 5, UsedDays: 8, RemainingDays: 0},
		{LeaveType: "unpaid", Label: "Unpaid Leave", Year: 2024, MaxDaysPerYear: 0, UsedDays: 0, RemainingDays: 0},
	}, got)
}
