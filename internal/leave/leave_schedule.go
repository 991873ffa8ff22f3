package leave

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Ranges are UTC midnights, so every day is exactly this long.
const secondsPerDay = 24 * 60 * 60

// ParseDate accepts a calendar date or an RFC3339 timestamp and returns the
// date at UTC midnight, so both spellings of the same day compare equal.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", v, err)
	}
	return DateOf(t), nil
}

// DateOf drops the clock part of t, keeping its own calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: DateOf(start), End: DateOf(end)}
}

func (r DateRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// Days is the inclusive span length. Invalid ranges have zero days.
func (r DateRange) Days() int {
	if !r.Valid() {
		return 0
	}
	return int((r.End.Unix()-r.Start.Unix())/secondsPerDay) + 1
}

// Intersect returns the days both ranges share.
func (r DateRange) Intersect(o DateRange) (DateRange, bool) {
	if !r.Overlaps(o) {
		return DateRange{}, false
	}
	out := r
	if o.Start.After(out.Start) {
		out.Start = o.Start
	}
	if o.End.Before(out.End) {
		out.End = o.End
	}
	return out, true
}

func (r DateRange) Contains(day time.Time) bool {
	day = DateOf(day)
	return !day.Before(r.Start) && !day.After(r.End)
}

// Overlaps is true when the ranges share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.End.Before(o.Start) && !o.End.Before(r.Start)
}

func (r DateRange) each(fn func(day time.Time)) {
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// Calendar decides which days of a range count toward leave usage.
type Calendar interface {
	IsWorkingDay(day time.Time) bool
	WorkingDays(start, end time.Time) int
}

const (
	PolicyCalendar = "calendar"
	PolicyBusiness = "business"
)

// CalendarDays counts every day of the range.
type CalendarDays struct{}

func (CalendarDays) IsWorkingDay(time.Time) bool { return true }

func (CalendarDays) WorkingDays(start, end time.Time) int {
	return NewDateRange(start, end).Days()
}

// BusinessDays skips weekends and the configured holidays.
type BusinessDays struct {
	holidays map[time.Time]struct{}
}

func NewBusinessDays(holidays ...time.Time) BusinessDays {
	set := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		set[DateOf(h)] = struct{}{}
	}
	return BusinessDays{holidays: set}
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}

func (b BusinessDays) IsWorkingDay(day time.Time) bool {
	day = DateOf(day)
	if isWeekend(day.Weekday()) {
		return false
	}
	_, holiday := b.holidays[day]
	return !holiday
}

// WorkingDays counts whole weeks arithmetically, so its cost does not grow
// with the length of the range.
func (b BusinessDays) WorkingDays(start, end time.Time) int {
	r := NewDateRange(start, end)
	total := r.Days()
	if total == 0 {
		return 0
	}

	n := total / 7 * 5
	first := r.Start.Weekday()
	for i := 0; i < total%7; i++ {
		if !isWeekend((first + time.Weekday(i)) % 7) {
			n++
		}
	}
	for h := range b.holidays {
		if r.Contains(h) && !isWeekend(h.Weekday()) {
			n--
		}
	}
	return n
}

// NewCalendar builds the policy named by LEAVE_WORKING_DAY_POLICY.
func NewCalendar(policy string, holidays []string) (Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", PolicyCalendar:
		return CalendarDays{}, nil
	case PolicyBusiness:
		days := make([]time.Time, 0, len(holidays))
		for _, h := range holidays {
			d, err := ParseDate(h)
			if err != nil {
				return nil, fmt.Errorf("holiday: %w", err)
			}
			days = append(days, d)
		}
		return NewBusinessDays(days...), nil
	default:
		return nil, fmt.Errorf("unknown working day policy %q", policy)
	}
}

// blocksCalendar reports whether a request still occupies its days.
func blocksCalendar(s Status) bool {
	return s != StatusCancelled
}

// isActive reports whether a request counts for allowance and self-overlap.
func isActive(s Status) bool {
	return s == StatusPending || s == StatusApproved
}

// Overlaps reports whether candidate shares a day with any existing request
// that is not cancelled.
func Overlaps(candidate DateRange, existing []Leave) bool {
	return len(ConflictingLeaves(candidate, existing)) > 0
}

// ConflictingLeaves returns the non-cancelled requests sharing a day with
// candidate, in input order.
func ConflictingLeaves(candidate DateRange, existing []Leave) []Leave {
	var out []Leave
	for _, l := range existing {
		if !blocksCalendar(l.Status) {
			continue
		}
		if candidate.Overlaps(l.Range()) {
			out = append(out, l)
		}
	}
	return out
}

// OccupiedDay is one highlighted day of the manager calendar.
type OccupiedDay struct {
	Date      string   `json:"date"`
	Count     int      `json:"count"`
	Employees []string `json:"employees"`
}

// OccupiedDays lists the days inside window covered by at least one
// non-cancelled request, in date order.
func OccupiedDays(leaves []Leave, window DateRange) []OccupiedDay {
	byDay := make(map[time.Time]*OccupiedDay)
	for _, l := range leaves {
		if !blocksCalendar(l.Status) {
			continue
		}
		r, ok := l.Range().Intersect(window)
		if !ok {
			continue
		}
		r.each(func(day time.Time) {
			od, ok := byDay[day]
			if !ok {
				od = &OccupiedDay{Date: day.Format(DateLayout), Employees: []string{}}
				byDay[day] = od
			}
			od.Count++
			if l.EmployeeName != "" {
				od.Employees = append(od.Employees, l.EmployeeName)
			}
		})
	}

	out := make([]OccupiedDay, 0, len(byDay))
	for _, od := range byDay {
		sort.Strings(od.Employees)
		out = append(out, *od)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// UsedDays sums working days of active requests of leaveType starting in year.
func UsedDays(leaves []Leave, leaveType string, year int, cal Calendar) int {
	used := 0
	for _, l := range leaves {
		if l.LeaveType != leaveType || !isActive(l.Status) {
			continue
		}
		if l.StartDate.Year() != year {
			continue
		}
		used += cal.WorkingDays(l.StartDate, l.EndDate)
	}
	return used
}
