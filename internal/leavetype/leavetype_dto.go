package leavetype

type LeaveTypeResponse struct {
	Code           string `json:"code"`
	Label          string `json:"label"`
	MaxDaysPerYear int    `json:"max_days_per_year"`
}
