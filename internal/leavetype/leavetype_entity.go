package leavetype

import "time"

type LeaveType struct {
	Code           string `gorm:"type:varchar(30);primaryKey"`
	Label          string `gorm:"type:varchar(100);not null"`
	MaxDaysPerYear int    `gorm:"type:int;not null;default:0"`
	SortOrder      int    `gorm:"type:int;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultLeaveTypes seeds an empty catalog on first start.
var DefaultLeaveTypes = []LeaveType{
	{Code: "annual", Label: "Annual Leave", MaxDaysPerYear: 20, SortOrder: 1},
	{Code: "sick", Label: "Sick Leave", MaxDaysPerYear: 14, SortOrder: 2},
	{Code: "casual", Label: "Casual Leave", MaxDaysPerYear: 10, SortOrder: 3},
	{Code: "maternity", Label: "Maternity Leave", MaxDaysPerYear: 90, SortOrder: 4},
}
