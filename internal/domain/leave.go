package domain

import (
	"time"
)

// LeaveRecord is one driver-day of booked leave, the unit the daily quota counts.
type LeaveRecord struct {
	ID        int64     `json:"id"`
	DriverID  string    `json:"driver_id"`
	LeaveDate string    `json:"leave_date"` // YYYY-MM-DD in the operating time zone
	Forced    bool      `json:"forced"`
	CreatedAt time.Time `json:"created_at"`
}
