package booking

import (
	"context"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

// RosterInfo is the normalized shape of the drivers read. Field-name
// variants on the wire (weekend_days vs weekendDays, max vs max_per_day)
// are resolved by the Backend implementation before this struct exists.
type RosterInfo struct {
	Drivers     []domain.Driver
	WeekendDays []int
	MaxPerDay   int
	CalendarID  string
}

// LeaveApplication is one commit request against the shared daily quota.
type LeaveApplication struct {
	DriverID  string  `json:"driver_id"`
	StartDate DateKey `json:"start_date"`
	EndDate   DateKey `json:"end_date"`
}

const ReasonFull = "full"

// ApplyError is one per-day rejection attached to a failed commit. Only the
// "full" reason marks a quota conflict; anything else is a hard failure.
type ApplyError struct {
	Reason string  `json:"reason"`
	Date   DateKey `json:"date,omitempty"`
}

// ApplyResult is the commit response for both the normal and the forced path.
type ApplyResult struct {
	OK           bool                     `json:"ok"`
	AppliedDates []DateKey                `json:"applied_dates,omitempty"`
	Notification *domain.NotificationSpec `json:"notification,omitempty"`
	Errors       []ApplyError             `json:"errors,omitempty"`
	Message      string                   `json:"message,omitempty"`
}

// QuotaConflict reports whether the rejection carries a "full" day, the sole
// trigger for the force-override path.
func (r *ApplyResult) QuotaConflict() bool {
	if r.OK {
		return false
	}
	for _, e := range r.Errors {
		if e.Reason == ReasonFull {
			return true
		}
	}
	return false
}

// Backend is the leave service as seen from the driver-side session.
type Backend interface {
	Drivers(ctx context.Context) (*RosterInfo, error)
	Capacity(ctx context.Context, from, to DateKey) (*CapacitySnapshot, error)
	Apply(ctx context.Context, app LeaveApplication) (*ApplyResult, error)
	// ApplyForce3 is the privileged commit: a fixed window of working days
	// anchored at start, allowed to exceed the daily quota. The weekday
	// walk is server policy; the anchor is all the client supplies.
	ApplyForce3(ctx context.Context, driverID string, start DateKey) (*ApplyResult, error)
	CalendarSnapshot(ctx context.Context, month MonthKey) ([]byte, error)
}

// Bridge delivers post-commit messages to the fixed notification channel.
type Bridge interface {
	SendImage(ctx context.Context, caption string, image []byte, mime, filename string) error
	SendNotification(ctx context.Context, spec *domain.NotificationSpec) error
}
