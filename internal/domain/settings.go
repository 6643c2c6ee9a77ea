package domain

// Settings is the single admin-editable row of calendar configuration.
// WeekendDays uses the 0=Sunday..6=Saturday convention of the admin UI.
type Settings struct {
	CalendarID  string `json:"calendar_id"`
	WeekendDays []int  `json:"weekend_days"`
	MaxPerDay   int    `json:"max_per_day"`
}
