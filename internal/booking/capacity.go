package booking

type DayStatus string

const (
	StatusOK       DayStatus = "ok"
	StatusNearFull DayStatus = "near-full"
	StatusFull     DayStatus = "full"
)

// Classify grades one day's occupancy against the daily quota.
func Classify(count, max int) DayStatus {
	switch {
	case count >= max:
		return StatusFull
	case count == max-1:
		return StatusNearFull
	default:
		return StatusOK
	}
}

// CapacitySnapshot is one backend read of occupancy counts over a range.
// It is informational only: the server re-checks the quota at commit time.
// Days without bookings are absent from Counts.
type CapacitySnapshot struct {
	From   DateKey         `json:"from"`
	To     DateKey         `json:"to"`
	Counts map[DateKey]int `json:"counts"`
	Max    int             `json:"max"`
}

// DaySlot is one classified day of the rendered capacity view.
type DaySlot struct {
	Date   DateKey   `json:"date"`
	Count  int       `json:"count"`
	Max    int       `json:"max"`
	Status DayStatus `json:"status"`
}

// BuildView classifies every requested day against a snapshot, defaulting
// absent days to zero. The second result reports whether any day is full.
func BuildView(days []DateKey, snap *CapacitySnapshot) ([]DaySlot, bool) {
	slots := make([]DaySlot, 0, len(days))
	hasFullDay := false
	for _, day := range days {
		count := snap.Counts[day]
		status := Classify(count, snap.Max)
		if status == StatusFull {
			hasFullDay = true
		}
		slots = append(slots, DaySlot{Date: day, Count: count, Max: snap.Max, Status: status})
	}
	return slots, hasFullDay
}
