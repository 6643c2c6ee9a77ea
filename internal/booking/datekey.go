package booking

import (
	"fmt"
	"slices"
	"time"
)

const (
	dateKeyLayout  = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// DateKey is the canonical YYYY-MM-DD key for one calendar day in the
// operating time zone. Keys are always produced here so the same calendar
// day can never surface under two spellings.
type DateKey string

// MonthKey is the canonical YYYY-MM key for one calendar month.
type MonthKey string

func KeyFor(t time.Time, loc *time.Location) DateKey {
	return DateKey(t.In(loc).Format(dateKeyLayout))
}

func MonthKeyFor(t time.Time, loc *time.Location) MonthKey {
	return MonthKey(t.In(loc).Format(monthKeyLayout))
}

func ParseDateKey(s string) (DateKey, error) {
	if _, err := time.Parse(dateKeyLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateKey(s), nil
}

func ParseMonthKey(s string) (MonthKey, error) {
	if _, err := time.Parse(monthKeyLayout, s); err != nil {
		return "", fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return MonthKey(s), nil
}

func (d DateKey) Valid() bool {
	_, err := time.Parse(dateKeyLayout, string(d))
	return err == nil
}

// Before relies on zero-padded ISO dates ordering lexicographically.
func (d DateKey) Before(other DateKey) bool {
	return string(d) < string(other)
}

func (d DateKey) Month() MonthKey {
	return MonthKey(d.time().Format(monthKeyLayout))
}

func (d DateKey) Weekday() time.Weekday {
	return d.time().Weekday()
}

func (d DateKey) AddDays(n int) DateKey {
	return DateKey(d.time().AddDate(0, 0, n).Format(dateKeyLayout))
}

func (d DateKey) time() time.Time {
	// keys are pure calendar days, so the parse zone is irrelevant
	t, _ := time.Parse(dateKeyLayout, string(d))
	return t
}

// ExpandRange materializes the ordered inclusive run of days from start to
// end, rolling over month and year boundaries. A descending or invalid pair
// yields nil; callers normalize the pair before expanding.
func ExpandRange(start, end DateKey) []DateKey {
	if !start.Valid() || !end.Valid() || end.Before(start) {
		return nil
	}
	days := make([]DateKey, 0, 1)
	for cur := start; !end.Before(cur); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

// MonthSpan is the slice of an applied range that falls inside one month.
type MonthSpan struct {
	Month MonthKey
	Days  []DateKey
}

// GroupByMonth splits an ascending day list into per-month sub-ranges,
// preserving order. Used by the snapshot exporter, which sends one calendar
// image per distinct month.
func GroupByMonth(days []DateKey) []MonthSpan {
	spans := make([]MonthSpan, 0, 1)
	for _, day := range days {
		month := day.Month()
		if n := len(spans); n > 0 && spans[n-1].Month == month {
			spans[n-1].Days = append(spans[n-1].Days, day)
			continue
		}
		spans = append(spans, MonthSpan{Month: month, Days: []DateKey{day}})
	}
	return spans
}

// WorkingDays walks forward from start and collects n days whose weekday is
// not in weekend (0=Sunday..6=Saturday). start itself is included when it is
// a working day. This is the server-side policy behind the forced 3-day
// window; clients only ever supply the anchor. A weekend set covering every
// weekday can never yield a working day, so the walk is capped at n full
// weeks and returns nil when it comes up short.
func WorkingDays(start DateKey, n int, weekend []int) []DateKey {
	if !start.Valid() || n <= 0 {
		return nil
	}
	days := make([]DateKey, 0, n)
	cur := start
	for steps := 0; steps < 7*n; steps++ {
		if !slices.Contains(weekend, int(cur.Weekday())) {
			days = append(days, cur)
			if len(days) == n {
				return days
			}
		}
		cur = cur.AddDays(1)
	}
	return nil
}
