package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
)

func TestKeyFor_CanonicalForm(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	require.NoError(t, err)

	// 23:30 UTC is already the next day in Kuala Lumpur (UTC+8)
	utc := time.Date(2024, time.June, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, booking.DateKey("2024-06-02"), booking.KeyFor(utc, loc))
	assert.Equal(t, booking.MonthKey("2024-06"), booking.MonthKeyFor(utc, loc))
}

func TestParseDateKey(t *testing.T) {
	d, err := booking.ParseDateKey("2024-06-05")
	require.NoError(t, err)
	assert.Equal(t, booking.DateKey("2024-06-05"), d)

	for _, bad := range []string{"", "2024-6-5", "05-06-2024", "2024-13-01", "not-a-date"} {
		_, err := booking.ParseDateKey(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestExpandRange_InclusiveOrdered(t *testing.T) {
	days := booking.ExpandRange("2024-06-01", "2024-06-04")
	assert.Equal(t, []booking.DateKey{"2024-06-01", "2024-06-02", "2024-06-03", "2024-06-04"}, days)
}

func TestExpandRange_SingleDay(t *testing.T) {
	days := booking.ExpandRange("2024-06-10", "2024-06-10")
	assert.Equal(t, []booking.DateKey{"2024-06-10"}, days)
}

func TestExpandRange_MonthRollover(t *testing.T) {
	days := booking.ExpandRange("2024-06-29", "2024-07-02")
	assert.Equal(t, []booking.DateKey{"2024-06-29", "2024-06-30", "2024-07-01", "2024-07-02"}, days)
}

func TestExpandRange_YearRollover(t *testing.T) {
	days := booking.ExpandRange("2024-12-31", "2025-01-01")
	assert.Equal(t, []booking.DateKey{"2024-12-31", "2025-01-01"}, days)
}

func TestExpandRange_LeapDay(t *testing.T) {
	days := booking.ExpandRange("2024-02-28", "2024-03-01")
	assert.Equal(t, []booking.DateKey{"2024-02-28", "2024-02-29", "2024-03-01"}, days)
}

func TestExpandRange_DescendingOrInvalid(t *testing.T) {
	assert.Nil(t, booking.ExpandRange("2024-06-04", "2024-06-01"))
	assert.Nil(t, booking.ExpandRange("garbage", "2024-06-01"))
	assert.Nil(t, booking.ExpandRange("2024-06-01", ""))
}

func TestGroupByMonth(t *testing.T) {
	days := booking.ExpandRange("2024-06-29", "2024-07-02")
	spans := booking.GroupByMonth(days)

	require.Len(t, spans, 2)
	assert.Equal(t, booking.MonthKey("2024-06"), spans[0].Month)
	assert.Equal(t, []booking.DateKey{"2024-06-29", "2024-06-30"}, spans[0].Days)
	assert.Equal(t, booking.MonthKey("2024-07"), spans[1].Month)
	assert.Equal(t, []booking.DateKey{"2024-07-01", "2024-07-02"}, spans[1].Days)
}

func TestGroupByMonth_SingleMonth(t *testing.T) {
	spans := booking.GroupByMonth(booking.ExpandRange("2024-06-10", "2024-06-12"))
	require.Len(t, spans, 1)
	assert.Equal(t, booking.MonthKey("2024-06"), spans[0].Month)
	assert.Len(t, spans[0].Days, 3)
}

func TestWorkingDays_SkipsWeekend(t *testing.T) {
	// 2024-06-07 is a Friday; Sat/Sun are weekend
	days := booking.WorkingDays("2024-06-07", 3, []int{6, 0})
	assert.Equal(t, []booking.DateKey{"2024-06-07", "2024-06-10", "2024-06-11"}, days)
}

func TestWorkingDays_WeekendAnchorShifts(t *testing.T) {
	// 2024-06-08 is a Saturday, so the window starts Monday
	days := booking.WorkingDays("2024-06-08", 3, []int{6, 0})
	assert.Equal(t, []booking.DateKey{"2024-06-10", "2024-06-11", "2024-06-12"}, days)
}

func TestWorkingDays_NoWeekend(t *testing.T) {
	days := booking.WorkingDays("2024-06-08", 3, nil)
	assert.Equal(t, []booking.DateKey{"2024-06-08", "2024-06-09", "2024-06-10"}, days)
}

func TestWorkingDays_InvalidInput(t *testing.T) {
	assert.Nil(t, booking.WorkingDays("nope", 3, []int{6, 0}))
	assert.Nil(t, booking.WorkingDays("2024-06-07", 0, []int{6, 0}))
}

func TestWorkingDays_AllWeekendTerminates(t *testing.T) {
	// a weekend set covering the whole week can never produce a window; the
	// walk must give up instead of spinning forever
	assert.Nil(t, booking.WorkingDays("2024-06-10", 3, []int{0, 1, 2, 3, 4, 5, 6}))
}

func TestWorkingDays_SingleWorkingWeekday(t *testing.T) {
	// only Friday (5) is a working day; the window spans three weeks
	weekend := []int{0, 1, 2, 3, 4, 6}
	days := booking.WorkingDays("2024-06-10", 3, weekend)
	assert.Equal(t, []booking.DateKey{"2024-06-14", "2024-06-21", "2024-06-28"}, days)
}
