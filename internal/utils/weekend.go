package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseWeekendDays parses the admin form's comma-separated weekday list
// ("6,0" means Saturday and Sunday, 0=Sunday..6=Saturday). Duplicates are
// collapsed; an empty string means no weekend days.
func ParseWeekendDays(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}

	seen := map[int]bool{}
	days := make([]int, 0, 2)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := strconv.Atoi(part)
		if err != nil || day < 0 || day > 6 {
			return nil, fmt.Errorf("invalid weekend day %q, expected 0-6", part)
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	if len(days) == 7 {
		// a whole-week weekend leaves no working day for the forced window
		return nil, errors.New("weekend days cannot cover the whole week")
	}
	return days, nil
}

func FormatWeekendDays(days []int) string {
	parts := make([]string, 0, len(days))
	for _, day := range days {
		parts = append(parts, strconv.Itoa(day))
	}
	return strings.Join(parts, ",")
}
