package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the active driver roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := newSession()
			if err := sess.LoadRoster(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load roster: %w", err)
			}
			roster := sess.Roster()

			fmt.Printf("quota %d per day, weekend days %s\n\n", roster.MaxPerDay, formatWeekdays(roster.WeekendDays))
			for _, d := range roster.Drivers {
				status := "active"
				if !d.Active {
					status = "inactive"
				}
				fmt.Printf("%-12s %-24s %-8s %s\n", d.DriverID, d.DisplayName, d.Category, status)
			}
			return nil
		},
	}
}

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func formatWeekdays(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(weekdayNames) {
			names = append(names, weekdayNames[d])
		}
	}
	return strings.Join(names, ",")
}
