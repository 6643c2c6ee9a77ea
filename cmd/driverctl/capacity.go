package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
)

func newCapacityCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Show per-day occupancy for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = from
			}
			sess := newSession()
			if err := sess.LoadRoster(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load roster: %w", err)
			}
			if err := sess.SelectRange(cmd.Context(), booking.DateKey(from), booking.DateKey(to)); err != nil {
				return fmt.Errorf("failed to fetch capacity: %w", err)
			}
			slots, hasFull, err := sess.CapacityView()
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				return fmt.Errorf("invalid date range %q to %q", from, to)
			}
			printSlots(slots)
			if hasFull {
				fmt.Println("\nsome days are already full / ada hari yang sudah penuh")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (defaults to --from)")
	cmd.MarkFlagRequired("from")

	return cmd
}

func printSlots(slots []booking.DaySlot) {
	for _, s := range slots {
		fmt.Printf("%s  %d/%d  %s\n", s.Date, s.Count, s.Max, s.Status)
	}
}
