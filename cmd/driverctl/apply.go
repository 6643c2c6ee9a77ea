package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
)

func newApplyCmd() *cobra.Command {
	var driverID, from, to string
	var yes bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Book leave for a driver, with a forced override offer when days are full",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				to = from
			}
			ctx := cmd.Context()

			sess := newSession()
			if err := sess.LoadRoster(ctx); err != nil {
				return fmt.Errorf("failed to load roster: %w", err)
			}
			if err := sess.SelectRange(ctx, booking.DateKey(from), booking.DateKey(to)); err != nil {
				return fmt.Errorf("failed to fetch capacity: %w", err)
			}
			if slots, _, _ := sess.CapacityView(); len(slots) > 0 {
				printSlots(slots)
				fmt.Println()
			}

			outcome, err := sess.Submit(ctx, driverID)
			if err != nil {
				return err
			}
			if outcome.State == booking.StateCommitted {
				fmt.Printf("booked %d day(s): %s\n", len(outcome.AppliedDates), joinDates(outcome.AppliedDates))
				return nil
			}

			// quota conflict: the server offers a forced window of working
			// days anchored at the start date
			fmt.Println("Hari pilihan sudah penuh / selected days are full.")
			fmt.Printf("Paksa cuti 3 hari bekerja dari %s? / Force 3 working days of leave from %s? [y/N] ", from, from)
			if !yes && !confirm() {
				sess.CancelForce()
				fmt.Println("dibatalkan / cancelled")
				return nil
			}
			if yes {
				fmt.Println("y")
			}

			forced, err := sess.ConfirmForce(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("forced %d day(s): %s\n", len(forced.AppliedDates), joinDates(forced.AppliedDates))
			return nil
		},
	}

	cmd.Flags().StringVar(&driverID, "driver", "", "driver id")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (defaults to --from)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the forced override without prompting")
	cmd.MarkFlagRequired("driver")
	cmd.MarkFlagRequired("from")

	return cmd
}

func confirm() bool {
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes" || answer == "ya"
}

func joinDates(dates []booking.DateKey) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}
