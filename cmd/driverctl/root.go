package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
	"github.com/selatan-haulage/driver-leave/backend/internal/gateway"
)

var apiBase string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "driverctl",
		Short: "Driver leave client: check capacity and book leave against the daily quota",
	}

	root.PersistentFlags().StringVar(&apiBase, "api", envOr("DRIVERCTL_API", "http://localhost:3000"), "base URL of the leave API")

	root.AddCommand(newDriversCmd())
	root.AddCommand(newCapacityCmd())
	root.AddCommand(newApplyCmd())

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newSession wires the booking core to the HTTP API. The same client serves
// as backend (reads/commits) and bridge (post-commit notification enqueue).
func newSession() *booking.Session {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := gateway.NewAPIClient(apiBase, 15*time.Second, logger)
	return booking.NewSession(client, client, logger)
}
