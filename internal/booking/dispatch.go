package booking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

// Dispatcher fires the post-commit actions: refresh the capacity view,
// export one calendar snapshot per month of the applied range, and forward
// the backend's notification payload. The booking is already durable when
// Run is called, so every action is best-effort and isolated. One failing
// never blocks or rolls back the others.
type Dispatcher struct {
	backend Backend
	bridge  Bridge
	refresh func(ctx context.Context) error
	logger  *slog.Logger
}

func NewDispatcher(backend Backend, bridge Bridge, refresh func(ctx context.Context) error, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		backend: backend,
		bridge:  bridge,
		refresh: refresh,
		logger:  logger,
	}
}

func (d *Dispatcher) Run(ctx context.Context, driver *domain.Driver, applied []DateKey, note *domain.NotificationSpec) {
	if d.refresh != nil {
		if err := d.refresh(ctx); err != nil {
			d.logger.Error("post-commit capacity refresh failed", "error", err)
		}
	}
	d.exportSnapshots(ctx, driver, applied)
	d.forwardNotification(ctx, note)
}

func (d *Dispatcher) exportSnapshots(ctx context.Context, driver *domain.Driver, applied []DateKey) {
	if d.bridge == nil {
		return
	}
	for _, span := range GroupByMonth(applied) {
		image, err := d.backend.CalendarSnapshot(ctx, span.Month)
		if err != nil {
			d.logger.Error("calendar snapshot fetch failed", "month", span.Month, "error", err)
			continue
		}
		if err := d.bridge.SendImage(ctx, snapshotCaption(driver, span), image, "image/svg+xml", fmt.Sprintf("leave-%s.svg", span.Month)); err != nil {
			d.logger.Error("calendar snapshot delivery failed", "month", span.Month, "error", err)
		}
	}
}

func (d *Dispatcher) forwardNotification(ctx context.Context, note *domain.NotificationSpec) {
	if d.bridge == nil || note == nil {
		return
	}
	if len(note.Buttons) == 0 {
		// a button-less payload is malformed; dropping beats sending it silently broken
		d.logger.Warn("dropping notification without buttons", "message", note.Message)
		return
	}
	if err := d.bridge.SendNotification(ctx, note); err != nil {
		d.logger.Error("notification delivery failed", "error", err)
	}
}

func snapshotCaption(driver *domain.Driver, span MonthSpan) string {
	who := "pemandu / driver"
	if driver != nil {
		who = fmt.Sprintf("%s (%s)", driver.DisplayName, driver.Category)
	}
	first, last := span.Days[0], span.Days[len(span.Days)-1]
	if first == last {
		return fmt.Sprintf("%s cuti / on leave %s", who, first)
	}
	return fmt.Sprintf("%s cuti / on leave %s hingga / to %s", who, first, last)
}
