package repository

import (
	"context"
	"time"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
	"github.com/selatan-haulage/driver-leave/backend/internal/utils"
)

// GetSettings reads the single calendar-settings row.
func (r *Repository) GetSettings() (*domain.Settings, error) {
	query := `
		SELECT calendar_id, weekend_days, max_per_day
		FROM settings WHERE id = 1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	settings := &domain.Settings{}
	var weekendDays string
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(&settings.CalendarID, &weekendDays, &settings.MaxPerDay); err != nil {
		return nil, err
	}

	days, err := utils.ParseWeekendDays(weekendDays)
	if err != nil {
		return nil, err
	}
	settings.WeekendDays = days

	return settings, nil
}

func (r *Repository) SaveSettings(settings *domain.Settings) error {
	query := `
		INSERT INTO settings (id, calendar_id, weekend_days, max_per_day)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET calendar_id = EXCLUDED.calendar_id,
			weekend_days = EXCLUDED.weekend_days,
			max_per_day = EXCLUDED.max_per_day
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{settings.CalendarID, utils.FormatWeekendDays(settings.WeekendDays), settings.MaxPerDay}
	if _, err := r.dbpool.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

// EnsureDefaultSettings seeds the settings row on first boot and leaves an
// existing row untouched.
func (r *Repository) EnsureDefaultSettings(calendarID, weekendDays string, maxPerDay int) error {
	query := `
		INSERT INTO settings (id, calendar_id, weekend_days, max_per_day)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, calendarID, weekendDays, maxPerDay); err != nil {
		return err
	}

	return nil
}
