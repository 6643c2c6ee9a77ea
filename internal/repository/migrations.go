package repository

import (
	"context"
	"time"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS drivers (
		driver_id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'trailer',
		phone TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		version INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS leave_records (
		id BIGSERIAL PRIMARY KEY,
		driver_id TEXT NOT NULL REFERENCES drivers (driver_id) ON DELETE CASCADE,
		leave_date DATE NOT NULL,
		forced BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (driver_id, leave_date)
	)`,
	`CREATE INDEX IF NOT EXISTS leave_records_leave_date_idx ON leave_records (leave_date)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		calendar_id TEXT NOT NULL,
		weekend_days TEXT NOT NULL,
		max_per_day INTEGER NOT NULL
	)`,
}

// EnsureSchema creates the tables on startup when they are missing.
func (r *Repository) EnsureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	for _, stmt := range schema {
		if _, err := r.dbpool.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
