package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ErrQuotaFull is returned by ApplyLeave when at least one requested day is
// already at the daily quota. It carries every full day so the response can
// name them.
type ErrQuotaFull struct {
	Dates []string
}

func (e *ErrQuotaFull) Error() string {
	return fmt.Sprintf("daily quota reached on %s", strings.Join(e.Dates, ", "))
}

// CountsByRange returns per-day occupancy for [from, to]. Days without
// bookings are absent from the map.
func (r *Repository) CountsByRange(from, to string) (map[string]int, error) {
	query := `
		SELECT to_char(leave_date, 'YYYY-MM-DD'), COUNT(*)
		FROM leave_records
		WHERE leave_date BETWEEN $1::date AND $2::date
		GROUP BY leave_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		counts[day] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// ApplyLeave books every requested day for the driver inside one
// transaction, enforcing the daily quota. Concurrent applications touching
// the same day are serialized with per-day advisory locks, so the count
// check cannot race another commit. Days the driver already booked count
// as applied rather than erroring.
func (r *Repository) ApplyLeave(driverID string, dates []string, maxPerDay int) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, day := range dates {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "leave_day_"+day); err != nil {
			return nil, err
		}
	}

	countQuery := `
		SELECT to_char(leave_date, 'YYYY-MM-DD'), COUNT(*)
		FROM leave_records
		WHERE leave_date = ANY($1::date[]) AND driver_id <> $2
		GROUP BY leave_date
	`
	rows, err := tx.QueryContext(ctx, countQuery, dates, driverID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			rows.Close()
			return nil, err
		}
		counts[day] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	full := make([]string, 0)
	for _, day := range dates {
		if counts[day] >= maxPerDay {
			full = append(full, day)
		}
	}
	if len(full) > 0 {
		return nil, &ErrQuotaFull{Dates: full}
	}

	insert := `
		INSERT INTO leave_records (driver_id, leave_date)
		VALUES ($1, $2::date)
		ON CONFLICT (driver_id, leave_date) DO NOTHING
	`
	for _, day := range dates {
		if _, err := tx.ExecContext(ctx, insert, driverID, day); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return dates, nil
}

// ForceApplyLeave books the given days without any quota check. Used only
// by the privileged override path; rows are marked forced for auditing.
func (r *Repository) ForceApplyLeave(driverID string, dates []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO leave_records (driver_id, leave_date, forced)
		VALUES ($1, $2::date, TRUE)
		ON CONFLICT (driver_id, leave_date) DO UPDATE SET forced = TRUE
	`
	for _, day := range dates {
		if _, err := tx.ExecContext(ctx, insert, driverID, day); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return dates, nil
}
