package repository

import (
	"context"
	"time"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

func (r *Repository) GetAllDrivers() ([]*domain.Driver, error) {
	query := `
		SELECT driver_id, display_name, category, phone, active, created_at, version
		FROM drivers ORDER BY display_name, driver_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drivers := make([]*domain.Driver, 0)
	for rows.Next() {
		driver := &domain.Driver{}
		dst := []any{&driver.DriverID, &driver.DisplayName, &driver.Category, &driver.Phone, &driver.Active, &driver.CreatedAt, &driver.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return drivers, nil
}

func (r *Repository) GetDriverByID(driverID string) (*domain.Driver, error) {
	query := `
		SELECT display_name, category, phone, active, created_at, version
		FROM drivers WHERE driver_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	driver := &domain.Driver{
		DriverID: driverID,
	}

	dst := []any{&driver.DisplayName, &driver.Category, &driver.Phone, &driver.Active, &driver.CreatedAt, &driver.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, driverID).Scan(dst...); err != nil {
		return nil, err
	}

	return driver, nil
}

// ReplaceDrivers applies the admin table save: every listed driver is
// upserted and rows absent from the list are removed, matching the
// overwrite semantics of the roster editor.
func (r *Repository) ReplaceDrivers(drivers []*domain.Driver) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO drivers (driver_id, display_name, category, phone, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (driver_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			category = EXCLUDED.category,
			phone = EXCLUDED.phone,
			active = EXCLUDED.active,
			version = drivers.version + 1
	`

	keep := make([]string, 0, len(drivers))
	for _, driver := range drivers {
		args := []any{driver.DriverID, driver.DisplayName, driver.Category, driver.Phone, driver.Active}
		if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
			return err
		}
		keep = append(keep, driver.DriverID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM drivers WHERE NOT (driver_id = ANY($1))`, keep); err != nil {
		return err
	}

	return tx.Commit()
}
