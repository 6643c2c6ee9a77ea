package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"slices"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
	"github.com/selatan-haulage/driver-leave/backend/internal/utils"
)

// GetDrivers answers the driver-app bootstrap read: the roster plus the
// calendar settings the picker needs.
func (h *Handler) GetDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.repository.GetAllDrivers()
	if err != nil {
		h.rejectInternal(w, r, err)
		return
	}

	settings, err := h.settingsOrDefaults()
	if err != nil {
		h.rejectInternal(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"drivers":      drivers,
		"weekend_days": settings.WeekendDays,
		"max_per_day":  settings.MaxPerDay,
		"calendar_id":  settings.CalendarID,
	})
}

// UpsertDrivers applies an admin roster save: the posted list replaces the
// stored table.
func (h *Handler) UpsertDrivers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Upserts []struct {
			DriverID    string `json:"driver_id"`
			DisplayName string `json:"display_name" validate:"required"`
			Category    string `json:"category" validate:"required"`
			Phone       string `json:"phone"`
			Active      *bool  `json:"active"`
		} `json:"upserts" validate:"required,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	drivers := make([]*domain.Driver, 0, len(req.Upserts))
	for _, up := range req.Upserts {
		category := domain.DriverCategory(up.Category)
		if !slices.Contains(domain.DriverCategories, category) {
			h.errorResponse(w, r, "unknown driver category: "+up.Category)
			return
		}
		driverID := up.DriverID
		if driverID == "" {
			driverID = utils.GenerateDriverID()
		}
		active := true
		if up.Active != nil {
			active = *up.Active
		}
		drivers = append(drivers, &domain.Driver{
			DriverID:    driverID,
			DisplayName: up.DisplayName,
			Category:    category,
			Phone:       up.Phone,
			Active:      active,
		})
	}

	if err := h.repository.ReplaceDrivers(drivers); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "drivers saved", drivers)
}

// settingsOrDefaults falls back to the configured defaults when the
// settings row has not been written yet.
func (h *Handler) settingsOrDefaults() (*domain.Settings, error) {
	settings, err := h.repository.GetSettings()
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	weekendDays, err := utils.ParseWeekendDays(h.config.Booking.WeekendDays)
	if err != nil {
		return nil, err
	}
	return &domain.Settings{
		CalendarID:  h.config.Calendar.CalendarID,
		WeekendDays: weekendDays,
		MaxPerDay:   h.config.Booking.MaxPerDay,
	}, nil
}
