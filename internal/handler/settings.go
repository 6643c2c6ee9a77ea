package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
	"github.com/selatan-haulage/driver-leave/backend/internal/utils"
)

// SaveSettings persists the admin calendar settings. The weekend-day field
// historically arrived as either a comma string ("6,0") or a JSON array and
// under either spelling; it is normalized right here so nothing deeper ever
// sees the variants.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CalendarID       string          `json:"calendar_id" validate:"required"`
		WeekendDays      json.RawMessage `json:"weekend_days"`
		WeekendDaysCamel json.RawMessage `json:"weekendDays"`
		MaxPerDay        int             `json:"max_per_day" validate:"omitempty,min=1,max=50"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	raw := req.WeekendDays
	if raw == nil {
		raw = req.WeekendDaysCamel
	}
	weekendDays, err := normalizeWeekendDays(raw)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	maxPerDay := req.MaxPerDay
	if maxPerDay == 0 {
		maxPerDay = h.config.Booking.MaxPerDay
	}

	settings := &domain.Settings{
		CalendarID:  req.CalendarID,
		WeekendDays: weekendDays,
		MaxPerDay:   maxPerDay,
	}
	if err := h.repository.SaveSettings(settings); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "settings saved", settings)
}

// normalizeWeekendDays accepts `[6,0]`, `"6,0"` or nothing (defaults to
// Saturday and Sunday) and returns the canonical int slice.
func normalizeWeekendDays(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []int{6, 0}, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return utils.ParseWeekendDays(asString)
	}

	var asInts []int
	if err := json.Unmarshal(raw, &asInts); err == nil {
		return utils.ParseWeekendDays(utils.FormatWeekendDays(asInts))
	}

	return nil, errors.New("weekend_days must be a comma string or an array of weekday numbers")
}
