package handler

import (
	"net/http"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
)

// GetCapacity answers per-day occupancy for [from, to] in one round trip.
// Days with no bookings are absent from counts; the client defaults them
// to zero.
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	from, err := booking.ParseDateKey(r.URL.Query().Get("from"))
	if err != nil {
		h.reject(w, r, err.Error())
		return
	}
	to, err := booking.ParseDateKey(r.URL.Query().Get("to"))
	if err != nil {
		h.reject(w, r, err.Error())
		return
	}
	if to.Before(from) {
		h.reject(w, r, "to must not be before from")
		return
	}

	counts, err := h.repository.CountsByRange(string(from), string(to))
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
		"counts": counts,
		"max":    settings.MaxPerDay,
	})
}
