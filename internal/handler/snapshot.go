package handler

import (
	"net/http"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
)

// GetCalendarScreenshot proxies the snapshot renderer for one month. The
// renderer's format variants are normalized inside the client, so this
// endpoint always answers {ok, svg}.
func (h *Handler) GetCalendarScreenshot(w http.ResponseWriter, r *http.Request) {
	month, err := booking.ParseMonthKey(r.URL.Query().Get("month"))
	if err != nil {
		h.reject(w, r, err.Error())
		return
	}

	svg, err := h.renderer.Fetch(r.Context(), string(month))
	if err != nil {
		h.logInternalServerError(r, err)
		h.writeJSON(w, r, http.StatusOK, map[string]any{"ok": false})
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"ok":  true,
		"svg": svg,
	})
}
