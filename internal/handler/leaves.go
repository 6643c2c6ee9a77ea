package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
	"github.com/selatan-haulage/driver-leave/backend/internal/repository"
	"github.com/selatan-haulage/driver-leave/backend/internal/utils"
)

// longest range a single application may cover
const maxRangeDays = 31

func forceSlotKey(driverID string) string {
	return fmt.Sprintf("force_slot_%s", driverID)
}

// Apply commits a leave application against the daily quota. A quota
// conflict seeds the driver's pending-force slot and answers with the
// contract's {ok:false, errors:[{reason:"full"}]} shape; the override
// itself only happens through ApplyForce3.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID  string `json:"driver_id" validate:"required"`
		StartDate string `json:"start_date" validate:"required"`
		EndDate   string `json:"end_date" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.rejectValidation(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.rejectValidation(w, r, err)
		return
	}

	start, err := booking.ParseDateKey(req.StartDate)
	if err != nil {
		h.reject(w, r, err.Error())
		return
	}
	end, err := booking.ParseDateKey(req.EndDate)
	if err != nil {
		h.reject(w, r, err.Error())
		return
	}
	if end.Before(start) {
		h.reject(w, r, "end date must not be before start date")
		return
	}

	driver, err := h.repository.GetDriverByID(req.DriverID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.reject(w, r, "unknown driver")
		default:
			h.rejectInternal(w, r, err)
		}
		return
	}
	if !driver.Active {
		h.reject(w, r, "driver is inactive")
		return
	}

	days := booking.ExpandRange(start, end)
	if len(days) > maxRangeDays {
		h.reject(w, r, fmt.Sprintf("range too long, at most %d days", maxRangeDays))
		return
	}

	settings, err := h.settingsOrDefaults()
	if err != nil {
		h.rejectInternal(w, r, err)
		return
	}

	dates := make([]string, 0, len(days))
	for _, day := range days {
		dates = append(dates, string(day))
	}

	applied, err := h.repository.ApplyLeave(driver.DriverID, dates, settings.MaxPerDay)
	if err != nil {
		quotaErr := &repository.ErrQuotaFull{}
		if errors.As(err, &quotaErr) {
			if err := h.seedForceSlot(r.Context(), driver.DriverID, string(start)); err != nil {
				h.rejectInternal(w, r, err)
				return
			}
			applyErrors := make([]map[string]string, 0, len(quotaErr.Dates))
			for _, day := range quotaErr.Dates {
				applyErrors = append(applyErrors, map[string]string{"reason": "full", "date": day})
			}
			h.writeJSON(w, r, http.StatusOK, map[string]any{
				"ok":      false,
				"errors":  applyErrors,
				"message": "selected days are full",
			})
			return
		}
		h.rejectInternal(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"ok":            true,
		"applied_dates": applied,
		"notification":  h.buildLeaveNotification(driver, applied, false),
	})
}

// ApplyForce3 is the privileged override commit: a fixed window of working
// days from the conflicted start date, quota ignored. It only succeeds
// while the driver's pending-force slot from a prior conflict is live;
// confirmation without a conflict is refused before touching the tables.
func (h *Handler) ApplyForce3(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID  string `json:"driver_id" validate:"required"`
		StartDate string `json:"start_date" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.rejectValidation(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.rejectValidation(w, r, err)
		return
	}

	start, err := booking.ParseDateKey(req.StartDate)
	if err != nil {
		h.reject(w, r, err.Error())
		return
	}

	anchor, err := h.takeForceSlot(r.Context(), req.DriverID)
	if err != nil {
		h.rejectInternal(w, r, err)
		return
	}
	if anchor == "" {
		h.reject(w, r, "no force request pending")
		return
	}
	if anchor != string(start) {
		h.reject(w, r, "pending force request does not match start date")
		return
	}

	driver, err := h.repository.GetDriverByID(req.DriverID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.reject(w, r, "unknown driver")
		default:
			h.rejectInternal(w, r, err)
		}
		return
	}

	settings, err := h.settingsOrDefaults()
	if err != nil {
		h.rejectInternal(w, r, err)
		return
	}

	window := booking.WorkingDays(start, h.config.Booking.ForceWindowLen, settings.WeekendDays)
	if len(window) == 0 {
		h.reject(w, r, "no working days available from start date")
		return
	}
	dates := make([]string, 0, len(window))
	for _, day := range window {
		dates = append(dates, string(day))
	}

	applied, err := h.repository.ForceApplyLeave(driver.DriverID, dates)
	if err != nil {
		h.rejectInternal(w, r, err)
		return
	}

	// every override is flagged to ops; the commit stands even if this fails
	h.enqueueOverrideAlert(r.Context(), driver, applied)

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"ok":            true,
		"applied_dates": applied,
		"notification":  h.buildLeaveNotification(driver, applied, true),
	})
}

// seedForceSlot records the conflicted start date so a later force commit
// can be tied back to a real conflict. The slot expires on its own.
func (h *Handler) seedForceSlot(ctx context.Context, driverID, start string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	ttl := time.Duration(h.config.Booking.ForceSlotTTL) * time.Second
	return h.redisClient.Set(ctx, forceSlotKey(driverID), start, ttl).Err()
}

// takeForceSlot consumes the driver's pending slot, returning "" when none
// is outstanding.
func (h *Handler) takeForceSlot(ctx context.Context, driverID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	anchor, err := h.redisClient.GetDel(ctx, forceSlotKey(driverID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return anchor, nil
}

// enqueueOverrideAlert emails ops that the daily quota was overridden.
func (h *Handler) enqueueOverrideAlert(ctx context.Context, driver *domain.Driver, applied []string) {
	if h.config.Email.AlertTo == "" || len(applied) == 0 {
		return
	}
	msg := domain.OutboundMessage{
		Kind:    domain.OutboundEmail,
		To:      h.config.Email.AlertTo,
		Subject: fmt.Sprintf("Forced leave: %s (%s)", driver.DisplayName, driver.Category),
		Body: fmt.Sprintf(
			"%s (%s, %s) committed forced leave exceeding the daily quota.\nDays: %s\n",
			driver.DisplayName, driver.Category, driver.DriverID, strings.Join(applied, ", "),
		),
	}
	if err := h.publishOutbound(ctx, msg); err != nil {
		slog.Error("unable to enqueue override alert", "driver", driver.DriverID, "error", err)
	}
}

func (h *Handler) buildLeaveNotification(driver *domain.Driver, applied []string, forced bool) *domain.NotificationSpec {
	if len(applied) == 0 {
		return nil
	}
	first, last := applied[0], applied[len(applied)-1]

	var message string
	if first == last {
		message = fmt.Sprintf("%s (%s) bercuti pada %s / on leave %s.", driver.DisplayName, driver.Category, first, first)
	} else {
		message = fmt.Sprintf("%s (%s) bercuti %s hingga %s / on leave %s to %s.", driver.DisplayName, driver.Category, first, last, first, last)
	}
	title := "Permohonan Cuti / Leave Request"
	if forced {
		title = "Cuti Paksa / Forced Leave"
		message += " Kuota harian dilebihi. / Daily quota exceeded."
	}

	submissionID := utils.GenerateSubmissionID()
	spec := &domain.NotificationSpec{
		Message: message,
		Title:   title,
		Footer:  fmt.Sprintf("%d hari / day(s)", len(applied)),
		Buttons: []domain.NotificationButton{
			{Body: "Terima / Acknowledge", ID: "ack-" + submissionID},
		},
		Metadata: map[string]string{
			"submission_id": submissionID,
			"driver_id":     driver.DriverID,
			"start_date":    first,
			"end_date":      last,
		},
	}
	if forced {
		spec.Metadata["forced"] = "true"
	}
	if driver.Phone != "" {
		spec.MentionNumbers = []string{driver.Phone}
	}
	return spec
}
