package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
	"github.com/selatan-haulage/driver-leave/backend/internal/utils"
)

// APIClient is the driver-app side of the leave service HTTP API. It
// implements booking.Backend and booking.Bridge, normalizing the wire's
// field-name variants into the canonical internal shapes at this boundary.
type APIClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewAPIClient(baseURL string, timeout time.Duration, logger *slog.Logger) *APIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *APIClient) Drivers(ctx context.Context) (*booking.RosterInfo, error) {
	var raw struct {
		Drivers          []domain.Driver `json:"drivers"`
		WeekendDays      []int           `json:"weekend_days"`
		WeekendDaysCamel []int           `json:"weekendDays"`
		MaxPerDay        int             `json:"max_per_day"`
		Max              int             `json:"max"`
		CalendarID       string          `json:"calendar_id"`
	}
	if err := c.getJSON(ctx, "/api/drivers", nil, &raw); err != nil {
		return nil, err
	}

	info := &booking.RosterInfo{
		Drivers:     raw.Drivers,
		WeekendDays: raw.WeekendDays,
		MaxPerDay:   raw.MaxPerDay,
		CalendarID:  raw.CalendarID,
	}
	if info.WeekendDays == nil {
		info.WeekendDays = raw.WeekendDaysCamel
	}
	if info.WeekendDays == nil {
		info.WeekendDays = []int{6, 0}
	}
	if info.MaxPerDay == 0 {
		info.MaxPerDay = raw.Max
	}
	if info.MaxPerDay == 0 {
		info.MaxPerDay = 3
	}
	return info, nil
}

func (c *APIClient) Capacity(ctx context.Context, from, to booking.DateKey) (*booking.CapacitySnapshot, error) {
	var raw struct {
		OK      *bool                   `json:"ok"`
		Message string                  `json:"message"`
		Counts  map[booking.DateKey]int `json:"counts"`
		Max     int                     `json:"max"`
	}
	params := url.Values{"from": {string(from)}, "to": {string(to)}}
	if err := c.getJSON(ctx, "/api/capacity", params, &raw); err != nil {
		return nil, err
	}
	// a soft rejection or a zero quota must surface as a fetch error; a
	// snapshot with max 0 would classify every day full
	if raw.OK != nil && !*raw.OK {
		if raw.Message != "" {
			return nil, fmt.Errorf("capacity read rejected: %s", raw.Message)
		}
		return nil, fmt.Errorf("capacity read rejected")
	}
	if raw.Max <= 0 {
		return nil, fmt.Errorf("capacity read returned invalid quota %d", raw.Max)
	}
	if raw.Counts == nil {
		raw.Counts = map[booking.DateKey]int{}
	}
	return &booking.CapacitySnapshot{From: from, To: to, Counts: raw.Counts, Max: raw.Max}, nil
}

func (c *APIClient) Apply(ctx context.Context, app booking.LeaveApplication) (*booking.ApplyResult, error) {
	res := &booking.ApplyResult{}
	if err := c.postJSON(ctx, "/api/apply", app, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *APIClient) ApplyForce3(ctx context.Context, driverID string, start booking.DateKey) (*booking.ApplyResult, error) {
	req := struct {
		DriverID  string          `json:"driver_id"`
		StartDate booking.DateKey `json:"start_date"`
	}{driverID, start}

	res := &booking.ApplyResult{}
	if err := c.postJSON(ctx, "/api/apply_force3", req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *APIClient) CalendarSnapshot(ctx context.Context, month booking.MonthKey) ([]byte, error) {
	var raw struct {
		OK  bool   `json:"ok"`
		SVG string `json:"svg"`
	}
	params := url.Values{"month": {string(month)}}
	if err := c.getJSON(ctx, "/api/calendar_screenshot", params, &raw); err != nil {
		return nil, err
	}
	if !raw.OK || raw.SVG == "" {
		return nil, fmt.Errorf("no snapshot returned for %s", month)
	}
	return []byte(raw.SVG), nil
}

// SendImage packages a rendered snapshot into the transmissible base64 form
// and enqueues it on the fixed notification channel.
func (c *APIClient) SendImage(ctx context.Context, caption string, image []byte, mime, filename string) error {
	msg := domain.OutboundMessage{
		Kind:     domain.OutboundImage,
		Caption:  caption,
		Base64:   base64.StdEncoding.EncodeToString(image),
		Mime:     mime,
		Filename: filename,
	}
	return c.postJSON(ctx, "/api/notify", msg, nil)
}

// SendNotification forwards a backend-produced payload verbatim. The
// submission key under metadata lets the server drop duplicates.
func (c *APIClient) SendNotification(ctx context.Context, spec *domain.NotificationSpec) error {
	metadata := spec.Metadata
	if metadata["submission_id"] == "" {
		metadata = make(map[string]string, len(spec.Metadata)+1)
		for k, v := range spec.Metadata {
			metadata[k] = v
		}
		metadata["submission_id"] = utils.GenerateSubmissionID()
	}
	msg := domain.OutboundMessage{
		Kind:     domain.OutboundButtons,
		Body:     spec.Message,
		Title:    spec.Title,
		Footer:   spec.Footer,
		Buttons:  spec.Buttons,
		Mentions: spec.MentionNumbers,
		Metadata: metadata,
	}
	return c.postJSON(ctx, "/api/notify", msg, nil)
}

func (c *APIClient) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

func (c *APIClient) postJSON(ctx context.Context, path string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *APIClient) do(req *http.Request, v any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
