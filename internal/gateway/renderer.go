package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RendererClient fetches month images from the calendar-snapshot renderer.
type RendererClient struct {
	baseURL    string
	calendarID string
	client     *http.Client
}

func NewRendererClient(baseURL, calendarID string, timeout time.Duration) *RendererClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RendererClient{
		baseURL:    baseURL,
		calendarID: calendarID,
		client:     &http.Client{Timeout: timeout},
	}
}

// Fetch returns the rendered SVG for one YYYY-MM month. The renderer may
// answer with inline markup or a data URL; both are normalized to raw SVG
// here so nothing else ever branches on the variant.
func (c *RendererClient) Fetch(ctx context.Context, month string) (string, error) {
	params := url.Values{"month": {month}, "calendar": {c.calendarID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/render?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("renderer: status %d for month %s", resp.StatusCode, month)
	}

	var raw struct {
		OK         bool   `json:"ok"`
		SVG        string `json:"svg"`
		SVGDataURL string `json:"svgDataUrl"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&raw); err != nil {
		return "", err
	}
	if !raw.OK {
		return "", fmt.Errorf("renderer: no snapshot for month %s", month)
	}
	if raw.SVG != "" {
		return raw.SVG, nil
	}
	if raw.SVGDataURL != "" {
		return decodeSVGDataURL(raw.SVGDataURL)
	}
	return "", fmt.Errorf("renderer: empty snapshot for month %s", month)
}

func decodeSVGDataURL(dataURL string) (string, error) {
	idx := strings.Index(dataURL, ",")
	if !strings.HasPrefix(dataURL, "data:") || idx < 0 {
		return "", fmt.Errorf("renderer: malformed data URL")
	}
	meta, payload := dataURL[:idx], dataURL[idx+1:]
	if strings.Contains(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", fmt.Errorf("renderer: bad base64 payload: %w", err)
		}
		return string(decoded), nil
	}
	decoded, err := url.QueryUnescape(payload)
	if err != nil {
		return "", fmt.Errorf("renderer: bad URL-encoded payload: %w", err)
	}
	return decoded, nil
}
