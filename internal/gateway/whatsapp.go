package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

// WhatsAppSender talks to the WhatsApp gateway the transport group runs.
// Only the delivery worker holds one; the API and the driver client never
// reach the gateway directly.
type WhatsAppSender struct {
	apiURL string
	token  string
	client *http.Client
	logger *slog.Logger
}

func NewWhatsAppSender(apiURL, token string, timeout time.Duration, logger *slog.Logger) *WhatsAppSender {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhatsAppSender{
		apiURL: apiURL,
		token:  token,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (s *WhatsAppSender) SendText(ctx context.Context, chatID, body string, mentions []string) error {
	return s.post(ctx, "/sendMessage", map[string]any{
		"chatId":   chatID,
		"message":  body,
		"mentions": mentions,
	})
}

func (s *WhatsAppSender) SendButtons(ctx context.Context, chatID string, msg domain.OutboundMessage) error {
	buttons := make([]map[string]string, 0, len(msg.Buttons))
	for i, b := range msg.Buttons {
		id := b.ID
		if id == "" {
			id = fmt.Sprintf("btn-%d", i+1)
		}
		buttons = append(buttons, map[string]string{"buttonId": id, "buttonText": b.Body})
	}
	return s.post(ctx, "/sendButtons", map[string]any{
		"chatId":   chatID,
		"message":  msg.Body,
		"title":    msg.Title,
		"footer":   msg.Footer,
		"buttons":  buttons,
		"mentions": msg.Mentions,
	})
}

func (s *WhatsAppSender) SendFileBase64(ctx context.Context, chatID string, msg domain.OutboundMessage) error {
	return s.post(ctx, "/sendFileByBase64", map[string]any{
		"chatId":   chatID,
		"caption":  msg.Caption,
		"file":     msg.Base64,
		"mimetype": msg.Mime,
		"fileName": msg.Filename,
	})
}

func (s *WhatsAppSender) post(ctx context.Context, path string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
