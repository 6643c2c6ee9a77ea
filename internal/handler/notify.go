package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

const NotifyQueue = "notify_queue"

// PostNotify enqueues one outbound message for the delivery worker. The
// channel is fixed server-side; callers cannot pick an arbitrary chat. A
// submission id in the metadata makes the enqueue idempotent, so retried
// side effects never double-send.
func (h *Handler) PostNotify(w http.ResponseWriter, r *http.Request) {
	var msg domain.OutboundMessage
	if err := h.readJSON(r, &msg); err != nil {
		h.reject(w, r, err.Error())
		return
	}

	switch msg.Kind {
	case domain.OutboundText, domain.OutboundButtons, domain.OutboundImage:
		msg.ChatID = h.config.WhatsApp.ChatID
	case domain.OutboundEmail:
		if h.config.Email.AlertTo == "" {
			h.reject(w, r, "email alerts are disabled")
			return
		}
		msg.To = h.config.Email.AlertTo
	default:
		h.reject(w, r, fmt.Sprintf("unknown message kind %q", msg.Kind))
		return
	}

	if sid := msg.Metadata["submission_id"]; sid != "" {
		fresh, err := h.markNotified(r.Context(), sid, msg.Kind)
		if err != nil {
			h.rejectInternal(w, r, err)
			return
		}
		if !fresh {
			// already enqueued for this submission, ack without re-sending
			h.writeJSON(w, r, http.StatusOK, map[string]any{"ok": true, "duplicate": true})
			return
		}
	}

	if err := h.publishOutbound(r.Context(), msg); err != nil {
		h.rejectInternal(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) publishOutbound(ctx context.Context, msg domain.OutboundMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.notifyChannel.PublishWithContext(
		ctx,
		"",
		NotifyQueue,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// markNotified claims the (submission, kind) pair, reporting false when it
// was already claimed.
func (h *Handler) markNotified(ctx context.Context, submissionID string, kind domain.OutboundKind) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	key := fmt.Sprintf("notify_sent_%s_%s", submissionID, kind)
	return h.redisClient.SetNX(ctx, key, 1, 24*time.Hour).Result()
}
