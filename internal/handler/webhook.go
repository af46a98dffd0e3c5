package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/blomstudio/blom/internal/service"
)

// WebhookHandler receives purchase notifications from the external checkout
// provider. A completed purchase turns into a course invite emailed to the
// buyer; redeeming that invite is what creates the enrollment.
type WebhookHandler struct {
	inviteService *service.InviteService
	secret        string
}

func NewWebhookHandler(inviteService *service.InviteService, secret string) *WebhookHandler {
	return &WebhookHandler{inviteService: inviteService, secret: secret}
}

type purchaseEvent struct {
	Type string `json:"type"`
	Data struct {
		Email         string `json:"email"`
		Course        string `json:"course"` // slug or id
		ExpiresInDays int    `json:"expires_in_days,omitempty"`
	} `json:"data"`
}

func (h *WebhookHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	if h.secret == "" {
		slog.Warn("no purchase webhook secret configured, skipping signature verification")
	} else {
		wh, err := standardwebhooks.NewWebhookRaw([]byte(h.secret))
		if err != nil {
			slog.Error("failed to create webhook verifier", "error", err)
			respondError(w, http.StatusInternalServerError, "webhook verification unavailable")
			return
		}

		err = wh.Verify(payload, r.Header)
		if err != nil {
			slog.Warn("invalid webhook signature", "error", err)
			respondError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	var event purchaseEvent
	err = json.Unmarshal(payload, &event)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	slog.Info("purchase webhook received", "event_type", event.Type)

	switch event.Type {
	case "purchase.completed":
		_, _, err = h.inviteService.Create(r.Context(), event.Data.Course, event.Data.Email, event.Data.ExpiresInDays)
		if err != nil {
			slog.Error("failed to create invite from purchase", "error", err, "course", event.Data.Course)
			respondError(w, http.StatusInternalServerError, "failed to process purchase")
			return
		}
	default:
		// Unknown events are acknowledged so the provider stops retrying.
		slog.Warn("purchase webhook unknown event type", "event_type", event.Type)
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
