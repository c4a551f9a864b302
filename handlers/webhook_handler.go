package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"

	"socaPassportAPI/internal/user"
	"socaPassportAPI/services"
)

const maxWebhookBody = int64(65536)

type WebhookHandler struct {
	accountService *services.AccountService
	verifier       *svix.Webhook
}

// NewWebhookHandler verifies Clerk deliveries with the svix signing secret
// (whsec_...). An empty secret disables verification.
func NewWebhookHandler(accountService *services.AccountService, secret string) (*WebhookHandler, error) {
	h := &WebhookHandler{accountService: accountService}
	if secret == "" {
		zap.L().Warn("CLERK_WEBHOOK_SECRET not set, skipping webhook signature verification")
		return h, nil
	}

	verifier, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid clerk webhook secret: %w", err)
	}
	h.verifier = verifier
	return h, nil
}

// HandleClerkWebhook keeps passport_users in step with Clerk so the
// leaderboard can show names and avatars.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		zap.L().Warn("error reading webhook body", zap.Error(err))
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		zap.L().Warn("rejected clerk webhook", zap.Error(err))
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event user.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		zap.L().Warn("error parsing webhook", zap.Error(err))
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch event.Type {
	case "user.created", "user.updated":
		if err := h.handleUserUpsert(ctx, event.Data); err != nil {
			zap.L().Error("error handling webhook", zap.String("type", event.Type), zap.Error(err))
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}
	case "user.deleted":
		if err := h.handleUserDeleted(ctx, event.Data); err != nil {
			zap.L().Error("error handling webhook", zap.String("type", event.Type), zap.Error(err))
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}
	default:
		zap.L().Debug("unhandled webhook event type", zap.String("type", event.Type))
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserUpsert(ctx context.Context, data json.RawMessage) error {
	var userData user.ClerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	return h.accountService.SyncUser(ctx, userData)
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	return h.accountService.DeleteUser(ctx, userData.ID)
}

// verifySignature checks the svix-id, svix-timestamp and svix-signature
// headers Clerk sends, including the timestamp tolerance.
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	if h.verifier == nil {
		return nil
	}
	return h.verifier.Verify(body, header)
}
