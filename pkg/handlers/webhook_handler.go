package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/services"
)

// WebhookHandler handles webhook registration and test-delivery requests.
type WebhookHandler struct {
	webhooks services.WebhookService
	logger   *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(webhooks services.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, logger: logger}
}

// RegisterRoutes registers the webhook handler's routes on the given mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/webhooks", h.Register)
	mux.HandleFunc("GET /api/projects/{pid}/webhooks", h.List)
	mux.HandleFunc("DELETE /api/projects/{pid}/webhooks/{wid}", h.Delete)
	mux.HandleFunc("POST /api/webhooks/{wid}/test", h.Test)
}

type registerWebhookRequest struct {
	URL        string   `json:"url" validate:"required,url"`
	Secret     string   `json:"secret" validate:"required"`
	EventTypes []string `json:"event_types" validate:"required,min=1"`
}

// Register handles POST /api/projects/{pid}/webhooks
func (h *WebhookHandler) Register(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	var req registerWebhookRequest
	if !DecodeBody(w, r, &req) {
		return
	}

	webhook := &models.Webhook{
		ProjectID:  projectID,
		URL:        req.URL,
		Secret:     req.Secret,
		EventTypes: req.EventTypes,
	}
	if err := h.webhooks.Register(r.Context(), webhook); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusCreated, webhook); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/webhooks
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	webhooks, err := h.webhooks.List(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, webhooks); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{pid}/webhooks/{wid}
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}
	webhookID, ok := PathUUID(w, r, "wid")
	if !ok {
		return
	}

	if err := h.webhooks.Delete(r.Context(), projectID, webhookID); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Test handles POST /api/webhooks/{wid}/test. The delivery happens inline so
// the caller learns whether the endpoint accepted a signed payload.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	webhookID, ok := PathUUID(w, r, "wid")
	if !ok {
		return
	}

	if err := h.webhooks.Test(r.Context(), webhookID); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]bool{"delivered": true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
