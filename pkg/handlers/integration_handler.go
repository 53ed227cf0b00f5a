package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/services"
)

// IntegrationHandler handles external tracker integration HTTP requests.
// Tokens go in on create and never come back out.
type IntegrationHandler struct {
	integrations services.IntegrationService
	logger       *zap.Logger
}

// NewIntegrationHandler creates a new integration handler.
func NewIntegrationHandler(integrations services.IntegrationService, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrations, logger: logger}
}

// RegisterRoutes registers the integration handler's routes on the given mux.
func (h *IntegrationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/integrations", h.Create)
	mux.HandleFunc("GET /api/projects/{pid}/integrations", h.List)
	mux.HandleFunc("DELETE /api/integrations/{iid}", h.Delete)
}

type createIntegrationRequest struct {
	Kind   string          `json:"kind" validate:"required,oneof=jira azure_devops servicenow"`
	Name   string          `json:"name" validate:"required,max=255"`
	Config json.RawMessage `json:"config" validate:"required"`
	Token  string          `json:"token" validate:"required"`
}

// Create handles POST /api/projects/{pid}/integrations
func (h *IntegrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	var req createIntegrationRequest
	if !DecodeBody(w, r, &req) {
		return
	}

	integration, err := h.integrations.Create(r.Context(), &projectID,
		models.IntegrationKind(req.Kind), req.Name, req.Config, req.Token)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusCreated, integration); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/integrations
func (h *IntegrationHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	integrations, err := h.integrations.List(r.Context(), &projectID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, integrations); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/integrations/{iid}
func (h *IntegrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := PathUUID(w, r, "iid")
	if !ok {
		return
	}

	if err := h.integrations.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
