package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/services"
)

// StandardHandler handles custom compliance standard HTTP requests.
type StandardHandler struct {
	standards services.StandardService
	logger    *zap.Logger
}

// NewStandardHandler creates a new standard handler.
func NewStandardHandler(standards services.StandardService, logger *zap.Logger) *StandardHandler {
	return &StandardHandler{standards: standards, logger: logger}
}

// RegisterRoutes registers the standard handler's routes on the given mux.
func (h *StandardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/standards", h.Builtin)
	mux.HandleFunc("POST /api/projects/{pid}/standards", h.Upload)
	mux.HandleFunc("GET /api/projects/{pid}/standards", h.List)
	mux.HandleFunc("DELETE /api/standards/{csid}", h.Delete)
}

type uploadStandardRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	FileType    string `json:"file_type" validate:"required,oneof=json csv pdf"`
	Filename    string `json:"filename"`
	Content     string `json:"content" validate:"required"`
}

// Builtin handles GET /api/standards, listing the built-in standard names.
func (h *StandardHandler) Builtin(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, map[string][]string{
		"standards": h.standards.BuiltinNames(),
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Upload handles POST /api/projects/{pid}/standards
func (h *StandardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	var req uploadStandardRequest
	if !DecodeBody(w, r, &req) {
		return
	}

	standard, err := h.standards.Upload(r.Context(), projectID,
		req.Name, req.Description, req.FileType, req.Filename, []byte(req.Content))
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusCreated, standard); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/standards
func (h *StandardHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	standards, err := h.standards.ListByProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, standards); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/standards/{csid}. Mappings already computed
// against the standard are snapshots and survive the deletion.
func (h *StandardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := PathUUID(w, r, "csid")
	if !ok {
		return
	}

	if err := h.standards.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
