package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/services"
)

// ProjectHandler handles project HTTP requests.
type ProjectHandler struct {
	projects services.ProjectService
	logger   *zap.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, logger: logger}
}

// RegisterRoutes registers the project handler's routes on the given mux.
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects", h.Create)
	mux.HandleFunc("GET /api/projects", h.List)
	mux.HandleFunc("GET /api/projects/{pid}", h.Get)
	mux.HandleFunc("PUT /api/projects/{pid}", h.Update)
	mux.HandleFunc("DELETE /api/projects/{pid}", h.Delete)
	mux.HandleFunc("GET /api/projects/{pid}/risk-report", h.RiskReport)
}

type projectRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !DecodeBody(w, r, &req) {
		return
	}

	project, err := h.projects.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusCreated, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, projects); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/projects/{pid}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	project, err := h.projects.Get(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/projects/{pid}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	var req projectRequest
	if !DecodeBody(w, r, &req) {
		return
	}

	project, err := h.projects.Update(r.Context(), projectID, req.Name, req.Description)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, project); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RiskReport handles GET /api/projects/{pid}/risk-report
func (h *ProjectHandler) RiskReport(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	report, err := h.projects.RiskReport(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/projects/{pid}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	if err := h.projects.Delete(r.Context(), projectID); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
