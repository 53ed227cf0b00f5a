package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/services"
)

// StoryHandler handles story HTTP requests.
type StoryHandler struct {
	stories services.StoryService
	logger  *zap.Logger
}

// NewStoryHandler creates a new story handler.
func NewStoryHandler(stories services.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{stories: stories, logger: logger}
}

// RegisterRoutes registers the story handler's routes on the given mux.
func (h *StoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/stories", h.Create)
	mux.HandleFunc("GET /api/projects/{pid}/stories", h.List)
	mux.HandleFunc("GET /api/stories/{sid}", h.Get)
	mux.HandleFunc("DELETE /api/stories/{sid}", h.Delete)
}

type storyRequest struct {
	Title              string `json:"title" validate:"required,max=500"`
	Description        string `json:"description"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
	Source             string `json:"source" validate:"omitempty,oneof=manual jira azure_devops servicenow"`
	ExternalID         string `json:"external_id"`
}

// Create handles POST /api/projects/{pid}/stories
func (h *StoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	var req storyRequest
	if !DecodeBody(w, r, &req) {
		return
	}

	story := &models.Story{
		ProjectID:          projectID,
		Title:              req.Title,
		Description:        req.Description,
		AcceptanceCriteria: req.AcceptanceCriteria,
		Source:             req.Source,
		ExternalID:         req.ExternalID,
	}
	if err := h.stories.Create(r.Context(), story); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusCreated, story); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/projects/{pid}/stories
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	stories, err := h.stories.ListByProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, stories); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/stories/{sid}
func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	storyID, ok := PathUUID(w, r, "sid")
	if !ok {
		return
	}

	story, err := h.stories.Get(r.Context(), storyID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, story); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/stories/{sid}
func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	storyID, ok := PathUUID(w, r, "sid")
	if !ok {
		return
	}

	if err := h.stories.Delete(r.Context(), storyID); err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
