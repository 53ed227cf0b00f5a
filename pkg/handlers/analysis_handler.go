package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/services"
)

// AnalysisHandler handles analysis generation and history HTTP requests.
type AnalysisHandler struct {
	analyzer services.AnalyzerService
	bulk     services.BulkService
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analyzer services.AnalyzerService, bulk services.BulkService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, bulk: bulk, logger: logger}
}

// RegisterRoutes registers the analysis handler's routes on the given mux.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/stories/{sid}/analyze", h.Analyze)
	mux.HandleFunc("GET /api/stories/{sid}/analyses", h.History)
	mux.HandleFunc("GET /api/stories/{sid}/analyses/latest", h.Latest)
	mux.HandleFunc("GET /api/analyses/{aid}", h.Get)
	mux.HandleFunc("POST /api/analyses/{aid}/export/csv", h.ExportCSV)
	mux.HandleFunc("POST /api/analyses/{aid}/export/json", h.ExportJSON)
	mux.HandleFunc("POST /api/projects/{pid}/analyze", h.AnalyzeProject)
}

// Analyze handles POST /api/stories/{sid}/analyze. Every invocation appends a
// new version; a generation failure is reported in the analysis body, not as
// an HTTP error.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	storyID, ok := PathUUID(w, r, "sid")
	if !ok {
		return
	}

	analysis, err := h.analyzer.Analyze(r.Context(), storyID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusCreated, analysis); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// History handles GET /api/stories/{sid}/analyses. A version query parameter
// selects one historical version.
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	storyID, ok := PathUUID(w, r, "sid")
	if !ok {
		return
	}

	if v := r.URL.Query().Get("version"); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil || version < 1 {
			ErrorResponse(w, http.StatusBadRequest, "invalid_version", "version must be a positive integer") //nolint:errcheck
			return
		}
		analysis, err := h.analyzer.Version(r.Context(), storyID, version)
		if err != nil {
			WriteServiceError(w, err) //nolint:errcheck
			return
		}
		if err := WriteJSON(w, http.StatusOK, analysis); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	history, err := h.analyzer.History(r.Context(), storyID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, history); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Latest handles GET /api/stories/{sid}/analyses/latest
func (h *AnalysisHandler) Latest(w http.ResponseWriter, r *http.Request) {
	storyID, ok := PathUUID(w, r, "sid")
	if !ok {
		return
	}

	analysis, err := h.analyzer.Latest(r.Context(), storyID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, analysis); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/analyses/{aid}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	analysisID, ok := PathUUID(w, r, "aid")
	if !ok {
		return
	}

	analysis, err := h.analyzer.Get(r.Context(), analysisID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, analysis); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ExportCSV handles POST /api/analyses/{aid}/export/csv. The response is a
// downloadable CSV flattening the analysis findings.
func (h *AnalysisHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	analysisID, ok := PathUUID(w, r, "aid")
	if !ok {
		return
	}

	analysis, err := h.analyzer.Get(r.Context(), analysisID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	content, err := services.ExportCSV(analysis)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=security_analysis_%s.csv", analysisID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}

// ExportJSON handles POST /api/analyses/{aid}/export/json. The response is
// the analysis document as a JSON attachment.
func (h *AnalysisHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	analysisID, ok := PathUUID(w, r, "aid")
	if !ok {
		return
	}

	analysis, err := h.analyzer.Get(r.Context(), analysisID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=security_analysis_%s.json", analysisID))
	if err := WriteJSON(w, http.StatusOK, analysis); err != nil {
		h.logger.Error("Failed to write export", zap.Error(err))
	}
}

// AnalyzeProject handles POST /api/projects/{pid}/analyze (bulk analysis).
func (h *AnalysisHandler) AnalyzeProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathUUID(w, r, "pid")
	if !ok {
		return
	}

	result, err := h.bulk.AnalyzeProject(r.Context(), projectID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
