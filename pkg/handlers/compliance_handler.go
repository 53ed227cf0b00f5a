package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/services"
)

// ComplianceHandler handles compliance mapping HTTP requests.
type ComplianceHandler struct {
	compliance services.ComplianceService
	logger     *zap.Logger
}

// NewComplianceHandler creates a new compliance handler.
func NewComplianceHandler(compliance services.ComplianceService, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance, logger: logger}
}

// RegisterRoutes registers the compliance handler's routes on the given mux.
func (h *ComplianceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/analyses/{aid}/compliance", h.List)
	mux.HandleFunc("POST /api/analyses/{aid}/compliance/recompute", h.Recompute)
	mux.HandleFunc("GET /api/analyses/{aid}/compliance/summary", h.Summary)
}

// List handles GET /api/analyses/{aid}/compliance
func (h *ComplianceHandler) List(w http.ResponseWriter, r *http.Request) {
	analysisID, ok := PathUUID(w, r, "aid")
	if !ok {
		return
	}

	mappings, err := h.compliance.ListMappings(r.Context(), analysisID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, mappings); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Recompute handles POST /api/analyses/{aid}/compliance/recompute. The
// mapping set is replaced wholesale, so recomputation is idempotent.
func (h *ComplianceHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	analysisID, ok := PathUUID(w, r, "aid")
	if !ok {
		return
	}

	mappings, err := h.compliance.MapAnalysis(r.Context(), analysisID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, mappings); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Summary handles GET /api/analyses/{aid}/compliance/summary
func (h *ComplianceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	analysisID, ok := PathUUID(w, r, "aid")
	if !ok {
		return
	}

	summary, err := h.compliance.Summary(r.Context(), analysisID)
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
