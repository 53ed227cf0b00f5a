package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/services"
)

// GenerationConfigHandler handles prompt/model configuration HTTP requests.
type GenerationConfigHandler struct {
	configs services.GenerationConfigService
	logger  *zap.Logger
}

// NewGenerationConfigHandler creates a new generation config handler.
func NewGenerationConfigHandler(configs services.GenerationConfigService, logger *zap.Logger) *GenerationConfigHandler {
	return &GenerationConfigHandler{configs: configs, logger: logger}
}

// RegisterRoutes registers the generation config handler's routes on the given mux.
func (h *GenerationConfigHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/generation-config", h.Effective)
	mux.HandleFunc("POST /api/generation-config", h.Update)
	mux.HandleFunc("GET /api/generation-config/history", h.History)
}

type updateGenerationConfigRequest struct {
	SystemPrompt       string `json:"system_prompt"`
	UserPromptTemplate string `json:"user_prompt_template"`
	Provider           string `json:"provider" validate:"omitempty,oneof=anthropic openai openai_compatible"`
	Model              string `json:"model"`
	MaxTokens          int    `json:"max_tokens" validate:"omitempty,min=1"`
}

// Effective handles GET /api/generation-config, returning the config the
// analyzer would use right now (latest stored version or server defaults).
func (h *GenerationConfigHandler) Effective(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.Effective(r.Context())
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, cfg); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles POST /api/generation-config. Every change appends a new
// version; omitted fields inherit from the current effective config.
func (h *GenerationConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateGenerationConfigRequest
	if !DecodeBody(w, r, &req) {
		return
	}

	cfg, err := h.configs.Update(r.Context(), &models.GenerationConfig{
		SystemPrompt:       req.SystemPrompt,
		UserPromptTemplate: req.UserPromptTemplate,
		Provider:           req.Provider,
		Model:              req.Model,
		MaxTokens:          req.MaxTokens,
	})
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusCreated, cfg); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// History handles GET /api/generation-config/history
func (h *GenerationConfigHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.configs.History(r.Context())
	if err != nil {
		WriteServiceError(w, err) //nolint:errcheck
		return
	}

	if err := WriteJSON(w, http.StatusOK, history); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
