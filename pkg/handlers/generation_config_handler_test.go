package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/services"
)

// mockGenerationConfigService is a mock for GenerationConfigService.
type mockGenerationConfigService struct {
	versions []models.GenerationConfig
}

var _ services.GenerationConfigService = (*mockGenerationConfigService)(nil)

func (m *mockGenerationConfigService) Effective(ctx context.Context) (*models.GenerationConfig, error) {
	if len(m.versions) == 0 {
		return &models.GenerationConfig{Provider: "anthropic", Model: "claude-sonnet-4-0", MaxTokens: 8192}, nil
	}
	latest := m.versions[len(m.versions)-1]
	return &latest, nil
}

func (m *mockGenerationConfigService) Update(ctx context.Context, update *models.GenerationConfig) (*models.GenerationConfig, error) {
	update.ID = uuid.New()
	update.Version = len(m.versions) + 1
	m.versions = append(m.versions, *update)
	return update, nil
}

func (m *mockGenerationConfigService) History(ctx context.Context) ([]models.GenerationConfig, error) {
	return m.versions, nil
}

func TestGenerationConfigHandler_Effective_Defaults(t *testing.T) {
	handler := NewGenerationConfigHandler(&mockGenerationConfigService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/generation-config", nil)
	rec := httptest.NewRecorder()
	handler.Effective(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var cfg models.GenerationConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.NotEmpty(t, cfg.Model)
}

func TestGenerationConfigHandler_Update_AppendsVersion(t *testing.T) {
	svc := &mockGenerationConfigService{}
	handler := NewGenerationConfigHandler(svc, zap.NewNop())

	body, _ := json.Marshal(map[string]any{
		"provider":   "openai",
		"model":      "gpt-4o",
		"max_tokens": 4096,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/generation-config", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var cfg models.GenerationConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Len(t, svc.versions, 1)
}

func TestGenerationConfigHandler_Update_BadProvider(t *testing.T) {
	handler := NewGenerationConfigHandler(&mockGenerationConfigService{}, zap.NewNop())

	body, _ := json.Marshal(map[string]string{"provider": "gemini"})
	req := httptest.NewRequest(http.MethodPost, "/api/generation-config", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerationConfigHandler_History(t *testing.T) {
	svc := &mockGenerationConfigService{}
	handler := NewGenerationConfigHandler(svc, zap.NewNop())

	for _, model := range []string{"gpt-4o", "gpt-4o-mini"} {
		_, err := svc.Update(context.Background(), &models.GenerationConfig{Provider: "openai", Model: model})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/generation-config/history", nil)
	rec := httptest.NewRecorder()
	handler.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var history []models.GenerationConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 2, history[1].Version)
}
