package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/config"
	"github.com/securereq/securereq-engine/pkg/llm"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/prompts"
)

func newGenerationConfigFixture() (GenerationConfigService, *mockGenerationConfigRepo) {
	repo := &mockGenerationConfigRepo{}
	cfg := config.GenerationConfig{
		Provider:  llm.ProviderAnthropic,
		MaxTokens: 4096,
	}
	return NewGenerationConfigService(repo, cfg, zap.NewNop()), repo
}

func TestEffective_DefaultsWhenHistoryEmpty(t *testing.T) {
	svc, _ := newGenerationConfigFixture()

	cfg, err := svc.Effective(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Version)
	assert.Equal(t, llm.ProviderAnthropic, cfg.Provider)
	assert.Equal(t, llm.DefaultModels[llm.ProviderAnthropic], cfg.Model)
	assert.Equal(t, prompts.DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, prompts.DefaultUserPromptTemplate, cfg.UserPromptTemplate)
	assert.Equal(t, 4096, cfg.MaxTokens)
}

func TestUpdate_AppendsVersionAndInherits(t *testing.T) {
	svc, _ := newGenerationConfigFixture()

	first, err := svc.Update(context.Background(), &models.GenerationConfig{
		SystemPrompt: "You are a pentester.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "You are a pentester.", first.SystemPrompt)
	// Unspecified fields inherit the effective config.
	assert.Equal(t, prompts.DefaultUserPromptTemplate, first.UserPromptTemplate)
	assert.Equal(t, llm.ProviderAnthropic, first.Provider)

	second, err := svc.Update(context.Background(), &models.GenerationConfig{
		Provider:  llm.ProviderOpenAI,
		Model:     "gpt-4o-mini",
		MaxTokens: 2048,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	// The custom system prompt carries forward.
	assert.Equal(t, "You are a pentester.", second.SystemPrompt)
	assert.Equal(t, "gpt-4o-mini", second.Model)
	assert.Equal(t, 2048, second.MaxTokens)

	effective, err := svc.Effective(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, effective.Version)

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
}

func TestUpdate_RejectsUnknownProvider(t *testing.T) {
	svc, repo := newGenerationConfigFixture()

	_, err := svc.Update(context.Background(), &models.GenerationConfig{Provider: "cohere"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, repo.configs)
}
