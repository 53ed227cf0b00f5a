package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/config"
	"github.com/securereq/securereq-engine/pkg/llm"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/prompts"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// GenerationConfigService manages the append-only generation config history.
type GenerationConfigService interface {
	// Effective returns the config the next analysis will use: the latest
	// stored version, or the server defaults (version 0) when none exists.
	Effective(ctx context.Context) (*models.GenerationConfig, error)
	// Update appends a new version. Omitted fields inherit from the current
	// effective config.
	Update(ctx context.Context, update *models.GenerationConfig) (*models.GenerationConfig, error)
	History(ctx context.Context) ([]models.GenerationConfig, error)
}

type generationConfigService struct {
	repo   repositories.GenerationConfigRepository
	cfg    config.GenerationConfig
	logger *zap.Logger
}

// NewGenerationConfigService creates a new generation config service.
func NewGenerationConfigService(repo repositories.GenerationConfigRepository, cfg config.GenerationConfig, logger *zap.Logger) GenerationConfigService {
	return &generationConfigService{
		repo:   repo,
		cfg:    cfg,
		logger: logger.Named("generation-config-service"),
	}
}

var _ GenerationConfigService = (*generationConfigService)(nil)

func (s *generationConfigService) Effective(ctx context.Context) (*models.GenerationConfig, error) {
	stored, err := s.repo.Latest(ctx)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	model := s.cfg.Model
	if model == "" {
		model = llm.DefaultModels[s.cfg.Provider]
	}
	return &models.GenerationConfig{
		SystemPrompt:       prompts.DefaultSystemPrompt,
		UserPromptTemplate: prompts.DefaultUserPromptTemplate,
		Provider:           s.cfg.Provider,
		Model:              model,
		MaxTokens:          s.cfg.MaxTokens,
	}, nil
}

func (s *generationConfigService) Update(ctx context.Context, update *models.GenerationConfig) (*models.GenerationConfig, error) {
	current, err := s.Effective(ctx)
	if err != nil {
		return nil, err
	}

	next := &models.GenerationConfig{
		SystemPrompt:       coalesce(update.SystemPrompt, current.SystemPrompt),
		UserPromptTemplate: coalesce(update.UserPromptTemplate, current.UserPromptTemplate),
		Provider:           coalesce(update.Provider, current.Provider),
		Model:              coalesce(update.Model, current.Model),
		MaxTokens:          current.MaxTokens,
	}
	if update.MaxTokens > 0 {
		next.MaxTokens = update.MaxTokens
	}

	switch next.Provider {
	case llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderOpenAICompatible:
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", apperrors.ErrValidation, next.Provider)
	}

	if err := s.repo.CreateVersion(ctx, next); err != nil {
		return nil, err
	}

	s.logger.Info("Generation config updated",
		zap.Int("version", next.Version),
		zap.String("provider", next.Provider),
		zap.String("model", next.Model))
	return next, nil
}

func (s *generationConfigService) History(ctx context.Context) ([]models.GenerationConfig, error) {
	return s.repo.History(ctx)
}

func coalesce(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
