package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/crypto"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// IntegrationService manages issue-tracker integration records. Access tokens
// are encrypted before storage and never leave the service decrypted except
// through Token.
type IntegrationService interface {
	Create(ctx context.Context, projectID *uuid.UUID, kind models.IntegrationKind, name string, rawConfig json.RawMessage, token string) (*models.Integration, error)
	List(ctx context.Context, projectID *uuid.UUID) ([]models.Integration, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Token decrypts and returns the stored access token.
	Token(ctx context.Context, id uuid.UUID) (string, error)
}

type integrationService struct {
	repo      repositories.IntegrationRepository
	projects  repositories.ProjectRepository
	encryptor *crypto.TokenEncryptor
	logger    *zap.Logger
}

// NewIntegrationService creates a new integration service.
func NewIntegrationService(
	repo repositories.IntegrationRepository,
	projects repositories.ProjectRepository,
	encryptor *crypto.TokenEncryptor,
	logger *zap.Logger,
) IntegrationService {
	return &integrationService{
		repo:      repo,
		projects:  projects,
		encryptor: encryptor,
		logger:    logger.Named("integration-service"),
	}
}

var _ IntegrationService = (*integrationService)(nil)

func (s *integrationService) Create(ctx context.Context, projectID *uuid.UUID, kind models.IntegrationKind, name string, rawConfig json.RawMessage, token string) (*models.Integration, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: integration token is required", apperrors.ErrValidation)
	}

	cfg, err := models.ParseIntegrationConfig(kind, rawConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if projectID != nil {
		if _, err := s.projects.Get(ctx, *projectID); err != nil {
			return nil, err
		}
	}

	encrypted, err := s.encryptor.Encrypt(token)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt integration token: %w", err)
	}

	normalized, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal integration config: %w", err)
	}

	if name == "" {
		name = string(kind)
	}

	integration := &models.Integration{
		ProjectID:      projectID,
		Kind:           kind,
		Name:           name,
		Config:         normalized,
		EncryptedToken: encrypted,
	}
	if err := s.repo.Create(ctx, integration); err != nil {
		return nil, err
	}

	s.logger.Info("Integration created",
		zap.String("integration_id", integration.ID.String()),
		zap.String("kind", string(kind)))
	return integration, nil
}

func (s *integrationService) List(ctx context.Context, projectID *uuid.UUID) ([]models.Integration, error) {
	if projectID != nil {
		if _, err := s.projects.Get(ctx, *projectID); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, projectID)
}

func (s *integrationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *integrationService) Token(ctx context.Context, id uuid.UUID) (string, error) {
	integration, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.encryptor.Decrypt(integration.EncryptedToken)
}
