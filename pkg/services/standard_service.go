package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/catalog"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// StandardService lists built-in compliance standards and manages a project's
// uploaded custom standards.
type StandardService interface {
	BuiltinNames() []string
	// Upload parses and stores a custom standard. The upload is atomic: a
	// parse failure rejects the whole document and persists nothing.
	Upload(ctx context.Context, projectID uuid.UUID, name, description, fileType, filename string, content []byte) (*models.CustomStandard, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.CustomStandard, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type standardService struct {
	repo     repositories.CustomStandardRepository
	projects repositories.ProjectRepository
	catalog  *catalog.Catalog
	logger   *zap.Logger
}

// NewStandardService creates a new standard service.
func NewStandardService(
	repo repositories.CustomStandardRepository,
	projects repositories.ProjectRepository,
	cat *catalog.Catalog,
	logger *zap.Logger,
) StandardService {
	return &standardService{
		repo:     repo,
		projects: projects,
		catalog:  cat,
		logger:   logger.Named("standard-service"),
	}
}

var _ StandardService = (*standardService)(nil)

func (s *standardService) BuiltinNames() []string {
	return s.catalog.Names()
}

func (s *standardService) Upload(ctx context.Context, projectID uuid.UUID, name, description, fileType, filename string, content []byte) (*models.CustomStandard, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: standard name is required", apperrors.ErrValidation)
	}

	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	controls, err := catalog.ParseUpload(fileType, content)
	if err != nil {
		s.logger.Warn("Custom standard upload rejected",
			zap.String("project_id", projectID.String()),
			zap.String("file_type", fileType),
			zap.Error(err))
		return nil, err
	}

	std := &models.CustomStandard{
		ProjectID:        projectID,
		Name:             name,
		Description:      description,
		FileType:         fileType,
		OriginalFilename: filename,
		Controls:         controls,
	}
	if err := s.repo.Create(ctx, std); err != nil {
		return nil, err
	}

	s.logger.Info("Custom standard uploaded",
		zap.String("standard_id", std.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Int("controls", len(controls)))
	return std, nil
}

func (s *standardService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.CustomStandard, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

// Delete removes a custom standard. Historical compliance mappings are
// snapshots owned by their analyses and survive the deletion.
func (s *standardService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
