package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

var storySources = map[string]bool{
	"manual":       true,
	"jira":         true,
	"azure_devops": true,
	"servicenow":   true,
}

// StoryService provides story CRUD within a project.
type StoryService interface {
	Create(ctx context.Context, story *models.Story) error
	Get(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Story, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type storyService struct {
	repo     repositories.StoryRepository
	projects repositories.ProjectRepository
	logger   *zap.Logger
}

// NewStoryService creates a new story service.
func NewStoryService(repo repositories.StoryRepository, projects repositories.ProjectRepository, logger *zap.Logger) StoryService {
	return &storyService{
		repo:     repo,
		projects: projects,
		logger:   logger.Named("story-service"),
	}
}

var _ StoryService = (*storyService)(nil)

func (s *storyService) Create(ctx context.Context, story *models.Story) error {
	story.Title = strings.TrimSpace(story.Title)
	if story.Title == "" {
		return fmt.Errorf("%w: story title is required", apperrors.ErrValidation)
	}
	if story.Source != "" && !storySources[story.Source] {
		return fmt.Errorf("%w: unknown story source %q", apperrors.ErrValidation, story.Source)
	}

	if _, err := s.projects.Get(ctx, story.ProjectID); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, story); err != nil {
		s.logger.Error("Failed to create story",
			zap.String("project_id", story.ProjectID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("Story created",
		zap.String("story_id", story.ID.String()),
		zap.String("project_id", story.ProjectID.String()))
	return nil
}

func (s *storyService) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	return s.repo.Get(ctx, id)
}

func (s *storyService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Story, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

func (s *storyService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
