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

// ProjectService provides project CRUD and aggregate risk reporting.
type ProjectService interface {
	Create(ctx context.Context, name, description string) (*models.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
	Update(ctx context.Context, id uuid.UUID, name, description string) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// RiskReport aggregates each story's latest analysis. Stories whose
	// latest run errored, or that were never analyzed, are listed but
	// excluded from the aggregate figures.
	RiskReport(ctx context.Context, id uuid.UUID) (*models.ProjectRiskReport, error)
}

type projectService struct {
	repo     repositories.ProjectRepository
	stories  repositories.StoryRepository
	analyses repositories.AnalysisRepository
	logger   *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(
	repo repositories.ProjectRepository,
	stories repositories.StoryRepository,
	analyses repositories.AnalysisRepository,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		repo:     repo,
		stories:  stories,
		analyses: analyses,
		logger:   logger.Named("project-service"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Create(ctx context.Context, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", apperrors.ErrValidation)
	}

	project := &models.Project{Name: name, Description: description}
	if err := s.repo.Create(ctx, project); err != nil {
		s.logger.Error("Failed to create project", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("name", project.Name))
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *projectService) List(ctx context.Context) ([]models.Project, error) {
	return s.repo.List(ctx)
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, name, description string) (*models.Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		project.Name = name
	}
	project.Description = description

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) RiskReport(ctx context.Context, id uuid.UUID) (*models.ProjectRiskReport, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	stories, err := s.stories.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	latest, err := s.analyses.LatestByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &models.ProjectRiskReport{
		ProjectID: id,
		Stories:   make([]models.StoryRisk, 0, len(stories)),
	}
	sum := 0
	for _, story := range stories {
		row := models.StoryRisk{StoryID: story.ID, StoryTitle: story.Title}
		if a, ok := latest[story.ID]; ok {
			row.Analyzed = true
			row.Version = a.Version
			if a.Status == models.AnalysisSuccess {
				score := a.RiskScore
				row.RiskScore = &score
				report.AnalyzedStories++
				sum += score
				if score > report.HighestRiskScore {
					report.HighestRiskScore = score
				}
			}
		}
		report.Stories = append(report.Stories, row)
	}
	if report.AnalyzedStories > 0 {
		report.AverageRiskScore = sum / report.AnalyzedStories
	}
	return report, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Project deleted", zap.String("project_id", id.String()))
	return nil
}
