package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// BulkService analyzes every story of a project in one orchestrated run.
type BulkService interface {
	// AnalyzeProject runs an analysis for each of the project's stories with
	// bounded concurrency. One story's failure never stops the others: the
	// result enumerates every story exactly once, in the project's story
	// order. Returns apperrors.ErrNoStories when the project is empty.
	AnalyzeProject(ctx context.Context, projectID uuid.UUID) (*models.BulkResult, error)
}

type bulkService struct {
	projects repositories.ProjectRepository
	stories  repositories.StoryRepository
	analyzer AnalyzerService
	webhooks WebhookService
	workers  int64
	logger   *zap.Logger
}

// NewBulkService creates a new bulk analysis service. workers bounds how many
// stories are analyzed concurrently.
func NewBulkService(
	projects repositories.ProjectRepository,
	stories repositories.StoryRepository,
	analyzer AnalyzerService,
	webhooks WebhookService,
	workers int,
	logger *zap.Logger,
) BulkService {
	if workers < 1 {
		workers = 1
	}
	return &bulkService{
		projects: projects,
		stories:  stories,
		analyzer: analyzer,
		webhooks: webhooks,
		workers:  int64(workers),
		logger:   logger.Named("bulk-service"),
	}
}

var _ BulkService = (*bulkService)(nil)

func (s *bulkService) AnalyzeProject(ctx context.Context, projectID uuid.UUID) (*models.BulkResult, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}

	stories, err := s.stories.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, apperrors.ErrNoStories
	}

	s.logger.Info("Starting bulk analysis",
		zap.String("project_id", projectID.String()),
		zap.Int("stories", len(stories)),
		zap.Int64("workers", s.workers))

	// Results are written by index so the output preserves story order no
	// matter which analyses finish first.
	results := make([]models.StoryResult, len(stories))
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup

	for i := range stories {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled; mark the remaining stories as failed
			// rather than dropping them from the result.
			for j := i; j < len(stories); j++ {
				results[j] = models.StoryResult{
					StoryID:    stories[j].ID,
					StoryTitle: stories[j].Title,
					Status:     models.AnalysisError,
					Error:      err.Error(),
				}
			}
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			// A started story runs to completion even if the request is
			// cancelled; cancellation only stops not-yet-started stories
			// via the semaphore acquire above.
			results[i] = s.analyzeOne(context.WithoutCancel(ctx), &stories[i])
		}(i)
	}
	wg.Wait()

	result := &models.BulkResult{Total: len(stories), Results: results}

	succeeded := 0
	for _, r := range results {
		if r.Status == models.AnalysisSuccess {
			succeeded++
		}
	}
	s.logger.Info("Bulk analysis finished",
		zap.String("project_id", projectID.String()),
		zap.Int("total", result.Total),
		zap.Int("succeeded", succeeded))

	go s.webhooks.Dispatch(context.WithoutCancel(context.Background()), projectID, models.EventBulkCompleted, result)
	return result, nil
}

func (s *bulkService) analyzeOne(ctx context.Context, story *models.Story) models.StoryResult {
	result := models.StoryResult{
		StoryID:    story.ID,
		StoryTitle: story.Title,
	}

	analysis, err := s.analyzer.Analyze(ctx, story.ID)
	if err != nil {
		result.Status = models.AnalysisError
		result.Error = err.Error()
		return result
	}

	result.Status = analysis.Status
	result.AnalysisID = analysis.ID
	if analysis.Status == models.AnalysisError {
		result.Error = analysis.ErrorDetail
		return result
	}

	score := analysis.RiskScore
	abuseCases := len(analysis.AbuseCases)
	requirements := len(analysis.SecurityRequirements)
	result.RiskScore = &score
	result.AbuseCases = &abuseCases
	result.SecurityRequirements = &requirements
	return result
}
