package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/database"
	"github.com/securereq/securereq-engine/pkg/models"
)

// StoryRepository defines the interface for story data access.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	Get(ctx context.Context, id uuid.UUID) (*models.Story, error)
	// ListByProject returns the project's stories in creation order. This
	// order is the canonical ordering for bulk analysis results.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Story, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type storyRepository struct {
	db *database.DB
}

// NewStoryRepository creates a new story repository.
func NewStoryRepository(db *database.DB) StoryRepository {
	return &storyRepository{db: db}
}

var _ StoryRepository = (*storyRepository)(nil)

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	if story.Source == "" {
		story.Source = "manual"
	}
	story.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO stories (id, project_id, title, description, acceptance_criteria, source, external_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.Exec(ctx, query,
		story.ID, story.ProjectID, story.Title, story.Description,
		story.AcceptanceCriteria, story.Source, story.ExternalID, story.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

func (r *storyRepository) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `
		SELECT id, project_id, title, description, acceptance_criteria, source, external_id, created_at
		FROM stories
		WHERE id = $1`

	var s models.Story
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ProjectID, &s.Title, &s.Description,
		&s.AcceptanceCriteria, &s.Source, &s.ExternalID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &s, nil
}

func (r *storyRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Story, error) {
	query := `
		SELECT id, project_id, title, description, acceptance_criteria, source, external_id, created_at
		FROM stories
		WHERE project_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	stories := []models.Story{}
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(
			&s.ID, &s.ProjectID, &s.Title, &s.Description,
			&s.AcceptanceCriteria, &s.Source, &s.ExternalID, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

func (r *storyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
