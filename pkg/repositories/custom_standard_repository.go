package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/database"
	"github.com/securereq/securereq-engine/pkg/models"
)

// CustomStandardRepository defines the interface for custom standard data access.
type CustomStandardRepository interface {
	Create(ctx context.Context, std *models.CustomStandard) error
	Get(ctx context.Context, id uuid.UUID) (*models.CustomStandard, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.CustomStandard, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type customStandardRepository struct {
	db *database.DB
}

// NewCustomStandardRepository creates a new custom standard repository.
func NewCustomStandardRepository(db *database.DB) CustomStandardRepository {
	return &customStandardRepository{db: db}
}

var _ CustomStandardRepository = (*customStandardRepository)(nil)

func (r *customStandardRepository) Create(ctx context.Context, std *models.CustomStandard) error {
	if std.ID == uuid.Nil {
		std.ID = uuid.New()
	}
	std.CreatedAt = time.Now().UTC()

	controls, err := json.Marshal(std.Controls)
	if err != nil {
		return fmt.Errorf("failed to marshal controls: %w", err)
	}

	query := `
		INSERT INTO custom_standards (id, project_id, name, description, file_type, original_filename, controls, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.Exec(ctx, query,
		std.ID, std.ProjectID, std.Name, std.Description,
		std.FileType, std.OriginalFilename, controls, std.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create custom standard: %w", err)
	}
	return nil
}

func (r *customStandardRepository) Get(ctx context.Context, id uuid.UUID) (*models.CustomStandard, error) {
	query := `
		SELECT id, project_id, name, description, file_type, original_filename, controls, created_at
		FROM custom_standards
		WHERE id = $1`

	var s models.CustomStandard
	var controls []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ProjectID, &s.Name, &s.Description,
		&s.FileType, &s.OriginalFilename, &controls, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get custom standard: %w", err)
	}

	if err := json.Unmarshal(controls, &s.Controls); err != nil {
		return nil, fmt.Errorf("failed to unmarshal controls: %w", err)
	}
	return &s, nil
}

func (r *customStandardRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.CustomStandard, error) {
	query := `
		SELECT id, project_id, name, description, file_type, original_filename, controls, created_at
		FROM custom_standards
		WHERE project_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom standards: %w", err)
	}
	defer rows.Close()

	standards := []models.CustomStandard{}
	for rows.Next() {
		var s models.CustomStandard
		var controls []byte
		if err := rows.Scan(
			&s.ID, &s.ProjectID, &s.Name, &s.Description,
			&s.FileType, &s.OriginalFilename, &controls, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan custom standard: %w", err)
		}
		if err := json.Unmarshal(controls, &s.Controls); err != nil {
			return nil, fmt.Errorf("failed to unmarshal controls: %w", err)
		}
		standards = append(standards, s)
	}
	return standards, rows.Err()
}

func (r *customStandardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM custom_standards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom standard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
