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

// IntegrationRepository defines the interface for issue-tracker integration data access.
type IntegrationRepository interface {
	Create(ctx context.Context, integration *models.Integration) error
	Get(ctx context.Context, id uuid.UUID) (*models.Integration, error)
	List(ctx context.Context, projectID *uuid.UUID) ([]models.Integration, error)
	Update(ctx context.Context, integration *models.Integration) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type integrationRepository struct {
	db *database.DB
}

// NewIntegrationRepository creates a new integration repository.
func NewIntegrationRepository(db *database.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

var _ IntegrationRepository = (*integrationRepository)(nil)

func (r *integrationRepository) Create(ctx context.Context, integration *models.Integration) error {
	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}
	now := time.Now().UTC()
	integration.CreatedAt = now
	integration.UpdatedAt = now

	query := `
		INSERT INTO integrations (id, project_id, kind, name, config, encrypted_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.Exec(ctx, query,
		integration.ID, integration.ProjectID, integration.Kind, integration.Name,
		integration.Config, integration.EncryptedToken, integration.CreatedAt, integration.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	return nil
}

func (r *integrationRepository) Get(ctx context.Context, id uuid.UUID) (*models.Integration, error) {
	query := `
		SELECT id, project_id, kind, name, config, encrypted_token, created_at, updated_at
		FROM integrations
		WHERE id = $1`

	var i models.Integration
	err := r.db.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.ProjectID, &i.Kind, &i.Name, &i.Config, &i.EncryptedToken, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return &i, nil
}

// List returns integrations scoped to a project, or every integration when
// projectID is nil.
func (r *integrationRepository) List(ctx context.Context, projectID *uuid.UUID) ([]models.Integration, error) {
	query := `
		SELECT id, project_id, kind, name, config, encrypted_token, created_at, updated_at
		FROM integrations`
	args := []any{}
	if projectID != nil {
		query += ` WHERE project_id = $1`
		args = append(args, *projectID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer rows.Close()

	integrations := []models.Integration{}
	for rows.Next() {
		var i models.Integration
		if err := rows.Scan(
			&i.ID, &i.ProjectID, &i.Kind, &i.Name, &i.Config, &i.EncryptedToken, &i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan integration: %w", err)
		}
		integrations = append(integrations, i)
	}
	return integrations, rows.Err()
}

func (r *integrationRepository) Update(ctx context.Context, integration *models.Integration) error {
	integration.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE integrations
		SET name = $2, config = $3, encrypted_token = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		integration.ID, integration.Name, integration.Config,
		integration.EncryptedToken, integration.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *integrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM integrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
