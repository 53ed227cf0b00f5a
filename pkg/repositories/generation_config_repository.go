package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/database"
	"github.com/securereq/securereq-engine/pkg/models"
)

// GenerationConfigRepository defines the interface for the append-only
// generation config history.
type GenerationConfigRepository interface {
	// CreateVersion appends a new config with the next global version number.
	CreateVersion(ctx context.Context, cfg *models.GenerationConfig) error
	Get(ctx context.Context, id uuid.UUID) (*models.GenerationConfig, error)
	// Latest returns the current config, or apperrors.ErrNotFound when none
	// has been created yet.
	Latest(ctx context.Context) (*models.GenerationConfig, error)
	History(ctx context.Context) ([]models.GenerationConfig, error)
}

type generationConfigRepository struct {
	db *database.DB
}

// NewGenerationConfigRepository creates a new generation config repository.
func NewGenerationConfigRepository(db *database.DB) GenerationConfigRepository {
	return &generationConfigRepository{db: db}
}

var _ GenerationConfigRepository = (*generationConfigRepository)(nil)

func (r *generationConfigRepository) CreateVersion(ctx context.Context, cfg *models.GenerationConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cfg.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO generation_configs (id, version, system_prompt, user_prompt_template, provider, model, max_tokens, created_at)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, $4, $5, $6, $7
		FROM generation_configs
		RETURNING version`

	var lastErr error
	for attempt := 0; attempt < createVersionAttempts; attempt++ {
		err := r.db.QueryRow(ctx, query,
			cfg.ID, cfg.SystemPrompt, cfg.UserPromptTemplate,
			cfg.Provider, cfg.Model, cfg.MaxTokens, cfg.CreatedAt,
		).Scan(&cfg.Version)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			lastErr = err
			continue
		}
		return fmt.Errorf("failed to create generation config: %w", err)
	}
	return fmt.Errorf("failed to create generation config after %d attempts: %w", createVersionAttempts, lastErr)
}

func (r *generationConfigRepository) Get(ctx context.Context, id uuid.UUID) (*models.GenerationConfig, error) {
	return r.queryOne(ctx, generationConfigSelect+` WHERE id = $1`, id)
}

func (r *generationConfigRepository) Latest(ctx context.Context) (*models.GenerationConfig, error) {
	return r.queryOne(ctx, generationConfigSelect+` ORDER BY version DESC LIMIT 1`)
}

func (r *generationConfigRepository) History(ctx context.Context) ([]models.GenerationConfig, error) {
	rows, err := r.db.Query(ctx, generationConfigSelect+` ORDER BY version DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation configs: %w", err)
	}
	defer rows.Close()

	configs := []models.GenerationConfig{}
	for rows.Next() {
		var c models.GenerationConfig
		if err := rows.Scan(
			&c.ID, &c.Version, &c.SystemPrompt, &c.UserPromptTemplate,
			&c.Provider, &c.Model, &c.MaxTokens, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation config: %w", err)
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}

const generationConfigSelect = `
	SELECT id, version, system_prompt, user_prompt_template, provider, model, max_tokens, created_at
	FROM generation_configs`

func (r *generationConfigRepository) queryOne(ctx context.Context, query string, args ...any) (*models.GenerationConfig, error) {
	var c models.GenerationConfig
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Version, &c.SystemPrompt, &c.UserPromptTemplate,
		&c.Provider, &c.Model, &c.MaxTokens, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generation config: %w", err)
	}
	return &c, nil
}
