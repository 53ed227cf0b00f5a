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

// APIKeyRepository defines the interface for API key verification data access.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	// GetActiveByHash looks up an active key by its SHA-256 hex hash.
	GetActiveByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type apiKeyRepository struct {
	db *database.DB
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(db *database.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

var _ APIKeyRepository = (*apiKeyRepository)(nil)

func (r *apiKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO api_keys (id, name, key_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Exec(ctx, query, key.ID, key.Name, key.KeyHash, key.Active, key.CreatedAt); err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *apiKeyRepository) GetActiveByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `
		SELECT id, name, key_hash, active, last_used_at, created_at
		FROM api_keys
		WHERE key_hash = $1 AND active`

	var k models.APIKey
	err := r.db.QueryRow(ctx, query, keyHash).Scan(
		&k.ID, &k.Name, &k.KeyHash, &k.Active, &k.LastUsedAt, &k.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}
	return &k, nil
}

func (r *apiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("failed to update api key last_used_at: %w", err)
	}
	return nil
}
