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

// WebhookRepository defines the interface for webhook registration data access.
type WebhookRepository interface {
	Create(ctx context.Context, webhook *models.Webhook) error
	Get(ctx context.Context, id uuid.UUID) (*models.Webhook, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Webhook, error)
	// ListActiveForEvent returns the project's active webhooks subscribed to
	// the given event type.
	ListActiveForEvent(ctx context.Context, projectID uuid.UUID, eventType string) ([]models.Webhook, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error
}

type webhookRepository struct {
	db *database.DB
}

// NewWebhookRepository creates a new webhook repository.
func NewWebhookRepository(db *database.DB) WebhookRepository {
	return &webhookRepository{db: db}
}

var _ WebhookRepository = (*webhookRepository)(nil)

func (r *webhookRepository) Create(ctx context.Context, webhook *models.Webhook) error {
	if webhook.ID == uuid.Nil {
		webhook.ID = uuid.New()
	}
	webhook.CreatedAt = time.Now().UTC()

	events, err := json.Marshal(webhook.EventTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal event types: %w", err)
	}

	query := `
		INSERT INTO webhooks (id, project_id, url, secret, event_types, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.Exec(ctx, query,
		webhook.ID, webhook.ProjectID, webhook.URL, webhook.Secret,
		events, webhook.Active, webhook.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	return nil
}

func (r *webhookRepository) Get(ctx context.Context, id uuid.UUID) (*models.Webhook, error) {
	query := webhookSelect + ` WHERE id = $1`

	var w models.Webhook
	var events []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.ProjectID, &w.URL, &w.Secret, &events, &w.Active, &w.LastTriggeredAt, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	if err := json.Unmarshal(events, &w.EventTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event types: %w", err)
	}
	return &w, nil
}

func (r *webhookRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Webhook, error) {
	return r.list(ctx, webhookSelect+` WHERE project_id = $1 ORDER BY created_at`, projectID)
}

func (r *webhookRepository) ListActiveForEvent(ctx context.Context, projectID uuid.UUID, eventType string) ([]models.Webhook, error) {
	query := webhookSelect + `
		WHERE project_id = $1 AND active AND event_types @> to_jsonb($2::text)
		ORDER BY created_at`
	return r.list(ctx, query, projectID, eventType)
}

const webhookSelect = `
	SELECT id, project_id, url, secret, event_types, active, last_triggered_at, created_at
	FROM webhooks`

func (r *webhookRepository) list(ctx context.Context, query string, args ...any) ([]models.Webhook, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := []models.Webhook{}
	for rows.Next() {
		var w models.Webhook
		var events []byte
		if err := rows.Scan(
			&w.ID, &w.ProjectID, &w.URL, &w.Secret, &events, &w.Active, &w.LastTriggeredAt, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		if err := json.Unmarshal(events, &w.EventTypes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event types: %w", err)
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (r *webhookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *webhookRepository) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.Exec(ctx, `UPDATE webhooks SET last_triggered_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("failed to mark webhook triggered: %w", err)
	}
	return nil
}
