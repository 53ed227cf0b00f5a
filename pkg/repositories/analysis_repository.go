package repositories

import (
	"context"
	"encoding/json"
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

const uniqueViolationCode = "23505"

// createVersionAttempts bounds the retry loop when two concurrent runs race
// for the same version slot.
const createVersionAttempts = 5

// AnalysisRepository defines the interface for versioned analysis data access.
type AnalysisRepository interface {
	// CreateVersion inserts the analysis with the next version number for
	// its story. Version assignment is atomic: concurrent inserts for the
	// same story never produce duplicate or gapped versions.
	CreateVersion(ctx context.Context, analysis *models.Analysis) error
	Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error)
	Latest(ctx context.Context, storyID uuid.UUID) (*models.Analysis, error)
	GetVersion(ctx context.Context, storyID uuid.UUID, version int) (*models.Analysis, error)
	// History returns all versions for a story, newest first.
	History(ctx context.Context, storyID uuid.UUID) ([]models.Analysis, error)
	// LatestByProject returns the latest analysis per story for every story
	// in the project that has at least one analysis.
	LatestByProject(ctx context.Context, projectID uuid.UUID) (map[uuid.UUID]*models.Analysis, error)
}

type analysisRepository struct {
	db *database.DB
}

// NewAnalysisRepository creates a new analysis repository.
func NewAnalysisRepository(db *database.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

var _ AnalysisRepository = (*analysisRepository)(nil)

func (r *analysisRepository) CreateVersion(ctx context.Context, analysis *models.Analysis) error {
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	analysis.CreatedAt = time.Now().UTC()

	abuseCases, err := json.Marshal(emptyIfNilAbuse(analysis.AbuseCases))
	if err != nil {
		return fmt.Errorf("failed to marshal abuse cases: %w", err)
	}
	threats, err := json.Marshal(emptyIfNilThreats(analysis.StrideThreats))
	if err != nil {
		return fmt.Errorf("failed to marshal stride threats: %w", err)
	}
	requirements, err := json.Marshal(emptyIfNilRequirements(analysis.SecurityRequirements))
	if err != nil {
		return fmt.Errorf("failed to marshal security requirements: %w", err)
	}

	var genConfigID *uuid.UUID
	if analysis.GenerationConfigID != uuid.Nil {
		genConfigID = &analysis.GenerationConfigID
	}

	// The SELECT computes the next version in the same statement as the
	// insert. A concurrent writer can still win the slot between the read
	// and the index update, which surfaces as a unique violation on
	// (story_id, version); retry re-reads the max.
	query := `
		INSERT INTO analyses (id, story_id, version, abuse_cases, stride_threats,
			security_requirements, risk_score, status, error_detail, model_used,
			generation_config_id, created_at)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6, $7, $8, $9, $10, $11
		FROM analyses
		WHERE story_id = $2
		RETURNING version`

	var lastErr error
	for attempt := 0; attempt < createVersionAttempts; attempt++ {
		err := r.db.QueryRow(ctx, query,
			analysis.ID, analysis.StoryID, abuseCases, threats, requirements,
			analysis.RiskScore, analysis.Status, analysis.ErrorDetail,
			analysis.ModelUsed, genConfigID, analysis.CreatedAt,
		).Scan(&analysis.Version)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			lastErr = err
			continue
		}
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return fmt.Errorf("failed to create analysis after %d attempts: %w", createVersionAttempts, lastErr)
}

func (r *analysisRepository) Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	return r.queryOne(ctx, analysisSelect+` WHERE id = $1`, id)
}

func (r *analysisRepository) Latest(ctx context.Context, storyID uuid.UUID) (*models.Analysis, error) {
	return r.queryOne(ctx, analysisSelect+` WHERE story_id = $1 ORDER BY version DESC LIMIT 1`, storyID)
}

func (r *analysisRepository) GetVersion(ctx context.Context, storyID uuid.UUID, version int) (*models.Analysis, error) {
	return r.queryOne(ctx, analysisSelect+` WHERE story_id = $1 AND version = $2`, storyID, version)
}

func (r *analysisRepository) History(ctx context.Context, storyID uuid.UUID) ([]models.Analysis, error) {
	rows, err := r.db.Query(ctx, analysisSelect+` WHERE story_id = $1 ORDER BY version DESC`, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := []models.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

func (r *analysisRepository) LatestByProject(ctx context.Context, projectID uuid.UUID) (map[uuid.UUID]*models.Analysis, error) {
	query := `
		SELECT DISTINCT ON (a.story_id)
			a.id, a.story_id, a.version, a.abuse_cases, a.stride_threats,
			a.security_requirements, a.risk_score, a.status, a.error_detail,
			a.model_used, a.generation_config_id, a.created_at
		FROM analyses a
		JOIN stories s ON s.id = a.story_id
		WHERE s.project_id = $1
		ORDER BY a.story_id, a.version DESC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest analyses: %w", err)
	}
	defer rows.Close()

	latest := map[uuid.UUID]*models.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		latest[a.StoryID] = a
	}
	return latest, rows.Err()
}

const analysisSelect = `
	SELECT id, story_id, version, abuse_cases, stride_threats, security_requirements,
		risk_score, status, error_detail, model_used, generation_config_id, created_at
	FROM analyses`

func (r *analysisRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Analysis, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query analysis: %w", err)
		}
		return nil, apperrors.ErrNotFound
	}
	return scanAnalysis(rows)
}

func scanAnalysis(row pgx.Row) (*models.Analysis, error) {
	var a models.Analysis
	var abuseCases, threats, requirements []byte
	var genConfigID *uuid.UUID

	if err := row.Scan(
		&a.ID, &a.StoryID, &a.Version, &abuseCases, &threats, &requirements,
		&a.RiskScore, &a.Status, &a.ErrorDetail, &a.ModelUsed, &genConfigID, &a.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	if err := json.Unmarshal(abuseCases, &a.AbuseCases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal abuse cases: %w", err)
	}
	if err := json.Unmarshal(threats, &a.StrideThreats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stride threats: %w", err)
	}
	if err := json.Unmarshal(requirements, &a.SecurityRequirements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal security requirements: %w", err)
	}
	if genConfigID != nil {
		a.GenerationConfigID = *genConfigID
	}
	return &a, nil
}

func emptyIfNilAbuse(v []models.AbuseCase) []models.AbuseCase {
	if v == nil {
		return []models.AbuseCase{}
	}
	return v
}

func emptyIfNilThreats(v []models.StrideThreat) []models.StrideThreat {
	if v == nil {
		return []models.StrideThreat{}
	}
	return v
}

func emptyIfNilRequirements(v []models.SecurityRequirement) []models.SecurityRequirement {
	if v == nil {
		return []models.SecurityRequirement{}
	}
	return v
}
