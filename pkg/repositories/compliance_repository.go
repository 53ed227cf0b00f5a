package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/securereq/securereq-engine/pkg/database"
	"github.com/securereq/securereq-engine/pkg/models"
)

// ComplianceRepository defines the interface for compliance mapping data access.
type ComplianceRepository interface {
	// ReplaceForAnalysis atomically swaps the analysis's mapping set.
	// Recomputing a mapping is idempotent: old rows are deleted and the new
	// set inserted inside one transaction.
	ReplaceForAnalysis(ctx context.Context, analysisID uuid.UUID, mappings []models.ComplianceMapping) error
	ListByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]models.ComplianceMapping, error)
}

type complianceRepository struct {
	db *database.DB
}

// NewComplianceRepository creates a new compliance mapping repository.
func NewComplianceRepository(db *database.DB) ComplianceRepository {
	return &complianceRepository{db: db}
}

var _ ComplianceRepository = (*complianceRepository)(nil)

func (r *complianceRepository) ReplaceForAnalysis(ctx context.Context, analysisID uuid.UUID, mappings []models.ComplianceMapping) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM compliance_mappings WHERE analysis_id = $1`, analysisID); err != nil {
		return fmt.Errorf("failed to clear mappings: %w", err)
	}

	query := `
		INSERT INTO compliance_mappings (id, analysis_id, requirement_id, standard_name, control_id, control_title, relevance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i := range mappings {
		m := &mappings[i]
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.AnalysisID = analysisID
		if _, err := tx.Exec(ctx, query,
			m.ID, m.AnalysisID, m.RequirementID, m.StandardName, m.ControlID, m.ControlTitle, m.Relevance,
		); err != nil {
			return fmt.Errorf("failed to insert mapping: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit mappings: %w", err)
	}
	return nil
}

func (r *complianceRepository) ListByAnalysis(ctx context.Context, analysisID uuid.UUID) ([]models.ComplianceMapping, error) {
	query := `
		SELECT id, analysis_id, requirement_id, standard_name, control_id, control_title, relevance
		FROM compliance_mappings
		WHERE analysis_id = $1
		ORDER BY requirement_id, standard_name, control_id`

	rows, err := r.db.Query(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	mappings := []models.ComplianceMapping{}
	for rows.Next() {
		var m models.ComplianceMapping
		if err := rows.Scan(&m.ID, &m.AnalysisID, &m.RequirementID, &m.StandardName, &m.ControlID, &m.ControlTitle, &m.Relevance); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
