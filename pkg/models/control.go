package models

import (
	"time"

	"github.com/google/uuid"
)

// Control is a single clause of a compliance standard, built-in or custom.
type Control struct {
	ControlID   string `json:"control_id" yaml:"control_id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
}

// CustomStandard is an organization-specific standard uploaded per project.
// Its controls are parsed once at upload time; a parse failure rejects the
// whole upload, there is never a partially persisted standard.
type CustomStandard struct {
	ID               uuid.UUID `json:"id"`
	ProjectID        uuid.UUID `json:"project_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	FileType         string    `json:"file_type,omitempty"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	Controls         []Control `json:"controls"`
	CreatedAt        time.Time `json:"created_at"`
}

// ComplianceMapping associates a generated security requirement with a control
// it satisfies. Rows are a point-in-time snapshot owned by the analysis:
// deleting a custom standard later never removes historical mappings.
type ComplianceMapping struct {
	ID            uuid.UUID `json:"id"`
	AnalysisID    uuid.UUID `json:"analysis_id"`
	RequirementID string    `json:"requirement_id"`
	StandardName  string    `json:"standard_name"`
	ControlID     string    `json:"control_id"`
	ControlTitle  string    `json:"control_title"`
	Relevance     float64   `json:"relevance"`
}

// StandardSummary aggregates mappings per standard for one analysis.
type StandardSummary struct {
	StandardName   string `json:"standard_name"`
	MappedControls int    `json:"mapped_controls"`
}
