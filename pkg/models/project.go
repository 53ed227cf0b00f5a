package models

import (
	"time"

	"github.com/google/uuid"
)

// Project owns stories, custom standards, integrations and webhooks.
// Deleting a project cascades to everything it owns.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoryRisk is one story's line in a project risk report. RiskScore is nil
// when the story has never been analyzed or its latest run errored.
type StoryRisk struct {
	StoryID    uuid.UUID `json:"story_id"`
	StoryTitle string    `json:"story_title"`
	Version    int       `json:"version,omitempty"`
	RiskScore  *int      `json:"risk_score,omitempty"`
	Analyzed   bool      `json:"analyzed"`
}

// ProjectRiskReport aggregates each story's latest successful analysis.
// Error-status and missing analyses never contribute to the aggregates.
type ProjectRiskReport struct {
	ProjectID        uuid.UUID   `json:"project_id"`
	Stories          []StoryRisk `json:"stories"`
	AnalyzedStories  int         `json:"analyzed_stories"`
	AverageRiskScore int         `json:"average_risk_score"`
	HighestRiskScore int         `json:"highest_risk_score"`
}

// Story is a user story pulled from an issue tracker or entered manually.
// Stories are immutable from the analysis pipeline's point of view; every
// analysis run appends a new version under the story.
type Story struct {
	ID                 uuid.UUID `json:"id"`
	ProjectID          uuid.UUID `json:"project_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	AcceptanceCriteria string    `json:"acceptance_criteria,omitempty"`
	// Source tags where the story came from: "manual", "jira", "azure_devops"
	// or "servicenow".
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
