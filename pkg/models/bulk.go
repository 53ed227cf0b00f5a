package models

import "github.com/google/uuid"

// StoryResult is one story's outcome in a bulk analysis run.
type StoryResult struct {
	StoryID              uuid.UUID      `json:"story_id"`
	StoryTitle           string         `json:"story_title"`
	Status               AnalysisStatus `json:"status"`
	AnalysisID           uuid.UUID      `json:"analysis_id,omitempty"`
	RiskScore            *int           `json:"risk_score,omitempty"`
	AbuseCases           *int           `json:"abuse_cases,omitempty"`
	SecurityRequirements *int           `json:"security_requirements,omitempty"`
	Error                string         `json:"error,omitempty"`
}

// BulkResult enumerates every story of a project exactly once, in the
// project's story order, regardless of individual failures.
type BulkResult struct {
	Total   int           `json:"total"`
	Results []StoryResult `json:"results"`
}
