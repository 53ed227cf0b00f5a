package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/securereq/securereq-engine/pkg/models"
)

func TestBuildUserPrompt_AllSections(t *testing.T) {
	story := StoryInput{
		Title:              "Password reset",
		Description:        "As a user I want to reset my password via email.",
		AcceptanceCriteria: "Reset link expires after 15 minutes",
	}
	stds := []models.CustomStandard{
		{
			Name: "ACME-SEC",
			Controls: []models.Control{
				{ControlID: "ACME-1", Title: "Token lifetime", Description: "Short-lived tokens only"},
			},
		},
	}

	got := BuildUserPrompt(DefaultUserPromptTemplate, story, stds)

	assert.Contains(t, got, "**User Story Title:** Password reset")
	assert.Contains(t, got, "reset my password via email")
	assert.Contains(t, got, "**Acceptance Criteria:** Reset link expires after 15 minutes")
	assert.Contains(t, got, "[ACME-1] Token lifetime - Short-lived tokens only")
	assert.NotContains(t, got, "{title}")
	assert.NotContains(t, got, "{acceptance_criteria_section}")
	assert.NotContains(t, got, "{custom_standards_section}")
}

func TestBuildUserPrompt_OptionalSectionsEmpty(t *testing.T) {
	got := BuildUserPrompt(DefaultUserPromptTemplate, StoryInput{Title: "t", Description: "d"}, nil)

	assert.NotContains(t, got, "**Acceptance Criteria:**")
	assert.NotContains(t, got, "Custom Security Standards")
}

func TestBuildRepairPrompt(t *testing.T) {
	got := BuildRepairPrompt(`{"abuse_cases": [`, errors.New("unexpected end of JSON input"))

	assert.True(t, strings.Contains(got, "unexpected end of JSON input"))
	assert.Contains(t, got, `{"abuse_cases": [`)
	assert.Contains(t, got, "corrected JSON")
}
