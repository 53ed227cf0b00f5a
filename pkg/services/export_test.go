package services

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securereq/securereq-engine/pkg/models"
)

func TestExportCSV_SectionsInOrder(t *testing.T) {
	analysis := &models.Analysis{
		Status: models.AnalysisSuccess,
		AbuseCases: []models.AbuseCase{
			{ID: "AC-001", Threat: "Session hijack", Description: "steal cookie", Impact: models.SeverityCritical, StrideCategory: models.StrideSpoofing},
		},
		StrideThreats: []models.StrideThreat{
			{Category: models.StrideTampering, Threat: "Payload tamper", Description: "modify body", RiskLevel: models.SeverityMedium},
		},
		SecurityRequirements: []models.SecurityRequirement{
			{ID: "SR-001", Text: "Use HttpOnly cookies", Priority: models.SeverityHigh, Category: "Session Management", Details: "set the flag"},
		},
	}

	out, err := ExportCSV(analysis)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"Section", "ID", "Title/Threat", "Description", "Severity/Priority", "Category"}, records[0])
	assert.Equal(t, []string{"Abuse Case", "AC-001", "Session hijack", "steal cookie", "Critical", "Spoofing"}, records[1])
	assert.Equal(t, []string{"Requirement", "SR-001", "Use HttpOnly cookies", "set the flag", "High", "Session Management"}, records[2])
	assert.Equal(t, []string{"STRIDE Threat", "", "Payload tamper", "modify body", "Medium", "Tampering"}, records[3])
}

func TestExportCSV_EmptyFindings(t *testing.T) {
	out, err := ExportCSV(&models.Analysis{Status: models.AnalysisError})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	// Header only; an error run has nothing exportable but is still a document.
	require.Len(t, records, 1)
}
