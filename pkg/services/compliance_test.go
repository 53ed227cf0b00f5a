package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/catalog"
	"github.com/securereq/securereq-engine/pkg/models"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return cat
}

func TestMapRequirements_BuiltinControls(t *testing.T) {
	cat := loadCatalog(t)

	reqs := []models.SecurityRequirement{
		{ID: "SR-001", Category: "Authentication & Access Control"},
	}

	mappings := MapRequirements(reqs, cat, nil)
	require.NotEmpty(t, mappings)

	byStandard := map[string][]models.ComplianceMapping{}
	for _, m := range mappings {
		assert.Equal(t, "SR-001", m.RequirementID)
		byStandard[m.StandardName] = append(byStandard[m.StandardName], m)
	}
	// Every built-in standard covers authentication in its category map.
	for _, name := range cat.Names() {
		assert.NotEmpty(t, byStandard[name], "standard %s has no mappings", name)
	}

	for _, m := range mappings {
		assert.Contains(t, []float64{relevanceControlMatch, relevanceGenericMatch}, m.Relevance)
	}
}

func TestMapRequirements_TopTwoControlsPerPrefix(t *testing.T) {
	cat := loadCatalog(t)

	reqs := []models.SecurityRequirement{
		{ID: "SR-001", Category: "Authentication & Access Control"},
	}
	mappings := MapRequirements(reqs, cat, nil)

	perPrefix := map[string]int{}
	for _, m := range mappings {
		if m.Relevance == relevanceControlMatch {
			perPrefix[m.StandardName+"/"+m.ControlID]++
		}
	}
	for key, n := range perPrefix {
		assert.LessOrEqual(t, n, 1, "duplicate control row %s", key)
	}
}

func TestMapRequirements_UnknownCategoryYieldsNoBuiltinRows(t *testing.T) {
	cat := loadCatalog(t)

	reqs := []models.SecurityRequirement{
		{ID: "SR-001", Category: "Quantum Entanglement"},
	}
	mappings := MapRequirements(reqs, cat, nil)
	assert.Empty(t, mappings)
}

func TestMapRequirements_CustomStandardContainmentMatch(t *testing.T) {
	cat := loadCatalog(t)

	custom := []models.CustomStandard{{
		Name: "ACME-SEC",
		Controls: []models.Control{
			{ControlID: "ACME-1", Title: "MFA everywhere", Category: "authentication"},
			{ControlID: "ACME-2", Title: "Backups", Category: "disaster recovery"},
			{ControlID: "ACME-3", Title: "No category", Category: ""},
		},
	}}
	reqs := []models.SecurityRequirement{
		{ID: "SR-001", Category: "Authentication & Access Control"},
	}

	mappings := MapRequirements(reqs, cat, custom)

	var customRows []models.ComplianceMapping
	for _, m := range mappings {
		if m.StandardName == "ACME-SEC" {
			customRows = append(customRows, m)
		}
	}
	// "authentication" is contained in the requirement category; the others
	// match neither direction. Controls without a category never match.
	require.Len(t, customRows, 1)
	assert.Equal(t, "ACME-1", customRows[0].ControlID)
	assert.Equal(t, relevanceCustomMatch, customRows[0].Relevance)
}

func TestMapRequirements_Deterministic(t *testing.T) {
	cat := loadCatalog(t)

	reqs := []models.SecurityRequirement{
		{ID: "SR-001", Category: "Data Protection"},
		{ID: "SR-002", Category: "Audit Logging"},
	}

	first := MapRequirements(reqs, cat, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, MapRequirements(reqs, cat, nil))
	}
}

func TestMapAnalysis_IdempotentRecompute(t *testing.T) {
	cat := loadCatalog(t)
	logger := zap.NewNop()

	projects := newMockProjectRepo()
	stories := &mockStoryRepo{}
	analyses := &mockAnalysisRepo{}
	standards := &mockCustomStandardRepo{}
	complianceRepo := newMockComplianceRepo()

	svc := NewComplianceService(analyses, stories, standards, complianceRepo, cat, logger)

	project := &models.Project{Name: "p"}
	require.NoError(t, projects.Create(context.Background(), project))
	story := &models.Story{ProjectID: project.ID, Title: "s"}
	require.NoError(t, stories.Create(context.Background(), story))
	analysis := &models.Analysis{
		StoryID: story.ID,
		Status:  models.AnalysisSuccess,
		SecurityRequirements: []models.SecurityRequirement{
			{ID: "SR-001", Category: "Input Validation"},
		},
	}
	require.NoError(t, analyses.CreateVersion(context.Background(), analysis))

	first, err := svc.MapAnalysis(context.Background(), analysis.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.MapAnalysis(context.Background(), analysis.ID)
	require.NoError(t, err)

	stored, err := svc.ListMappings(context.Background(), analysis.ID)
	require.NoError(t, err)
	// Recomputation replaces, never accumulates.
	assert.Len(t, stored, len(first))
	assert.Len(t, second, len(first))
}

func TestSummary_SortedByCountThenName(t *testing.T) {
	cat := loadCatalog(t)
	logger := zap.NewNop()

	projects := newMockProjectRepo()
	stories := &mockStoryRepo{}
	analyses := &mockAnalysisRepo{}
	standards := &mockCustomStandardRepo{}
	complianceRepo := newMockComplianceRepo()

	svc := NewComplianceService(analyses, stories, standards, complianceRepo, cat, logger)

	project := &models.Project{Name: "p"}
	require.NoError(t, projects.Create(context.Background(), project))
	story := &models.Story{ProjectID: project.ID, Title: "s"}
	require.NoError(t, stories.Create(context.Background(), story))
	analysis := &models.Analysis{StoryID: story.ID, Status: models.AnalysisSuccess}
	require.NoError(t, analyses.CreateVersion(context.Background(), analysis))

	require.NoError(t, complianceRepo.ReplaceForAnalysis(context.Background(), analysis.ID, []models.ComplianceMapping{
		{RequirementID: "SR-001", StandardName: "NIST_800_53", ControlID: "AC-2"},
		{RequirementID: "SR-001", StandardName: "NIST_800_53", ControlID: "AC-3"},
		// Two requirements hitting the same control count it once.
		{RequirementID: "SR-002", StandardName: "NIST_800_53", ControlID: "AC-2"},
		{RequirementID: "SR-001", StandardName: "GDPR", ControlID: "Art 32"},
		{RequirementID: "SR-002", StandardName: "GDPR", ControlID: "Art 32"},
		{RequirementID: "SR-002", StandardName: "HIPAA", ControlID: "164.312(d)"},
	}))

	summary, err := svc.Summary(context.Background(), analysis.ID)
	require.NoError(t, err)
	require.Len(t, summary, 3)

	assert.Equal(t, "NIST_800_53", summary[0].StandardName)
	assert.Equal(t, 2, summary[0].MappedControls)
	// Ties break on name.
	assert.Equal(t, "GDPR", summary[1].StandardName)
	assert.Equal(t, 1, summary[1].MappedControls)
	assert.Equal(t, "HIPAA", summary[2].StandardName)
	assert.Equal(t, 1, summary[2].MappedControls)
}
