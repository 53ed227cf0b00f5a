package riskgate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securereq/securereq-engine/pkg/models"
)

func intPtr(v int) *int { return &v }

func TestEvaluate_MixedResults(t *testing.T) {
	result := &models.BulkResult{
		Total: 3,
		Results: []models.StoryResult{
			{StoryTitle: "Login page", Status: models.AnalysisSuccess, RiskScore: intPtr(30)},
			{StoryTitle: "Payment flow", Status: models.AnalysisSuccess, RiskScore: intPtr(80)},
			{StoryTitle: "Export job", Status: models.AnalysisError, Error: "provider unavailable"},
		},
	}

	report := Evaluate(result, 70)

	assert.False(t, report.Passed())
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Verdicts, 3)
	assert.True(t, report.Verdicts[0].Passed)
	assert.False(t, report.Verdicts[1].Passed)
	assert.Contains(t, report.Verdicts[1].Reason, "80")
	// Errors fail closed.
	assert.False(t, report.Verdicts[2].Passed)
	assert.Contains(t, report.Verdicts[2].Reason, "provider unavailable")
}

func TestEvaluate_ThresholdBoundary(t *testing.T) {
	result := &models.BulkResult{Results: []models.StoryResult{
		{StoryTitle: "At threshold", Status: models.AnalysisSuccess, RiskScore: intPtr(70)},
		{StoryTitle: "Just under", Status: models.AnalysisSuccess, RiskScore: intPtr(69)},
	}}

	report := Evaluate(result, 70)

	assert.False(t, report.Verdicts[0].Passed, "score equal to threshold fails")
	assert.True(t, report.Verdicts[1].Passed)
	assert.Equal(t, 1, report.Failed)
}

func TestEvaluate_AllClear(t *testing.T) {
	result := &models.BulkResult{Results: []models.StoryResult{
		{StoryTitle: "A", Status: models.AnalysisSuccess, RiskScore: intPtr(10)},
		{StoryTitle: "B", Status: models.AnalysisSuccess, RiskScore: intPtr(0)},
	}}

	report := Evaluate(result, 50)
	assert.True(t, report.Passed())
	assert.Equal(t, 0, report.Failed)
}

func TestReport_ExitCode(t *testing.T) {
	clean := Evaluate(&models.BulkResult{Results: []models.StoryResult{
		{StoryTitle: "A", Status: models.AnalysisSuccess, RiskScore: intPtr(10)},
	}}, 50)
	assert.Equal(t, ExitPass, clean.ExitCode())

	risky := Evaluate(&models.BulkResult{Results: []models.StoryResult{
		{StoryTitle: "B", Status: models.AnalysisSuccess, RiskScore: intPtr(95)},
	}}, 50)
	assert.Equal(t, ExitFail, risky.ExitCode())
}

func TestReport_Print(t *testing.T) {
	result := &models.BulkResult{Results: []models.StoryResult{
		{StoryTitle: "Safe story", Status: models.AnalysisSuccess, RiskScore: intPtr(20)},
		{StoryTitle: "Risky story", Status: models.AnalysisSuccess, RiskScore: intPtr(90)},
	}}

	var sb strings.Builder
	Evaluate(result, 70).Print(&sb)

	out := sb.String()
	assert.Contains(t, out, "PASS  Safe story (risk 20)")
	assert.Contains(t, out, "FAIL  Risky story: risk 90 >= threshold 70")
	assert.Contains(t, out, "1/2 stories passed (threshold 70)")
}

func TestClient_AnalyzeProject(t *testing.T) {
	projectID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/projects/"+projectID.String()+"/analyze", r.URL.Path)
		assert.Equal(t, "ci-key", r.Header.Get("X-API-Key"))

		json.NewEncoder(w).Encode(models.BulkResult{ //nolint:errcheck
			Total: 1,
			Results: []models.StoryResult{
				{StoryID: uuid.New(), StoryTitle: "Checkout", Status: models.AnalysisSuccess, RiskScore: intPtr(55)},
			},
		})
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, APIKey: "ci-key"}
	result, err := client.AnalyzeProject(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "Checkout", result.Results[0].StoryTitle)
}

func TestClient_AnalyzeProject_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"}) //nolint:errcheck
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, APIKey: "wrong"}
	_, err := client.AnalyzeProject(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
