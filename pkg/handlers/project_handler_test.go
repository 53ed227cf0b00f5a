package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/services"
)

// mockProjectService is a mock for ProjectService.
type mockProjectService struct {
	projects map[uuid.UUID]*models.Project
	report   *models.ProjectRiskReport
	err      error
}

var _ services.ProjectService = (*mockProjectService)(nil)

func newMockProjectService() *mockProjectService {
	return &mockProjectService{projects: make(map[uuid.UUID]*models.Project)}
}

func (m *mockProjectService) Create(ctx context.Context, name, description string) (*models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	p := &models.Project{ID: uuid.New(), Name: name, Description: description}
	m.projects[p.ID] = p
	return p, nil
}

func (m *mockProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectService) List(ctx context.Context) ([]models.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProjectService) Update(ctx context.Context, id uuid.UUID, name, description string) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.Name = name
	p.Description = description
	return p, nil
}

func (m *mockProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *mockProjectService) RiskReport(ctx context.Context, id uuid.UUID) (*models.ProjectRiskReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.projects[id]; !ok {
		return nil, apperrors.ErrNotFound
	}
	return m.report, nil
}

func TestProjectHandler_Create(t *testing.T) {
	svc := newMockProjectService()
	handler := NewProjectHandler(svc, zap.NewNop())

	body, _ := json.Marshal(map[string]string{
		"name":        "Payments",
		"description": "Payment processing stories",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var project models.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &project))
	assert.Equal(t, "Payments", project.Name)
	assert.NotEqual(t, uuid.Nil, project.ID)
}

func TestProjectHandler_Create_MissingName(t *testing.T) {
	handler := NewProjectHandler(newMockProjectService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/projects",
		bytes.NewReader([]byte(`{"description":"no name"}`)))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectHandler_Create_InvalidJSON(t *testing.T) {
	handler := NewProjectHandler(newMockProjectService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/projects",
		bytes.NewReader([]byte(`{not json`)))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	handler := NewProjectHandler(newMockProjectService(), zap.NewNop())

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+id.String(), nil)
	req.SetPathValue("pid", id.String())
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectHandler_Get_InvalidID(t *testing.T) {
	handler := NewProjectHandler(newMockProjectService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects/not-a-uuid", nil)
	req.SetPathValue("pid", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectHandler_Delete(t *testing.T) {
	svc := newMockProjectService()
	project, err := svc.Create(context.Background(), "Doomed", "")
	require.NoError(t, err)
	handler := NewProjectHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodDelete, "/api/projects/"+project.ID.String(), nil)
	req.SetPathValue("pid", project.ID.String())
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.projects)
}

func TestProjectHandler_RiskReport(t *testing.T) {
	svc := newMockProjectService()
	project, err := svc.Create(context.Background(), "Payments", "")
	require.NoError(t, err)

	score := 62
	svc.report = &models.ProjectRiskReport{
		ProjectID: project.ID,
		Stories: []models.StoryRisk{
			{StoryID: uuid.New(), StoryTitle: "Checkout", Version: 2, RiskScore: &score, Analyzed: true},
			{StoryID: uuid.New(), StoryTitle: "Refunds", Analyzed: false},
		},
		AnalyzedStories:  1,
		AverageRiskScore: 62,
		HighestRiskScore: 62,
	}
	handler := NewProjectHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+project.ID.String()+"/risk-report", nil)
	req.SetPathValue("pid", project.ID.String())
	rec := httptest.NewRecorder()
	handler.RiskReport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report models.ProjectRiskReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Stories, 2)
	assert.Equal(t, 1, report.AnalyzedStories)
	assert.Equal(t, 62, report.HighestRiskScore)
	require.NotNil(t, report.Stories[0].RiskScore)
	assert.Nil(t, report.Stories[1].RiskScore)
}

func TestProjectHandler_RiskReport_UnknownProject(t *testing.T) {
	handler := NewProjectHandler(newMockProjectService(), zap.NewNop())

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+id.String()+"/risk-report", nil)
	req.SetPathValue("pid", id.String())
	rec := httptest.NewRecorder()
	handler.RiskReport(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
