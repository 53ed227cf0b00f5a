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

// mockStandardService is a mock for StandardService.
type mockStandardService struct {
	standards map[uuid.UUID]*models.CustomStandard
	uploadErr error
}

var _ services.StandardService = (*mockStandardService)(nil)

func newMockStandardService() *mockStandardService {
	return &mockStandardService{standards: make(map[uuid.UUID]*models.CustomStandard)}
}

func (m *mockStandardService) BuiltinNames() []string {
	return []string{"OWASP_ASVS", "NIST_800_53", "PCI_DSS", "ISO_27001", "GDPR", "HIPAA", "SOX"}
}

func (m *mockStandardService) Upload(ctx context.Context, projectID uuid.UUID, name, description, fileType, filename string, content []byte) (*models.CustomStandard, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	std := &models.CustomStandard{
		ID:               uuid.New(),
		ProjectID:        projectID,
		Name:             name,
		Description:      description,
		FileType:         fileType,
		OriginalFilename: filename,
	}
	m.standards[std.ID] = std
	return std, nil
}

func (m *mockStandardService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.CustomStandard, error) {
	var out []models.CustomStandard
	for _, std := range m.standards {
		if std.ProjectID == projectID {
			out = append(out, *std)
		}
	}
	return out, nil
}

func (m *mockStandardService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.standards[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.standards, id)
	return nil
}

func TestStandardHandler_Builtin(t *testing.T) {
	handler := NewStandardHandler(newMockStandardService(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/standards", nil)
	rec := httptest.NewRecorder()
	handler.Builtin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["standards"], "OWASP_ASVS")
	assert.Len(t, resp["standards"], 7)
}

func TestStandardHandler_Upload(t *testing.T) {
	svc := newMockStandardService()
	handler := NewStandardHandler(svc, zap.NewNop())

	projectID := uuid.New()
	body, _ := json.Marshal(map[string]string{
		"name":      "Internal Security Baseline",
		"file_type": "json",
		"filename":  "baseline.json",
		"content":   `{"controls":[{"id":"ISB-1","title":"MFA","category":"Authentication"}]}`,
	})
	req := httptest.NewRequest(http.MethodPost,
		"/api/projects/"+projectID.String()+"/standards", bytes.NewReader(body))
	req.SetPathValue("pid", projectID.String())
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var std models.CustomStandard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
	assert.Equal(t, "Internal Security Baseline", std.Name)
	assert.Equal(t, projectID, std.ProjectID)
}

func TestStandardHandler_Upload_BadFileType(t *testing.T) {
	handler := NewStandardHandler(newMockStandardService(), zap.NewNop())

	projectID := uuid.New()
	body, _ := json.Marshal(map[string]string{
		"name":      "Baseline",
		"file_type": "xlsx",
		"content":   "whatever",
	})
	req := httptest.NewRequest(http.MethodPost,
		"/api/projects/"+projectID.String()+"/standards", bytes.NewReader(body))
	req.SetPathValue("pid", projectID.String())
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStandardHandler_Upload_MalformedContent(t *testing.T) {
	svc := newMockStandardService()
	svc.uploadErr = apperrors.ErrValidation
	handler := NewStandardHandler(svc, zap.NewNop())

	projectID := uuid.New()
	body, _ := json.Marshal(map[string]string{
		"name":      "Baseline",
		"file_type": "json",
		"content":   "{not valid",
	})
	req := httptest.NewRequest(http.MethodPost,
		"/api/projects/"+projectID.String()+"/standards", bytes.NewReader(body))
	req.SetPathValue("pid", projectID.String())
	rec := httptest.NewRecorder()
	handler.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStandardHandler_Delete(t *testing.T) {
	svc := newMockStandardService()
	std, err := svc.Upload(context.Background(), uuid.New(), "Baseline", "", "json", "", []byte("{}"))
	require.NoError(t, err)
	handler := NewStandardHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodDelete, "/api/standards/"+std.ID.String(), nil)
	req.SetPathValue("csid", std.ID.String())
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, svc.standards)
}
