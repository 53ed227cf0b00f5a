package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// In-memory repository fakes shared by the service tests.

type mockProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]models.Project
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: map[uuid.UUID]models.Project{}}
}

var _ repositories.ProjectRepository = (*mockProjectRepo)(nil)

func (m *mockProjectRepo) Create(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	m.projects[p.ID] = *p
	return nil
}

func (m *mockProjectRepo) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &p, nil
}

func (m *mockProjectRepo) List(_ context.Context) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Project{}
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProjectRepo) Update(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.projects[p.ID] = *p
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

type mockStoryRepo struct {
	mu      sync.Mutex
	stories []models.Story
}

var _ repositories.StoryRepository = (*mockStoryRepo)(nil)

func (m *mockStoryRepo) Create(_ context.Context, s *models.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	m.stories = append(m.stories, *s)
	return nil
}

func (m *mockStoryRepo) Get(_ context.Context, id uuid.UUID) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stories {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockStoryRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Story{}
	for _, s := range m.stories {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.stories {
		if s.ID == id {
			m.stories = append(m.stories[:i], m.stories[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type mockAnalysisRepo struct {
	mu       sync.Mutex
	analyses []models.Analysis
}

var _ repositories.AnalysisRepository = (*mockAnalysisRepo)(nil)

func (m *mockAnalysisRepo) CreateVersion(_ context.Context, a *models.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	max := 0
	for _, existing := range m.analyses {
		if existing.StoryID == a.StoryID && existing.Version > max {
			max = existing.Version
		}
	}
	a.Version = max + 1
	m.analyses = append(m.analyses, *a)
	return nil
}

func (m *mockAnalysisRepo) Get(_ context.Context, id uuid.UUID) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.analyses {
		if a.ID == id {
			out := a
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAnalysisRepo) Latest(_ context.Context, storyID uuid.UUID) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Analysis
	for i := range m.analyses {
		a := &m.analyses[i]
		if a.StoryID == storyID && (latest == nil || a.Version > latest.Version) {
			latest = a
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (m *mockAnalysisRepo) GetVersion(_ context.Context, storyID uuid.UUID, version int) (*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.analyses {
		if a.StoryID == storyID && a.Version == version {
			out := a
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAnalysisRepo) History(_ context.Context, storyID uuid.UUID) ([]models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Analysis{}
	for v := len(m.analyses); v > 0; v-- {
		for _, a := range m.analyses {
			if a.StoryID == storyID && a.Version == v {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (m *mockAnalysisRepo) LatestByProject(ctx context.Context, _ uuid.UUID) (map[uuid.UUID]*models.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[uuid.UUID]*models.Analysis{}
	for i := range m.analyses {
		a := m.analyses[i]
		if cur, ok := latest[a.StoryID]; !ok || a.Version > cur.Version {
			copied := a
			latest[a.StoryID] = &copied
		}
	}
	return latest, nil
}

type mockComplianceRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID][]models.ComplianceMapping
}

func newMockComplianceRepo() *mockComplianceRepo {
	return &mockComplianceRepo{rows: map[uuid.UUID][]models.ComplianceMapping{}}
}

var _ repositories.ComplianceRepository = (*mockComplianceRepo)(nil)

func (m *mockComplianceRepo) ReplaceForAnalysis(_ context.Context, analysisID uuid.UUID, mappings []models.ComplianceMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]models.ComplianceMapping, len(mappings))
	copy(copied, mappings)
	m.rows[analysisID] = copied
	return nil
}

func (m *mockComplianceRepo) ListByAnalysis(_ context.Context, analysisID uuid.UUID) ([]models.ComplianceMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ComplianceMapping, len(m.rows[analysisID]))
	copy(out, m.rows[analysisID])
	return out, nil
}

type mockCustomStandardRepo struct {
	mu        sync.Mutex
	standards []models.CustomStandard
}

var _ repositories.CustomStandardRepository = (*mockCustomStandardRepo)(nil)

func (m *mockCustomStandardRepo) Create(_ context.Context, s *models.CustomStandard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	m.standards = append(m.standards, *s)
	return nil
}

func (m *mockCustomStandardRepo) Get(_ context.Context, id uuid.UUID) (*models.CustomStandard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.standards {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockCustomStandardRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.CustomStandard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CustomStandard{}
	for _, s := range m.standards {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockCustomStandardRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.standards {
		if s.ID == id {
			m.standards = append(m.standards[:i], m.standards[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type mockGenerationConfigRepo struct {
	mu      sync.Mutex
	configs []models.GenerationConfig
}

var _ repositories.GenerationConfigRepository = (*mockGenerationConfigRepo)(nil)

func (m *mockGenerationConfigRepo) CreateVersion(_ context.Context, c *models.GenerationConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.Version = len(m.configs) + 1
	m.configs = append(m.configs, *c)
	return nil
}

func (m *mockGenerationConfigRepo) Get(_ context.Context, id uuid.UUID) (*models.GenerationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.configs {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockGenerationConfigRepo) Latest(_ context.Context) (*models.GenerationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.configs) == 0 {
		return nil, apperrors.ErrNotFound
	}
	out := m.configs[len(m.configs)-1]
	return &out, nil
}

func (m *mockGenerationConfigRepo) History(_ context.Context) ([]models.GenerationConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.GenerationConfig, len(m.configs))
	for i, c := range m.configs {
		out[len(m.configs)-1-i] = c
	}
	return out, nil
}

type mockWebhookRepo struct {
	mu        sync.Mutex
	webhooks  []models.Webhook
	triggered []uuid.UUID
}

var _ repositories.WebhookRepository = (*mockWebhookRepo)(nil)

func (m *mockWebhookRepo) Create(_ context.Context, w *models.Webhook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.CreatedAt = time.Now()
	m.webhooks = append(m.webhooks, *w)
	return nil
}

func (m *mockWebhookRepo) Get(_ context.Context, id uuid.UUID) (*models.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.webhooks {
		if w.ID == id {
			out := w
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockWebhookRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Webhook{}
	for _, w := range m.webhooks {
		if w.ProjectID == projectID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockWebhookRepo) ListActiveForEvent(_ context.Context, projectID uuid.UUID, eventType string) ([]models.Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Webhook{}
	for _, w := range m.webhooks {
		if w.ProjectID == projectID && w.Active && w.SubscribedTo(eventType) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockWebhookRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.webhooks {
		if w.ID == id {
			m.webhooks = append(m.webhooks[:i], m.webhooks[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockWebhookRepo) MarkTriggered(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggered = append(m.triggered, id)
	for i := range m.webhooks {
		if m.webhooks[i].ID == id {
			t := at
			m.webhooks[i].LastTriggeredAt = &t
		}
	}
	return nil
}

// noopWebhooks satisfies WebhookService for tests that don't care about
// deliveries.
type noopWebhooks struct {
	mu     sync.Mutex
	events []string
}

var _ WebhookService = (*noopWebhooks)(nil)

func (n *noopWebhooks) Register(context.Context, *models.Webhook) error { return nil }
func (n *noopWebhooks) List(context.Context, uuid.UUID) ([]models.Webhook, error) {
	return nil, nil
}
func (n *noopWebhooks) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (n *noopWebhooks) Test(context.Context, uuid.UUID) error              { return nil }
func (n *noopWebhooks) Dispatch(_ context.Context, _ uuid.UUID, eventType string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}
