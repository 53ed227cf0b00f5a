package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/apperrors"
	"github.com/securereq/securereq-engine/pkg/config"
	"github.com/securereq/securereq-engine/pkg/jsonutil"
	"github.com/securereq/securereq-engine/pkg/llm"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/prompts"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// AnalyzerService runs threat analyses against stories and serves the
// versioned history each run appends to.
type AnalyzerService interface {
	// Analyze generates a fresh analysis for the story and persists it as
	// the next version. A generation or parse failure still persists an
	// error-status version, so the returned analysis must be inspected for
	// its Status; the error return covers lookup and storage failures only.
	Analyze(ctx context.Context, storyID uuid.UUID) (*models.Analysis, error)
	Get(ctx context.Context, analysisID uuid.UUID) (*models.Analysis, error)
	Latest(ctx context.Context, storyID uuid.UUID) (*models.Analysis, error)
	Version(ctx context.Context, storyID uuid.UUID, version int) (*models.Analysis, error)
	History(ctx context.Context, storyID uuid.UUID) ([]models.Analysis, error)
}

// ClientFactory builds a chat client for a provider configuration. Tests
// substitute this to inject a mock client.
type ClientFactory func(cfg *llm.FactoryConfig, logger *zap.Logger) (llm.ChatClient, error)

type analyzerService struct {
	stories    repositories.StoryRepository
	analyses   repositories.AnalysisRepository
	standards  repositories.CustomStandardRepository
	genConfigs repositories.GenerationConfigRepository
	compliance ComplianceService
	webhooks   WebhookService
	cfg        config.GenerationConfig
	newClient  ClientFactory
	logger     *zap.Logger
}

// NewAnalyzerService creates a new analyzer service. A nil factory uses the
// real provider clients.
func NewAnalyzerService(
	stories repositories.StoryRepository,
	analyses repositories.AnalysisRepository,
	standards repositories.CustomStandardRepository,
	genConfigs repositories.GenerationConfigRepository,
	compliance ComplianceService,
	webhooks WebhookService,
	cfg config.GenerationConfig,
	factory ClientFactory,
	logger *zap.Logger,
) AnalyzerService {
	if factory == nil {
		factory = llm.NewClient
	}
	return &analyzerService{
		stories:    stories,
		analyses:   analyses,
		standards:  standards,
		genConfigs: genConfigs,
		compliance: compliance,
		webhooks:   webhooks,
		cfg:        cfg,
		newClient:  factory,
		logger:     logger.Named("analyzer-service"),
	}
}

var _ AnalyzerService = (*analyzerService)(nil)

func (s *analyzerService) Analyze(ctx context.Context, storyID uuid.UUID) (*models.Analysis, error) {
	story, err := s.stories.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}

	genCfg, err := s.effectiveConfig(ctx)
	if err != nil {
		return nil, err
	}

	customStandards, err := s.standards.ListByProject(ctx, story.ProjectID)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		StoryID:            storyID,
		GenerationConfigID: genCfg.ID,
	}

	// Persistence is detached from the request context: once generation has
	// run, the attempt is recorded even if the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)

	generated, modelUsed, genErr := s.generate(ctx, story, genCfg, customStandards)
	if genErr != nil {
		// A failed run still consumes a version slot so the history shows
		// the attempt. It carries no findings and scores zero.
		analysis.Status = models.AnalysisError
		analysis.ErrorDetail = genErr.Error()
		analysis.ModelUsed = modelUsed
		if err := s.analyses.CreateVersion(persistCtx, analysis); err != nil {
			return nil, err
		}

		s.logger.Warn("Analysis generation failed",
			zap.String("story_id", storyID.String()),
			zap.Int("version", analysis.Version),
			zap.Error(genErr))
		s.notify(story.ProjectID, models.EventAnalysisFailed, analysis)
		return analysis, nil
	}

	analysis.Status = models.AnalysisSuccess
	analysis.ModelUsed = modelUsed
	analysis.AbuseCases = generated.abuseCases()
	analysis.StrideThreats = generated.strideThreats()
	analysis.SecurityRequirements = generated.securityRequirements()
	analysis.RiskScore = RiskScore(analysis.AbuseCases, analysis.StrideThreats)

	if err := s.analyses.CreateVersion(persistCtx, analysis); err != nil {
		return nil, err
	}

	if _, err := s.compliance.MapAnalysis(persistCtx, analysis.ID); err != nil {
		// Mapping can be recomputed on demand; the analysis itself is
		// already durable.
		s.logger.Error("Failed to map compliance for new analysis",
			zap.String("analysis_id", analysis.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Analysis completed",
		zap.String("story_id", storyID.String()),
		zap.Int("version", analysis.Version),
		zap.Int("risk_score", analysis.RiskScore),
		zap.Int("abuse_cases", len(analysis.AbuseCases)),
		zap.Int("requirements", len(analysis.SecurityRequirements)))
	s.notify(story.ProjectID, models.EventAnalysisCompleted, analysis)
	return analysis, nil
}

// notify fires webhooks in the background with a detached context so slow
// endpoints never hold up the API response.
func (s *analyzerService) notify(projectID uuid.UUID, eventType string, analysis *models.Analysis) {
	go s.webhooks.Dispatch(context.WithoutCancel(context.Background()), projectID, eventType, analysis)
}

// effectiveConfig returns the latest stored generation config, falling back
// to the server configuration when none has been created yet.
func (s *analyzerService) effectiveConfig(ctx context.Context) (*models.GenerationConfig, error) {
	stored, err := s.genConfigs.Latest(ctx)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	return &models.GenerationConfig{
		SystemPrompt:       prompts.DefaultSystemPrompt,
		UserPromptTemplate: prompts.DefaultUserPromptTemplate,
		Provider:           s.cfg.Provider,
		Model:              s.cfg.Model,
		MaxTokens:          s.cfg.MaxTokens,
	}, nil
}

// generate runs the chat call and parses the result, allowing one bounded
// repair round trip when the first response is not usable JSON.
func (s *analyzerService) generate(ctx context.Context, story *models.Story, genCfg *models.GenerationConfig, customStandards []models.CustomStandard) (*generatedAnalysis, string, error) {
	client, err := s.newClient(&llm.FactoryConfig{
		Provider: genCfg.Provider,
		Model:    genCfg.Model,
		APIKey:   s.cfg.APIKey,
		BaseURL:  s.cfg.BaseURL,
	}, s.logger)
	if err != nil {
		return nil, "", err
	}

	prompt := prompts.BuildUserPrompt(genCfg.UserPromptTemplate, prompts.StoryInput{
		Title:              story.Title,
		Description:        story.Description,
		AcceptanceCriteria: story.AcceptanceCriteria,
	}, customStandards)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	result, err := client.Chat(callCtx, genCfg.SystemPrompt, prompt, genCfg.MaxTokens)
	if err != nil {
		return nil, client.Model(), err
	}

	parsed, parseErr := parseGenerated(result.Content)
	if parseErr == nil {
		return parsed, result.Model, nil
	}

	s.logger.Warn("Generated analysis was malformed, attempting repair",
		zap.String("story_id", story.ID.String()),
		zap.Error(parseErr))

	repairCtx, cancelRepair := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancelRepair()

	repaired, err := client.Chat(repairCtx, genCfg.SystemPrompt, prompts.BuildRepairPrompt(result.Content, parseErr), genCfg.MaxTokens)
	if err != nil {
		return nil, result.Model, fmt.Errorf("repair attempt failed: %w", err)
	}

	parsed, parseErr = parseGenerated(repaired.Content)
	if parseErr != nil {
		return nil, repaired.Model, fmt.Errorf("response unparseable after repair: %w", parseErr)
	}
	return parsed, repaired.Model, nil
}

func (s *analyzerService) Get(ctx context.Context, analysisID uuid.UUID) (*models.Analysis, error) {
	return s.analyses.Get(ctx, analysisID)
}

func (s *analyzerService) Latest(ctx context.Context, storyID uuid.UUID) (*models.Analysis, error) {
	if _, err := s.stories.Get(ctx, storyID); err != nil {
		return nil, err
	}
	return s.analyses.Latest(ctx, storyID)
}

func (s *analyzerService) Version(ctx context.Context, storyID uuid.UUID, version int) (*models.Analysis, error) {
	if _, err := s.stories.Get(ctx, storyID); err != nil {
		return nil, err
	}
	return s.analyses.GetVersion(ctx, storyID, version)
}

func (s *analyzerService) History(ctx context.Context, storyID uuid.UUID) ([]models.Analysis, error) {
	if _, err := s.stories.Get(ctx, storyID); err != nil {
		return nil, err
	}
	return s.analyses.History(ctx, storyID)
}

// generatedAnalysis is the loosely typed shape the model returns. Every field
// is normalized before it enters the domain model.
type generatedAnalysis struct {
	AbuseCases []struct {
		ID             json.RawMessage `json:"id"`
		Threat         string          `json:"threat"`
		Actor          string          `json:"actor"`
		Description    string          `json:"description"`
		Impact         string          `json:"impact"`
		Likelihood     string          `json:"likelihood"`
		AttackVector   string          `json:"attack_vector"`
		StrideCategory string          `json:"stride_category"`
	} `json:"abuse_cases"`
	StrideThreats []struct {
		Category    string `json:"category"`
		Threat      string `json:"threat"`
		Description string `json:"description"`
		RiskLevel   string `json:"risk_level"`
	} `json:"stride_threats"`
	SecurityRequirements []struct {
		ID       json.RawMessage `json:"id"`
		Text     string          `json:"text"`
		Priority string          `json:"priority"`
		Category string          `json:"category"`
		Details  string          `json:"details"`
	} `json:"security_requirements"`
}

func parseGenerated(content string) (*generatedAnalysis, error) {
	jsonStr, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, err
	}

	parsed, err := jsonutil.DecodeStrict[generatedAnalysis]([]byte(jsonStr))
	if err != nil {
		return nil, err
	}
	if len(parsed.SecurityRequirements) == 0 {
		return nil, fmt.Errorf("response contains no security requirements")
	}
	return &parsed, nil
}

func (g *generatedAnalysis) abuseCases() []models.AbuseCase {
	out := make([]models.AbuseCase, 0, len(g.AbuseCases))
	for i, ac := range g.AbuseCases {
		id := jsonutil.FlexibleString(ac.ID)
		if id == "" {
			id = fmt.Sprintf("AC-%03d", i+1)
		}
		out = append(out, models.AbuseCase{
			ID:             id,
			Threat:         ac.Threat,
			Actor:          ac.Actor,
			Description:    ac.Description,
			Impact:         models.NormalizeSeverity(ac.Impact),
			Likelihood:     models.NormalizeLikelihood(ac.Likelihood),
			AttackVector:   ac.AttackVector,
			StrideCategory: models.NormalizeStrideCategory(ac.StrideCategory),
		})
	}
	return out
}

func (g *generatedAnalysis) strideThreats() []models.StrideThreat {
	out := make([]models.StrideThreat, 0, len(g.StrideThreats))
	for _, t := range g.StrideThreats {
		out = append(out, models.StrideThreat{
			Category:    models.NormalizeStrideCategory(t.Category),
			Threat:      t.Threat,
			Description: t.Description,
			RiskLevel:   models.NormalizeSeverity(t.RiskLevel),
		})
	}
	return out
}

func (g *generatedAnalysis) securityRequirements() []models.SecurityRequirement {
	out := make([]models.SecurityRequirement, 0, len(g.SecurityRequirements))
	for i, r := range g.SecurityRequirements {
		id := jsonutil.FlexibleString(r.ID)
		if id == "" {
			id = fmt.Sprintf("SR-%03d", i+1)
		}
		out = append(out, models.SecurityRequirement{
			ID:       id,
			Text:     r.Text,
			Priority: models.NormalizeSeverity(r.Priority),
			Category: r.Category,
			Details:  r.Details,
		})
	}
	return out
}
