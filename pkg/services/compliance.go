package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securereq/securereq-engine/pkg/catalog"
	"github.com/securereq/securereq-engine/pkg/models"
	"github.com/securereq/securereq-engine/pkg/repositories"
)

// Relevance grades for the three ways a requirement can match a control.
const (
	relevanceControlMatch = 0.8
	relevanceCustomMatch  = 0.7
	relevanceGenericMatch = 0.6
)

// controlsPerPrefix caps how many concrete controls one prefix contributes
// per requirement.
const controlsPerPrefix = 2

// ComplianceService maps generated security requirements onto compliance
// standard controls and reports per-standard coverage.
type ComplianceService interface {
	// MapAnalysis recomputes and persists the mapping set for an analysis.
	// Recomputing is idempotent: the previous rows are replaced wholesale.
	MapAnalysis(ctx context.Context, analysisID uuid.UUID) ([]models.ComplianceMapping, error)
	ListMappings(ctx context.Context, analysisID uuid.UUID) ([]models.ComplianceMapping, error)
	// Summary aggregates an analysis's mappings per standard, ordered by
	// mapped control count descending, then standard name.
	Summary(ctx context.Context, analysisID uuid.UUID) ([]models.StandardSummary, error)
}

type complianceService struct {
	analyses  repositories.AnalysisRepository
	stories   repositories.StoryRepository
	standards repositories.CustomStandardRepository
	mappings  repositories.ComplianceRepository
	catalog   *catalog.Catalog
	logger    *zap.Logger
}

// NewComplianceService creates a new compliance mapping service.
func NewComplianceService(
	analyses repositories.AnalysisRepository,
	stories repositories.StoryRepository,
	standards repositories.CustomStandardRepository,
	mappings repositories.ComplianceRepository,
	cat *catalog.Catalog,
	logger *zap.Logger,
) ComplianceService {
	return &complianceService{
		analyses:  analyses,
		stories:   stories,
		standards: standards,
		mappings:  mappings,
		catalog:   cat,
		logger:    logger.Named("compliance-service"),
	}
}

var _ ComplianceService = (*complianceService)(nil)

func (s *complianceService) MapAnalysis(ctx context.Context, analysisID uuid.UUID) ([]models.ComplianceMapping, error) {
	analysis, err := s.analyses.Get(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	story, err := s.stories.Get(ctx, analysis.StoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story for analysis: %w", err)
	}

	customStandards, err := s.standards.ListByProject(ctx, story.ProjectID)
	if err != nil {
		return nil, err
	}

	mappings := MapRequirements(analysis.SecurityRequirements, s.catalog, customStandards)
	if err := s.mappings.ReplaceForAnalysis(ctx, analysisID, mappings); err != nil {
		s.logger.Error("Failed to persist compliance mappings",
			zap.String("analysis_id", analysisID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Computed compliance mappings",
		zap.String("analysis_id", analysisID.String()),
		zap.Int("requirements", len(analysis.SecurityRequirements)),
		zap.Int("mappings", len(mappings)))
	return mappings, nil
}

func (s *complianceService) ListMappings(ctx context.Context, analysisID uuid.UUID) ([]models.ComplianceMapping, error) {
	if _, err := s.analyses.Get(ctx, analysisID); err != nil {
		return nil, err
	}
	return s.mappings.ListByAnalysis(ctx, analysisID)
}

func (s *complianceService) Summary(ctx context.Context, analysisID uuid.UUID) ([]models.StandardSummary, error) {
	mappings, err := s.ListMappings(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	// Distinct controls per standard: two requirements mapping onto the same
	// control count it once.
	type controlKey struct {
		standard string
		control  string
	}
	seen := map[controlKey]bool{}
	counts := map[string]int{}
	for _, m := range mappings {
		key := controlKey{m.StandardName, m.ControlID}
		if seen[key] {
			continue
		}
		seen[key] = true
		counts[m.StandardName]++
	}

	summaries := make([]models.StandardSummary, 0, len(counts))
	for name, n := range counts {
		summaries = append(summaries, models.StandardSummary{StandardName: name, MappedControls: n})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].MappedControls != summaries[j].MappedControls {
			return summaries[i].MappedControls > summaries[j].MappedControls
		}
		return summaries[i].StandardName < summaries[j].StandardName
	})
	return summaries, nil
}

// MapRequirements computes the mapping rows for a requirement set against the
// built-in catalog and a project's custom standards. The result is
// deterministic for a given input: standards are walked in catalog order and
// controls in their declared order.
func MapRequirements(requirements []models.SecurityRequirement, cat *catalog.Catalog, customStandards []models.CustomStandard) []models.ComplianceMapping {
	mappings := []models.ComplianceMapping{}

	for _, req := range requirements {
		for _, stdName := range cat.Names() {
			std := cat.Standard(stdName)
			for _, prefix := range cat.CategoryPrefixes(stdName, req.Category) {
				matched := std.ControlsByPrefix(prefix)
				if len(matched) == 0 {
					// No concrete control behind this prefix; record the
					// prefix itself as a generic mapping.
					mappings = append(mappings, models.ComplianceMapping{
						RequirementID: req.ID,
						StandardName:  stdName,
						ControlID:     prefix,
						ControlTitle:  fmt.Sprintf("%s control %s", stdName, prefix),
						Relevance:     relevanceGenericMatch,
					})
					continue
				}
				if len(matched) > controlsPerPrefix {
					matched = matched[:controlsPerPrefix]
				}
				for _, c := range matched {
					mappings = append(mappings, models.ComplianceMapping{
						RequirementID: req.ID,
						StandardName:  stdName,
						ControlID:     c.ControlID,
						ControlTitle:  c.Title,
						Relevance:     relevanceControlMatch,
					})
				}
			}
		}

		reqCategory := strings.ToLower(req.Category)
		for _, cs := range customStandards {
			for _, c := range cs.Controls {
				ctrlCategory := strings.ToLower(c.Category)
				if ctrlCategory == "" {
					continue
				}
				if strings.Contains(reqCategory, ctrlCategory) || strings.Contains(ctrlCategory, reqCategory) {
					mappings = append(mappings, models.ComplianceMapping{
						RequirementID: req.ID,
						StandardName:  cs.Name,
						ControlID:     c.ControlID,
						ControlTitle:  c.Title,
						Relevance:     relevanceCustomMatch,
					})
				}
			}
		}
	}

	return mappings
}
