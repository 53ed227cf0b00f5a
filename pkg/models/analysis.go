package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity grades impact, risk level and requirement priority.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Weight maps a severity onto the numeric scale used by the risk scorer.
// Unknown values weigh as Low so a sloppy generation never inflates a score.
func (s Severity) Weight() int {
	switch s {
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 1
	}
}

// NormalizeSeverity maps free-form generated text onto the severity scale.
func NormalizeSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Likelihood grades how probable an abuse case is.
type Likelihood string

const (
	LikelihoodLow    Likelihood = "Low"
	LikelihoodMedium Likelihood = "Medium"
	LikelihoodHigh   Likelihood = "High"
)

// Weight maps a likelihood onto the numeric scale used by the risk scorer.
func (l Likelihood) Weight() int {
	switch l {
	case LikelihoodMedium:
		return 2
	case LikelihoodHigh:
		return 3
	default:
		return 1
	}
}

// NormalizeLikelihood maps free-form generated text onto the likelihood scale.
func NormalizeLikelihood(raw string) Likelihood {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return LikelihoodHigh
	case "medium", "moderate":
		return LikelihoodMedium
	default:
		return LikelihoodLow
	}
}

// StrideCategory is one of the six STRIDE threat classes.
type StrideCategory string

const (
	StrideSpoofing              StrideCategory = "Spoofing"
	StrideTampering             StrideCategory = "Tampering"
	StrideRepudiation           StrideCategory = "Repudiation"
	StrideInformationDisclosure StrideCategory = "Information Disclosure"
	StrideDenialOfService       StrideCategory = "Denial of Service"
	StrideElevationOfPrivilege  StrideCategory = "Elevation of Privilege"
)

// NormalizeStrideCategory maps free-form generated text onto a STRIDE class.
// Unrecognized input falls back to Tampering, the broadest class.
func NormalizeStrideCategory(raw string) StrideCategory {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "spoofing":
		return StrideSpoofing
	case "tampering":
		return StrideTampering
	case "repudiation":
		return StrideRepudiation
	case "information disclosure", "information_disclosure":
		return StrideInformationDisclosure
	case "denial of service", "denial_of_service", "dos":
		return StrideDenialOfService
	case "elevation of privilege", "elevation_of_privilege", "privilege escalation":
		return StrideElevationOfPrivilege
	default:
		return StrideTampering
	}
}

// AbuseCase is a narrative misuse scenario derived from a story.
type AbuseCase struct {
	ID             string         `json:"id"`
	Threat         string         `json:"threat"`
	Actor          string         `json:"actor"`
	Description    string         `json:"description"`
	Impact         Severity       `json:"impact"`
	Likelihood     Likelihood     `json:"likelihood"`
	AttackVector   string         `json:"attack_vector"`
	StrideCategory StrideCategory `json:"stride_category"`
}

// StrideThreat is a STRIDE-classified threat with a risk grade.
type StrideThreat struct {
	Category    StrideCategory `json:"category"`
	Threat      string         `json:"threat"`
	Description string         `json:"description"`
	RiskLevel   Severity       `json:"risk_level"`
}

// SecurityRequirement is an actionable control generated to mitigate the
// identified threats. Its ID is stable within the owning analysis.
type SecurityRequirement struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Priority Severity `json:"priority"`
	Category string   `json:"category"`
	Details  string   `json:"details,omitempty"`
}

// AnalysisStatus distinguishes successful runs from persisted failures.
type AnalysisStatus string

const (
	AnalysisSuccess AnalysisStatus = "success"
	AnalysisError   AnalysisStatus = "error"
)

// Analysis is one versioned analysis run for a story. Rows are immutable once
// created; re-running analysis appends a new version. An error run still
// consumes a version slot but carries no findings and must be excluded from
// aggregate risk reporting.
type Analysis struct {
	ID                   uuid.UUID             `json:"id"`
	StoryID              uuid.UUID             `json:"story_id"`
	Version              int                   `json:"version"`
	AbuseCases           []AbuseCase           `json:"abuse_cases"`
	StrideThreats        []StrideThreat        `json:"stride_threats"`
	SecurityRequirements []SecurityRequirement `json:"security_requirements"`
	RiskScore            int                   `json:"risk_score"`
	Status               AnalysisStatus        `json:"status"`
	ErrorDetail          string                `json:"error_detail,omitempty"`
	ModelUsed            string                `json:"model_used,omitempty"`
	GenerationConfigID   uuid.UUID             `json:"generation_config_id,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
}
