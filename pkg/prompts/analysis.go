// Package prompts holds the default prompt templates for story analysis.
package prompts

import (
	"fmt"
	"strings"

	"github.com/securereq/securereq-engine/pkg/models"
)

// DefaultSystemPrompt frames the analyst role and the required JSON shape.
const DefaultSystemPrompt = `You are an expert application security analyst specializing in threat modeling, abuse case generation, and security requirements engineering. You follow STRIDE, OWASP, and NIST frameworks.

When given a user story, you produce a comprehensive security analysis in JSON format with three sections:
1. abuse_cases: Realistic threat scenarios an attacker would attempt
2. stride_threats: STRIDE-categorized threats (Spoofing, Tampering, Repudiation, Information Disclosure, Denial of Service, Elevation of Privilege)
3. security_requirements: Actionable security controls to mitigate the identified threats

Each abuse case must have: id, threat, actor, description, impact (Critical/High/Medium/Low), likelihood (High/Medium/Low), attack_vector, stride_category
Each stride threat must have: category, threat, description, risk_level (Critical/High/Medium/Low)
Each security requirement must have: id, text, priority (Critical/High/Medium), category, details`

// DefaultUserPromptTemplate is expanded with the story fields. Placeholders:
// {title}, {description}, {acceptance_criteria_section},
// {custom_standards_section}.
const DefaultUserPromptTemplate = `Analyze the following user story for security threats, abuse cases, and generate security requirements.

**User Story Title:** {title}
**Description:** {description}
{acceptance_criteria_section}
{custom_standards_section}

Produce a thorough security analysis. Return ONLY valid JSON with this exact structure:
{
  "abuse_cases": [
    {"id": "AC-001", "threat": "...", "actor": "...", "description": "...", "impact": "...", "likelihood": "...", "attack_vector": "...", "stride_category": "..."}
  ],
  "stride_threats": [
    {"category": "Spoofing", "threat": "...", "description": "...", "risk_level": "..."}
  ],
  "security_requirements": [
    {"id": "SR-001", "text": "...", "priority": "...", "category": "...", "details": "..."}
  ]
}

Generate at least 8 abuse cases, 6 STRIDE threats, and 15 security requirements. Be specific to THIS user story, not generic.`

// StoryInput carries the fields of a story the prompt is built from.
type StoryInput struct {
	Title              string
	Description        string
	AcceptanceCriteria string
}

// BuildUserPrompt expands a user prompt template with the story and the
// project's custom standards.
func BuildUserPrompt(template string, story StoryInput, customStandards []models.CustomStandard) string {
	acSection := ""
	if story.AcceptanceCriteria != "" {
		acSection = "**Acceptance Criteria:** " + story.AcceptanceCriteria
	}

	csSection := ""
	if len(customStandards) > 0 {
		var b strings.Builder
		b.WriteString("\n**Organization Custom Security Standards (must also map requirements to these):**\n")
		for _, std := range customStandards {
			for _, c := range std.Controls {
				fmt.Fprintf(&b, "- [%s] %s - %s\n", c.ControlID, c.Title, c.Description)
			}
		}
		csSection = strings.TrimRight(b.String(), "\n")
	}

	r := strings.NewReplacer(
		"{title}", story.Title,
		"{description}", story.Description,
		"{acceptance_criteria_section}", acSection,
		"{custom_standards_section}", csSection,
	)
	return r.Replace(template)
}

// BuildRepairPrompt asks the model to fix its previous malformed output.
func BuildRepairPrompt(malformed string, parseErr error) string {
	return fmt.Sprintf(`Your previous response could not be parsed as the required JSON structure.

Parse error: %v

Previous response:
%s

Return ONLY the corrected JSON object with the exact keys abuse_cases, stride_threats and security_requirements. No prose, no markdown fences.`, parseErr, malformed)
}
