// Package services implements the engine's business logic on top of the
// repositories and the model provider clients.
package services

import (
	"math"

	"github.com/securereq/securereq-engine/pkg/models"
)

// Risk scoring is a saturating weighted sum. An abuse case contributes
// likelihood x impact (max 3x4=12); a STRIDE threat contributes its risk
// level weight (max 4). The accumulated weight is scaled against a fixed
// saturation point, so every finding adds to the score until it pins at 100.
const riskSaturationWeight = 48 // four worst-case abuse cases

// RiskScore computes the deterministic 0-100 risk score for a finding set.
// An empty finding set scores 0. The score is order-independent, adding a
// finding never lowers it, and raising any finding's severity or likelihood
// never lowers it.
func RiskScore(abuseCases []models.AbuseCase, threats []models.StrideThreat) int {
	sum := 0
	for _, ac := range abuseCases {
		sum += ac.Likelihood.Weight() * ac.Impact.Weight()
	}
	for _, t := range threats {
		sum += t.RiskLevel.Weight()
	}

	score := int(math.Round(100 * float64(sum) / riskSaturationWeight))
	if score > 100 {
		return 100
	}
	return score
}
