// Package scoring implements the pre-delinquency risk model: a weighted
// linear scorer over normalized customer features with additive bureau,
// missed-EMI and salary-delay adjustments.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/trustvault/riskd/internal/domain"
)

// Additive adjustment constants applied on top of the weighted sum.
const (
	creditPenaltyMax = 15.0 // low bureau score, clamp((900-cs)/600)*15
	missedEMIPenalty = 5.0  // per missed EMI, uncapped
	delayPenaltyMax  = 8.0  // salary delay, capped once >= 30 days
)

// ComputeRiskScore scores a feature vector against the given thresholds.
// Pure and deterministic apart from the result timestamp: identical inputs
// produce identical score, category, contributions and flags.
func ComputeRiskScore(features domain.FeatureSet, thresholds domain.RiskThresholds) *domain.RiskScoreResult {
	rawScore := 0.0
	contributions := make([]domain.SHAPContribution, 0, len(modelWeights))

	for _, mw := range modelWeights {
		contribution := mw.weight * mw.normalized(features) * 100
		rawScore += contribution

		absImpact := int(math.Round(math.Abs(contribution)))
		impact := absImpact
		direction := domain.DirectionSafe
		if contribution > 0 {
			direction = domain.DirectionRisk
		} else {
			impact = -absImpact
		}

		contributions = append(contributions, domain.SHAPContribution{
			Feature:   mw.label,
			Group:     mw.group,
			RawValue:  mw.rawValue(features),
			Impact:    impact,
			Direction: direction,
			Weight:    math.Abs(mw.weight),
		})
	}

	// Bureau score adjustment: 900 maps to 0, 300 to the full penalty.
	rawScore += creditScoreToRisk(features.CreditScore) * creditPenaltyMax

	// Missed EMIs are a hard penalty with no cap.
	rawScore += float64(features.MissedEMILast3M) * missedEMIPenalty

	// Salary delay saturates at one month.
	rawScore += clamp(float64(features.SalaryDelayDays)/30, 0, 1) * delayPenaltyMax

	score := int(math.Round(clamp(rawScore, 0, 100)))
	category := Categorize(score, thresholds)
	style := categoryStyles[category]

	// Sort by descending absolute impact. Stable keeps ties in weight-table order.
	sort.SliceStable(contributions, func(i, j int) bool {
		return abs(contributions[i].Impact) > abs(contributions[j].Impact)
	})

	return &domain.RiskScoreResult{
		Score:             score,
		Category:          category,
		Label:             style.label,
		Color:             style.color,
		SHAPContributions: contributions,
		FeatureFlags:      buildFeatureFlags(features),
		Timestamp:         time.Now().UTC(),
	}
}

// Categorize maps a score to its band via the <= chain. Threshold ordering
// is trusted; a misordered set falls through to critical.
func Categorize(score int, t domain.RiskThresholds) domain.RiskCategory {
	switch {
	case score <= t.LowMax:
		return domain.CategoryLow
	case score <= t.MediumMax:
		return domain.CategoryMedium
	case score <= t.HighMax:
		return domain.CategoryHigh
	default:
		return domain.CategoryCritical
	}
}

type categoryStyle struct {
	label string
	color string
}

var categoryStyles = map[domain.RiskCategory]categoryStyle{
	domain.CategoryLow:      {label: "Low Risk", color: "blue"},
	domain.CategoryMedium:   {label: "Medium Risk", color: "yellow"},
	domain.CategoryHigh:     {label: "High Risk", color: "orange"},
	domain.CategoryCritical: {label: "Critical Risk", color: "red"},
}

// creditScoreToRisk maps a 300-900 bureau score to a 0-1 risk factor, inverse.
func creditScoreToRisk(score int) float64 {
	return clamp((900-float64(score))/600, 0, 1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
