package scoring

import (
	"fmt"

	"github.com/trustvault/riskd/internal/domain"
)

// buildFeatureFlags classifies each feature against its own fixed
// breakpoints, independently of the weighted score. The breakpoints are
// calibration constants, not derived from the model weights.
func buildFeatureFlags(f domain.FeatureSet) []domain.FeatureFlag {
	unemPct := f.RegionalUnemploymentRisk * 15
	inflPct := f.InflationStressIndex * 12

	return []domain.FeatureFlag{
		{
			Label:    "PTI (Payment-to-Income)",
			Value:    fmt.Sprintf("%.1f%%", f.PTI*100),
			Severity: severityAbove(f.PTI, 0.5, 0.35, 0.25),
		},
		{
			Label:    "DTI (Debt-to-Income)",
			Value:    fmt.Sprintf("%.1f%%", f.DTI*100),
			Severity: severityAbove(f.DTI, 0.6, 0.45, 0.3),
		},
		{
			Label:    "Savings Buffer Ratio",
			Value:    fmt.Sprintf("%.2fx", f.SavingsBufferRatio),
			Severity: severityBelow(f.SavingsBufferRatio, 1, 2, 3),
		},
		{
			Label:    "Loan Exposure Ratio",
			Value:    fmt.Sprintf("%.1f%%", f.LoanExposureRatio*100),
			Severity: severityAbove(f.LoanExposureRatio, 0.8, 0.6, 0.4),
		},
		{
			Label:    "Payment Delay Ratio",
			Value:    fmt.Sprintf("%.1f%%", f.PaymentDelayRatio*100),
			Severity: severityAbove(f.PaymentDelayRatio, 0.5, 0.2, 0.1),
		},
		{
			Label:    "Spending Spike Index",
			Value:    fmt.Sprintf("%.1f", f.SpendingSpikeIndex*100),
			Severity: severityAbove(f.SpendingSpikeIndex, 0.6, 0.4, 0.2),
		},
		{
			Label:    "Credit Utilization",
			Value:    fmt.Sprintf("%.1f%%", f.CreditUtilizationRatio*100),
			Severity: severityAbove(f.CreditUtilizationRatio, 0.9, 0.7, 0.5),
		},
		{
			Label:    "Regional Unemployment Risk",
			Value:    fmt.Sprintf("%.1f%%", unemPct),
			Severity: severityAbove(unemPct, 9, 7, 5),
		},
		{
			Label:    "Inflation Stress Index",
			Value:    fmt.Sprintf("%.1f%%", inflPct),
			Severity: severityAbove(inflPct, 8, 6, 4),
		},
		{
			Label:    "Sector Risk Score",
			Value:    fmt.Sprintf("%.0f/100", f.SectorRiskScore*100),
			Severity: severityAbove(f.SectorRiskScore, 0.7, 0.5, 0.3),
		},
	}
}

// severityAbove grades a value where higher means worse.
func severityAbove(v, critical, high, medium float64) domain.FlagSeverity {
	switch {
	case v > critical:
		return domain.SeverityCritical
	case v > high:
		return domain.SeverityHigh
	case v > medium:
		return domain.SeverityMedium
	default:
		return domain.SeverityGood
	}
}

// severityBelow grades a value where lower means worse (savings buffer).
func severityBelow(v, critical, high, medium float64) domain.FlagSeverity {
	switch {
	case v < critical:
		return domain.SeverityCritical
	case v < high:
		return domain.SeverityHigh
	case v < medium:
		return domain.SeverityMedium
	default:
		return domain.SeverityGood
	}
}
