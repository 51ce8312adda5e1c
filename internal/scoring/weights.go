package scoring

import (
	"fmt"

	"github.com/trustvault/riskd/internal/domain"
)

// modelWeight describes one weighted feature of the linear model:
// its fixed learned weight, display metadata, and how to read the
// normalized and display values out of a FeatureSet.
type modelWeight struct {
	key        string
	label      string
	group      domain.FeatureGroup
	weight     float64
	normalized func(f domain.FeatureSet) float64
	rawValue   func(f domain.FeatureSet) string
}

// modelWeights is the fixed weight table. Slice order matters: it is the
// tie-break order for SHAP sorting, so entries must stay in this sequence.
// sectorRiskScore and creditUtilizationRatio intentionally share 0.13.
var modelWeights = []modelWeight{
	// Financial capacity
	{
		key: "pti", label: "PTI Ratio", group: domain.GroupFinancial, weight: 0.12,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.PTI, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f%%", f.PTI*100) },
	},
	{
		key: "dti", label: "DTI Ratio", group: domain.GroupFinancial, weight: 0.11,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.DTI, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f%%", f.DTI*100) },
	},
	{
		key: "loanExposureRatio", label: "Loan Exposure", group: domain.GroupFinancial, weight: 0.09,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.LoanExposureRatio, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f%%", f.LoanExposureRatio*100) },
	},
	{
		// Inverted: a thin savings buffer is risk, a deep one is safety.
		// The 0.1 floor on the denominator keeps a zero buffer finite.
		key: "savingsBufferRatio", label: "Savings Buffer", group: domain.GroupFinancial, weight: -0.10,
		normalized: func(f domain.FeatureSet) float64 {
			return clamp(1/max(f.SavingsBufferRatio, 0.1), 0, 1)
		},
		rawValue: func(f domain.FeatureSet) string { return fmt.Sprintf("%.1fx", f.SavingsBufferRatio) },
	},

	// Behavioral risk
	{
		key: "paymentDelayRatio", label: "Payment Delay", group: domain.GroupBehavioral, weight: 0.15,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.PaymentDelayRatio, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f%%", f.PaymentDelayRatio*100) },
	},
	{
		key: "spendingSpikeIndex", label: "Spending Spike", group: domain.GroupBehavioral, weight: 0.10,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.SpendingSpikeIndex, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f", f.SpendingSpikeIndex*100) },
	},
	{
		key: "creditUtilizationRatio", label: "Credit Utilization", group: domain.GroupBehavioral, weight: 0.13,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.CreditUtilizationRatio, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f%%", f.CreditUtilizationRatio*100) },
	},

	// External stress
	{
		key: "regionalUnemploymentRisk", label: "Regional Unemployment", group: domain.GroupExternal, weight: 0.09,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.RegionalUnemploymentRisk, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f%%", f.RegionalUnemploymentRisk*15) },
	},
	{
		key: "inflationStressIndex", label: "Inflation Stress", group: domain.GroupExternal, weight: 0.08,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.InflationStressIndex, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.1f%%", f.InflationStressIndex*12) },
	},
	{
		key: "sectorRiskScore", label: "Sector Risk", group: domain.GroupExternal, weight: 0.13,
		normalized: func(f domain.FeatureSet) float64 { return clamp(f.SectorRiskScore, 0, 1) },
		rawValue:   func(f domain.FeatureSet) string { return fmt.Sprintf("%.0f/100", f.SectorRiskScore*100) },
	},
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
