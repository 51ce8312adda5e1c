package scoring

import (
	"testing"

	"github.com/trustvault/riskd/internal/domain"
)

func flagByLabel(t *testing.T, flags []domain.FeatureFlag, label string) domain.FeatureFlag {
	t.Helper()
	for _, f := range flags {
		if f.Label == label {
			return f
		}
	}
	t.Fatalf("flag %q not found", label)
	return domain.FeatureFlag{}
}

func TestFeatureFlagBreakpoints(t *testing.T) {
	cases := []struct {
		name     string
		features domain.FeatureSet
		label    string
		want     domain.FlagSeverity
	}{
		{"PTICritical", domain.FeatureSet{PTI: 0.51}, "PTI (Payment-to-Income)", domain.SeverityCritical},
		{"PTIHigh", domain.FeatureSet{PTI: 0.4}, "PTI (Payment-to-Income)", domain.SeverityHigh},
		{"PTIMedium", domain.FeatureSet{PTI: 0.3}, "PTI (Payment-to-Income)", domain.SeverityMedium},
		{"PTIBoundaryGood", domain.FeatureSet{PTI: 0.25}, "PTI (Payment-to-Income)", domain.SeverityGood},

		{"DTICritical", domain.FeatureSet{DTI: 0.61}, "DTI (Debt-to-Income)", domain.SeverityCritical},
		{"DTIGood", domain.FeatureSet{DTI: 0.3}, "DTI (Debt-to-Income)", domain.SeverityGood},

		// Savings buffer grades low-is-bad.
		{"BufferCritical", domain.FeatureSet{SavingsBufferRatio: 0.5}, "Savings Buffer Ratio", domain.SeverityCritical},
		{"BufferHigh", domain.FeatureSet{SavingsBufferRatio: 1.5}, "Savings Buffer Ratio", domain.SeverityHigh},
		{"BufferMedium", domain.FeatureSet{SavingsBufferRatio: 2.5}, "Savings Buffer Ratio", domain.SeverityMedium},
		{"BufferGood", domain.FeatureSet{SavingsBufferRatio: 3}, "Savings Buffer Ratio", domain.SeverityGood},

		{"ExposureCritical", domain.FeatureSet{LoanExposureRatio: 0.85}, "Loan Exposure Ratio", domain.SeverityCritical},
		{"DelayHigh", domain.FeatureSet{PaymentDelayRatio: 0.3}, "Payment Delay Ratio", domain.SeverityHigh},
		{"SpikeMedium", domain.FeatureSet{SpendingSpikeIndex: 0.25}, "Spending Spike Index", domain.SeverityMedium},
		{"UtilizationCritical", domain.FeatureSet{CreditUtilizationRatio: 0.92}, "Credit Utilization", domain.SeverityCritical},
		{"UtilizationBoundaryHigh", domain.FeatureSet{CreditUtilizationRatio: 0.9}, "Credit Utilization", domain.SeverityHigh},

		// Unemployment and inflation flags grade the denormalized percentage.
		{"UnemploymentCritical", domain.FeatureSet{RegionalUnemploymentRisk: 0.7}, "Regional Unemployment Risk", domain.SeverityCritical},
		{"UnemploymentGood", domain.FeatureSet{RegionalUnemploymentRisk: 0.3}, "Regional Unemployment Risk", domain.SeverityGood},
		{"InflationHigh", domain.FeatureSet{InflationStressIndex: 0.55}, "Inflation Stress Index", domain.SeverityHigh},
		{"SectorMedium", domain.FeatureSet{SectorRiskScore: 0.4}, "Sector Risk Score", domain.SeverityMedium},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flags := buildFeatureFlags(tc.features)
			got := flagByLabel(t, flags, tc.label)
			if got.Severity != tc.want {
				t.Errorf("expected %s, got %s (value %s)", tc.want, got.Severity, got.Value)
			}
		})
	}
}

func TestFeatureFlagsFixedOrder(t *testing.T) {
	flags := buildFeatureFlags(domain.FeatureSet{})
	want := []string{
		"PTI (Payment-to-Income)",
		"DTI (Debt-to-Income)",
		"Savings Buffer Ratio",
		"Loan Exposure Ratio",
		"Payment Delay Ratio",
		"Spending Spike Index",
		"Credit Utilization",
		"Regional Unemployment Risk",
		"Inflation Stress Index",
		"Sector Risk Score",
	}
	if len(flags) != len(want) {
		t.Fatalf("expected %d flags, got %d", len(want), len(flags))
	}
	for i, label := range want {
		if flags[i].Label != label {
			t.Errorf("position %d: expected %s, got %s", i, label, flags[i].Label)
		}
	}
}
