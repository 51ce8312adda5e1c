// Package features maps raw customer records into the normalized
// FeatureSet the scorer consumes.
package features

import (
	"github.com/trustvault/riskd/internal/domain"
)

// Derive builds a FeatureSet from a customer record.
// Every arithmetic input comes from a typed field, so an absent value is a
// zero, never a propagating NaN; the only guarded degeneracy is a zero
// salary in the loan exposure denominator.
func Derive(c *domain.Customer) domain.FeatureSet {
	m := c.FinancialMetrics

	// Loan exposure: total outstanding over annualized salary.
	// Outstanding falls back to the original amount when the product
	// carries no outstanding balance figure.
	totalOutstanding := 0.0
	for _, p := range c.Products {
		switch {
		case p.Outstanding != nil:
			totalOutstanding += *p.Outstanding
		case p.Amount != nil:
			totalOutstanding += *p.Amount
		}
	}
	annualSalary := m.Income.AvgSalary * 12
	loanExposureRatio := 0.0
	if annualSalary > 0 {
		loanExposureRatio = totalOutstanding / annualSalary
	}

	return domain.FeatureSet{
		PTI:                m.Ratios.PTI,
		DTI:                m.Ratios.DTI,
		SavingsBufferRatio: m.Ratios.BalanceStressRatio,
		LoanExposureRatio:  loanExposureRatio,

		// Six months of payment history; not clamped here, the scorer
		// normalizes it.
		PaymentDelayRatio:      float64(m.BehavioralMetrics.LatePaymentsLast6M) / 6,
		SpendingSpikeIndex:     clamp(m.BehavioralMetrics.TransactionVolatility, 0, 1),
		CreditUtilizationRatio: m.Ratios.CreditUtilization,

		RegionalUnemploymentRisk: NormalizeUnemployment(c.EESS.RegionalUnemployment),
		InflationStressIndex:     NormalizeInflation(c.EESS.MacroIndicators.Inflation),
		SectorRiskScore:          c.EESS.SectorRisk,

		MissedEMILast3M:  m.BehavioralMetrics.MissedEMICountLast3M,
		SalaryDelayDays:  m.Income.DelayDays,
		SavingsChangePct: m.Liquidity.SavingsChange,
		CreditScore:      c.CreditScore,
	}
}

// NormalizeUnemployment maps an unemployment percentage (0-15%) to 0-1.
func NormalizeUnemployment(pct float64) float64 {
	return clamp(pct/15, 0, 1)
}

// NormalizeInflation maps an inflation percentage (0-12%) to 0-1.
func NormalizeInflation(pct float64) float64 {
	return clamp(pct/12, 0, 1)
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
