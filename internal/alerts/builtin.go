package alerts

import "github.com/trustvault/riskd/internal/domain"

// DefaultRules returns the built-in intervention rules seeded for a tenant
// that has no rules configured. Operators can replace them via the rules API.
func DefaultRules() []*domain.AlertRule {
	return []*domain.AlertRule{
		{
			ID:             "builtin-missed-emi",
			Name:           "Repeated missed EMIs",
			Description:    "Two or more missed EMIs in the last three months",
			Expression:     "missed_emi_last_3m >= 2",
			Severity:       domain.SeverityCritical,
			Recommendation: "Contact the customer to restructure the repayment schedule",
			Enabled:        true,
		},
		{
			ID:             "builtin-credit-stress",
			Name:           "Bureau score under stress",
			Description:    "Low bureau score combined with high credit utilization",
			Expression:     "credit_score < 550 && credit_utilization_ratio > 0.8",
			Severity:       domain.SeverityHigh,
			Recommendation: "Review the credit limit and offer a utilization reduction plan",
			Enabled:        true,
		},
		{
			ID:             "builtin-salary-delay",
			Name:           "Salary delay",
			Description:    "Income credited more than two weeks late",
			Expression:     "salary_delay_days > 14",
			Severity:       domain.SeverityHigh,
			Recommendation: "Offer an EMI date shift aligned with the salary credit date",
			Enabled:        true,
		},
		{
			ID:             "builtin-savings-drain",
			Name:           "Savings drain",
			Description:    "Savings dropped sharply with a thin EMI buffer",
			Expression:     "savings_change_pct < -50.0 && savings_buffer_ratio < 2.0",
			Severity:       domain.SeverityMedium,
			Recommendation: "Flag for a financial health check before the next EMI cycle",
			Enabled:        true,
		},
		{
			ID:             "builtin-critical-score",
			Name:           "Critical risk score",
			Description:    "Overall score in the critical band",
			Expression:     "score > 80",
			Severity:       domain.SeverityCritical,
			Recommendation: "Escalate to the collections prevention team immediately",
			Enabled:        true,
		},
		{
			ID:             "builtin-external-shock",
			Name:           "External shock exposure",
			Description:    "High sector risk during elevated regional unemployment",
			Expression:     "sector_risk_score > 0.7 && regional_unemployment_risk > 0.5",
			Severity:       domain.SeverityMedium,
			Recommendation: "Include the customer in the macro stress watchlist",
			Enabled:        true,
		},
	}
}
