package domain

import (
	"time"
)

// AlertRule is an operator-defined intervention rule: a CEL expression
// evaluated against the scored feature vector. When it evaluates true,
// the attached recommendation is raised alongside the score.
type AlertRule struct {
	ID             string       `json:"id"`
	TenantID       string       `json:"tenantId"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Expression     string       `json:"expression"`
	Severity       FlagSeverity `json:"severity"`
	Recommendation string       `json:"recommendation,omitempty"`
	Enabled        bool         `json:"enabled"`
	CreatedAt      time.Time    `json:"createdAt,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt,omitempty"`
}

// AlertHit records a rule that triggered for a scored customer.
type AlertHit struct {
	RuleID         string       `json:"ruleId"`
	Name           string       `json:"name"`
	Severity       FlagSeverity `json:"severity"`
	Recommendation string       `json:"recommendation,omitempty"`
}

// AlertEvent is the bus payload published when rules trigger.
type AlertEvent struct {
	CustomerID string       `json:"customerId"`
	Score      int          `json:"score"`
	Category   RiskCategory `json:"category"`
	Hits       []AlertHit   `json:"hits"`
	Timestamp  time.Time    `json:"timestamp"`
}
