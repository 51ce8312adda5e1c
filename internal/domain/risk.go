package domain

import (
	"time"
)

// RiskCategory is the band a score falls into.
type RiskCategory string

const (
	CategoryLow      RiskCategory = "low"
	CategoryMedium   RiskCategory = "medium"
	CategoryHigh     RiskCategory = "high"
	CategoryCritical RiskCategory = "critical"
)

// RiskThresholds partitions the 0-100 score line into four bands:
// low (<= LowMax), medium (<= MediumMax), high (<= HighMax), critical above.
// Ordering is trusted, not enforced; a misordered set degrades to the
// <= chain falling through to critical.
type RiskThresholds struct {
	LowMax    int `json:"lowMax"`
	MediumMax int `json:"mediumMax"`
	HighMax   int `json:"highMax"`
}

// DefaultThresholds returns the standard band boundaries.
func DefaultThresholds() RiskThresholds {
	return RiskThresholds{
		LowMax:    30,
		MediumMax: 60,
		HighMax:   80,
	}
}

// FeatureSet is the normalized input vector for scoring.
// All fields are mandatory; a missing field in a request is a validation
// error at the API boundary, never a silent zero.
type FeatureSet struct {
	// Financial capacity
	PTI                float64 `json:"pti"`                // payment-to-income, 0-1
	DTI                float64 `json:"dti"`                // debt-to-income, 0-1
	SavingsBufferRatio float64 `json:"savingsBufferRatio"` // savings / monthly EMI, higher = safer
	LoanExposureRatio  float64 `json:"loanExposureRatio"`  // total debt / annual income

	// Behavioral risk
	PaymentDelayRatio      float64 `json:"paymentDelayRatio"`      // late payments / 6
	SpendingSpikeIndex     float64 `json:"spendingSpikeIndex"`     // spend volatility, 0-1
	CreditUtilizationRatio float64 `json:"creditUtilizationRatio"` // used credit / limit

	// External stress
	RegionalUnemploymentRisk float64 `json:"regionalUnemploymentRisk"` // unemployment% / 15
	InflationStressIndex     float64 `json:"inflationStressIndex"`     // inflation% / 12
	SectorRiskScore          float64 `json:"sectorRiskScore"`          // 0-1

	// Raw signals
	MissedEMILast3M  int     `json:"missedEMILast3M"`
	SalaryDelayDays  int     `json:"salaryDelayDays"`
	SavingsChangePct float64 `json:"savingsChangePct"` // signed, informational only
	CreditScore      int     `json:"creditScore"`      // bureau score, 300-900
}

// FeatureGroup tags a weighted feature by its risk dimension.
type FeatureGroup string

const (
	GroupFinancial  FeatureGroup = "financial"
	GroupBehavioral FeatureGroup = "behavioral"
	GroupExternal   FeatureGroup = "external"
)

// SHAPContribution is one weighted feature's signed share of the score.
type SHAPContribution struct {
	Feature   string       `json:"feature"`
	Group     FeatureGroup `json:"group"`
	RawValue  string       `json:"rawValue"`
	Impact    int          `json:"impact"`    // positive = increases risk
	Direction string       `json:"direction"` // "risk" or "safe"
	Weight    float64      `json:"weight"`    // absolute model weight
}

// Contribution direction tags.
const (
	DirectionRisk = "risk"
	DirectionSafe = "safe"
)

// FlagSeverity classifies a single feature against its fixed breakpoints,
// independently of the weighted score.
type FlagSeverity string

const (
	SeverityCritical FlagSeverity = "critical"
	SeverityHigh     FlagSeverity = "high"
	SeverityMedium   FlagSeverity = "medium"
	SeverityLow      FlagSeverity = "low"
	SeverityGood     FlagSeverity = "good"
)

// FeatureFlag is a per-feature severity summary for display.
type FeatureFlag struct {
	Label    string       `json:"label"`
	Value    string       `json:"value"`
	Severity FlagSeverity `json:"severity"`
}

// RiskScoreResult is the full output of one scoring call.
// Constructed fresh on every call and never mutated afterwards.
type RiskScoreResult struct {
	Score             int                `json:"score"` // 0-100
	Category          RiskCategory       `json:"category"`
	Label             string             `json:"label"`
	Color             string             `json:"color"`
	SHAPContributions []SHAPContribution `json:"shapContributions"`
	FeatureFlags      []FeatureFlag      `json:"featureFlags"`
	Timestamp         time.Time          `json:"timestamp"`
}

// StoredRiskScore is the score-history tuple persisted per customer.
type StoredRiskScore struct {
	CustomerID string       `json:"customerId"`
	TenantID   string       `json:"tenantId"`
	Score      int          `json:"score"`
	Category   RiskCategory `json:"category"`
	Timestamp  time.Time    `json:"timestamp"`
}
