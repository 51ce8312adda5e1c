package api

import (
	"fmt"

	"github.com/trustvault/riskd/internal/domain"
)

// requiredFeatureFields are checked in this order; validation reports
// the first missing or non-numeric field.
var requiredFeatureFields = []string{
	"pti",
	"dti",
	"savingsBufferRatio",
	"loanExposureRatio",
	"paymentDelayRatio",
	"spendingSpikeIndex",
	"creditUtilizationRatio",
	"regionalUnemploymentRisk",
	"inflationStressIndex",
	"sectorRiskScore",
	"creditScore",
}

// ValidationResult is the outcome of request validation.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Error: msg, StatusCode: 400}
}

// ValidateScoreRequest checks an untyped request body against the
// scoring contract: a JSON object with a string customerId, a features
// object carrying every required numeric field, and optional thresholds.
func ValidateScoreRequest(body any) ValidationResult {
	obj, ok := body.(map[string]any)
	if !ok || obj == nil {
		return invalid("Request body must be a JSON object")
	}

	if _, ok := obj["customerId"].(string); !ok {
		return invalid("Missing or invalid field: customerId (string required)")
	}

	features, ok := obj["features"].(map[string]any)
	if !ok || features == nil {
		return invalid("Missing or invalid field: features (object required)")
	}

	for _, field := range requiredFeatureFields {
		if _, ok := features[field].(float64); !ok {
			return invalid(fmt.Sprintf("Missing or invalid feature field: %s (number required)", field))
		}
	}

	return ValidationResult{Valid: true}
}

// ParseScoreRequest converts a validated body into domain types.
// Call only after ValidateScoreRequest reports valid.
func ParseScoreRequest(body any) (customerID string, features *domain.FeatureSet, thresholds domain.RiskThresholds) {
	obj := body.(map[string]any)
	customerID = obj["customerId"].(string)
	f := obj["features"].(map[string]any)

	num := func(key string) float64 {
		if v, ok := f[key].(float64); ok {
			return v
		}
		return 0
	}

	features = &domain.FeatureSet{
		PTI:                      num("pti"),
		DTI:                      num("dti"),
		SavingsBufferRatio:       num("savingsBufferRatio"),
		LoanExposureRatio:        num("loanExposureRatio"),
		PaymentDelayRatio:        num("paymentDelayRatio"),
		SpendingSpikeIndex:       num("spendingSpikeIndex"),
		CreditUtilizationRatio:   num("creditUtilizationRatio"),
		RegionalUnemploymentRisk: num("regionalUnemploymentRisk"),
		InflationStressIndex:     num("inflationStressIndex"),
		SectorRiskScore:          num("sectorRiskScore"),
		MissedEMILast3M:          int(num("missedEMILast3M")),
		SalaryDelayDays:          int(num("salaryDelayDays")),
		SavingsChangePct:         num("savingsChangePct"),
		CreditScore:              int(num("creditScore")),
	}

	thresholds = domain.DefaultThresholds()
	if t, ok := obj["thresholds"].(map[string]any); ok {
		if v, ok := t["lowMax"].(float64); ok {
			thresholds.LowMax = int(v)
		}
		if v, ok := t["mediumMax"].(float64); ok {
			thresholds.MediumMax = int(v)
		}
		if v, ok := t["highMax"].(float64); ok {
			thresholds.HighMax = int(v)
		}
	}

	return customerID, features, thresholds
}
