package api

import (
	"encoding/json"
	"testing"
)

func decodeBody(t *testing.T, raw string) any {
	t.Helper()
	var body any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("invalid test JSON: %v", err)
	}
	return body
}

const validRequest = `{
	"customerId": "CU789456",
	"features": {
		"pti": 0.29, "dti": 0.41, "savingsBufferRatio": 0.8,
		"loanExposureRatio": 0.37, "paymentDelayRatio": 0.5,
		"spendingSpikeIndex": 0.32, "creditUtilizationRatio": 0.92,
		"regionalUnemploymentRisk": 0.45, "inflationStressIndex": 0.52,
		"sectorRiskScore": 0.75, "missedEMILast3M": 1,
		"salaryDelayDays": 7, "savingsChangePct": -68, "creditScore": 610
	}
}`

func TestValidateValidRequest(t *testing.T) {
	v := ValidateScoreRequest(decodeBody(t, validRequest))
	if !v.Valid {
		t.Fatalf("expected valid, got error: %s", v.Error)
	}
	if v.Error != "" {
		t.Errorf("valid result must carry no error, got %q", v.Error)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		wantErr string
	}{
		{
			name:    "NotAnObject",
			body:    "just a string",
			wantErr: "Request body must be a JSON object",
		},
		{
			name:    "NilBody",
			body:    nil,
			wantErr: "Request body must be a JSON object",
		},
		{
			name:    "ArrayBody",
			body:    decodeBody(t, `[1,2,3]`),
			wantErr: "Request body must be a JSON object",
		},
		{
			name:    "EmptyObject",
			body:    decodeBody(t, `{}`),
			wantErr: "Missing or invalid field: customerId (string required)",
		},
		{
			name:    "NumericCustomerID",
			body:    decodeBody(t, `{"customerId": 42}`),
			wantErr: "Missing or invalid field: customerId (string required)",
		},
		{
			name:    "MissingFeatures",
			body:    decodeBody(t, `{"customerId": "CU1"}`),
			wantErr: "Missing or invalid field: features (object required)",
		},
		{
			name:    "FeaturesNotObject",
			body:    decodeBody(t, `{"customerId": "CU1", "features": [1]}`),
			wantErr: "Missing or invalid field: features (object required)",
		},
		{
			name:    "EmptyFeaturesReportsFirstField",
			body:    decodeBody(t, `{"customerId": "CU1", "features": {}}`),
			wantErr: "Missing or invalid feature field: pti (number required)",
		},
		{
			name:    "StringFeatureValue",
			body:    decodeBody(t, `{"customerId": "CU1", "features": {"pti": "0.3"}}`),
			wantErr: "Missing or invalid feature field: pti (number required)",
		},
		{
			name: "MissingCreditScore",
			body: decodeBody(t, `{"customerId": "CU1", "features": {
				"pti": 0.1, "dti": 0.1, "savingsBufferRatio": 1,
				"loanExposureRatio": 0.1, "paymentDelayRatio": 0.1,
				"spendingSpikeIndex": 0.1, "creditUtilizationRatio": 0.1,
				"regionalUnemploymentRisk": 0.1, "inflationStressIndex": 0.1,
				"sectorRiskScore": 0.1}}`),
			wantErr: "Missing or invalid feature field: creditScore (number required)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateScoreRequest(tt.body)
			if v.Valid {
				t.Fatal("expected validation failure")
			}
			if v.Error != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, v.Error)
			}
			if v.StatusCode != 400 {
				t.Errorf("expected statusCode 400, got %d", v.StatusCode)
			}
		})
	}
}

func TestValidateCheckOrder(t *testing.T) {
	// A body missing several fields must report dti, the first gap in
	// the fixed check order, not a later one.
	body := decodeBody(t, `{"customerId": "CU1", "features": {
		"pti": 0.1, "sectorRiskScore": 0.1, "creditScore": 600}}`)
	v := ValidateScoreRequest(body)
	if v.Valid {
		t.Fatal("expected validation failure")
	}
	want := "Missing or invalid feature field: dti (number required)"
	if v.Error != want {
		t.Errorf("expected %q, got %q", want, v.Error)
	}
}

func TestParseScoreRequest(t *testing.T) {
	body := decodeBody(t, validRequest)
	if v := ValidateScoreRequest(body); !v.Valid {
		t.Fatalf("fixture must validate: %s", v.Error)
	}

	customerID, features, thresholds := ParseScoreRequest(body)
	if customerID != "CU789456" {
		t.Errorf("unexpected customerId: %s", customerID)
	}
	if features.PTI != 0.29 {
		t.Errorf("unexpected pti: %v", features.PTI)
	}
	if features.CreditScore != 610 {
		t.Errorf("unexpected creditScore: %d", features.CreditScore)
	}
	if features.MissedEMILast3M != 1 {
		t.Errorf("unexpected missedEMILast3M: %d", features.MissedEMILast3M)
	}
	if features.SavingsChangePct != -68 {
		t.Errorf("unexpected savingsChangePct: %v", features.SavingsChangePct)
	}

	// No thresholds supplied: defaults apply.
	if thresholds.LowMax != 30 || thresholds.MediumMax != 60 || thresholds.HighMax != 80 {
		t.Errorf("expected default thresholds, got %+v", thresholds)
	}
}

func TestParseScoreRequestCustomThresholds(t *testing.T) {
	body := decodeBody(t, `{
		"customerId": "CU1",
		"features": {
			"pti": 0.1, "dti": 0.1, "savingsBufferRatio": 1,
			"loanExposureRatio": 0.1, "paymentDelayRatio": 0.1,
			"spendingSpikeIndex": 0.1, "creditUtilizationRatio": 0.1,
			"regionalUnemploymentRisk": 0.1, "inflationStressIndex": 0.1,
			"sectorRiskScore": 0.1, "creditScore": 700
		},
		"thresholds": {"lowMax": 20, "mediumMax": 50, "highMax": 75}
	}`)
	if v := ValidateScoreRequest(body); !v.Valid {
		t.Fatalf("fixture must validate: %s", v.Error)
	}

	_, _, thresholds := ParseScoreRequest(body)
	if thresholds.LowMax != 20 || thresholds.MediumMax != 50 || thresholds.HighMax != 75 {
		t.Errorf("expected custom thresholds, got %+v", thresholds)
	}
}
