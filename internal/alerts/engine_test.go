package alerts

import (
	"context"
	"testing"

	"github.com/trustvault/riskd/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

func stressedFeatures() *domain.FeatureSet {
	return &domain.FeatureSet{
		PTI:                      0.45,
		DTI:                      0.5,
		SavingsBufferRatio:       1.2,
		LoanExposureRatio:        0.7,
		PaymentDelayRatio:        0.5,
		SpendingSpikeIndex:       0.4,
		CreditUtilizationRatio:   0.9,
		RegionalUnemploymentRisk: 0.6,
		InflationStressIndex:     0.5,
		SectorRiskScore:          0.75,
		MissedEMILast3M:          3,
		SalaryDelayDays:          20,
		SavingsChangePct:         -68,
		CreditScore:              480,
	}
}

func TestLoadAndEvaluate(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	rule := &domain.AlertRule{
		ID:             "r1",
		Name:           "Missed EMIs",
		Expression:     "missed_emi_last_3m >= 2",
		Severity:       domain.SeverityCritical,
		Recommendation: "restructure",
		Enabled:        true,
	}
	if err := e.LoadRule(rule); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if e.RulesCount() != 1 {
		t.Fatalf("expected 1 rule, got %d", e.RulesCount())
	}

	hits := e.Evaluate(context.Background(), stressedFeatures(), &domain.RiskScoreResult{Score: 72, Category: domain.CategoryHigh})
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].RuleID != "r1" {
		t.Errorf("unexpected rule id: %s", hits[0].RuleID)
	}
	if hits[0].Severity != domain.SeverityCritical {
		t.Errorf("unexpected severity: %s", hits[0].Severity)
	}
	if hits[0].Recommendation != "restructure" {
		t.Errorf("unexpected recommendation: %s", hits[0].Recommendation)
	}
}

func TestEvaluateNoMatch(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	rule := &domain.AlertRule{
		ID:         "r1",
		Name:       "Impossible",
		Expression: "score > 100",
		Enabled:    true,
	}
	if err := e.LoadRule(rule); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	hits := e.Evaluate(context.Background(), stressedFeatures(), &domain.RiskScoreResult{Score: 72, Category: domain.CategoryHigh})
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestCompileRejectsNonBool(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	rule := &domain.AlertRule{
		ID:         "bad",
		Expression: "score + 1",
		Enabled:    true,
	}
	if err := e.LoadRule(rule); err == nil {
		t.Error("expected compile error for non-bool expression")
	}
	if e.RulesCount() != 0 {
		t.Errorf("failed rule must not be loaded, count=%d", e.RulesCount())
	}
}

func TestCompileRejectsUnknownVariable(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	rule := &domain.AlertRule{
		ID:         "bad",
		Expression: "nonexistent_field > 1.0",
		Enabled:    true,
	}
	if err := e.LoadRule(rule); err == nil {
		t.Error("expected compile error for unknown variable")
	}
}

func TestValidateRuleDoesNotLoad(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	rule := &domain.AlertRule{
		ID:         "r1",
		Expression: "score > 50",
		Enabled:    true,
	}
	if err := e.ValidateRule(rule); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if e.RulesCount() != 0 {
		t.Errorf("validate must not load rules, count=%d", e.RulesCount())
	}
}

func TestLoadRulesSkipsDisabled(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	rules := []*domain.AlertRule{
		{ID: "on", Expression: "score > 50", Enabled: true},
		{ID: "off", Expression: "score > 60", Enabled: false},
	}
	if err := e.LoadRules(rules); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if e.RulesCount() != 1 {
		t.Errorf("expected 1 loaded rule, got %d", e.RulesCount())
	}
}

func TestReloadRulesReplaces(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	if err := e.LoadRule(&domain.AlertRule{ID: "old", Expression: "score > 10", Enabled: true}); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := e.ReloadRules([]*domain.AlertRule{
		{ID: "new-1", Expression: "pti > 0.4", Enabled: true},
		{ID: "new-2", Expression: "dti > 0.4", Enabled: true},
	}); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if e.RulesCount() != 2 {
		t.Fatalf("expected 2 rules after reload, got %d", e.RulesCount())
	}
	for _, r := range e.GetLoadedRules() {
		if r.ID == "old" {
			t.Error("old rule must be gone after reload")
		}
	}
}

func TestRemoveRule(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	if err := e.LoadRule(&domain.AlertRule{ID: "r1", Expression: "score > 10", Enabled: true}); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	e.RemoveRule("r1")
	if e.RulesCount() != 0 {
		t.Errorf("expected 0 rules after remove, got %d", e.RulesCount())
	}
}

func TestDefaultRulesCompileAndFire(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	if err := e.LoadRules(DefaultRules()); err != nil {
		t.Fatalf("default rules failed to load: %v", err)
	}
	if e.RulesCount() != len(DefaultRules()) {
		t.Fatalf("expected %d rules, got %d", len(DefaultRules()), e.RulesCount())
	}

	// The stressed profile trips every built-in rule.
	hits := e.Evaluate(context.Background(), stressedFeatures(), &domain.RiskScoreResult{Score: 85, Category: domain.CategoryCritical})
	if len(hits) != len(DefaultRules()) {
		t.Errorf("expected %d hits, got %d", len(DefaultRules()), len(hits))
	}

	// A healthy profile trips none.
	healthy := &domain.FeatureSet{
		PTI:                0.1,
		DTI:                0.2,
		SavingsBufferRatio: 5,
		CreditScore:        800,
	}
	hits = e.Evaluate(context.Background(), healthy, &domain.RiskScoreResult{Score: 12, Category: domain.CategoryLow})
	if len(hits) != 0 {
		t.Errorf("expected no hits for healthy profile, got %d", len(hits))
	}
}

func TestCategoryVariable(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	rule := &domain.AlertRule{
		ID:         "cat",
		Expression: `category == "critical"`,
		Enabled:    true,
	}
	if err := e.LoadRule(rule); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	hits := e.Evaluate(context.Background(), &domain.FeatureSet{}, &domain.RiskScoreResult{Score: 90, Category: domain.CategoryCritical})
	if len(hits) != 1 {
		t.Errorf("expected category match, got %d hits", len(hits))
	}
}
