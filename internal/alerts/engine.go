// Package alerts provides the CEL-Go based intervention rule engine.
// Rules are boolean expressions over the scored feature vector; a rule
// that evaluates true attaches its recommendation to the score response.
package alerts

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/trustvault/riskd/internal/domain"
)

// Engine compiles and evaluates intervention rules.
type Engine struct {
	mu            sync.RWMutex
	env           *cel.Env
	compiledRules map[string]*CompiledRule
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    *domain.AlertRule
	Program cel.Program
}

// NewEngine creates a rule engine with the feature vector variables declared.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("score", cel.IntType),
		cel.Variable("category", cel.StringType),
		cel.Variable("pti", cel.DoubleType),
		cel.Variable("dti", cel.DoubleType),
		cel.Variable("savings_buffer_ratio", cel.DoubleType),
		cel.Variable("loan_exposure_ratio", cel.DoubleType),
		cel.Variable("payment_delay_ratio", cel.DoubleType),
		cel.Variable("spending_spike_index", cel.DoubleType),
		cel.Variable("credit_utilization_ratio", cel.DoubleType),
		cel.Variable("regional_unemployment_risk", cel.DoubleType),
		cel.Variable("inflation_stress_index", cel.DoubleType),
		cel.Variable("sector_risk_score", cel.DoubleType),
		cel.Variable("missed_emi_last_3m", cel.IntType),
		cel.Variable("salary_delay_days", cel.IntType),
		cel.Variable("savings_change_pct", cel.DoubleType),
		cel.Variable("credit_score", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:           env,
		compiledRules: make(map[string]*CompiledRule),
	}, nil
}

// ValidateRule compiles a rule without mutating the loaded rule set.
func (e *Engine) ValidateRule(rule *domain.AlertRule) error {
	if rule == nil {
		return fmt.Errorf("alert rule is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(rule)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(rule *domain.AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(rule)
	if err != nil {
		return err
	}

	e.compiledRules[rule.ID] = compiled
	return nil
}

// LoadRules compiles and loads every enabled rule.
func (e *Engine) LoadRules(rules []*domain.AlertRule) error {
	for _, rule := range rules {
		if rule.Enabled {
			if err := e.LoadRule(rule); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules swaps the loaded rule set atomically.
// Enables hot-reloading rules from the repository.
func (e *Engine) ReloadRules(rules []*domain.AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		compiled, err := e.compileRule(rule)
		if err != nil {
			return err
		}
		newRules[rule.ID] = compiled
	}

	e.compiledRules = newRules
	return nil
}

// RemoveRule drops a rule from the engine.
func (e *Engine) RemoveRule(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.compiledRules, id)
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// GetLoadedRules returns the currently loaded rule definitions.
func (e *Engine) GetLoadedRules() []*domain.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.AlertRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Rule)
	}
	return rules
}

// Evaluate runs every loaded rule against a scored feature vector and
// returns the hits. Evaluation errors in a single rule never fail the
// whole pass; the offending rule is skipped.
func (e *Engine) Evaluate(ctx context.Context, features *domain.FeatureSet, result *domain.RiskScoreResult) []domain.AlertHit {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	activation := map[string]any{
		"score":                      result.Score,
		"category":                   string(result.Category),
		"pti":                        features.PTI,
		"dti":                        features.DTI,
		"savings_buffer_ratio":       features.SavingsBufferRatio,
		"loan_exposure_ratio":        features.LoanExposureRatio,
		"payment_delay_ratio":        features.PaymentDelayRatio,
		"spending_spike_index":       features.SpendingSpikeIndex,
		"credit_utilization_ratio":   features.CreditUtilizationRatio,
		"regional_unemployment_risk": features.RegionalUnemploymentRisk,
		"inflation_stress_index":     features.InflationStressIndex,
		"sector_risk_score":          features.SectorRiskScore,
		"missed_emi_last_3m":         features.MissedEMILast3M,
		"salary_delay_days":          features.SalaryDelayDays,
		"savings_change_pct":         features.SavingsChangePct,
		"credit_score":               features.CreditScore,
	}

	var hits []domain.AlertHit
	for _, rule := range rules {
		out, _, err := rule.Program.Eval(activation)
		if err != nil {
			continue
		}
		if b, ok := out.(types.Bool); ok && bool(b) {
			hits = append(hits, domain.AlertHit{
				RuleID:         rule.Rule.ID,
				Name:           rule.Rule.Name,
				Severity:       rule.Rule.Severity,
				Recommendation: rule.Rule.Recommendation,
			})
		}
	}

	return hits
}

// Close clears all loaded rules.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func (e *Engine) compileRule(rule *domain.AlertRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(rule.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rule.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}

	return &CompiledRule{
		Rule:    rule,
		Program: program,
	}, nil
}
