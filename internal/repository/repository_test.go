package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/trustvault/riskd/internal/domain"
)

func testResult(score int, category domain.RiskCategory) *domain.RiskScoreResult {
	return &domain.RiskScoreResult{
		Score:     score,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

// repoVariants runs a subtest against both the memory and sqlite implementations.
func repoVariants(t *testing.T, fn func(t *testing.T, repo domain.Repository)) {
	t.Helper()

	t.Run("Memory", func(t *testing.T) {
		repo := NewMemoryRepository()
		defer repo.Close()
		fn(t, repo)
	})

	t.Run("SQLite", func(t *testing.T) {
		repo, err := New(domain.RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "riskd_test.db"),
		})
		if err != nil {
			t.Fatalf("failed to open sqlite repository: %v", err)
		}
		defer repo.Close()
		fn(t, repo)
	})
}

func TestSaveScoreRetention(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		// Five saves for the same customer leave exactly one entry.
		for i := 1; i <= 5; i++ {
			if err := repo.SaveScore(ctx, "tenant-001", "CU001", testResult(i*10, domain.CategoryLow)); err != nil {
				t.Fatalf("save %d failed: %v", i, err)
			}
		}

		scores, err := repo.ListScoresForCustomer(ctx, "tenant-001", "CU001")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(scores) != 1 {
			t.Fatalf("expected 1 entry after 5 saves, got %d", len(scores))
		}
		if scores[0].Score != 50 {
			t.Errorf("expected latest score 50, got %d", scores[0].Score)
		}
	})
}

func TestGlobalCap(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		// Distinct customers so nothing is removed by the per-customer rule.
		for i := 0; i < 150; i++ {
			customerID := fmt.Sprintf("CU%03d", i)
			if err := repo.SaveScore(ctx, "tenant-001", customerID, testResult(40, domain.CategoryMedium)); err != nil {
				t.Fatalf("save %d failed: %v", i, err)
			}
		}

		scores, err := repo.ListScores(ctx, "tenant-001")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(scores) != 100 {
			t.Errorf("expected cap of 100 entries, got %d", len(scores))
		}
	})
}

func TestListScoresOrdering(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		for i, id := range []string{"CU001", "CU002", "CU003"} {
			if err := repo.SaveScore(ctx, "tenant-001", id, testResult(20+i, domain.CategoryLow)); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		scores, err := repo.ListScores(ctx, "tenant-001")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(scores) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(scores))
		}
		// Most-recent-last
		if scores[2].CustomerID != "CU003" {
			t.Errorf("expected CU003 last, got %s", scores[2].CustomerID)
		}
	})
}

func TestClearScores(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		if err := repo.SaveScore(ctx, "tenant-001", "CU001", testResult(50, domain.CategoryMedium)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := repo.ClearScores(ctx, "tenant-001"); err != nil {
			t.Fatalf("clear failed: %v", err)
		}

		scores, err := repo.ListScores(ctx, "tenant-001")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(scores) != 0 {
			t.Errorf("expected empty history after clear, got %d entries", len(scores))
		}
	})
}

func TestTenantIsolation(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		if err := repo.SaveScore(ctx, "tenant-001", "CU001", testResult(50, domain.CategoryMedium)); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		scores, err := repo.ListScores(ctx, "tenant-002")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(scores) != 0 {
			t.Errorf("tenant-002 should see no entries, got %d", len(scores))
		}
	})
}

func TestSaveScoreRequiresTenant(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		err := repo.SaveScore(context.Background(), "", "CU001", testResult(50, domain.CategoryMedium))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAlertRuleRoundTrip(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		rule := &domain.AlertRule{
			ID:             "missed-emi",
			Name:           "Missed EMI streak",
			Expression:     "missedEMILast3M >= 2",
			Severity:       domain.SeverityCritical,
			Recommendation: "Immediate collections outreach",
			Enabled:        true,
		}
		if err := repo.SaveAlertRule(ctx, "tenant-001", rule); err != nil {
			t.Fatalf("save rule failed: %v", err)
		}

		got, err := repo.GetAlertRule(ctx, "tenant-001", "missed-emi")
		if err != nil {
			t.Fatalf("get rule failed: %v", err)
		}
		if got.Expression != rule.Expression || got.Severity != rule.Severity {
			t.Errorf("rule round trip mismatch: %+v", got)
		}

		rules, err := repo.ListAlertRules(ctx, "tenant-001")
		if err != nil {
			t.Fatalf("list rules failed: %v", err)
		}
		if len(rules) != 1 {
			t.Fatalf("expected 1 rule, got %d", len(rules))
		}

		if err := repo.DeleteAlertRule(ctx, "tenant-001", "missed-emi"); err != nil {
			t.Fatalf("delete rule failed: %v", err)
		}
		if _, err := repo.GetAlertRule(ctx, "tenant-001", "missed-emi"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestDisabledRulesExcludedFromList(t *testing.T) {
	repoVariants(t, func(t *testing.T, repo domain.Repository) {
		ctx := context.Background()

		if err := repo.SaveAlertRule(ctx, "tenant-001", &domain.AlertRule{
			ID: "off", Name: "Disabled", Expression: "score > 0", Severity: domain.SeverityLow, Enabled: false,
		}); err != nil {
			t.Fatalf("save rule failed: %v", err)
		}

		rules, err := repo.ListAlertRules(ctx, "tenant-001")
		if err != nil {
			t.Fatalf("list rules failed: %v", err)
		}
		if len(rules) != 0 {
			t.Errorf("disabled rules must not be listed, got %d", len(rules))
		}
	})
}
