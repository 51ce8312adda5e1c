package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trustvault/riskd/internal/domain"
)

// MemoryRepository is an in-process Repository for tests and ephemeral
// deployments. Same retention semantics as the SQL implementation.
type MemoryRepository struct {
	mu     sync.RWMutex
	scores map[string][]*domain.StoredRiskScore // keyed by tenant, most-recent-last
	rules  map[string]map[string]*domain.AlertRule
	closed bool
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		scores: make(map[string][]*domain.StoredRiskScore),
		rules:  make(map[string]map[string]*domain.AlertRule),
	}
}

// SaveScore appends one entry with the retention policy applied.
func (m *MemoryRepository) SaveScore(ctx context.Context, tenantID string, customerID string, result *domain.RiskScoreResult) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if customerID == "" {
		return fmt.Errorf("%w: customerID is required", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.scores[tenantID]
	filtered := make([]*domain.StoredRiskScore, 0, len(existing))
	for _, s := range existing {
		if s.CustomerID != customerID {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) > maxHistoryEntries-1 {
		filtered = filtered[len(filtered)-(maxHistoryEntries-1):]
	}

	m.scores[tenantID] = append(filtered, &domain.StoredRiskScore{
		CustomerID: customerID,
		TenantID:   tenantID,
		Score:      result.Score,
		Category:   result.Category,
		Timestamp:  result.Timestamp,
	})
	return nil
}

// ListScores returns all entries, most-recent-last.
func (m *MemoryRepository) ListScores(ctx context.Context, tenantID string) ([]*domain.StoredRiskScore, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.StoredRiskScore, len(m.scores[tenantID]))
	copy(out, m.scores[tenantID])
	return out, nil
}

// ListScoresForCustomer filters the history by customer ID.
func (m *MemoryRepository) ListScoresForCustomer(ctx context.Context, tenantID string, customerID string) ([]*domain.StoredRiskScore, error) {
	all, err := m.ListScores(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var out []*domain.StoredRiskScore
	for _, s := range all {
		if s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

// ClearScores drops the whole history for a tenant.
func (m *MemoryRepository) ClearScores(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scores, tenantID)
	return nil
}

// SaveAlertRule stores an alert rule.
func (m *MemoryRepository) SaveAlertRule(ctx context.Context, tenantID string, rule *domain.AlertRule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rules[tenantID] == nil {
		m.rules[tenantID] = make(map[string]*domain.AlertRule)
	}
	cp := *rule
	cp.TenantID = tenantID
	cp.UpdatedAt = time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	m.rules[tenantID][rule.ID] = &cp
	return nil
}

// GetAlertRule retrieves an alert rule.
func (m *MemoryRepository) GetAlertRule(ctx context.Context, tenantID string, ruleID string) (*domain.AlertRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rule, ok := m.rules[tenantID][ruleID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rule
	return &cp, nil
}

// ListAlertRules retrieves all enabled alert rules for a tenant.
func (m *MemoryRepository) ListAlertRules(ctx context.Context, tenantID string) ([]*domain.AlertRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.AlertRule
	for _, rule := range m.rules[tenantID] {
		if rule.Enabled {
			cp := *rule
			out = append(out, &cp)
		}
	}
	return out, nil
}

// DeleteAlertRule removes an alert rule.
func (m *MemoryRepository) DeleteAlertRule(ctx context.Context, tenantID string, ruleID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rules[tenantID][ruleID]; !ok {
		return ErrNotFound
	}
	delete(m.rules[tenantID], ruleID)
	return nil
}

// Ping reports whether the repository is usable.
func (m *MemoryRepository) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return fmt.Errorf("repository is closed")
	}
	return nil
}

// Close marks the repository closed.
func (m *MemoryRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
