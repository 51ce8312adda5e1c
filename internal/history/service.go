// Package history wraps the score store with a read-through cache for
// the latest score per customer.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/trustvault/riskd/internal/domain"
)

const latestTTL = 5 * time.Minute

// Service records scores and serves the latest one per customer.
type Service struct {
	store  domain.ScoreStore
	cache  domain.Cache
	logger *slog.Logger
}

// NewService creates a history service. cache may be nil; reads then
// always go to the store.
func NewService(store domain.ScoreStore, cache domain.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Record persists a scored result and refreshes the latest-score cache.
// A store failure is logged and swallowed so a scoring response is never
// lost to a history write.
func (s *Service) Record(ctx context.Context, tenantID, customerID string, result *domain.RiskScoreResult) {
	entry := &domain.StoredRiskScore{
		CustomerID: customerID,
		TenantID:   tenantID,
		Score:      result.Score,
		Category:   result.Category,
		Timestamp:  result.Timestamp,
	}

	if err := s.store.SaveScore(ctx, tenantID, customerID, result); err != nil {
		s.logger.Error("failed to persist score",
			"tenant_id", tenantID,
			"customer_id", customerID,
			"error", err,
		)
		return
	}

	s.cacheLatest(ctx, tenantID, customerID, entry)
}

// Latest returns the most recent score for a customer, consulting the
// cache first. Returns nil, nil when the customer has no history.
func (s *Service) Latest(ctx context.Context, tenantID, customerID string) (*domain.StoredRiskScore, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, tenantID, latestKey(customerID))
		if err != nil {
			s.logger.Warn("latest-score cache read failed",
				"tenant_id", tenantID,
				"customer_id", customerID,
				"error", err,
			)
		} else if data != nil {
			var entry domain.StoredRiskScore
			if err := json.Unmarshal(data, &entry); err == nil {
				return &entry, nil
			}
		}
	}

	scores, err := s.store.ListScoresForCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}
	if len(scores) == 0 {
		return nil, nil
	}

	latest := scores[len(scores)-1]
	s.cacheLatest(ctx, tenantID, customerID, latest)
	return latest, nil
}

// History returns the full history for a customer, most-recent-last.
func (s *Service) History(ctx context.Context, tenantID, customerID string) ([]*domain.StoredRiskScore, error) {
	return s.store.ListScoresForCustomer(ctx, tenantID, customerID)
}

// All returns every stored entry for the tenant, most-recent-last.
func (s *Service) All(ctx context.Context, tenantID string) ([]*domain.StoredRiskScore, error) {
	return s.store.ListScores(ctx, tenantID)
}

// Clear drops the tenant's history and invalidates nothing else; latest
// entries expire from the cache on their TTL.
func (s *Service) Clear(ctx context.Context, tenantID string) error {
	return s.store.ClearScores(ctx, tenantID)
}

func (s *Service) cacheLatest(ctx context.Context, tenantID, customerID string, entry *domain.StoredRiskScore) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, tenantID, latestKey(customerID), data, latestTTL); err != nil {
		s.logger.Warn("latest-score cache write failed",
			"tenant_id", tenantID,
			"customer_id", customerID,
			"error", err,
		)
	}
}

func latestKey(customerID string) string {
	return "latest:" + customerID
}
