// Package worker provides async score processing from the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/trustvault/riskd/internal/alerts"
	"github.com/trustvault/riskd/internal/domain"
	"github.com/trustvault/riskd/internal/history"
	"github.com/trustvault/riskd/internal/scoring"
)

// Worker consumes score requests from the bus, runs the scorer, records
// the result, and publishes computed-score and alert events.
type Worker struct {
	bus        domain.EventBus
	history    *history.Service
	engine     *alerts.Engine
	thresholds domain.RiskThresholds

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process.
	TenantIDs []string
}

// NewWorker creates an async scoring worker.
func NewWorker(bus domain.EventBus, hist *history.Service, engine *alerts.Engine, thresholds domain.RiskThresholds) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:        bus,
		history:    hist,
		engine:     engine,
		thresholds: thresholds,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ScoreRequestMessage is the payload consumed from the score-requested topic.
type ScoreRequestMessage struct {
	CustomerID string            `json:"customerId"`
	Features   domain.FeatureSet `json:"features"`
}

// Start subscribes to the score-requested topic for each tenant.
func (w *Worker) Start(cfg Config) error {
	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicScoreRequested, func(ctx context.Context, msg *domain.Message) error {
		return w.processScoreRequest(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicScoreRequested,
	)

	return nil
}

// processScoreRequest scores one queued request.
func (w *Worker) processScoreRequest(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var req ScoreRequestMessage
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse score request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if req.CustomerID == "" {
		slog.Error("score request without customerId", "message_id", msg.ID)
		return nil
	}

	result := scoring.ComputeRiskScore(req.Features, w.thresholds)

	w.history.Record(ctx, tenantID, req.CustomerID, result)

	entry := domain.StoredRiskScore{
		CustomerID: req.CustomerID,
		TenantID:   tenantID,
		Score:      result.Score,
		Category:   result.Category,
		Timestamp:  result.Timestamp,
	}
	if payload, err := json.Marshal(entry); err == nil {
		if err := w.bus.Publish(ctx, tenantID, domain.TopicScoreComputed, payload); err != nil {
			slog.Error("failed to publish computed score",
				"customer_id", req.CustomerID,
				"error", err,
			)
		}
	}

	if w.engine != nil {
		if hits := w.engine.Evaluate(ctx, &req.Features, result); len(hits) > 0 {
			event := domain.AlertEvent{
				CustomerID: req.CustomerID,
				Score:      result.Score,
				Category:   result.Category,
				Hits:       hits,
				Timestamp:  result.Timestamp,
			}
			if payload, err := json.Marshal(event); err == nil {
				if err := w.bus.Publish(ctx, tenantID, domain.TopicAlertRaised, payload); err != nil {
					slog.Error("failed to publish alert",
						"customer_id", req.CustomerID,
						"error", err,
					)
				}
			}
		}
	}

	slog.Info("score request processed",
		"customer_id", req.CustomerID,
		"tenant_id", tenantID,
		"score", result.Score,
		"category", result.Category,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}
