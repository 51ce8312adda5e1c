package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/trustvault/riskd/internal/alerts"
	"github.com/trustvault/riskd/internal/bus"
	"github.com/trustvault/riskd/internal/domain"
	"github.com/trustvault/riskd/internal/history"
	"github.com/trustvault/riskd/internal/repository"
)

const testTenant = "tenant-001"

func newTestWorker(t *testing.T) (*Worker, *bus.ChannelBus, *repository.MemoryRepository) {
	t.Helper()

	b := bus.NewChannelBus(100)
	repo := repository.NewMemoryRepository()
	t.Cleanup(func() {
		b.Close()
		repo.Close()
	})

	engine, err := alerts.NewEngine()
	if err != nil {
		t.Fatalf("failed to create alert engine: %v", err)
	}
	if err := engine.LoadRules(alerts.DefaultRules()); err != nil {
		t.Fatalf("failed to load default rules: %v", err)
	}

	hist := history.NewService(repo, nil, nil)
	w := NewWorker(b, hist, engine, domain.DefaultThresholds())
	if err := w.Start(Config{TenantIDs: []string{testTenant}}); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	return w, b, repo
}

func baselineFeatures() domain.FeatureSet {
	return domain.FeatureSet{
		PTI:                      0.5,
		DTI:                      0.5,
		SavingsBufferRatio:       2.0,
		LoanExposureRatio:        0.5,
		PaymentDelayRatio:        0.5,
		SpendingSpikeIndex:       0.5,
		CreditUtilizationRatio:   0.5,
		RegionalUnemploymentRisk: 0.5,
		InflationStressIndex:     0.5,
		SectorRiskScore:          0.5,
		CreditScore:              600,
	}
}

func publishRequest(t *testing.T, b *bus.ChannelBus, customerID string, features domain.FeatureSet) {
	t.Helper()
	payload, err := json.Marshal(ScoreRequestMessage{CustomerID: customerID, Features: features})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	if err := b.Publish(context.Background(), testTenant, domain.TopicScoreRequested, payload); err != nil {
		t.Fatalf("failed to publish request: %v", err)
	}
}

func waitForScore(t *testing.T, repo *repository.MemoryRepository, customerID string) *domain.StoredRiskScore {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		scores, err := repo.ListScoresForCustomer(context.Background(), testTenant, customerID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(scores) > 0 {
			return scores[len(scores)-1]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for score for %s", customerID)
	return nil
}

func TestWorkerScoresRequest(t *testing.T) {
	_, b, repo := newTestWorker(t)

	publishRequest(t, b, "CU001", baselineFeatures())

	entry := waitForScore(t, repo, "CU001")
	if entry.Score != 53 {
		t.Errorf("expected score 53, got %d", entry.Score)
	}
	if entry.Category != domain.CategoryMedium {
		t.Errorf("expected medium category, got %s", entry.Category)
	}
}

func TestWorkerPublishesComputedEvent(t *testing.T) {
	_, b, _ := newTestWorker(t)

	computed := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(context.Background(), testTenant, domain.TopicScoreComputed, func(ctx context.Context, msg *domain.Message) error {
		computed <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	publishRequest(t, b, "CU002", baselineFeatures())

	select {
	case msg := <-computed:
		var entry domain.StoredRiskScore
		if err := json.Unmarshal(msg.Payload, &entry); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if entry.CustomerID != "CU002" {
			t.Errorf("unexpected customerId: %s", entry.CustomerID)
		}
		if entry.Score != 53 {
			t.Errorf("expected score 53, got %d", entry.Score)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for computed event")
	}
}

func TestWorkerPublishesAlertEvent(t *testing.T) {
	_, b, _ := newTestWorker(t)

	raised := make(chan *domain.Message, 1)
	sub, err := b.Subscribe(context.Background(), testTenant, domain.TopicAlertRaised, func(ctx context.Context, msg *domain.Message) error {
		raised <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	stressed := baselineFeatures()
	stressed.MissedEMILast3M = 4
	stressed.CreditScore = 400
	stressed.PaymentDelayRatio = 1.0
	publishRequest(t, b, "CU003", stressed)

	select {
	case msg := <-raised:
		var event domain.AlertEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			t.Fatalf("failed to decode alert event: %v", err)
		}
		if event.CustomerID != "CU003" {
			t.Errorf("unexpected customerId: %s", event.CustomerID)
		}
		if len(event.Hits) == 0 {
			t.Error("expected rule hits in alert event")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for alert event")
	}
}

func TestWorkerIgnoresMalformedMessage(t *testing.T) {
	_, b, repo := newTestWorker(t)

	if err := b.Publish(context.Background(), testTenant, domain.TopicScoreRequested, []byte("not json")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// A well-formed request after the bad one still processes.
	publishRequest(t, b, "CU004", baselineFeatures())
	waitForScore(t, repo, "CU004")
}

func TestWorkerStop(t *testing.T) {
	w, _, _ := newTestWorker(t)
	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	// Idempotent stop.
	if err := w.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}
