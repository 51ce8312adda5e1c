package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/trustvault/riskd/internal/alerts"
	"github.com/trustvault/riskd/internal/domain"
	"github.com/trustvault/riskd/internal/features"
	"github.com/trustvault/riskd/internal/history"
	"github.com/trustvault/riskd/internal/scoring"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo       domain.Repository
	history    *history.Service
	cache      domain.Cache
	bus        domain.EventBus
	engine     *alerts.Engine
	thresholds domain.RiskThresholds
	version    string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, hist *history.Service, cache domain.Cache, bus domain.EventBus, engine *alerts.Engine, thresholds domain.RiskThresholds, version string) *Handler {
	return &Handler{
		repo:       repo,
		history:    hist,
		cache:      cache,
		bus:        bus,
		engine:     engine,
		thresholds: thresholds,
		version:    version,
	}
}

// ScoreResponse is the envelope for scoring endpoints.
type ScoreResponse struct {
	Success    bool                    `json:"success"`
	StatusCode int                     `json:"statusCode"`
	Data       *domain.RiskScoreResult `json:"data,omitempty"`
	Alerts     []domain.AlertHit       `json:"alerts,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Score handles POST /api/v1/risk-score. The body is validated field by
// field before the scorer runs; the first failed check is reported.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ScoreResponse{
			Success:    false,
			StatusCode: http.StatusBadRequest,
			Error:      "Request body must be a JSON object",
		})
		return
	}

	if v := ValidateScoreRequest(body); !v.Valid {
		writeJSON(w, http.StatusBadRequest, ScoreResponse{
			Success:    false,
			StatusCode: http.StatusBadRequest,
			Error:      v.Error,
		})
		return
	}

	customerID, featureSet, thresholds := ParseScoreRequest(body)

	result := scoring.ComputeRiskScore(*featureSet, thresholds)

	// History write failures never fail the scoring response.
	h.history.Record(ctx, tenantID, customerID, result)

	hits := h.evaluateAlerts(ctx, tenantID, customerID, featureSet, result)
	h.publishScored(ctx, tenantID, customerID, result)

	writeJSON(w, http.StatusOK, ScoreResponse{
		Success:    true,
		StatusCode: http.StatusOK,
		Data:       result,
		Alerts:     hits,
	})
}

// ScoreCustomer handles POST /api/v1/customers/score: derives the
// feature vector from a full customer record, then scores it.
func (h *Handler) ScoreCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var customer domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		writeJSON(w, http.StatusBadRequest, ScoreResponse{
			Success:    false,
			StatusCode: http.StatusBadRequest,
			Error:      "Request body must be a JSON object",
		})
		return
	}
	if customer.ID == "" {
		writeJSON(w, http.StatusBadRequest, ScoreResponse{
			Success:    false,
			StatusCode: http.StatusBadRequest,
			Error:      "Missing or invalid field: id (string required)",
		})
		return
	}

	featureSet := features.Derive(&customer)
	result := scoring.ComputeRiskScore(featureSet, h.thresholds)

	h.history.Record(ctx, tenantID, customer.ID, result)

	hits := h.evaluateAlerts(ctx, tenantID, customer.ID, &featureSet, result)
	h.publishScored(ctx, tenantID, customer.ID, result)

	writeJSON(w, http.StatusOK, ScoreResponse{
		Success:    true,
		StatusCode: http.StatusOK,
		Data:       result,
		Alerts:     hits,
	})
}

// ListScores handles GET /api/v1/scores: the whole tenant history,
// most-recent-last.
func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	scores, err := h.history.All(ctx, tenantID)
	if err != nil {
		slog.Error("failed to list scores", "tenant_id", tenantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list scores",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scores": scores,
		"count":  len(scores),
	})
}

// ClearScores handles DELETE /api/v1/scores.
func (h *Handler) ClearScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if err := h.history.Clear(ctx, tenantID); err != nil {
		slog.Error("failed to clear scores", "tenant_id", tenantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to clear scores",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "score history cleared",
	})
}

// GetCustomerScores handles GET /api/v1/scores/{customerId}.
func (h *Handler) GetCustomerScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	customerID := chi.URLParam(r, "customerId")

	scores, err := h.history.History(ctx, tenantID, customerID)
	if err != nil {
		slog.Error("failed to get customer scores", "customer_id", customerID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get customer scores",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customerId": customerID,
		"scores":     scores,
		"count":      len(scores),
	})
}

// GetLatestScore handles GET /api/v1/scores/{customerId}/latest.
func (h *Handler) GetLatestScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	customerID := chi.URLParam(r, "customerId")

	latest, err := h.history.Latest(ctx, tenantID, customerID)
	if err != nil {
		slog.Error("failed to get latest score", "customer_id", customerID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get latest score",
		})
		return
	}
	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no score recorded for customer",
		})
		return
	}

	writeJSON(w, http.StatusOK, latest)
}

// CreateAlertRuleRequest is the request body for creating a rule.
type CreateAlertRuleRequest struct {
	ID             string              `json:"id,omitempty"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	Expression     string              `json:"expression"`
	Severity       domain.FlagSeverity `json:"severity"`
	Recommendation string              `json:"recommendation,omitempty"`
	Enabled        bool                `json:"enabled"`
}

// ListAlertRules returns the rules currently loaded in the engine.
func (h *Handler) ListAlertRules(w http.ResponseWriter, r *http.Request) {
	loaded := h.engine.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]any{
		"rules": loaded,
		"count": len(loaded),
	})
}

// GetAlertRule retrieves a rule by ID from the loaded engine rules.
func (h *Handler) GetAlertRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	for _, rule := range h.engine.GetLoadedRules() {
		if rule.ID == ruleID {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "alert rule not found",
	})
}

// CreateAlertRule validates, persists, and loads a new intervention rule.
func (h *Handler) CreateAlertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req CreateAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.Name == "" || req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "name and expression are required",
		})
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	rule := &domain.AlertRule{
		ID:             req.ID,
		TenantID:       tenantID,
		Name:           req.Name,
		Description:    req.Description,
		Expression:     req.Expression,
		Severity:       req.Severity,
		Recommendation: req.Recommendation,
		Enabled:        req.Enabled,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := h.engine.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if err := h.repo.SaveAlertRule(ctx, tenantID, rule); err != nil {
		slog.Error("failed to save alert rule", "id", rule.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save alert rule",
		})
		return
	}

	if rule.Enabled {
		if err := h.engine.LoadRule(rule); err != nil {
			slog.Error("failed to load alert rule", "id", rule.ID, "error", err)
		}
	}

	slog.Info("alert rule created", "id", rule.ID, "name", rule.Name, "tenant_id", tenantID)
	writeJSON(w, http.StatusCreated, rule)
}

// UpdateAlertRule replaces an existing rule.
func (h *Handler) UpdateAlertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	ruleID := chi.URLParam(r, "id")

	existing, err := h.repo.GetAlertRule(ctx, tenantID, ruleID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "alert rule not found",
		})
		return
	}

	var req CreateAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	rule := &domain.AlertRule{
		ID:             ruleID,
		TenantID:       tenantID,
		Name:           req.Name,
		Description:    req.Description,
		Expression:     req.Expression,
		Severity:       req.Severity,
		Recommendation: req.Recommendation,
		Enabled:        req.Enabled,
		CreatedAt:      existing.CreatedAt,
		UpdatedAt:      time.Now().UTC(),
	}

	if err := h.engine.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if err := h.repo.SaveAlertRule(ctx, tenantID, rule); err != nil {
		slog.Error("failed to update alert rule", "id", ruleID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to update alert rule",
		})
		return
	}

	if rule.Enabled {
		if err := h.engine.LoadRule(rule); err != nil {
			slog.Error("failed to load alert rule", "id", ruleID, "error", err)
		}
	} else {
		h.engine.RemoveRule(ruleID)
	}

	slog.Info("alert rule updated", "id", ruleID, "tenant_id", tenantID)
	writeJSON(w, http.StatusOK, rule)
}

// DeleteAlertRule removes a rule from storage and the engine.
func (h *Handler) DeleteAlertRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	ruleID := chi.URLParam(r, "id")

	if err := h.repo.DeleteAlertRule(ctx, tenantID, ruleID); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "alert rule not found",
		})
		return
	}

	h.engine.RemoveRule(ruleID)

	slog.Info("alert rule deleted", "id", ruleID, "tenant_id", tenantID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "alert rule deleted",
	})
}

// ReloadAlertRules reloads all enabled rules from the repository into
// the engine, enabling hot-reload without a restart.
func (h *Handler) ReloadAlertRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	rules, err := h.repo.ListAlertRules(ctx, tenantID)
	if err != nil {
		slog.Error("failed to list alert rules", "tenant_id", tenantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load alert rules",
		})
		return
	}

	if err := h.engine.ReloadRules(rules); err != nil {
		slog.Error("failed to reload alert rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload alert rules: " + err.Error(),
		})
		return
	}

	slog.Info("alert rules reloaded", "count", len(rules), "tenant_id", tenantID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "alert rules reloaded successfully",
		"count":   len(rules),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func (h *Handler) evaluateAlerts(ctx context.Context, tenantID, customerID string, featureSet *domain.FeatureSet, result *domain.RiskScoreResult) []domain.AlertHit {
	if h.engine == nil {
		return nil
	}

	hits := h.engine.Evaluate(ctx, featureSet, result)
	if len(hits) == 0 {
		return nil
	}

	if h.bus != nil {
		event := domain.AlertEvent{
			CustomerID: customerID,
			Score:      result.Score,
			Category:   result.Category,
			Hits:       hits,
			Timestamp:  result.Timestamp,
		}
		if payload, err := json.Marshal(event); err == nil {
			if err := h.bus.Publish(ctx, tenantID, domain.TopicAlertRaised, payload); err != nil {
				slog.Warn("failed to publish alert event", "customer_id", customerID, "error", err)
			}
		}
	}

	return hits
}

func (h *Handler) publishScored(ctx context.Context, tenantID, customerID string, result *domain.RiskScoreResult) {
	if h.bus == nil {
		return
	}

	entry := domain.StoredRiskScore{
		CustomerID: customerID,
		TenantID:   tenantID,
		Score:      result.Score,
		Category:   result.Category,
		Timestamp:  result.Timestamp,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := h.bus.Publish(ctx, tenantID, domain.TopicScoreComputed, payload); err != nil {
		slog.Warn("failed to publish score event", "customer_id", customerID, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
