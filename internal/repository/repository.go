// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trustvault/riskd/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// maxHistoryEntries is the global cap on the score history log.
// On save, the newest maxHistoryEntries-1 surviving rows are retained
// before the fresh entry is appended.
const maxHistoryEntries = 100

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	if cfg.Driver == "memory" {
		return NewMemoryRepository(), nil
	}

	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveScore appends one history entry with the retention policy applied:
// prior entries for this customer are dropped, the remainder is trimmed to
// the newest maxHistoryEntries-1 rows, then the new entry is inserted.
func (r *SQLRepository) SaveScore(ctx context.Context, tenantID string, customerID string, result *domain.RiskScoreResult) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if customerID == "" {
		return fmt.Errorf("%w: customerID is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// One entry per customer at a time.
	del := `DELETE FROM score_history WHERE tenant_id = ? AND customer_id = ?`
	if _, err := tx.ExecContext(ctx, r.rebind(del), tenantID, customerID); err != nil {
		return err
	}

	// Trim to the newest cap-1 rows before appending.
	trim := `
		DELETE FROM score_history
		WHERE tenant_id = ?
		  AND id NOT IN (
			SELECT id FROM score_history
			WHERE tenant_id = ?
			ORDER BY created_ns DESC
			LIMIT ?
		  )
	`
	if _, err := tx.ExecContext(ctx, r.rebind(trim), tenantID, tenantID, maxHistoryEntries-1); err != nil {
		return err
	}

	ins := `
		INSERT INTO score_history (id, tenant_id, customer_id, score, category, timestamp, created_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, r.rebind(ins),
		uuid.New().String(), tenantID, customerID,
		result.Score, string(result.Category),
		result.Timestamp, time.Now().UnixNano(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListScores returns all history entries for a tenant, most-recent-last.
func (r *SQLRepository) ListScores(ctx context.Context, tenantID string) ([]*domain.StoredRiskScore, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT customer_id, tenant_id, score, category, timestamp
		FROM score_history
		WHERE tenant_id = ?
		ORDER BY created_ns ASC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []*domain.StoredRiskScore
	for rows.Next() {
		var s domain.StoredRiskScore
		var category string
		if err := rows.Scan(&s.CustomerID, &s.TenantID, &s.Score, &category, &s.Timestamp); err != nil {
			return nil, err
		}
		s.Category = domain.RiskCategory(category)
		scores = append(scores, &s)
	}

	return scores, rows.Err()
}

// ListScoresForCustomer filters the history by customer ID.
func (r *SQLRepository) ListScoresForCustomer(ctx context.Context, tenantID string, customerID string) ([]*domain.StoredRiskScore, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT customer_id, tenant_id, score, category, timestamp
		FROM score_history
		WHERE tenant_id = ? AND customer_id = ?
		ORDER BY created_ns ASC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []*domain.StoredRiskScore
	for rows.Next() {
		var s domain.StoredRiskScore
		var category string
		if err := rows.Scan(&s.CustomerID, &s.TenantID, &s.Score, &category, &s.Timestamp); err != nil {
			return nil, err
		}
		s.Category = domain.RiskCategory(category)
		scores = append(scores, &s)
	}

	return scores, rows.Err()
}

// ClearScores drops the whole history for a tenant.
func (r *SQLRepository) ClearScores(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `DELETE FROM score_history WHERE tenant_id = ?`
	_, err := r.db.ExecContext(ctx, r.rebind(query), tenantID)
	return err
}

// SaveAlertRule stores an alert rule with tenant isolation.
func (r *SQLRepository) SaveAlertRule(ctx context.Context, tenantID string, rule *domain.AlertRule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO alert_rules (
			id, tenant_id, name, description, expression, severity, recommendation, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			severity = excluded.severity,
			recommendation = excluded.recommendation,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, tenantID, rule.Name, rule.Description,
		rule.Expression, string(rule.Severity), rule.Recommendation, enabled,
		now, now,
	)
	return err
}

// GetAlertRule retrieves an alert rule with tenant isolation.
func (r *SQLRepository) GetAlertRule(ctx context.Context, tenantID string, ruleID string) (*domain.AlertRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, expression, severity, recommendation, enabled
		FROM alert_rules
		WHERE tenant_id = ? AND id = ?
	`

	var rule domain.AlertRule
	var severity string
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, ruleID).Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
		&rule.Expression, &severity, &rule.Recommendation, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule.Severity = domain.FlagSeverity(severity)
	rule.Enabled = enabled == 1

	return &rule, nil
}

// ListAlertRules retrieves all enabled alert rules for a tenant.
func (r *SQLRepository) ListAlertRules(ctx context.Context, tenantID string) ([]*domain.AlertRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, name, description, expression, severity, recommendation, enabled
		FROM alert_rules
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.AlertRule
	for rows.Next() {
		var rule domain.AlertRule
		var severity string
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
			&rule.Expression, &severity, &rule.Recommendation, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Severity = domain.FlagSeverity(severity)
		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// DeleteAlertRule removes an alert rule.
func (r *SQLRepository) DeleteAlertRule(ctx context.Context, tenantID string, ruleID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `DELETE FROM alert_rules WHERE tenant_id = ? AND id = ?`
	result, err := r.db.ExecContext(ctx, r.rebind(query), tenantID, ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping verifies the database connection.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
