// Package domain defines the core interfaces and types for the risk service.
package domain

import (
	"context"
	"time"
)

// ScoreStore is the append-only score history log, keyed per customer.
// Retention on SaveScore: all prior entries for the customer are dropped,
// the remainder is trimmed to the newest 99, then the new entry is
// appended, so the log holds at most 100 entries with one entry per
// customer at a time.
type ScoreStore interface {
	// SaveScore appends one history entry for the customer.
	SaveScore(ctx context.Context, tenantID string, customerID string, result *RiskScoreResult) error

	// ListScores returns all entries, most-recent-last.
	ListScores(ctx context.Context, tenantID string) ([]*StoredRiskScore, error)

	// ListScoresForCustomer filters the history by customer ID.
	ListScoresForCustomer(ctx context.Context, tenantID string, customerID string) ([]*StoredRiskScore, error)

	// ClearScores drops the whole history for a tenant.
	ClearScores(ctx context.Context, tenantID string) error
}

// Repository is the full persistence surface: score history plus the
// configured intervention alert rules.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	ScoreStore

	// Alert rule configuration operations
	SaveAlertRule(ctx context.Context, tenantID string, rule *AlertRule) error
	GetAlertRule(ctx context.Context, tenantID string, ruleID string) (*AlertRule, error)
	ListAlertRules(ctx context.Context, tenantID string) ([]*AlertRule, error)
	DeleteAlertRule(ctx context.Context, tenantID string, ruleID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite", "postgres" or "memory"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
