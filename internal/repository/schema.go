package repository

// Schema definitions for the risk service database.
// Compatible with both SQLite and PostgreSQL.

const schemaScoreHistory = `
CREATE TABLE IF NOT EXISTS score_history (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    customer_id TEXT NOT NULL,
    score INTEGER NOT NULL,
    category TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    created_ns BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_score_history_tenant ON score_history(tenant_id);
CREATE INDEX IF NOT EXISTS idx_score_history_customer ON score_history(tenant_id, customer_id);
CREATE INDEX IF NOT EXISTS idx_score_history_created ON score_history(tenant_id, created_ns);
`

const schemaAlertRules = `
CREATE TABLE IF NOT EXISTS alert_rules (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    expression TEXT NOT NULL,
    severity TEXT NOT NULL,
    recommendation TEXT,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_alert_rules_tenant ON alert_rules(tenant_id);
CREATE INDEX IF NOT EXISTS idx_alert_rules_enabled ON alert_rules(tenant_id, enabled);
`

// AllSchemas returns every schema statement in creation order.
func AllSchemas() []string {
	return []string{
		schemaScoreHistory,
		schemaAlertRules,
	}
}
