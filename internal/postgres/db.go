// Package postgres implements the repository contracts on PostgreSQL using
// the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	*sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{db}, nil
}

// RunMigrations creates the schema. Same shape and unique constraints as the
// SQLite schema; the constraints back the naming and numbering workflows.
func (db *DB) RunMigrations(ctx context.Context) error {
	migration := `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    tool_type TEXT NOT NULL CHECK(tool_type IN ('gfa', 'forecasting', 'network', 'inventory', 'transportation')),
    description TEXT NOT NULL DEFAULT '',
    input_data JSONB,
    results_data JSONB,
    size_mb DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    UNIQUE(user_id, name)
);
CREATE INDEX IF NOT EXISTS idx_user_projects ON projects(user_id);
CREATE INDEX IF NOT EXISTS idx_user_tool_projects ON projects(user_id, tool_type);

CREATE TABLE IF NOT EXISTS scenarios (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    module_type TEXT NOT NULL CHECK(module_type IN ('gfa', 'forecasting', 'network', 'inventory', 'transportation')),
    name TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('pending', 'running', 'completed', 'failed')),
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    UNIQUE(project_id, module_type, name)
);
CREATE INDEX IF NOT EXISTS idx_user_scenarios ON scenarios(user_id);
CREATE INDEX IF NOT EXISTS idx_project_scenarios ON scenarios(project_id, module_type);

CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    scenario_id TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
    project_id TEXT NOT NULL,
    module_type TEXT NOT NULL,
    name TEXT NOT NULL,
    result_number INTEGER NOT NULL,
    metrics JSONB,
    blob_key TEXT NOT NULL,
    size_bytes BIGINT NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL,
    UNIQUE(scenario_id, name),
    UNIQUE(scenario_id, result_number)
);
CREATE INDEX IF NOT EXISTS idx_user_results ON results(user_id);
CREATE INDEX IF NOT EXISTS idx_scenario_results ON results(scenario_id, created_at);

CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ DEFAULT now(),
    last_used TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_user_keys ON api_keys(user_id);
`

	if _, err := db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
