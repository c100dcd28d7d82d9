// Package sqlite implements the repository contracts on SQLite.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. The unique indexes are the correctness
// backstop for the naming and numbering workflows; service-level pre-checks
// are courtesy only.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects: one row per planning project, names unique per user
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    tool_type TEXT NOT NULL CHECK(tool_type IN ('gfa', 'forecasting', 'network', 'inventory', 'transportation')),
    description TEXT NOT NULL DEFAULT '',
    input_data TEXT,
    results_data TEXT,
    size_mb REAL NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE(user_id, name)
);
CREATE INDEX IF NOT EXISTS idx_user_projects ON projects(user_id);
CREATE INDEX IF NOT EXISTS idx_user_tool_projects ON projects(user_id, tool_type);

-- Scenarios: names unique per (project, module)
CREATE TABLE IF NOT EXISTS scenarios (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    module_type TEXT NOT NULL CHECK(module_type IN ('gfa', 'forecasting', 'network', 'inventory', 'transportation')),
    name TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('pending', 'running', 'completed', 'failed')),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE(project_id, module_type, name),
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_user_scenarios ON scenarios(user_id);
CREATE INDEX IF NOT EXISTS idx_project_scenarios ON scenarios(project_id, module_type);

-- Results: append-only; names and numbers unique per scenario
CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    scenario_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    module_type TEXT NOT NULL,
    name TEXT NOT NULL,
    result_number INTEGER NOT NULL,
    metrics TEXT,
    blob_key TEXT NOT NULL,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    UNIQUE(scenario_id, name),
    UNIQUE(scenario_id, result_number),
    FOREIGN KEY (scenario_id) REFERENCES scenarios(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_user_results ON results(user_id);
CREATE INDEX IF NOT EXISTS idx_scenario_results ON results(scenario_id, created_at);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_user_keys ON api_keys(user_id);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
