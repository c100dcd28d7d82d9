package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/repository"
)

// ScenarioRepository implements scenario.Repository for PostgreSQL.
type ScenarioRepository struct {
	db *DB
}

var _ scenario.Repository = (*ScenarioRepository)(nil)

// NewScenarioRepository creates a new ScenarioRepository.
func NewScenarioRepository(db *DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

const scenarioColumns = `id, user_id, project_id, module_type, name, status, created_at, updated_at`

// Insert creates a new scenario.
func (r *ScenarioRepository) Insert(ctx context.Context, sc *scenario.Scenario) error {
	query := `
		INSERT INTO scenarios (` + scenarioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		sc.ID,
		sc.UserID,
		sc.ProjectID,
		string(sc.Module),
		sc.Name,
		string(sc.Status),
		sc.CreatedAt,
		sc.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

// Get retrieves a scenario by ID.
func (r *ScenarioRepository) Get(ctx context.Context, userID, id string) (*scenario.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID), "get scenario")
}

// FindInScope returns the reuse target for (project, module) under the policy.
func (r *ScenarioRepository) FindInScope(ctx context.Context, userID, projectID string, module scenario.ModuleType, policy repository.ReusePolicy) (*scenario.Scenario, error) {
	order := "created_at ASC, id ASC"
	if policy == repository.ReuseLastUpdated {
		order = "updated_at DESC, id DESC"
	}
	query := `
		SELECT ` + scenarioColumns + `
		FROM scenarios
		WHERE user_id = $1 AND project_id = $2 AND module_type = $3
		ORDER BY ` + order + `
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, projectID, string(module)), "find scenario in scope")
}

// FindByName retrieves a scenario by exact name within its scope.
func (r *ScenarioRepository) FindByName(ctx context.Context, userID, projectID string, module scenario.ModuleType, name string) (*scenario.Scenario, error) {
	query := `
		SELECT ` + scenarioColumns + `
		FROM scenarios
		WHERE user_id = $1 AND project_id = $2 AND module_type = $3 AND name = $4
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, projectID, string(module), name), "find scenario by name")
}

// ListNames returns the scenario names in a (project, module) scope.
func (r *ScenarioRepository) ListNames(ctx context.Context, userID, projectID string, module scenario.ModuleType) ([]string, error) {
	query := `SELECT name FROM scenarios WHERE user_id = $1 AND project_id = $2 AND module_type = $3`
	rows, err := r.db.QueryContext(ctx, query, userID, projectID, string(module))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenario names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan scenario name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// List returns a project's scenarios, most recently created first.
func (r *ScenarioRepository) List(ctx context.Context, userID, projectID string, module scenario.ModuleType) ([]scenario.Scenario, error) {
	query := `
		SELECT ` + scenarioColumns + `
		FROM scenarios
		WHERE user_id = $1 AND project_id = $2
	`
	args := []any{userID, projectID}
	if module != "" {
		query += ` AND module_type = $3`
		args = append(args, string(module))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []scenario.Scenario
	for rows.Next() {
		sc, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *sc)
	}
	return scenarios, rows.Err()
}

// UpdateName renames a scenario.
func (r *ScenarioRepository) UpdateName(ctx context.Context, userID, id, name string) error {
	query := `UPDATE scenarios SET name = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	res, err := r.db.ExecContext(ctx, query, name, time.Now(), id, userID)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to rename scenario: %w", err)
	}
	return requireRowAffected(res)
}

// UpdateStatus sets the scenario status.
func (r *ScenarioRepository) UpdateStatus(ctx context.Context, userID, id string, status scenario.Status) error {
	query := `UPDATE scenarios SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	res, err := r.db.ExecContext(ctx, query, string(status), time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update scenario status: %w", err)
	}
	return requireRowAffected(res)
}

// Delete removes a scenario and, via cascade, its results.
func (r *ScenarioRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	return requireRowAffected(res)
}

func (r *ScenarioRepository) scanOne(row *sql.Row, op string) (*scenario.Scenario, error) {
	sc, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return sc, nil
}

func (r *ScenarioRepository) scanRow(row rowScanner) (*scenario.Scenario, error) {
	var sc scenario.Scenario
	var module, status string
	err := row.Scan(
		&sc.ID,
		&sc.UserID,
		&sc.ProjectID,
		&module,
		&sc.Name,
		&status,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sc.Module = scenario.ModuleType(module)
	sc.Status = scenario.Status(status)
	return &sc, nil
}
