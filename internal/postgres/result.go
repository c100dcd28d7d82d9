package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/shopspring/decimal"
)

// ResultRepository implements result.Repository for PostgreSQL.
type ResultRepository struct {
	db *DB
}

var _ result.Repository = (*ResultRepository)(nil)

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const resultColumns = `id, user_id, scenario_id, project_id, module_type, name, result_number, metrics, blob_key, size_bytes, version, created_at`

// Insert creates a new result row, mapping either per-scenario uniqueness
// constraint to repository.ErrConflict.
func (r *ResultRepository) Insert(ctx context.Context, res *result.Result) error {
	metricsJSON, err := encodeMetrics(res.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode result metrics: %w", err)
	}

	query := `
		INSERT INTO results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		res.ID,
		res.UserID,
		res.ScenarioID,
		res.ProjectID,
		string(res.Module),
		res.Name,
		res.Number,
		metricsJSON,
		res.BlobKey,
		res.SizeBytes,
		res.Version,
		res.CreatedAt,
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return repository.ErrForeignKeyViolation
	}
	if err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

// Get retrieves a result by ID.
func (r *ResultRepository) Get(ctx context.Context, userID, id string) (*result.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID), "get result")
}

// FindByName retrieves a result by exact name within a scenario.
func (r *ResultRepository) FindByName(ctx context.Context, userID, scenarioID, name string) (*result.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE user_id = $1 AND scenario_id = $2 AND name = $3`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, scenarioID, name), "find result by name")
}

// ListNames returns the result names in a scenario.
func (r *ResultRepository) ListNames(ctx context.Context, userID, scenarioID string) ([]string, error) {
	query := `SELECT name FROM results WHERE user_id = $1 AND scenario_id = $2`
	rows, err := r.db.QueryContext(ctx, query, userID, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list result names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan result name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// MaxNumber returns the highest result_number in the scenario, 0 if none.
func (r *ResultRepository) MaxNumber(ctx context.Context, userID, scenarioID string) (int, error) {
	query := `SELECT COALESCE(MAX(result_number), 0) FROM results WHERE user_id = $1 AND scenario_id = $2`
	var max int
	if err := r.db.QueryRowContext(ctx, query, userID, scenarioID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max result number: %w", err)
	}
	return max, nil
}

// List returns a page of the scenario's results, most recent first.
func (r *ResultRepository) List(ctx context.Context, userID, scenarioID string, limit, offset int) ([]result.Result, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM results
		WHERE user_id = $1 AND scenario_id = $2
		ORDER BY created_at DESC, result_number DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, userID, scenarioID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []result.Result
	for rows.Next() {
		res, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// UpdateName renames a result.
func (r *ResultRepository) UpdateName(ctx context.Context, userID, id, name string) error {
	query := `UPDATE results SET name = $1 WHERE id = $2 AND user_id = $3`
	res, err := r.db.ExecContext(ctx, query, name, id, userID)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to rename result: %w", err)
	}
	return requireRowAffected(res)
}

// Delete removes a result row.
func (r *ResultRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return requireRowAffected(res)
}

func (r *ResultRepository) scanOne(row *sql.Row, op string) (*result.Result, error) {
	res, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return res, nil
}

func (r *ResultRepository) scanRow(row rowScanner) (*result.Result, error) {
	var res result.Result
	var module string
	var metricsJSON sql.NullString
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.ScenarioID,
		&res.ProjectID,
		&module,
		&res.Name,
		&res.Number,
		&metricsJSON,
		&res.BlobKey,
		&res.SizeBytes,
		&res.Version,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Module = scenario.ModuleType(module)
	if metricsJSON.Valid && metricsJSON.String != "" {
		if err := json.Unmarshal([]byte(metricsJSON.String), &res.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode result metrics: %w", err)
		}
	}
	return &res, nil
}

func encodeMetrics(m map[string]decimal.Decimal) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
