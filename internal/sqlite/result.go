package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/shopspring/decimal"
)

// ResultRepository implements result.Repository for SQLite.
type ResultRepository struct {
	db *DB
}

var _ result.Repository = (*ResultRepository)(nil)

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const resultColumns = `id, user_id, scenario_id, project_id, module_type, name, result_number, metrics, blob_key, size_bytes, version, created_at`

// Insert creates a new result row. Either uniqueness constraint firing
// (name or result_number per scenario) maps to repository.ErrConflict.
func (r *ResultRepository) Insert(ctx context.Context, res *result.Result) error {
	metricsJSON, err := encodeMetrics(res.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode result metrics: %w", err)
	}

	query := `
		INSERT INTO results (` + resultColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
	query := `SELECT ` + resultColumns + ` FROM results WHERE id = ? AND user_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID), "get result")
}

// FindByName retrieves a result by exact name within a scenario.
func (r *ResultRepository) FindByName(ctx context.Context, userID, scenarioID, name string) (*result.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE user_id = ? AND scenario_id = ? AND name = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, scenarioID, name), "find result by name")
}

// ListNames returns the result names in a scenario.
func (r *ResultRepository) ListNames(ctx context.Context, userID, scenarioID string) ([]string, error) {
	query := `SELECT name FROM results WHERE user_id = ? AND scenario_id = ?`
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
// Deleted numbers stay consumed because the maximum only ever grows.
func (r *ResultRepository) MaxNumber(ctx context.Context, userID, scenarioID string) (int, error) {
	query := `SELECT COALESCE(MAX(result_number), 0) FROM results WHERE user_id = ? AND scenario_id = ?`
	var max int
	if err := r.db.QueryRowContext(ctx, query, userID, scenarioID).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max result number: %w", err)
	}
	return max, nil
}

// List returns a page of the scenario's results ordered by created_at
// descending, with result_number as the tie-break.
func (r *ResultRepository) List(ctx context.Context, userID, scenarioID string, limit, offset int) ([]result.Result, error) {
	query := `
		SELECT ` + resultColumns + `
		FROM results
		WHERE user_id = ? AND scenario_id = ?
		ORDER BY created_at DESC, result_number DESC
		LIMIT ? OFFSET ?
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
	query := `UPDATE results SET name = ? WHERE id = ? AND user_id = ?`
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE id = ? AND user_id = ?`, id, userID)
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
	var createdAt time.Time
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
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	res.Module = scenario.ModuleType(module)
	res.CreatedAt = createdAt
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
