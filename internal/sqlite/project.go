package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite.
type ProjectRepository struct {
	db *DB
}

var _ project.Repository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, user_id, name, tool_type, description, input_data, results_data, size_mb, created_at, updated_at`

// Insert creates a new project. A (user_id, name) collision maps to
// repository.ErrConflict.
func (r *ProjectRepository) Insert(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.UserID,
		proj.Name,
		string(proj.Tool),
		proj.Description,
		nullableBlob(proj.InputData),
		nullableBlob(proj.ResultsData),
		proj.SizeMB,
		proj.CreatedAt,
		proj.UpdatedAt,
	)

	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID.
func (r *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ? AND user_id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID), "get project")
}

// FindByTool returns the reuse target for (user, tool) according to the
// policy: the oldest row for first-created, the most recently touched row
// for last-updated. Ties break on id for determinism.
func (r *ProjectRepository) FindByTool(ctx context.Context, userID string, tool project.ToolType, policy repository.ReusePolicy) (*project.Project, error) {
	order := "created_at ASC, id ASC"
	if policy == repository.ReuseLastUpdated {
		order = "updated_at DESC, id DESC"
	}
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE user_id = ? AND tool_type = ?
		ORDER BY ` + order + `
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, string(tool)), "find project by tool")
}

// FindByName retrieves a user's project by exact name.
func (r *ProjectRepository) FindByName(ctx context.Context, userID, name string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ? AND name = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, name), "find project by name")
}

// ListNames returns all project names owned by the user.
func (r *ProjectRepository) ListNames(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM projects WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan project name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// List returns all projects owned by the user, most recently created first.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]project.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		proj, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *proj)
	}
	return projects, rows.Err()
}

// UpdateName renames a project. A name collision maps to
// repository.ErrConflict, a missing row to repository.ErrNotFound.
func (r *ProjectRepository) UpdateName(ctx context.Context, userID, id, name string) error {
	query := `UPDATE projects SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, name, time.Now(), id, userID)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}
	return requireRowAffected(res)
}

// UpdateData replaces the opaque payload blobs.
func (r *ProjectRepository) UpdateData(ctx context.Context, userID, id string, input, results []byte, sizeMB float64) error {
	query := `
		UPDATE projects
		SET input_data = ?, results_data = ?, size_mb = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := r.db.ExecContext(ctx, query, nullableBlob(input), nullableBlob(results), sizeMB, time.Now(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update project data: %w", err)
	}
	return requireRowAffected(res)
}

// Delete removes a project and, via cascade, its scenarios and results.
func (r *ProjectRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProjectRepository) scanOne(row *sql.Row, op string) (*project.Project, error) {
	proj, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return proj, nil
}

func (r *ProjectRepository) scanRow(row rowScanner) (*project.Project, error) {
	var proj project.Project
	var tool string
	var input, results sql.NullString
	err := row.Scan(
		&proj.ID,
		&proj.UserID,
		&proj.Name,
		&tool,
		&proj.Description,
		&input,
		&results,
		&proj.SizeMB,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	proj.Tool = project.ToolType(tool)
	if input.Valid {
		proj.InputData = []byte(input.String)
	}
	if results.Valid {
		proj.ResultsData = []byte(results.String)
	}
	return &proj, nil
}

func nullableBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
