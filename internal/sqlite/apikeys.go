package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chainplan/chainplan/internal/repository"
)

// APIKeyRepository implements repository.APIKeyRepository for SQLite.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository.
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Insert stores a new API key hash.
func (r *APIKeyRepository) Insert(ctx context.Context, key *repository.APIKey) error {
	query := `INSERT INTO api_keys (key_hash, user_id, description, created_at) VALUES (?, ?, ?, ?)`
	created := key.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, key.KeyHash, key.UserID, key.Description, created)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// FindUserByHash resolves the owning user of a key hash and touches the
// last-used timestamp.
func (r *APIKeyRepository) FindUserByHash(ctx context.Context, keyHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, keyHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up api key: %w", err)
	}

	_, _ = r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now(), keyHash)
	return userID, nil
}

// List returns all stored API keys.
func (r *APIKeyRepository) List(ctx context.Context) ([]repository.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key_hash, user_id, description, created_at, last_used FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []repository.APIKey
	for rows.Next() {
		var key repository.APIKey
		var desc sql.NullString
		var lastUsed sql.NullTime
		if err := rows.Scan(&key.KeyHash, &key.UserID, &desc, &key.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		key.Description = desc.String
		if lastUsed.Valid {
			t := lastUsed.Time
			key.LastUsed = &t
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
