// Package repository holds the store-level contracts shared by every
// persistence backend: the sentinel errors constraint violations map to, the
// ensure reuse policy, and the API key store. The entity repositories are
// defined by their consumers (project.Repository, scenario.Repository,
// result.Repository) so the backends depend on the domain, never the reverse.
package repository

import (
	"context"
	"time"
)

// APIKey is a stored API credential mapping to an owning user.
type APIKey struct {
	KeyHash     string
	UserID      string
	Description string
	CreatedAt   time.Time
	LastUsed    *time.Time
}

// APIKeyRepository manages API key persistence.
type APIKeyRepository interface {
	Insert(ctx context.Context, key *APIKey) error
	// FindUserByHash resolves the owning user of a key hash and touches
	// its last-used timestamp.
	FindUserByHash(ctx context.Context, keyHash string) (string, error)
	List(ctx context.Context) ([]APIKey, error)
}
