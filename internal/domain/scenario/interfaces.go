package scenario

import (
	"context"

	"github.com/chainplan/chainplan/internal/repository"
)

// Repository provides persistence for scenarios. The store enforces the
// (project_id, module_type, name) uniqueness constraint.
type Repository interface {
	Insert(ctx context.Context, sc *Scenario) error
	Get(ctx context.Context, userID, id string) (*Scenario, error)
	FindInScope(ctx context.Context, userID, projectID string, module ModuleType, policy repository.ReusePolicy) (*Scenario, error)
	FindByName(ctx context.Context, userID, projectID string, module ModuleType, name string) (*Scenario, error)
	ListNames(ctx context.Context, userID, projectID string, module ModuleType) ([]string, error)
	List(ctx context.Context, userID, projectID string, module ModuleType) ([]Scenario, error)
	UpdateName(ctx context.Context, userID, id, name string) error
	UpdateStatus(ctx context.Context, userID, id string, status Status) error
	Delete(ctx context.Context, userID, id string) error
}
