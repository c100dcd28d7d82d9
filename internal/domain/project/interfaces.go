package project

import (
	"context"

	"github.com/chainplan/chainplan/internal/repository"
)

// Repository provides persistence for projects. All scope filters are exact
// equality on the supplied fields; the store enforces the (user_id, name)
// uniqueness constraint.
type Repository interface {
	Insert(ctx context.Context, proj *Project) error
	Get(ctx context.Context, userID, id string) (*Project, error)
	FindByTool(ctx context.Context, userID string, tool ToolType, policy repository.ReusePolicy) (*Project, error)
	FindByName(ctx context.Context, userID, name string) (*Project, error)
	ListNames(ctx context.Context, userID string) ([]string, error)
	List(ctx context.Context, userID string) ([]Project, error)
	UpdateName(ctx context.Context, userID, id, name string) error
	UpdateData(ctx context.Context, userID, id string, input, results []byte, sizeMB float64) error
	Delete(ctx context.Context, userID, id string) error
}
