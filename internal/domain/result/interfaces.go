package result

import "context"

// Repository provides persistence for results. The store enforces both the
// (scenario_id, name) and (scenario_id, result_number) uniqueness constraints;
// either one firing surfaces as repository.ErrConflict.
type Repository interface {
	Insert(ctx context.Context, res *Result) error
	Get(ctx context.Context, userID, id string) (*Result, error)
	FindByName(ctx context.Context, userID, scenarioID, name string) (*Result, error)
	ListNames(ctx context.Context, userID, scenarioID string) ([]string, error)
	// MaxNumber returns the highest result_number in the scenario, 0 if none.
	MaxNumber(ctx context.Context, userID, scenarioID string) (int, error)
	List(ctx context.Context, userID, scenarioID string, limit, offset int) ([]Result, error)
	UpdateName(ctx context.Context, userID, id, name string) error
	Delete(ctx context.Context, userID, id string) error
}

// PayloadStore persists the opaque output payload of a result outside the
// row store. Keys are derived from result IDs, so a retried insert reuses
// the already written payload.
type PayloadStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
