package result_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chainplan/chainplan/internal/blob"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/naming"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/chainplan/chainplan/internal/repository/mocks"
)

func newCreateRequest() result.CreateRequest {
	return result.CreateRequest{
		ScenarioID: "s1",
		ProjectID:  "p1",
		Module:     scenario.ModuleGFA,
		Metrics: map[string]decimal.Decimal{
			"total_cost": decimal.RequireFromString("99.50"),
		},
		Payload: []byte(`{"routes":[]}`),
	}
}

func TestResultService_CreateFirstResult(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ResultRepository{}
	repo.On("MaxNumber", ctx, "user1", "s1").Return(0, nil)
	repo.On("ListNames", ctx, "user1", "s1").Return([]string{}, nil)
	repo.On("Insert", ctx, mock.Anything).Return(nil)

	svc := result.NewService(repo, blob.NewMemory(), nil)
	handle, err := svc.Create(ctx, "user1", newCreateRequest())
	require.NoError(t, err)
	require.Equal(t, "Result 1", handle.Name)
	require.Equal(t, 1, handle.Number)
	require.NotEmpty(t, handle.ID)
	require.False(t, handle.CreatedAt.IsZero())
}

func TestResultService_NumbersAreMonotonicNamesFillGaps(t *testing.T) {
	ctx := context.Background()

	// Result 2 was deleted: the name sequence reuses "Result 2" but the
	// number sequence continues past the all-time max.
	repo := &mocks.ResultRepository{}
	repo.On("MaxNumber", ctx, "user1", "s1").Return(3, nil)
	repo.On("ListNames", ctx, "user1", "s1").Return([]string{"Result 1", "Result 3"}, nil)
	var inserted *result.Result
	repo.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(*result.Result)
	}).Return(nil)

	svc := result.NewService(repo, blob.NewMemory(), nil)
	handle, err := svc.Create(ctx, "user1", newCreateRequest())
	require.NoError(t, err)
	require.Equal(t, 4, handle.Number, "numbers are never reused")
	require.Equal(t, "Result 2", handle.Name, "names fill gaps")
	require.Equal(t, 1, inserted.Version)
}

func TestResultService_CreateRetriesOnceOnConflict(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ResultRepository{}
	// First attempt loses the race on number 1.
	repo.On("MaxNumber", ctx, "user1", "s1").Return(0, nil).Once()
	repo.On("ListNames", ctx, "user1", "s1").Return([]string{}, nil).Once()
	repo.On("Insert", ctx, mock.Anything).Return(repository.ErrConflict).Once()
	// Retry recomputes against the winner's now-visible row.
	repo.On("MaxNumber", ctx, "user1", "s1").Return(1, nil).Once()
	repo.On("ListNames", ctx, "user1", "s1").Return([]string{"Result 1"}, nil).Once()
	repo.On("Insert", ctx, mock.Anything).Return(nil).Once()

	svc := result.NewService(repo, blob.NewMemory(), nil)
	handle, err := svc.Create(ctx, "user1", newCreateRequest())
	require.NoError(t, err)
	require.Equal(t, 2, handle.Number)
	require.Equal(t, "Result 2", handle.Name)
	repo.AssertExpectations(t)
}

func TestResultService_CreateGivesUpAfterSecondConflict(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ResultRepository{}
	repo.On("MaxNumber", ctx, "user1", "s1").Return(0, nil)
	repo.On("ListNames", ctx, "user1", "s1").Return([]string{}, nil)
	repo.On("Insert", ctx, mock.Anything).Return(repository.ErrConflict)

	svc := result.NewService(repo, blob.NewMemory(), nil)
	_, err := svc.Create(ctx, "user1", newCreateRequest())
	require.ErrorIs(t, err, result.ErrRaceExhausted)
	// Bounded retry: exactly two insert attempts, never a loop.
	repo.AssertNumberOfCalls(t, "Insert", 2)
}

func TestResultService_CreateMissingScenario(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ResultRepository{}
	repo.On("MaxNumber", ctx, "user1", "s1").Return(0, nil)
	repo.On("ListNames", ctx, "user1", "s1").Return([]string{}, nil)
	repo.On("Insert", ctx, mock.Anything).Return(repository.ErrForeignKeyViolation)

	svc := result.NewService(repo, blob.NewMemory(), nil)
	_, err := svc.Create(ctx, "user1", newCreateRequest())
	require.ErrorIs(t, err, result.ErrScenarioNotFound)
}

func TestResultService_CreateValidation(t *testing.T) {
	svc := result.NewService(&mocks.ResultRepository{}, blob.NewMemory(), nil)

	_, err := svc.Create(context.Background(), "", newCreateRequest())
	require.ErrorIs(t, err, result.ErrNotAuthenticated)

	req := newCreateRequest()
	req.ScenarioID = ""
	_, err = svc.Create(context.Background(), "user1", req)
	require.ErrorIs(t, err, result.ErrInvalidInput)
}

func TestResultService_CreateStoresPayload(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ResultRepository{}
	repo.On("MaxNumber", ctx, "user1", "s1").Return(0, nil)
	repo.On("ListNames", ctx, "user1", "s1").Return([]string{}, nil)
	var inserted *result.Result
	repo.On("Insert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(*result.Result)
	}).Return(nil)

	payloads := blob.NewMemory()
	svc := result.NewService(repo, payloads, nil)
	_, err := svc.Create(ctx, "user1", newCreateRequest())
	require.NoError(t, err)

	stored, err := payloads.Get(ctx, inserted.BlobKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"routes":[]}`, string(stored))
	require.Equal(t, int64(len(`{"routes":[]}`)), inserted.SizeBytes)
}

func TestResultService_GetLoadsPayload(t *testing.T) {
	ctx := context.Background()
	payloads := blob.NewMemory()
	require.NoError(t, payloads.Put(ctx, "results/s1/r1.json", []byte(`{"ok":true}`), "application/json"))

	repo := &mocks.ResultRepository{}
	repo.On("Get", ctx, "user1", "r1").Return(&result.Result{
		ID: "r1", ScenarioID: "s1", Name: "Result 1", Number: 1,
		BlobKey: "results/s1/r1.json",
	}, nil)

	svc := result.NewService(repo, payloads, nil)
	res, payload, err := svc.Get(ctx, "user1", "r1")
	require.NoError(t, err)
	require.Equal(t, "Result 1", res.Name)
	require.JSONEq(t, `{"ok":true}`, string(payload))
}

func TestResultService_RenameConflict(t *testing.T) {
	ctx := context.Background()
	current := &result.Result{ID: "r1", ScenarioID: "s1", Name: "Result 1"}
	other := &result.Result{ID: "r2", ScenarioID: "s1", Name: "Taken"}

	repo := &mocks.ResultRepository{}
	repo.On("Get", ctx, "user1", "r1").Return(current, nil)
	repo.On("FindByName", ctx, "user1", "s1", "Taken").Return(other, nil)

	svc := result.NewService(repo, blob.NewMemory(), nil)
	err := svc.Rename(ctx, "user1", "r1", "Taken")

	var conflict *naming.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "Taken", conflict.Name)
}

func TestResultService_RenameToOwnNameSucceeds(t *testing.T) {
	ctx := context.Background()
	current := &result.Result{ID: "r1", ScenarioID: "s1", Name: "Mine"}

	repo := &mocks.ResultRepository{}
	repo.On("Get", ctx, "user1", "r1").Return(current, nil)
	repo.On("FindByName", ctx, "user1", "s1", "Mine").Return(current, nil)
	repo.On("UpdateName", ctx, "user1", "r1", "Mine").Return(nil)

	svc := result.NewService(repo, blob.NewMemory(), nil)
	require.NoError(t, svc.Rename(ctx, "user1", "r1", "Mine"))
}

func TestResultService_DeleteRemovesPayload(t *testing.T) {
	ctx := context.Background()
	payloads := blob.NewMemory()
	require.NoError(t, payloads.Put(ctx, "results/s1/r1.json", []byte(`{}`), "application/json"))

	repo := &mocks.ResultRepository{}
	repo.On("Get", ctx, "user1", "r1").Return(&result.Result{
		ID: "r1", ScenarioID: "s1", BlobKey: "results/s1/r1.json",
	}, nil)
	repo.On("Delete", ctx, "user1", "r1").Return(nil)

	svc := result.NewService(repo, payloads, nil)
	require.NoError(t, svc.Delete(ctx, "user1", "r1"))

	_, err := payloads.Get(ctx, "results/s1/r1.json")
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestResultService_ListDefaultsPagination(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ResultRepository{}
	repo.On("List", ctx, "user1", "s1", 50, 0).Return([]result.Result{}, nil)

	svc := result.NewService(repo, blob.NewMemory(), nil)
	_, err := svc.List(ctx, "user1", "s1", 0, -5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
