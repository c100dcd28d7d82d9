package scenario_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/naming"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/chainplan/chainplan/internal/repository/mocks"
)

func TestScenarioService_EnsureReusesExisting(t *testing.T) {
	ctx := context.Background()
	existing := &scenario.Scenario{ID: "s1", ProjectID: "p1", Module: scenario.ModuleGFA, Name: "Scenario 1"}

	repo := &mocks.ScenarioRepository{}
	repo.On("FindInScope", ctx, "user1", "p1", scenario.ModuleGFA, repository.ReuseFirstCreated).
		Return(existing, nil)

	svc := scenario.NewService(repo, nil)
	got, err := svc.Ensure(ctx, "user1", "p1", scenario.ModuleGFA)
	require.NoError(t, err)
	require.Equal(t, "s1", got.ID)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestScenarioService_EnsureCreatesWithAutoName(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ScenarioRepository{}
	repo.On("FindInScope", ctx, "user1", "p1", scenario.ModuleGFA, repository.ReuseFirstCreated).
		Return((*scenario.Scenario)(nil), repository.ErrNotFound)
	repo.On("ListNames", ctx, "user1", "p1", scenario.ModuleGFA).
		Return([]string{"Scenario 1", "Scenario 2"}, nil)
	repo.On("Insert", ctx, mock.Anything).Return(nil)

	svc := scenario.NewService(repo, nil)
	got, err := svc.Ensure(ctx, "user1", "p1", scenario.ModuleGFA)
	require.NoError(t, err)
	require.Equal(t, "Scenario 3", got.Name)
	require.Equal(t, scenario.StatusPending, got.Status)
	require.Equal(t, "p1", got.ProjectID)
}

func TestScenarioService_EnsureRecoversCreateRace(t *testing.T) {
	ctx := context.Background()
	winner := &scenario.Scenario{ID: "winner", ProjectID: "p1", Module: scenario.ModuleGFA, Name: "Scenario 1"}

	repo := &mocks.ScenarioRepository{}
	repo.On("FindInScope", ctx, "user1", "p1", scenario.ModuleGFA, repository.ReuseFirstCreated).
		Return((*scenario.Scenario)(nil), repository.ErrNotFound).Once()
	repo.On("ListNames", ctx, "user1", "p1", scenario.ModuleGFA).Return([]string{}, nil)
	repo.On("Insert", ctx, mock.Anything).Return(repository.ErrConflict).Once()
	repo.On("FindInScope", ctx, "user1", "p1", scenario.ModuleGFA, repository.ReuseFirstCreated).
		Return(winner, nil).Once()

	svc := scenario.NewService(repo, nil)
	got, err := svc.Ensure(ctx, "user1", "p1", scenario.ModuleGFA)
	require.NoError(t, err)
	require.Equal(t, "winner", got.ID)
	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestScenarioService_EnsureMissingProject(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ScenarioRepository{}
	repo.On("FindInScope", ctx, "user1", "ghost", scenario.ModuleGFA, repository.ReuseFirstCreated).
		Return((*scenario.Scenario)(nil), repository.ErrNotFound)
	repo.On("ListNames", ctx, "user1", "ghost", scenario.ModuleGFA).Return([]string{}, nil)
	repo.On("Insert", ctx, mock.Anything).Return(repository.ErrForeignKeyViolation)

	svc := scenario.NewService(repo, nil)
	_, err := svc.Ensure(ctx, "user1", "ghost", scenario.ModuleGFA)
	require.ErrorIs(t, err, scenario.ErrProjectNotFound)
}

func TestScenarioService_EnsureValidation(t *testing.T) {
	svc := scenario.NewService(&mocks.ScenarioRepository{}, nil)

	_, err := svc.Ensure(context.Background(), "", "p1", scenario.ModuleGFA)
	require.ErrorIs(t, err, scenario.ErrNotAuthenticated)
	_, err = svc.Ensure(context.Background(), "user1", "", scenario.ModuleGFA)
	require.ErrorIs(t, err, scenario.ErrInvalidInput)
	_, err = svc.Ensure(context.Background(), "user1", "p1", "warehouse")
	require.ErrorIs(t, err, scenario.ErrInvalidInput)
}

func TestScenarioService_RenameConflict(t *testing.T) {
	ctx := context.Background()
	current := &scenario.Scenario{ID: "s1", ProjectID: "p1", Module: scenario.ModuleGFA, Name: "Scenario 1"}
	other := &scenario.Scenario{ID: "s2", ProjectID: "p1", Module: scenario.ModuleGFA, Name: "Taken"}

	repo := &mocks.ScenarioRepository{}
	repo.On("Get", ctx, "user1", "s1").Return(current, nil)
	repo.On("FindByName", ctx, "user1", "p1", scenario.ModuleGFA, "Taken").Return(other, nil)

	svc := scenario.NewService(repo, nil)
	err := svc.Rename(ctx, "user1", "s1", "Taken")

	var conflict *naming.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "Taken", conflict.Name)
	repo.AssertNotCalled(t, "UpdateName", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScenarioService_RenameToOwnNameSucceeds(t *testing.T) {
	ctx := context.Background()
	current := &scenario.Scenario{ID: "s1", ProjectID: "p1", Module: scenario.ModuleGFA, Name: "Mine"}

	repo := &mocks.ScenarioRepository{}
	repo.On("Get", ctx, "user1", "s1").Return(current, nil)
	repo.On("FindByName", ctx, "user1", "p1", scenario.ModuleGFA, "Mine").Return(current, nil)
	repo.On("UpdateName", ctx, "user1", "s1", "Mine").Return(nil)

	svc := scenario.NewService(repo, nil)
	require.NoError(t, svc.Rename(ctx, "user1", "s1", "Mine"))
}

func TestScenarioService_RenameRaceConvertsConflict(t *testing.T) {
	ctx := context.Background()
	current := &scenario.Scenario{ID: "s1", ProjectID: "p1", Module: scenario.ModuleGFA, Name: "Scenario 1"}

	repo := &mocks.ScenarioRepository{}
	repo.On("Get", ctx, "user1", "s1").Return(current, nil)
	repo.On("FindByName", ctx, "user1", "p1", scenario.ModuleGFA, "Taken").
		Return((*scenario.Scenario)(nil), repository.ErrNotFound)
	repo.On("UpdateName", ctx, "user1", "s1", "Taken").Return(repository.ErrConflict)

	svc := scenario.NewService(repo, nil)
	err := svc.Rename(ctx, "user1", "s1", "Taken")

	var conflict *naming.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestScenarioService_SetStatusTransitions(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		from scenario.Status
		to   scenario.Status
		ok   bool
	}{
		{scenario.StatusPending, scenario.StatusRunning, true},
		{scenario.StatusRunning, scenario.StatusCompleted, true},
		{scenario.StatusRunning, scenario.StatusFailed, true},
		{scenario.StatusFailed, scenario.StatusPending, true},
		{scenario.StatusPending, scenario.StatusCompleted, false},
		{scenario.StatusCompleted, scenario.StatusRunning, false},
		{scenario.StatusCompleted, scenario.StatusPending, false},
	}

	for _, tc := range cases {
		repo := &mocks.ScenarioRepository{}
		repo.On("Get", ctx, "user1", "s1").
			Return(&scenario.Scenario{ID: "s1", Status: tc.from}, nil)
		if tc.ok {
			repo.On("UpdateStatus", ctx, "user1", "s1", tc.to).Return(nil)
		}

		svc := scenario.NewService(repo, nil)
		got, err := svc.SetStatus(ctx, "user1", "s1", tc.to)
		if tc.ok {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			require.Equal(t, tc.to, got.Status)
		} else {
			require.ErrorIs(t, err, scenario.ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		}
	}
}
