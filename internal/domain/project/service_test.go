package project_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/naming"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/chainplan/chainplan/internal/repository/mocks"
)

func TestProjectService_EnsureReusesExisting(t *testing.T) {
	ctx := context.Background()
	existing := &project.Project{ID: "p1", UserID: "user1", Name: "GFA 1", Tool: project.ToolGFA}

	repo := &mocks.ProjectRepository{}
	repo.On("FindByTool", ctx, "user1", project.ToolGFA, repository.ReuseFirstCreated).Return(existing, nil)

	svc := project.NewService(repo, nil)
	got, err := svc.Ensure(ctx, "user1", project.ToolGFA)
	require.NoError(t, err)
	require.Equal(t, "p1", got.ID)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestProjectService_EnsureCreatesWithAutoName(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("FindByTool", ctx, "user1", project.ToolGFA, repository.ReuseFirstCreated).
		Return((*project.Project)(nil), repository.ErrNotFound)
	// Project names are unique per user, so the sequence spans all tools.
	repo.On("ListNames", ctx, "user1").Return([]string{"GFA 1", "GFA 3", "DF 1"}, nil)
	repo.On("Insert", ctx, mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	got, err := svc.Ensure(ctx, "user1", project.ToolGFA)
	require.NoError(t, err)
	require.NotEmpty(t, got.ID)
	require.Equal(t, "GFA 2", got.Name, "fills the gap left at 2")
	require.Equal(t, project.ToolGFA, got.Tool)
	repo.AssertExpectations(t)
}

func TestProjectService_EnsureRecoversCreateRace(t *testing.T) {
	ctx := context.Background()
	winner := &project.Project{ID: "winner", UserID: "user1", Name: "GFA 1", Tool: project.ToolGFA}

	repo := &mocks.ProjectRepository{}
	repo.On("FindByTool", ctx, "user1", project.ToolGFA, repository.ReuseFirstCreated).
		Return((*project.Project)(nil), repository.ErrNotFound).Once()
	repo.On("ListNames", ctx, "user1").Return([]string{}, nil)
	// A concurrent creator wins the insert race.
	repo.On("Insert", ctx, mock.Anything).Return(repository.ErrConflict).Once()
	repo.On("FindByTool", ctx, "user1", project.ToolGFA, repository.ReuseFirstCreated).
		Return(winner, nil).Once()

	svc := project.NewService(repo, nil)
	got, err := svc.Ensure(ctx, "user1", project.ToolGFA)
	require.NoError(t, err)
	require.Equal(t, "winner", got.ID)
	// Exactly one insert attempt; recovery re-queries instead of retrying.
	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestProjectService_EnsureRequiresUser(t *testing.T) {
	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil)

	_, err := svc.Ensure(context.Background(), "", project.ToolGFA)
	require.ErrorIs(t, err, project.ErrNotAuthenticated)
	_, err = svc.Ensure(context.Background(), "   ", project.ToolGFA)
	require.ErrorIs(t, err, project.ErrNotAuthenticated)
	repo.AssertNotCalled(t, "FindByTool", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_EnsureRejectsUnknownTool(t *testing.T) {
	svc := project.NewService(&mocks.ProjectRepository{}, nil)
	_, err := svc.Ensure(context.Background(), "user1", "warehouse")
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_EnsurePropagatesStoreFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection refused")

	repo := &mocks.ProjectRepository{}
	repo.On("FindByTool", ctx, "user1", project.ToolGFA, repository.ReuseFirstCreated).
		Return((*project.Project)(nil), storeErr)

	svc := project.NewService(repo, nil)
	_, err := svc.Ensure(ctx, "user1", project.ToolGFA)
	require.ErrorIs(t, err, storeErr)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestProjectService_EnsureLegacyReusePolicy(t *testing.T) {
	ctx := context.Background()
	recent := &project.Project{ID: "p2", UserID: "user1", Name: "GFA 2", Tool: project.ToolGFA}

	repo := &mocks.ProjectRepository{}
	repo.On("FindByTool", ctx, "user1", project.ToolGFA, repository.ReuseLastUpdated).Return(recent, nil)

	svc := project.NewService(repo, nil, project.WithReusePolicy(repository.ReuseLastUpdated))
	got, err := svc.Ensure(ctx, "user1", project.ToolGFA)
	require.NoError(t, err)
	require.Equal(t, "p2", got.ID)
}

func TestProjectService_RenameConflictPreCheck(t *testing.T) {
	ctx := context.Background()
	other := &project.Project{ID: "p2", UserID: "user1", Name: "Taken"}

	repo := &mocks.ProjectRepository{}
	repo.On("FindByName", ctx, "user1", "Taken").Return(other, nil)

	svc := project.NewService(repo, nil)
	err := svc.Rename(ctx, "user1", "p1", "Taken")

	var conflict *naming.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "Taken", conflict.Name)
	repo.AssertNotCalled(t, "UpdateName", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_RenameToOwnNameSucceeds(t *testing.T) {
	ctx := context.Background()
	self := &project.Project{ID: "p1", UserID: "user1", Name: "Mine"}

	repo := &mocks.ProjectRepository{}
	repo.On("FindByName", ctx, "user1", "Mine").Return(self, nil)
	repo.On("UpdateName", ctx, "user1", "p1", "Mine").Return(nil)

	svc := project.NewService(repo, nil)
	require.NoError(t, svc.Rename(ctx, "user1", "p1", "Mine"))
}

func TestProjectService_RenameRaceConvertsConflict(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("FindByName", ctx, "user1", "Taken").Return((*project.Project)(nil), repository.ErrNotFound)
	// A concurrent renamer wins between the pre-check and the update.
	repo.On("UpdateName", ctx, "user1", "p1", "Taken").Return(repository.ErrConflict)

	svc := project.NewService(repo, nil)
	err := svc.Rename(ctx, "user1", "p1", "Taken")

	var conflict *naming.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "Taken", conflict.Name)
}

func TestProjectService_RenameMissingProject(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ProjectRepository{}
	repo.On("FindByName", ctx, "user1", "New").Return((*project.Project)(nil), repository.ErrNotFound)
	repo.On("UpdateName", ctx, "user1", "missing", "New").Return(repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	require.ErrorIs(t, svc.Rename(ctx, "user1", "missing", "New"), project.ErrProjectNotFound)
}

func TestProjectService_RenameValidation(t *testing.T) {
	svc := project.NewService(&mocks.ProjectRepository{}, nil)
	require.ErrorIs(t, svc.Rename(context.Background(), "user1", "p1", "   "), project.ErrInvalidInput)
	require.ErrorIs(t, svc.Rename(context.Background(), "", "p1", "New"), project.ErrNotAuthenticated)
}
