// Package mocks provides testify mocks for the repository contracts.
package mocks

import (
	"context"

	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

var _ project.Repository = (*ProjectRepository)(nil)

func (m *ProjectRepository) Insert(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	args := m.Called(ctx, userID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) FindByTool(ctx context.Context, userID string, tool project.ToolType, policy repository.ReusePolicy) (*project.Project, error) {
	args := m.Called(ctx, userID, tool, policy)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) FindByName(ctx context.Context, userID, name string) (*project.Project, error) {
	args := m.Called(ctx, userID, name)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListNames(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if names, ok := args.Get(0).([]string); ok {
		return names, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, userID string) ([]project.Project, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateName(ctx context.Context, userID, id, name string) error {
	args := m.Called(ctx, userID, id, name)
	return args.Error(0)
}

func (m *ProjectRepository) UpdateData(ctx context.Context, userID, id string, input, results []byte, sizeMB float64) error {
	args := m.Called(ctx, userID, id, input, results, sizeMB)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// ScenarioRepository is a mock for scenario.Repository.
type ScenarioRepository struct {
	mock.Mock
}

var _ scenario.Repository = (*ScenarioRepository)(nil)

func (m *ScenarioRepository) Insert(ctx context.Context, sc *scenario.Scenario) error {
	args := m.Called(ctx, sc)
	return args.Error(0)
}

func (m *ScenarioRepository) Get(ctx context.Context, userID, id string) (*scenario.Scenario, error) {
	args := m.Called(ctx, userID, id)
	if sc, ok := args.Get(0).(*scenario.Scenario); ok {
		return sc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScenarioRepository) FindInScope(ctx context.Context, userID, projectID string, module scenario.ModuleType, policy repository.ReusePolicy) (*scenario.Scenario, error) {
	args := m.Called(ctx, userID, projectID, module, policy)
	if sc, ok := args.Get(0).(*scenario.Scenario); ok {
		return sc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScenarioRepository) FindByName(ctx context.Context, userID, projectID string, module scenario.ModuleType, name string) (*scenario.Scenario, error) {
	args := m.Called(ctx, userID, projectID, module, name)
	if sc, ok := args.Get(0).(*scenario.Scenario); ok {
		return sc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScenarioRepository) ListNames(ctx context.Context, userID, projectID string, module scenario.ModuleType) ([]string, error) {
	args := m.Called(ctx, userID, projectID, module)
	if names, ok := args.Get(0).([]string); ok {
		return names, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScenarioRepository) List(ctx context.Context, userID, projectID string, module scenario.ModuleType) ([]scenario.Scenario, error) {
	args := m.Called(ctx, userID, projectID, module)
	if list, ok := args.Get(0).([]scenario.Scenario); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScenarioRepository) UpdateName(ctx context.Context, userID, id, name string) error {
	args := m.Called(ctx, userID, id, name)
	return args.Error(0)
}

func (m *ScenarioRepository) UpdateStatus(ctx context.Context, userID, id string, status scenario.Status) error {
	args := m.Called(ctx, userID, id, status)
	return args.Error(0)
}

func (m *ScenarioRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// ResultRepository is a mock for result.Repository.
type ResultRepository struct {
	mock.Mock
}

var _ result.Repository = (*ResultRepository)(nil)

func (m *ResultRepository) Insert(ctx context.Context, res *result.Result) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *ResultRepository) Get(ctx context.Context, userID, id string) (*result.Result, error) {
	args := m.Called(ctx, userID, id)
	if res, ok := args.Get(0).(*result.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResultRepository) FindByName(ctx context.Context, userID, scenarioID, name string) (*result.Result, error) {
	args := m.Called(ctx, userID, scenarioID, name)
	if res, ok := args.Get(0).(*result.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResultRepository) ListNames(ctx context.Context, userID, scenarioID string) ([]string, error) {
	args := m.Called(ctx, userID, scenarioID)
	if names, ok := args.Get(0).([]string); ok {
		return names, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResultRepository) MaxNumber(ctx context.Context, userID, scenarioID string) (int, error) {
	args := m.Called(ctx, userID, scenarioID)
	return args.Int(0), args.Error(1)
}

func (m *ResultRepository) List(ctx context.Context, userID, scenarioID string, limit, offset int) ([]result.Result, error) {
	args := m.Called(ctx, userID, scenarioID, limit, offset)
	if list, ok := args.Get(0).([]result.Result); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResultRepository) UpdateName(ctx context.Context, userID, id, name string) error {
	args := m.Called(ctx, userID, id, name)
	return args.Error(0)
}

func (m *ResultRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
