package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chainplan/chainplan/internal/metrics"
	"github.com/chainplan/chainplan/internal/naming"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/google/uuid"
)

// Service handles scenario operations.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	reuse   repository.ReusePolicy
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithReusePolicy overrides which existing scenario Ensure reuses.
func WithReusePolicy(policy repository.ReusePolicy) Option {
	return func(s *Service) { s.reuse = policy }
}

// WithMetrics wires workflow counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new scenario service. The default reuse policy is
// first-created.
func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, logger: logger, reuse: repository.ReuseFirstCreated}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure returns the working scenario for (projectID, module), creating one
// with the next free "Scenario N" name if the scope is empty. Safe to call
// repeatedly and concurrently: a lost create race is recovered by a single
// re-query, never by a second insert.
func (s *Service) Ensure(ctx context.Context, userID, projectID string, module ModuleType) (*Scenario, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	if projectID == "" || !module.Valid() {
		return nil, ErrInvalidInput
	}

	sc, err := s.repo.FindInScope(ctx, userID, projectID, module, s.reuse)
	if err == nil {
		return sc, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("finding scenario: %w", err)
	}

	names, err := s.repo.ListNames(ctx, userID, projectID, module)
	if err != nil {
		return nil, fmt.Errorf("listing scenario names: %w", err)
	}

	now := time.Now()
	sc = &Scenario{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		Module:    module,
		Name:      naming.NextAutoName(names, NameBase),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.Insert(ctx, sc)
	if err == nil {
		return sc, nil
	}
	if errors.Is(err, repository.ErrForeignKeyViolation) {
		return nil, ErrProjectNotFound
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("creating scenario: %w", err)
	}

	s.metrics.IncRaceRecovered()
	s.logger.Info("recovered scenario create race", "project_id", projectID, "module", module)
	existing, err := s.repo.FindInScope(ctx, userID, projectID, module, s.reuse)
	if err != nil {
		return nil, fmt.Errorf("recovering after create race: %w", err)
	}
	return existing, nil
}

// Rename updates a scenario's name after checking it isn't taken within the
// same (project, module) scope.
func (s *Service) Rename(ctx context.Context, userID, id, newName string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || id == "" {
		return ErrInvalidInput
	}

	current, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScenarioNotFound
		}
		return fmt.Errorf("loading scenario: %w", err)
	}

	existing, err := s.repo.FindByName(ctx, userID, current.ProjectID, current.Module, newName)
	if err == nil && existing.ID != id {
		s.metrics.IncNameConflict()
		return &naming.ConflictError{Name: newName}
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("checking scenario name: %w", err)
	}

	if err := s.repo.UpdateName(ctx, userID, id, newName); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.metrics.IncNameConflict()
			return &naming.ConflictError{Name: newName}
		case errors.Is(err, repository.ErrNotFound):
			return ErrScenarioNotFound
		}
		return fmt.Errorf("renaming scenario: %w", err)
	}
	return nil
}

// SetStatus advances the scenario status after validating the transition.
func (s *Service) SetStatus(ctx context.Context, userID, id string, to Status) (*Scenario, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	current, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("loading scenario: %w", err)
	}

	if err := ValidateTransition(current.Status, to); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, userID, id, to); err != nil {
		return nil, fmt.Errorf("updating scenario status: %w", err)
	}
	updated := *current
	updated.Status = to
	updated.UpdatedAt = time.Now()
	return &updated, nil
}

// Get fetches a scenario by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Scenario, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	sc, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("getting scenario: %w", err)
	}
	return sc, nil
}

// List returns the project's scenarios, optionally filtered by module.
func (s *Service) List(ctx context.Context, userID, projectID string, module ModuleType) ([]Scenario, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	if projectID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, userID, projectID, module)
}

// Delete removes a scenario.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScenarioNotFound
		}
		return fmt.Errorf("deleting scenario: %w", err)
	}
	return nil
}
