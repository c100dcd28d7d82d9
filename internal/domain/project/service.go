package project

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

// Service handles project operations.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	reuse   repository.ReusePolicy
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithReusePolicy overrides which existing project Ensure reuses.
func WithReusePolicy(policy repository.ReusePolicy) Option {
	return func(s *Service) { s.reuse = policy }
}

// WithMetrics wires workflow counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new project service. The default reuse policy is
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

// Ensure returns the working project for (userID, tool), creating it with an
// auto-generated name if none exists. Idempotent: repeated and concurrent
// calls converge on one row. A lost create race is recovered by re-querying;
// the insert is never repeated on that path.
func (s *Service) Ensure(ctx context.Context, userID string, tool ToolType) (*Project, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	if !tool.Valid() {
		return nil, ErrInvalidInput
	}

	proj, err := s.repo.FindByTool(ctx, userID, tool, s.reuse)
	if err == nil {
		return proj, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("finding project: %w", err)
	}

	// Project names are unique per user, so the sequence runs over every
	// name the user owns, not just this tool's.
	names, err := s.repo.ListNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing project names: %w", err)
	}

	now := time.Now()
	proj = &Project{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      naming.NextAutoName(names, tool.NameBase()),
		Tool:      tool,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.Insert(ctx, proj)
	if err == nil {
		return proj, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	// A concurrent caller created the project first; its row is visible now.
	s.metrics.IncRaceRecovered()
	s.logger.Info("recovered project create race", "user_id", userID, "tool", tool)
	existing, err := s.repo.FindByTool(ctx, userID, tool, s.reuse)
	if err != nil {
		return nil, fmt.Errorf("recovering after create race: %w", err)
	}
	return existing, nil
}

// Rename updates a project's name after checking it isn't taken by another
// project of the same user. A constraint violation from a concurrent rename
// converts to the same conflict error as the pre-check.
func (s *Service) Rename(ctx context.Context, userID, id, newName string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || id == "" {
		return ErrInvalidInput
	}

	existing, err := s.repo.FindByName(ctx, userID, newName)
	if err == nil && existing.ID != id {
		s.metrics.IncNameConflict()
		return &naming.ConflictError{Name: newName}
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("checking project name: %w", err)
	}

	if err := s.repo.UpdateName(ctx, userID, id, newName); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.metrics.IncNameConflict()
			return &naming.ConflictError{Name: newName}
		case errors.Is(err, repository.ErrNotFound):
			return ErrProjectNotFound
		}
		return fmt.Errorf("renaming project: %w", err)
	}
	return nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Project, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	proj, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns all projects owned by the user.
func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	return s.repo.List(ctx, userID)
}

// UpdateData replaces a project's opaque input/results payloads.
func (s *Service) UpdateData(ctx context.Context, userID, id string, input, results []byte, sizeMB float64) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	if err := s.repo.UpdateData(ctx, userID, id, input, results, sizeMB); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("updating project data: %w", err)
	}
	return nil
}

// Delete removes a project. The core never deletes projects on its own; this
// only serves explicit caller requests.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}
